// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"tyremarket/internal/apperr"
	"tyremarket/internal/listing"
)

// Validation limits for login and catalog fields.
const (
	minEmailLen    = 5
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 255
	maxNameLen     = 255
	maxRating      = 5
	maxFormMemory  = 1 << 20
	// numberClamp keeps absurd inputs inside int range. Anything beyond it is
	// rejected by the range checks anyway.
	numberClamp = 1e9
)

// fields is a flat view of request body values, whether they came from a
// form or a JSON object.
type fields map[string]string

func formFields(v url.Values) fields {
	f := make(fields, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			f[k] = strings.TrimSpace(vals[0])
		}
	}
	return f
}

// jsonFields decodes a JSON object into fields. Numbers keep their literal
// text and null values are treated as absent.
func jsonFields(r io.Reader) (fields, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Validation("Request body must be a JSON object.")
	}
	f := make(fields, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			f[k] = strings.TrimSpace(val)
		case json.Number:
			f[k] = val.String()
		case bool:
			f[k] = strconv.FormatBool(val)
		default:
			f[k] = fmt.Sprint(val)
		}
	}
	return f, nil
}

// bodyFields reads a JSON, multipart or urlencoded request body.
func bodyFields(r *http.Request) (fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return jsonFields(r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, apperr.Validation("Invalid form body.")
		}
		return formFields(r.MultipartForm.Value), nil
	default:
		if err := r.ParseForm(); err != nil {
			return nil, apperr.Validation("Invalid form body.")
		}
		return formFields(r.PostForm), nil
	}
}

// lookup returns the first present value among the given keys.
func (f fields) lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (f fields) uuid(name string, keys ...string) (uuid.UUID, error) {
	v, ok := f.lookup(keys...)
	if !ok {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("%q is required", name))
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("%q must be a valid GUID", name))
	}
	return id, nil
}

func (f fields) number(name string) (float64, error) {
	v, ok := f.lookup(name)
	if !ok {
		return 0, apperr.Validation(fmt.Sprintf("%q is required", name))
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, apperr.Validation(fmt.Sprintf("%q must be a number", name))
	}
	return math.Max(-numberClamp, math.Min(numberClamp, n)), nil
}

func (f fields) integer(name string) (int, error) {
	n, err := f.number(name)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, apperr.Validation(fmt.Sprintf("%q must be an integer", name))
	}
	return int(n), nil
}

func (f fields) boolean(name string) (bool, error) {
	v, ok := f.lookup(name)
	if !ok {
		return false, nil
	}
	switch strings.ToLower(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, apperr.Validation(fmt.Sprintf("%q must be a boolean", name))
}

// tyreInput converts body fields into a listing input, reporting the first
// missing or mistyped field. Range checks happen in the listing service.
// The manufacturer is read from "mnf", or from "manufacturerId" which older
// clients send on update.
func tyreInput(f fields) (listing.Input, error) {
	var in listing.Input
	var err error

	if in.Category, err = f.uuid("category", "category"); err != nil {
		return in, err
	}
	if in.Manufacturer, err = f.uuid("mnf", "mnf", "manufacturerId"); err != nil {
		return in, err
	}
	if in.Type, err = f.uuid("type", "type"); err != nil {
		return in, err
	}
	if in.Seller, err = f.uuid("seller", "seller"); err != nil {
		return in, err
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"width", &in.Width},
		{"height", &in.Height},
		{"rim", &in.Rim},
		{"year", &in.Year},
	}
	for _, i := range ints {
		if *i.dst, err = f.integer(i.name); err != nil {
			return in, err
		}
	}
	if in.Price, err = f.number("price"); err != nil {
		return in, err
	}
	if in.NumberInStock, err = f.integer("numberInStock"); err != nil {
		return in, err
	}
	if in.HomeInstallation, err = f.boolean("homeInstallation"); err != nil {
		return in, err
	}
	return in, nil
}

// validateLogin checks login credentials and returns the first violation.
func validateLogin(email, password string) string {
	if msg := checkLength("email", email, minEmailLen, maxEmailLen); msg != "" {
		return msg
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return `"email" must be a valid email`
	}
	return checkLength("password", password, minPasswordLen, maxPasswordLen)
}

func checkLength(name, v string, lo, hi int) string {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		return fmt.Sprintf("%q is required", name)
	case n < lo:
		return fmt.Sprintf("%q length must be at least %d characters long", name, lo)
	case n > hi:
		return fmt.Sprintf("%q length must be less than or equal to %d characters long", name, hi)
	}
	return ""
}

// validateName checks a catalog entity name.
func validateName(name string) string {
	return checkLength("name", strings.TrimSpace(name), 1, maxNameLen)
}

// validateRating checks a seller rating.
func validateRating(rating float64) string {
	if math.IsNaN(rating) || rating < 0 || rating > maxRating {
		return fmt.Sprintf(`"rating" must be between 0 and %d`, maxRating)
	}
	return ""
}
