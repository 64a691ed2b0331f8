// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "dev-only-jwt-secret-change-me"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache and token sessions)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int
	CacheTTL       time.Duration

	// Auth tokens
	JWTSecret       string
	JWTTTL          time.Duration
	LoginRateLimit  int // attempts per window and client IP
	LoginRateWindow time.Duration

	// Image storage. S3 is used when S3_ENDPOINT and keys are set,
	// otherwise images are written to UploadDir.
	UploadDir   string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
	S3PublicACL bool

	// HTTP
	CORSOrigins []string

	// TrustedProxies are the reverse proxies allowed to name the client in
	// X-Forwarded-For. Empty means the peer address is always the client.
	TrustedProxies []netip.Prefix

	// Seller index reconciliation
	ReconcileInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Variables from the given .env files
// (default ".env") are loaded first without overriding the environment;
// missing files are ignored. Returns an error if critical values are
// missing in production mode or a value does not parse.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "tyremarket"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "tyremarket"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:       p.int("VALKEY_DB", 0),
		CacheTTL:       p.duration("CACHE_TTL", 5*time.Minute),

		JWTSecret:       envOrDefault("JWT_SECRET", defaultJWTSecret),
		JWTTTL:          p.duration("JWT_TTL", 24*time.Hour),
		LoginRateLimit:  p.int("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: p.duration("LOGIN_RATE_WINDOW", time.Minute),

		UploadDir:   envOrDefault("UPLOAD_DIR", "uploads"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "tyremarket-images"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		S3PublicACL: p.bool("S3_PUBLIC_ACL", true),

		CORSOrigins:    splitList(envOrDefault("CORS_ORIGINS", "*")),
		TrustedProxies: p.prefixes("TRUSTED_PROXIES"),

		ReconcileInterval: p.duration("RECONCILE_INTERVAL", 10*time.Minute),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.LoginRateLimit <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be positive")
	}
	if cfg.LoginRateWindow <= 0 {
		return nil, fmt.Errorf("LOGIN_RATE_WINDOW must be positive")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UseS3 reports whether images go to S3 rather than the upload directory.
func (c *Config) UseS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser reads typed variables and keeps the first parse error.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d
}

// prefixes reads a comma separated list of CIDR ranges. A bare address is
// taken as a single-host range.
func (p *parser) prefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, v := range splitList(os.Getenv(key)) {
		pfx, err := netip.ParsePrefix(v)
		if err != nil {
			addr, aerr := netip.ParseAddr(v)
			if aerr != nil {
				if p.err == nil {
					p.err = fmt.Errorf("%s: invalid address or CIDR %q", key, v)
				}
				continue
			}
			addr = addr.Unmap()
			pfx = netip.PrefixFrom(addr, addr.BitLen())
		}
		out = append(out, pfx.Masked())
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
