// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// IndexSync keeps sellers' listing sequences in step with tyre writes.
// Each call locks the seller row, so changes to one seller's sequence are
// serialized. When ctx carries a transaction the change commits or rolls
// back with it.
type IndexSync struct {
	sellers Sellers
	tx      Transactor
}

// NewIndexSync returns an IndexSync over the given seller store.
func NewIndexSync(sellers Sellers, tx Transactor) *IndexSync {
	return &IndexSync{sellers: sellers, tx: tx}
}

// Register appends tyreID to the seller's sequence. A tyre already listed
// is left where it is.
func (x *IndexSync) Register(ctx context.Context, sellerID, tyreID uuid.UUID) error {
	return x.tx.InTx(ctx, func(ctx context.Context) error {
		seller, err := x.sellers.FindForUpdate(ctx, sellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			return fmt.Errorf("register listing: seller %s does not exist", sellerID)
		}
		return x.sellers.AddListing(ctx, sellerID, tyreID)
	})
}

// Unregister removes the entry for tyreID from the seller's sequence and
// leaves every other entry untouched. A missing entry is logged as index
// drift, not treated as an error.
func (x *IndexSync) Unregister(ctx context.Context, sellerID, tyreID uuid.UUID) error {
	return x.tx.InTx(ctx, func(ctx context.Context) error {
		seller, err := x.sellers.FindForUpdate(ctx, sellerID)
		if err != nil {
			return err
		}
		if seller == nil {
			slog.Warn("seller index drift: seller missing on unregister", "seller_id", sellerID, "tyre_id", tyreID)
			return nil
		}
		removed, err := x.sellers.RemoveListing(ctx, sellerID, tyreID)
		if err != nil {
			return err
		}
		if !removed {
			slog.Warn("seller index drift: tyre was not listed", "seller_id", sellerID, "tyre_id", tyreID)
		}
		return nil
	})
}
