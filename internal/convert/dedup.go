package convert

import (
	"context"

	"zoterharvest/internal/domain"
)

// retryableStates are excluded from the already-delivered check (spec §3:
// "States {ERROR, RESET} are eligible for retry").
var retryableStates = []domain.DeliveryState{domain.StateError, domain.StateReset}

// CheckAlreadyDelivered implements §4.4 stage 10: skip if the record's
// URL or hash already exists in the delivery store in a non-retryable
// state.
func CheckAlreadyDelivered(ctx context.Context, catalog domain.CatalogRecord, delivery DeliveryChecker, deps Deps) error {
	if delivery == nil {
		return nil
	}

	if entry, err := delivery.URLAlreadyDelivered(ctx, catalog.URL, retryableStates); err == nil && entry != nil {
		return skip(deps, "skipped_since_already_delivered_")
	}

	if entries, err := delivery.HashAlreadyDelivered(ctx, catalog.Hash, retryableStates); err == nil && len(entries) > 0 {
		return skip(deps, "skipped_since_already_delivered_")
	}

	return nil
}
