package services

import (
	"context"

	"github.com/stridehq/stride-backend/pkg/commerce"
)

// AwardProcessor consumes newly created check-in events. Safe under
// at-least-once, out-of-order redelivery.
type AwardProcessor interface {
	// Process awards a point and updates the daily streak for the given
	// check-in event, exactly once per event.
	Process(ctx context.Context, userID, eventID string) (*AwardResult, error)
}

// RedemptionProcessor consumes newly created redemption requests. Safe under
// at-least-once redelivery.
type RedemptionProcessor interface {
	// Process validates the request against the catalog and ledger balance
	// and atomically debits points, exactly once per request.
	Process(ctx context.Context, userID, requestID string) (*RedemptionResult, error)
}

// FulfillmentDispatcher issues the external reward for an approved
// redemption, at most once per redemption.
type FulfillmentDispatcher interface {
	Fulfill(ctx context.Context, userID, redemptionID string) (bool, error)
}

// DiscountIssuer is the slice of the commerce API the fulfillment dispatcher
// needs. *commerce.Client satisfies it.
type DiscountIssuer interface {
	CreateDiscount(ctx context.Context, req commerce.DiscountRequest) (*commerce.Discount, error)
}
