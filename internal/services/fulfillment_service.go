package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/catalog"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
	"github.com/stridehq/stride-backend/pkg/commerce"
)

// Compile-time check to ensure FulfillmentService implements the interface
var _ FulfillmentDispatcher = (*FulfillmentService)(nil)

// discountNamespace seeds the deterministic code derivation. Changing it
// would break the duplicate-call guarantee for in-flight redemptions.
var discountNamespace = uuid.MustParse("9f2c41a7-30cd-4f52-8a6e-5b1d97e04c11")

// DiscountCode derives the discount code for a redemption id. The derivation
// is deterministic: if the external call is issued twice because a crash hit
// between "call succeeded" and "record updated", the platform sees the same
// code and treats the second call as a duplicate instead of creating two
// live discounts.
func DiscountCode(redemptionID string) string {
	id := uuid.NewSHA1(discountNamespace, []byte(redemptionID))
	compact := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return "STRIDE-" + compact[:12]
}

// FulfillmentService issues external rewards for approved redemptions. The
// transaction boundary cannot cover the external call, so idempotency comes
// from re-checking the record before calling out plus the deterministic code.
type FulfillmentService struct {
	store   store.Store
	catalog *catalog.Catalog
	issuer  DiscountIssuer
	now     func() time.Time
	logger  *logrus.Entry
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(st store.Store, cat *catalog.Catalog, issuer DiscountIssuer, logger *logrus.Logger) *FulfillmentService {
	return &FulfillmentService{
		store:   st,
		catalog: cat,
		issuer:  issuer,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.WithField("component", "fulfillment-service"),
	}
}

// Fulfill issues the discount for a redemption. Already fulfilled redemptions
// return issued=true without calling the commerce API. On failure the record
// stays unfulfilled and the operation is safe to retry; no compensating
// action is needed because the system favors "debited, retry fulfillment"
// over double fulfillment.
func (s *FulfillmentService) Fulfill(ctx context.Context, userID, redemptionID string) (bool, error) {
	redemption, err := s.store.GetRedemption(ctx, redemptionID)
	if err != nil {
		return false, fmt.Errorf("read redemption: %w", err)
	}
	if redemption.UserID != userID {
		return false, fmt.Errorf("redemption %s does not belong to user %s", redemptionID, userID)
	}
	if redemption.Fulfilled() {
		return true, nil
	}

	entry, ok := s.catalog.Lookup(redemption.RewardID)
	if !ok {
		return false, fmt.Errorf("redemption %s references unknown reward %q", redemptionID, redemption.RewardID)
	}
	if entry.FulfillmentKind != catalog.FulfillmentExternalDiscount {
		// Nothing to issue for this reward.
		return false, nil
	}

	now := s.now()
	endsAt := now.Add(entry.Discount.Validity)
	code := DiscountCode(redemption.ID)

	discount, err := s.issuer.CreateDiscount(ctx, commerce.DiscountRequest{
		Code:            code,
		Title:           entry.DisplayName,
		ValueType:       string(entry.Discount.ValueType),
		Value:           entry.Discount.Value,
		StartsAt:        now,
		EndsAt:          endsAt,
		UsageLimit:      1,
		OncePerCustomer: true,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"userId":       userID,
			"redemptionId": redemptionID,
		}).Error("discount issuance failed")
		redemption.FulfillmentStatus = models.FulfillmentStatusFailed
		if updateErr := s.store.UpdateRedemptionFulfillment(ctx, redemption); updateErr != nil {
			s.logger.WithError(updateErr).WithField("redemptionId", redemptionID).
				Warn("failed to record fulfillment failure")
		}
		return false, err
	}

	redemption.FulfillmentStatus = models.FulfillmentStatusIssued
	redemption.FulfillmentCode = discount.Code
	redemption.FulfillmentExpiresAt = &endsAt
	// A plain write is enough here: the re-read check above makes the whole
	// operation safe to retry after a crash.
	if err := s.store.UpdateRedemptionFulfillment(ctx, redemption); err != nil {
		return false, fmt.Errorf("record fulfillment: %w", err)
	}
	return true, nil
}
