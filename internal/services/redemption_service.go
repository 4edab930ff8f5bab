package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/catalog"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
)

// Compile-time check to ensure RedemptionService implements the interface
var _ RedemptionProcessor = (*RedemptionService)(nil)

// RedemptionResult is the outcome of processing one redemption request.
type RedemptionResult struct {
	Status       models.RedemptionStatus `json:"status"`
	Reason       string                  `json:"reason,omitempty"`
	RedemptionID string                  `json:"redemptionId,omitempty"`
}

// RedemptionService validates redemption requests and debits the ledger.
// The debit, the redemption record and the request's processed stamp commit
// in one transaction; concurrent requests for the same user serialize on the
// ledger document, so a balance covering only one of two racing requests
// approves exactly one.
type RedemptionService struct {
	store   store.Store
	catalog *catalog.Catalog
	now     func() time.Time
	logger  *logrus.Entry
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(st store.Store, cat *catalog.Catalog, logger *logrus.Logger) *RedemptionService {
	return &RedemptionService{
		store:   st,
		catalog: cat,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.WithField("component", "redemption-service"),
	}
}

// Process handles a single redemption request. Redelivered invocations
// replay the stored outcome. Rejections are terminal: they are stamped onto
// the request and never retried.
func (s *RedemptionService) Process(ctx context.Context, userID, requestID string) (*RedemptionResult, error) {
	result := &RedemptionResult{}
	err := s.store.RunUserTransaction(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		*result = RedemptionResult{}

		request, err := tx.RedemptionRequest(ctx, userID, requestID)
		if err != nil {
			return fmt.Errorf("read redemption request: %w", err)
		}
		if request.Processed() {
			result.Status = request.Status
			result.Reason = request.RejectReason
			result.RedemptionID = request.RedemptionID
			return nil
		}

		now := s.now()
		reject := func(reason string) error {
			request.Status = models.RedemptionStatusRejected
			request.RejectReason = reason
			request.ProcessedAt = &now
			result.Status = request.Status
			result.Reason = reason
			return tx.PutRedemptionRequest(ctx, request)
		}

		entry, ok := s.catalog.Lookup(request.RewardID)
		if !ok {
			return reject(models.RejectReasonInvalidReward)
		}

		ledger, err := tx.Ledger(ctx, userID)
		if err != nil {
			return err
		}
		if ledger.Points < entry.PointCost {
			return reject(models.RejectReasonInsufficientPoints)
		}

		ledger.Points -= entry.PointCost
		ledger.UpdatedAt = now
		if err := tx.PutLedger(ctx, ledger); err != nil {
			return err
		}
		// The redemption is keyed by the request id, so a raced re-create
		// deduplicates on the key instead of double-creating.
		redemption := &models.Redemption{
			ID:                request.RequestID,
			UserID:            userID,
			RewardID:          entry.RewardID,
			PointCost:         entry.PointCost,
			FulfillmentStatus: models.FulfillmentStatusNone,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.CreateRedemption(ctx, redemption); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &models.LedgerHistoryEntry{
			UserID: userID,
			Type:   models.LedgerEntryRedeem,
			Delta:  -entry.PointCost,
			RefID:  redemption.ID,
			At:     now,
		}); err != nil {
			return err
		}

		request.Status = models.RedemptionStatusApproved
		request.RedemptionID = redemption.ID
		request.ProcessedAt = &now
		if err := tx.PutRedemptionRequest(ctx, request); err != nil {
			return err
		}

		result.Status = request.Status
		result.RedemptionID = redemption.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
