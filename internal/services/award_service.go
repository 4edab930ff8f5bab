package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
)

// Compile-time check to ensure AwardService implements the interface
var _ AwardProcessor = (*AwardService)(nil)

// AwardResult is the outcome of processing one check-in event.
type AwardResult struct {
	Awarded bool `json:"awarded"`
	Streak  int  `json:"streak"`
}

// AwardService credits one point and updates the streak per check-in event.
// The award and the event's processed marker commit in the same transaction,
// so no redelivery or crash between steps can duplicate or lose an award.
type AwardService struct {
	store  store.Store
	now    func() time.Time
	logger *logrus.Entry
}

// NewAwardService creates a new AwardService
func NewAwardService(st store.Store, logger *logrus.Logger) *AwardService {
	return &AwardService{
		store:  st,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.WithField("component", "award-service"),
	}
}

// Process handles a single check-in event. Redelivered invocations hit the
// AwardedAt marker and return {awarded: false} without touching the ledger.
func (s *AwardService) Process(ctx context.Context, userID, eventID string) (*AwardResult, error) {
	result := &AwardResult{}
	err := s.store.RunUserTransaction(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		// The transaction may be retried on conflict; start from a clean result.
		*result = AwardResult{}

		event, err := tx.CheckinEvent(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("read check-in event: %w", err)
		}
		if event.Processed() {
			ledger, err := tx.Ledger(ctx, userID)
			if err != nil {
				return err
			}
			result.Streak = ledger.Streak
			return nil
		}

		// The day comparison keys off the day key captured at submission
		// time, so delayed processing cannot corrupt it.
		todayKey := event.SubmittedDayKey
		if todayKey.IsZero() {
			return fmt.Errorf("check-in event %s has no submitted day key", eventID)
		}

		ledger, err := tx.Ledger(ctx, userID)
		if err != nil {
			return err
		}
		now := s.now()

		if ledger.LastCheckinDay == todayKey {
			// A different event already earned today's award.
			event.AwardSkipped = true
			event.AwardedAt = &now
			result.Streak = ledger.Streak
			return tx.PutCheckinEvent(ctx, event)
		}

		newStreak := 1
		if ledger.LastCheckinDay == todayKey.Prev() {
			newStreak = ledger.Streak + 1
		}

		ledger.Points++
		ledger.Streak = newStreak
		ledger.LastCheckinDay = todayKey
		ledger.UpdatedAt = now
		if err := tx.PutLedger(ctx, ledger); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &models.LedgerHistoryEntry{
			UserID: userID,
			Type:   models.LedgerEntryAward,
			Delta:  1,
			RefID:  eventID,
			DayKey: todayKey,
			At:     now,
		}); err != nil {
			return err
		}
		event.AwardedAt = &now
		if err := tx.PutCheckinEvent(ctx, event); err != nil {
			return err
		}

		result.Awarded = true
		result.Streak = newStreak
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best-effort mirror outside the transaction. Failures never roll back
	// the award; the next award refreshes the projection.
	if result.Awarded {
		if err := s.store.MirrorStreak(ctx, userID, result.Streak); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"userId":  userID,
				"eventId": eventID,
			}).Warn("streak mirror write failed")
		}
	}
	return result, nil
}
