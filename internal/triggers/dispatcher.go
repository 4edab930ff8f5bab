package triggers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/services"
)

// EventKind identifies the document-creation event being delivered.
type EventKind string

const (
	KindCheckinCreated           EventKind = "checkin.created"
	KindRedemptionRequestCreated EventKind = "redemption_request.created"
	KindRedemptionCreated        EventKind = "redemption.created"
)

// Event is one delivery from the trigger channel. The channel is
// at-least-once and possibly out-of-order; handlers must be idempotent.
type Event struct {
	Kind       EventKind `json:"kind" binding:"required"`
	UserID     string    `json:"userId" binding:"required"`
	DocumentID string    `json:"documentId" binding:"required"`
}

// Handler processes one delivered event. A returned error tells the hosting
// runtime to redeliver; the redelivery policy itself stays outside the core.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// Compile-time check to ensure Dispatcher implements the interface
var _ Handler = (*Dispatcher)(nil)

// Dispatcher routes trigger events to the ledger processors and chains
// fulfillment after an approved redemption.
type Dispatcher struct {
	awards      services.AwardProcessor
	redemptions services.RedemptionProcessor
	fulfillment services.FulfillmentDispatcher
	logger      *logrus.Entry
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(awards services.AwardProcessor, redemptions services.RedemptionProcessor, fulfillment services.FulfillmentDispatcher, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		awards:      awards,
		redemptions: redemptions,
		fulfillment: fulfillment,
		logger:      logger.WithField("component", "trigger-dispatcher"),
	}
}

// Handle processes one event. Errors propagate so the channel redelivers;
// the processors' idempotency checks make redelivery converge on a no-op.
func (d *Dispatcher) Handle(ctx context.Context, event Event) error {
	switch event.Kind {
	case KindCheckinCreated:
		_, err := d.awards.Process(ctx, event.UserID, event.DocumentID)
		return err

	case KindRedemptionRequestCreated:
		result, err := d.redemptions.Process(ctx, event.UserID, event.DocumentID)
		if err != nil {
			return err
		}
		if result.Status != models.RedemptionStatusApproved {
			return nil
		}
		_, err = d.fulfillment.Fulfill(ctx, event.UserID, result.RedemptionID)
		return err

	case KindRedemptionCreated:
		_, err := d.fulfillment.Fulfill(ctx, event.UserID, event.DocumentID)
		return err

	default:
		return fmt.Errorf("unknown trigger event kind %q", event.Kind)
	}
}
