package store

import (
	"context"
	"errors"

	"github.com/stridehq/stride-backend/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Tx provides access to a single user's documents inside one atomic
// transaction. Documents are read whole, mutated, and written back whole;
// either every Put commits or none does. Implementations retry the whole
// transaction function on write conflict, so it must be side-effect free
// apart from its Put/Create/Append calls.
type Tx interface {
	CheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error)
	PutCheckinEvent(ctx context.Context, event *models.CheckinEvent) error

	// Ledger returns the user's ledger, or a fresh zero ledger if the user
	// has never been awarded.
	Ledger(ctx context.Context, userID string) (*models.UserLedger, error)
	PutLedger(ctx context.Context, ledger *models.UserLedger) error

	RedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error)
	PutRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error

	// CreateRedemption inserts a redemption keyed by its originating request
	// id. Inserting an already existing id is not an error; the existing
	// record wins.
	CreateRedemption(ctx context.Context, redemption *models.Redemption) error

	AppendHistory(ctx context.Context, entry *models.LedgerHistoryEntry) error
}

// Store is the transactional document store behind the ledger pipeline.
// RunUserTransaction is the only way to mutate the ledger, check-in events
// and redemption requests; everything else is either an ingestion append, a
// plain read, or the two writes that are safe outside a transaction
// (fulfillment write-back and the public mirror).
type Store interface {
	// RunUserTransaction executes fn atomically against the given user's
	// documents. Concurrent transactions for the same user serialize;
	// transactions for different users run in parallel. On conflict the
	// implementation retries fn; on error nothing is committed.
	RunUserTransaction(ctx context.Context, userID string, fn func(ctx context.Context, tx Tx) error) error

	// Ingestion appends, used by the HTTP surface on behalf of external
	// collaborators, never by the processors.
	CreateCheckinEvent(ctx context.Context, event *models.CheckinEvent) error
	CreateRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error

	// Plain reads.
	GetLedger(ctx context.Context, userID string) (*models.UserLedger, error)
	GetCheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error)
	GetRedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error)
	GetRedemption(ctx context.Context, redemptionID string) (*models.Redemption, error)
	ListRedemptions(ctx context.Context, userID string) ([]*models.Redemption, error)

	// UpdateRedemptionFulfillment writes the fulfillment outcome onto a
	// redemption. A plain write: the dispatcher's re-read check makes the
	// whole fulfill operation safe to retry.
	UpdateRedemptionFulfillment(ctx context.Context, redemption *models.Redemption) error

	// MirrorStreak propagates the streak to the public projection.
	// Best-effort: failures never roll back an award.
	MirrorStreak(ctx context.Context, userID string, streak int) error
}
