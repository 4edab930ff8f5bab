package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
)

// Compile-time check to ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store used by tests. It
// serializes transactions per user with a mutex, stages writes, and commits
// them only when the transaction function returns nil, matching the
// no-partial-effect semantics of the MongoDB implementation.
type Store struct {
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex

	ledgers     map[string]models.UserLedger
	events      map[string]models.CheckinEvent
	requests    map[string]models.RedemptionRequest
	redemptions map[string]models.Redemption
	history     []models.LedgerHistoryEntry
	profiles    map[string]models.PublicProfile

	mirrorErr error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		userLocks:   make(map[string]*sync.Mutex),
		ledgers:     make(map[string]models.UserLedger),
		events:      make(map[string]models.CheckinEvent),
		requests:    make(map[string]models.RedemptionRequest),
		redemptions: make(map[string]models.Redemption),
		profiles:    make(map[string]models.PublicProfile),
	}
}

// FailMirror makes subsequent MirrorStreak calls return err. Pass nil to
// restore normal behavior.
func (s *Store) FailMirror(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrorErr = err
}

func docKey(userID, docID string) string {
	return userID + "/" + docID
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func (s *Store) RunUserTransaction(ctx context.Context, userID string, fn func(ctx context.Context, tx store.Tx) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) CreateCheckinEvent(ctx context.Context, event *models.CheckinEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[docKey(event.UserID, event.EventID)] = *event
	return nil
}

func (s *Store) CreateRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[docKey(request.UserID, request.RequestID)] = *request
	return nil
}

func (s *Store) GetLedger(ctx context.Context, userID string) (*models.UserLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.ledgers[userID]; ok {
		copied := ledger
		return &copied, nil
	}
	return models.NewUserLedger(userID), nil
}

func (s *Store) GetCheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event, ok := s.events[docKey(userID, eventID)]; ok {
		copied := event
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetRedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if request, ok := s.requests[docKey(userID, requestID)]; ok {
		copied := request
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetRedemption(ctx context.Context, redemptionID string) (*models.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if redemption, ok := s.redemptions[redemptionID]; ok {
		copied := redemption
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListRedemptions(ctx context.Context, userID string) ([]*models.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Redemption{}
	for _, redemption := range s.redemptions {
		if redemption.UserID == userID {
			copied := redemption
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *Store) UpdateRedemptionFulfillment(ctx context.Context, redemption *models.Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	redemption.UpdatedAt = time.Now().UTC()
	s.redemptions[redemption.ID] = *redemption
	return nil
}

func (s *Store) MirrorStreak(ctx context.Context, userID string, streak int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mirrorErr != nil {
		return s.mirrorErr
	}
	s.profiles[userID] = models.PublicProfile{UserID: userID, Streak: streak, UpdatedAt: time.Now().UTC()}
	return nil
}

// PublicStreak returns the mirrored streak for a user, for test assertions.
func (s *Store) PublicStreak(userID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	return profile.Streak, ok
}

// History returns a copy of the ledger history for a user, for test assertions.
func (s *Store) History(userID string) []models.LedgerHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerHistoryEntry
	for _, entry := range s.history {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}

// memTx stages writes and commits them only if the transaction function
// succeeds. Reads see staged writes first, then committed state.
type memTx struct {
	store *Store

	stagedLedgers     map[string]models.UserLedger
	stagedEvents      map[string]models.CheckinEvent
	stagedRequests    map[string]models.RedemptionRequest
	stagedRedemptions map[string]models.Redemption
	stagedHistory     []models.LedgerHistoryEntry
}

func (t *memTx) CheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error) {
	if event, ok := t.stagedEvents[docKey(userID, eventID)]; ok {
		copied := event
		return &copied, nil
	}
	return t.store.GetCheckinEvent(ctx, userID, eventID)
}

func (t *memTx) PutCheckinEvent(ctx context.Context, event *models.CheckinEvent) error {
	if t.stagedEvents == nil {
		t.stagedEvents = make(map[string]models.CheckinEvent)
	}
	t.stagedEvents[docKey(event.UserID, event.EventID)] = *event
	return nil
}

func (t *memTx) Ledger(ctx context.Context, userID string) (*models.UserLedger, error) {
	if ledger, ok := t.stagedLedgers[userID]; ok {
		copied := ledger
		return &copied, nil
	}
	return t.store.GetLedger(ctx, userID)
}

func (t *memTx) PutLedger(ctx context.Context, ledger *models.UserLedger) error {
	if t.stagedLedgers == nil {
		t.stagedLedgers = make(map[string]models.UserLedger)
	}
	t.stagedLedgers[ledger.UserID] = *ledger
	return nil
}

func (t *memTx) RedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error) {
	if request, ok := t.stagedRequests[docKey(userID, requestID)]; ok {
		copied := request
		return &copied, nil
	}
	return t.store.GetRedemptionRequest(ctx, userID, requestID)
}

func (t *memTx) PutRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error {
	if t.stagedRequests == nil {
		t.stagedRequests = make(map[string]models.RedemptionRequest)
	}
	t.stagedRequests[docKey(request.UserID, request.RequestID)] = *request
	return nil
}

func (t *memTx) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	if _, err := t.store.GetRedemption(ctx, redemption.ID); err == nil {
		// Already created by a previous attempt; the existing record wins.
		return nil
	}
	if t.stagedRedemptions == nil {
		t.stagedRedemptions = make(map[string]models.Redemption)
	}
	t.stagedRedemptions[redemption.ID] = *redemption
	return nil
}

func (t *memTx) AppendHistory(ctx context.Context, entry *models.LedgerHistoryEntry) error {
	staged := *entry
	if staged.ID == "" {
		staged.ID = uuid.NewString()
	}
	t.stagedHistory = append(t.stagedHistory, staged)
	return nil
}

func (t *memTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for key, ledger := range t.stagedLedgers {
		t.store.ledgers[key] = ledger
	}
	for key, event := range t.stagedEvents {
		t.store.events[key] = event
	}
	for key, request := range t.stagedRequests {
		t.store.requests[key] = request
	}
	for key, redemption := range t.stagedRedemptions {
		t.store.redemptions[key] = redemption
	}
	t.store.history = append(t.store.history, t.stagedHistory...)
}
