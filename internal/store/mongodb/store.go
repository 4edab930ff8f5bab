package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure Store implements the interface
var _ store.Store = (*Store)(nil)

// Store is the MongoDB-backed document store. User-scoped mutations run in
// multi-document transactions; the driver retries transient write conflicts,
// which is what serializes concurrent writers on a single user's ledger.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore creates a new MongoDB store
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

func (s *Store) ledgers() *mongo.Collection        { return s.db.Collection("ledgers") }
func (s *Store) checkinEvents() *mongo.Collection  { return s.db.Collection("checkin_events") }
func (s *Store) redemptionReqs() *mongo.Collection { return s.db.Collection("redemption_requests") }
func (s *Store) redemptions() *mongo.Collection    { return s.db.Collection("redemptions") }
func (s *Store) ledgerHistory() *mongo.Collection  { return s.db.Collection("ledger_history") }
func (s *Store) publicProfiles() *mongo.Collection { return s.db.Collection("public_profiles") }

// EnsureIndexes creates the unique indexes the idempotency guarantees rely on.
// Called once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	eventKeys := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "eventId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.checkinEvents().Indexes().CreateOne(ctx, eventKeys); err != nil {
		return err
	}
	requestKeys := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "requestId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.redemptionReqs().Indexes().CreateOne(ctx, requestKeys); err != nil {
		return err
	}
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}
	if _, err := s.redemptions().Indexes().CreateOne(ctx, byUser); err != nil {
		return err
	}
	_, err := s.ledgerHistory().Indexes().CreateOne(ctx, byUser)
	return err
}

// RunUserTransaction executes fn inside a MongoDB transaction. The driver
// retries fn on transient transaction errors (write conflicts on the user's
// documents), so fn may run more than once.
func (s *Store) RunUserTransaction(ctx context.Context, userID string, fn func(ctx context.Context, tx store.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{store: s})
	})
	return err
}

func (s *Store) CreateCheckinEvent(ctx context.Context, event *models.CheckinEvent) error {
	_, err := s.checkinEvents().InsertOne(ctx, event)
	return err
}

func (s *Store) CreateRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error {
	_, err := s.redemptionReqs().InsertOne(ctx, request)
	return err
}

func (s *Store) GetLedger(ctx context.Context, userID string) (*models.UserLedger, error) {
	var ledger models.UserLedger
	err := s.ledgers().FindOne(ctx, bson.M{"_id": userID}).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewUserLedger(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (s *Store) GetCheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error) {
	var event models.CheckinEvent
	err := s.checkinEvents().FindOne(ctx, bson.M{"userId": userID, "eventId": eventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Store) GetRedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error) {
	var request models.RedemptionRequest
	err := s.redemptionReqs().FindOne(ctx, bson.M{"userId": userID, "requestId": requestID}).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *Store) GetRedemption(ctx context.Context, redemptionID string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := s.redemptions().FindOne(ctx, bson.M{"_id": redemptionID}).Decode(&redemption)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (s *Store) ListRedemptions(ctx context.Context, userID string) ([]*models.Redemption, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.redemptions().Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var redemptions []*models.Redemption
	if err = cursor.All(ctx, &redemptions); err != nil {
		return nil, err
	}
	if redemptions == nil {
		redemptions = []*models.Redemption{}
	}
	return redemptions, nil
}

func (s *Store) UpdateRedemptionFulfillment(ctx context.Context, redemption *models.Redemption) error {
	redemption.UpdatedAt = time.Now().UTC()
	_, err := s.redemptions().ReplaceOne(ctx, bson.M{"_id": redemption.ID}, redemption)
	return err
}

func (s *Store) MirrorStreak(ctx context.Context, userID string, streak int) error {
	update := bson.M{"$set": bson.M{"streak": streak, "updatedAt": time.Now().UTC()}}
	_, err := s.publicProfiles().UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return err
}

// mongoTx implements store.Tx. The context passed to every method is the
// session context supplied to the transaction function, so all reads and
// writes join the same transaction.
type mongoTx struct {
	store *Store
}

func (t *mongoTx) CheckinEvent(ctx context.Context, userID, eventID string) (*models.CheckinEvent, error) {
	return t.store.GetCheckinEvent(ctx, userID, eventID)
}

func (t *mongoTx) PutCheckinEvent(ctx context.Context, event *models.CheckinEvent) error {
	filter := bson.M{"userId": event.UserID, "eventId": event.EventID}
	_, err := t.store.checkinEvents().ReplaceOne(ctx, filter, event)
	return err
}

func (t *mongoTx) Ledger(ctx context.Context, userID string) (*models.UserLedger, error) {
	return t.store.GetLedger(ctx, userID)
}

func (t *mongoTx) PutLedger(ctx context.Context, ledger *models.UserLedger) error {
	filter := bson.M{"_id": ledger.UserID}
	_, err := t.store.ledgers().ReplaceOne(ctx, filter, ledger, options.Replace().SetUpsert(true))
	return err
}

func (t *mongoTx) RedemptionRequest(ctx context.Context, userID, requestID string) (*models.RedemptionRequest, error) {
	return t.store.GetRedemptionRequest(ctx, userID, requestID)
}

func (t *mongoTx) PutRedemptionRequest(ctx context.Context, request *models.RedemptionRequest) error {
	filter := bson.M{"userId": request.UserID, "requestId": request.RequestID}
	_, err := t.store.redemptionReqs().ReplaceOne(ctx, filter, request)
	return err
}

func (t *mongoTx) CreateRedemption(ctx context.Context, redemption *models.Redemption) error {
	_, err := t.store.redemptions().InsertOne(ctx, redemption)
	if mongo.IsDuplicateKeyError(err) {
		// A previous attempt already created the redemption for this request.
		return nil
	}
	return err
}

func (t *mongoTx) AppendHistory(ctx context.Context, entry *models.LedgerHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := t.store.ledgerHistory().InsertOne(ctx, entry)
	return err
}
