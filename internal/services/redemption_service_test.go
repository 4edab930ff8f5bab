package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridehq/stride-backend/internal/catalog"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store/memory"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entry{
		{
			RewardID:        "discount-small",
			DisplayName:     "Small Discount",
			PointCost:       2,
			FulfillmentKind: catalog.FulfillmentExternalDiscount,
			Discount: &catalog.DiscountParams{
				ValueType: catalog.ValueFixedAmount,
				Value:     decimal.NewFromInt(5),
				Validity:  24 * time.Hour,
			},
		},
		{
			RewardID:        "badge",
			DisplayName:     "Badge",
			PointCost:       1,
			FulfillmentKind: catalog.FulfillmentNone,
		},
	})
	require.NoError(t, err)
	return cat
}

func seedRequest(t *testing.T, st *memory.Store, userID, requestID, rewardID string) {
	t.Helper()
	err := st.CreateRedemptionRequest(context.Background(), &models.RedemptionRequest{
		UserID:    userID,
		RequestID: requestID,
		RewardID:  rewardID,
		Status:    models.RedemptionStatusPending,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

// awardPoints runs real award processing to seed a balance.
func awardPoints(t *testing.T, st *memory.Store, userID string, days ...string) {
	t.Helper()
	svc := NewAwardService(st, testLogger())
	for i, day := range days {
		id := "seed-" + day + "-" + string(rune('a'+i))
		seedCheckin(t, st, userID, id, day)
		_, err := svc.Process(context.Background(), userID, id)
		require.NoError(t, err)
	}
}

func TestRedemptionApproved(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	awardPoints(t, st, "alice", "2024-01-01", "2024-01-02", "2024-01-03")
	seedRequest(t, st, "alice", "req-1", "discount-small")

	result, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusApproved, result.Status)
	assert.Equal(t, "req-1", result.RedemptionID)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Points)

	redemption, err := st.GetRedemption(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "discount-small", redemption.RewardID)
	assert.Equal(t, 2, redemption.PointCost)
	assert.Equal(t, models.FulfillmentStatusNone, redemption.FulfillmentStatus)

	request, err := st.GetRedemptionRequest(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.True(t, request.Processed())
	assert.Equal(t, models.RedemptionStatusApproved, request.Status)
}

func TestRedemptionInvalidReward(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	awardPoints(t, st, "alice", "2024-01-01")
	seedRequest(t, st, "alice", "req-1", "no-such-reward")

	result, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusRejected, result.Status)
	assert.Equal(t, models.RejectReasonInvalidReward, result.Reason)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Points)
}

func TestRedemptionInsufficientPoints(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	awardPoints(t, st, "alice", "2024-01-01")
	seedRequest(t, st, "alice", "req-1", "discount-small")

	result, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusRejected, result.Status)
	assert.Equal(t, models.RejectReasonInsufficientPoints, result.Reason)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.Points, "balance must be unchanged")

	_, err = st.GetRedemption(ctx, "req-1")
	assert.Error(t, err, "no redemption record for a rejected request")
}

func TestRedemptionIdempotent(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	awardPoints(t, st, "alice", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04")
	seedRequest(t, st, "alice", "req-1", "discount-small")

	first, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	require.Equal(t, models.RedemptionStatusApproved, first.Status)

	// Redelivery must replay the stored outcome without a second debit.
	second, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Points)
}

func TestRedemptionRejectionIsTerminal(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	seedRequest(t, st, "alice", "req-1", "discount-small")

	first, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	require.Equal(t, models.RedemptionStatusRejected, first.Status)

	// Points earned after the rejection do not resurrect the request.
	awardPoints(t, st, "alice", "2024-01-01", "2024-01-02", "2024-01-03")
	second, err := svc.Process(ctx, "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionStatusRejected, second.Status)
	assert.Equal(t, models.RejectReasonInsufficientPoints, second.Reason)
}

func TestRedemptionRaceApprovesExactlyOne(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())
	ctx := context.Background()

	// Balance covers exactly one redemption at cost 2.
	awardPoints(t, st, "alice", "2024-01-01", "2024-01-02")
	seedRequest(t, st, "alice", "req-1", "discount-small")
	seedRequest(t, st, "alice", "req-2", "discount-small")

	var wg sync.WaitGroup
	results := make([]*RedemptionResult, 2)
	for i, requestID := range []string{"req-1", "req-2"} {
		wg.Add(1)
		go func(i int, requestID string) {
			defer wg.Done()
			result, err := svc.Process(ctx, "alice", requestID)
			if !assert.NoError(t, err) {
				return
			}
			results[i] = result
		}(i, requestID)
	}
	wg.Wait()

	approved, rejected := 0, 0
	for _, result := range results {
		switch result.Status {
		case models.RedemptionStatusApproved:
			approved++
		case models.RedemptionStatusRejected:
			rejected++
			assert.Equal(t, models.RejectReasonInsufficientPoints, result.Reason)
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, 1, rejected)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Points)
}

func TestRedemptionUnknownRequest(t *testing.T) {
	st := memory.NewStore()
	svc := NewRedemptionService(st, testCatalog(t), testLogger())

	_, err := svc.Process(context.Background(), "alice", "missing")
	assert.Error(t, err)
}
