package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/store"
)

func TestTransactionCommitsAllWrites(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	err := st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
		ledger, err := tx.Ledger(ctx, "alice")
		if err != nil {
			return err
		}
		ledger.Points = 5
		if err := tx.PutLedger(ctx, ledger); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, &models.LedgerHistoryEntry{
			UserID: "alice",
			Type:   models.LedgerEntryAward,
			Delta:  5,
			At:     time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, ledger.Points)
	assert.Len(t, st.History("alice"), 1)
}

func TestTransactionErrorDiscardsAllWrites(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
		ledger, err := tx.Ledger(ctx, "alice")
		if err != nil {
			return err
		}
		ledger.Points = 99
		if err := tx.PutLedger(ctx, ledger); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &models.LedgerHistoryEntry{UserID: "alice"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Points, "failed transaction must leave no partial writes")
	assert.Empty(t, st.History("alice"))
}

func TestTransactionReadsSeeStagedWrites(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	err := st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
		ledger, err := tx.Ledger(ctx, "alice")
		if err != nil {
			return err
		}
		ledger.Points = 3
		if err := tx.PutLedger(ctx, ledger); err != nil {
			return err
		}
		reread, err := tx.Ledger(ctx, "alice")
		if err != nil {
			return err
		}
		assert.Equal(t, 3, reread.Points)
		return nil
	})
	require.NoError(t, err)
}

func TestSameUserTransactionsSerialize(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
				ledger, err := tx.Ledger(ctx, "alice")
				if err != nil {
					return err
				}
				ledger.Points++
				return tx.PutLedger(ctx, ledger)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, workers, ledger.Points, "increments must not be lost")
}

func TestCreateRedemptionKeepsExisting(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	first := &models.Redemption{ID: "req-1", UserID: "alice", PointCost: 2}
	second := &models.Redemption{ID: "req-1", UserID: "alice", PointCost: 99}

	err := st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
		return tx.CreateRedemption(ctx, first)
	})
	require.NoError(t, err)

	err = st.RunUserTransaction(ctx, "alice", func(ctx context.Context, tx store.Tx) error {
		return tx.CreateRedemption(ctx, second)
	})
	require.NoError(t, err)

	redemption, err := st.GetRedemption(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 2, redemption.PointCost, "first write wins on key collision")
}

func TestGetMissingDocuments(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	_, err := st.GetCheckinEvent(ctx, "alice", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.GetRedemptionRequest(ctx, "alice", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.GetRedemption(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A missing ledger is the zero ledger, not an error.
	ledger, err := st.GetLedger(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Points)
	assert.Equal(t, 0, ledger.Streak)
	assert.True(t, ledger.LastCheckinDay.IsZero())
}
