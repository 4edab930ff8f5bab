package triggers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridehq/stride-backend/internal/models"
	"github.com/stridehq/stride-backend/internal/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeAwards struct {
	calls  int
	result *services.AwardResult
	err    error
}

func (f *fakeAwards) Process(ctx context.Context, userID, eventID string) (*services.AwardResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRedemptions struct {
	calls  int
	result *services.RedemptionResult
	err    error
}

func (f *fakeRedemptions) Process(ctx context.Context, userID, requestID string) (*services.RedemptionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeFulfillment struct {
	calls int
	err   error
}

func (f *fakeFulfillment) Fulfill(ctx context.Context, userID, redemptionID string) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func TestDispatcherRoutesCheckin(t *testing.T) {
	awards := &fakeAwards{result: &services.AwardResult{Awarded: true, Streak: 1}}
	d := NewDispatcher(awards, &fakeRedemptions{}, &fakeFulfillment{}, testLogger())

	err := d.Handle(context.Background(), Event{Kind: KindCheckinCreated, UserID: "alice", DocumentID: "evt-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, awards.calls)
}

func TestDispatcherChainsFulfillmentAfterApproval(t *testing.T) {
	redemptions := &fakeRedemptions{result: &services.RedemptionResult{
		Status:       models.RedemptionStatusApproved,
		RedemptionID: "req-1",
	}}
	fulfillment := &fakeFulfillment{}
	d := NewDispatcher(&fakeAwards{}, redemptions, fulfillment, testLogger())

	err := d.Handle(context.Background(), Event{Kind: KindRedemptionRequestCreated, UserID: "alice", DocumentID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, redemptions.calls)
	assert.Equal(t, 1, fulfillment.calls)
}

func TestDispatcherSkipsFulfillmentAfterRejection(t *testing.T) {
	redemptions := &fakeRedemptions{result: &services.RedemptionResult{
		Status: models.RedemptionStatusRejected,
		Reason: models.RejectReasonInsufficientPoints,
	}}
	fulfillment := &fakeFulfillment{}
	d := NewDispatcher(&fakeAwards{}, redemptions, fulfillment, testLogger())

	err := d.Handle(context.Background(), Event{Kind: KindRedemptionRequestCreated, UserID: "alice", DocumentID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, fulfillment.calls)
}

func TestDispatcherRoutesRedemptionCreated(t *testing.T) {
	fulfillment := &fakeFulfillment{}
	d := NewDispatcher(&fakeAwards{}, &fakeRedemptions{}, fulfillment, testLogger())

	err := d.Handle(context.Background(), Event{Kind: KindRedemptionCreated, UserID: "alice", DocumentID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, fulfillment.calls)
}

func TestDispatcherPropagatesErrorsForRedelivery(t *testing.T) {
	boom := errors.New("transient failure")

	d := NewDispatcher(&fakeAwards{err: boom}, &fakeRedemptions{}, &fakeFulfillment{}, testLogger())
	err := d.Handle(context.Background(), Event{Kind: KindCheckinCreated, UserID: "alice", DocumentID: "evt-1"})
	assert.ErrorIs(t, err, boom)

	d = NewDispatcher(&fakeAwards{}, &fakeRedemptions{}, &fakeFulfillment{err: boom}, testLogger())
	err = d.Handle(context.Background(), Event{Kind: KindRedemptionCreated, UserID: "alice", DocumentID: "req-1"})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcherUnknownKind(t *testing.T) {
	d := NewDispatcher(&fakeAwards{}, &fakeRedemptions{}, &fakeFulfillment{}, testLogger())
	err := d.Handle(context.Background(), Event{Kind: "mystery", UserID: "alice", DocumentID: "x"})
	assert.Error(t, err)
}
