package models

import (
	"time"
)

// RedemptionStatus represents the status of a redemption request
type RedemptionStatus string

const (
	RedemptionStatusPending  RedemptionStatus = "pending"
	RedemptionStatusApproved RedemptionStatus = "approved"
	RedemptionStatusRejected RedemptionStatus = "rejected"
)

// Machine-readable rejection reasons stored on a rejected request.
const (
	RejectReasonInvalidReward      = "invalid_reward"
	RejectReasonInsufficientPoints = "insufficient_points"
)

// RedemptionRequest records a single redemption attempt. The redemption
// processor transitions it pending -> approved/rejected exactly once; the
// presence of ProcessedAt makes redelivery replay the stored outcome.
type RedemptionRequest struct {
	UserID       string           `bson:"userId" json:"userId"`
	RequestID    string           `bson:"requestId" json:"requestId"`
	RewardID     string           `bson:"rewardId" json:"rewardId"`
	Status       RedemptionStatus `bson:"status" json:"status"`
	RejectReason string           `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	RedemptionID string           `bson:"redemptionId,omitempty" json:"redemptionId,omitempty"`
	ProcessedAt  *time.Time       `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedAt    time.Time        `bson:"createdAt" json:"createdAt"`
}

// Processed reports whether the redemption processor has already handled the request.
func (r *RedemptionRequest) Processed() bool {
	return r.ProcessedAt != nil
}

// FulfillmentStatus represents the fulfillment state of a redemption
type FulfillmentStatus string

const (
	FulfillmentStatusNone   FulfillmentStatus = "none"
	FulfillmentStatusIssued FulfillmentStatus = "issued"
	FulfillmentStatusFailed FulfillmentStatus = "failed"
)

// Redemption is created by the redemption processor in the same transaction
// as the ledger debit. It is keyed by the originating request id so a raced
// re-create collapses into a key collision instead of a second debit record.
type Redemption struct {
	// ID equals the originating RedemptionRequest id.
	ID                   string            `bson:"_id" json:"id"`
	UserID               string            `bson:"userId" json:"userId"`
	RewardID             string            `bson:"rewardId" json:"rewardId"`
	PointCost            int               `bson:"pointCost" json:"pointCost"`
	FulfillmentStatus    FulfillmentStatus `bson:"fulfillmentStatus" json:"fulfillmentStatus"`
	FulfillmentCode      string            `bson:"fulfillmentCode,omitempty" json:"fulfillmentCode,omitempty"`
	FulfillmentExpiresAt *time.Time        `bson:"fulfillmentExpiresAt,omitempty" json:"fulfillmentExpiresAt,omitempty"`
	CreatedAt            time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Fulfilled reports whether a discount code has already been issued for the
// redemption. The fulfillment dispatcher treats a fulfilled record as a
// terminal no-op.
func (r *Redemption) Fulfilled() bool {
	return r.FulfillmentCode != ""
}
