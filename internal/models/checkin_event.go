package models

import (
	"time"
)

// CheckinEvent records a single check-in attempt. It is created once by the
// ingestion surface and mutated exactly once by the award processor: the
// presence of AwardedAt is the idempotency marker that makes redelivery safe.
type CheckinEvent struct {
	UserID          string                 `bson:"userId" json:"userId"`
	EventID         string                 `bson:"eventId" json:"eventId"`
	SubmittedDayKey DayKey                 `bson:"submittedDayKey" json:"submittedDayKey"`
	Entry           map[string]interface{} `bson:"entry,omitempty" json:"entry,omitempty"` // opaque app payload
	AwardedAt       *time.Time             `bson:"awardedAt,omitempty" json:"awardedAt,omitempty"`
	AwardSkipped    bool                   `bson:"awardSkipped" json:"awardSkipped"`
	CreatedAt       time.Time              `bson:"createdAt" json:"createdAt"`
}

// Processed reports whether the award processor has already handled the event.
func (e *CheckinEvent) Processed() bool {
	return e.AwardedAt != nil
}
