package models

import (
	"time"
)

// UserLedger holds a user's redeemable point balance and daily check-in streak.
// It is the only mutable shared document in the system; all mutations happen
// inside a store transaction.
type UserLedger struct {
	UserID         string    `bson:"_id" json:"userId"`
	Points         int       `bson:"points" json:"points"`
	Streak         int       `bson:"streak" json:"streak"`
	LastCheckinDay DayKey    `bson:"lastCheckinDay,omitempty" json:"lastCheckinDay,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewUserLedger returns the zero ledger for a user that has never checked in.
func NewUserLedger(userID string) *UserLedger {
	now := time.Now().UTC()
	return &UserLedger{
		UserID:    userID,
		Points:    0,
		Streak:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LedgerEntryType identifies the kind of ledger history entry
type LedgerEntryType string

const (
	LedgerEntryAward  LedgerEntryType = "award"
	LedgerEntryRedeem LedgerEntryType = "redeem"
)

// LedgerHistoryEntry is an append-only record of a single points change.
type LedgerHistoryEntry struct {
	ID     string          `bson:"_id,omitempty" json:"id,omitempty"`
	UserID string          `bson:"userId" json:"userId"`
	Type   LedgerEntryType `bson:"type" json:"type"`
	Delta  int             `bson:"delta" json:"delta"`
	RefID  string          `bson:"refId" json:"refId"` // check-in event id or redemption id
	DayKey DayKey          `bson:"dayKey,omitempty" json:"dayKey,omitempty"`
	At     time.Time       `bson:"at" json:"at"`
}

// PublicProfile is the public-read projection of the ledger. Only the streak
// is mirrored; points and history never leave the private documents.
type PublicProfile struct {
	UserID    string    `bson:"_id" json:"userId"`
	Streak    int       `bson:"streak" json:"streak"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
