package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentKind determines what, if anything, has to happen outside the
// ledger after a redemption is approved.
type FulfillmentKind string

const (
	// FulfillmentNone means the redemption is complete once points are debited.
	FulfillmentNone FulfillmentKind = "none"
	// FulfillmentExternalDiscount means a discount code must be issued through
	// the commerce API.
	FulfillmentExternalDiscount FulfillmentKind = "externalDiscount"
)

// ValueType mirrors the commerce API's discount value types.
type ValueType string

const (
	ValueFixedAmount ValueType = "fixedAmount"
	ValuePercentage  ValueType = "percentage"
)

// DiscountParams configures the external discount issued for a reward.
type DiscountParams struct {
	ValueType ValueType
	Value     decimal.Decimal
	// Validity is how long an issued code stays usable.
	Validity time.Duration
}

// Entry is a single reward in the catalog.
type Entry struct {
	RewardID        string
	DisplayName     string
	PointCost       int
	FulfillmentKind FulfillmentKind
	Discount        *DiscountParams
}

// Catalog is a static, read-only mapping from reward id to entry. It is
// validated once at process start and never mutated at runtime.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from the given entries and validates it.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
		if _, dup := c.entries[e.RewardID]; dup {
			return nil, fmt.Errorf("catalog: duplicate reward id %q", e.RewardID)
		}
		c.entries[e.RewardID] = e
	}
	return c, nil
}

func validateEntry(e Entry) error {
	if e.RewardID == "" {
		return fmt.Errorf("catalog: entry with empty reward id")
	}
	if e.DisplayName == "" {
		return fmt.Errorf("catalog: reward %q has no display name", e.RewardID)
	}
	if e.PointCost <= 0 {
		return fmt.Errorf("catalog: reward %q has non-positive point cost %d", e.RewardID, e.PointCost)
	}
	switch e.FulfillmentKind {
	case FulfillmentNone:
		if e.Discount != nil {
			return fmt.Errorf("catalog: reward %q has discount params but no fulfillment", e.RewardID)
		}
	case FulfillmentExternalDiscount:
		if e.Discount == nil {
			return fmt.Errorf("catalog: reward %q requires discount params", e.RewardID)
		}
		if e.Discount.ValueType != ValueFixedAmount && e.Discount.ValueType != ValuePercentage {
			return fmt.Errorf("catalog: reward %q has unknown value type %q", e.RewardID, e.Discount.ValueType)
		}
		if !e.Discount.Value.IsPositive() {
			return fmt.Errorf("catalog: reward %q has non-positive discount value", e.RewardID)
		}
		if e.Discount.Validity <= 0 {
			return fmt.Errorf("catalog: reward %q has non-positive validity window", e.RewardID)
		}
	default:
		return fmt.Errorf("catalog: reward %q has unknown fulfillment kind %q", e.RewardID, e.FulfillmentKind)
	}
	return nil
}

// Lookup returns the entry for the given reward id.
func (c *Catalog) Lookup(rewardID string) (Entry, bool) {
	e, ok := c.entries[rewardID]
	return e, ok
}

// Entries returns all catalog entries, for the read-only listing endpoint.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Default returns the shipped reward catalog.
func Default() (*Catalog, error) {
	return New([]Entry{
		{
			RewardID:        "discount-10-percent",
			DisplayName:     "10% Off Store Order",
			PointCost:       30,
			FulfillmentKind: FulfillmentExternalDiscount,
			Discount: &DiscountParams{
				ValueType: ValuePercentage,
				Value:     decimal.NewFromInt(10),
				Validity:  30 * 24 * time.Hour,
			},
		},
		{
			RewardID:        "discount-5-usd",
			DisplayName:     "$5 Off Store Order",
			PointCost:       15,
			FulfillmentKind: FulfillmentExternalDiscount,
			Discount: &DiscountParams{
				ValueType: ValueFixedAmount,
				Value:     decimal.NewFromInt(5),
				Validity:  30 * 24 * time.Hour,
			},
		},
		{
			RewardID:        "founders-badge",
			DisplayName:     "Founders Badge",
			PointCost:       7,
			FulfillmentKind: FulfillmentNone,
		},
	})
}
