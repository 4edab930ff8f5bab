package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingCredentials is returned when the client is asked to make a real
// API call without an API token configured.
var ErrMissingCredentials = errors.New("commerce: API token not configured")

// Client talks to the commerce platform's discount API.
type Client struct {
	BaseURL  string
	APIToken string
	MockAPI  bool
	client   *http.Client

	mu     sync.Mutex
	issued map[string]*Discount // mock mode state, keyed by code
}

// NewClient creates a new commerce API client
func NewClient(baseURL, apiToken string, mockAPI bool) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIToken: apiToken,
		MockAPI:  mockAPI,
		client:   &http.Client{Timeout: 10 * time.Second},
		issued:   make(map[string]*Discount),
	}
}

// DiscountRequest is the discount creation payload. Codes are caller-derived
// and deterministic; the platform treats a repeated code as the same discount
// rather than creating a second live one.
type DiscountRequest struct {
	Code            string          `json:"code"`
	Title           string          `json:"title"`
	ValueType       string          `json:"valueType"` // fixedAmount or percentage
	Value           decimal.Decimal `json:"value"`
	StartsAt        time.Time       `json:"startsAt"`
	EndsAt          time.Time       `json:"endsAt"`
	UsageLimit      int             `json:"usageLimit"`
	OncePerCustomer bool            `json:"oncePerCustomer"`
}

// Discount is the created (or already existing) discount resource.
type Discount struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// APIError is a structured HTTP or application-level rejection from the
// commerce platform.
type APIError struct {
	StatusCode int
	UserErrors []string
}

func (e *APIError) Error() string {
	if len(e.UserErrors) > 0 {
		return fmt.Sprintf("commerce API error (status %d): %s", e.StatusCode, strings.Join(e.UserErrors, "; "))
	}
	return fmt.Sprintf("commerce API error (status %d)", e.StatusCode)
}

type discountEnvelope struct {
	Discount   *Discount `json:"discount"`
	UserErrors []string  `json:"userErrors"`
}

// CreateDiscount issues a discount code. Issuing a code that already exists
// returns the existing discount, matching the platform's idempotency
// contract for caller-assigned codes.
func (c *Client) CreateDiscount(ctx context.Context, req DiscountRequest) (*Discount, error) {
	if c.MockAPI {
		return c.mockCreateDiscount(req)
	}
	if c.APIToken == "" {
		return nil, ErrMissingCredentials
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/discounts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIToken)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("commerce API request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope discountEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil && resp.StatusCode < 400 {
		return nil, fmt.Errorf("commerce API response decode failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict && envelope.Discount != nil:
		// The code already exists; the platform returns the existing resource.
		return envelope.Discount, nil
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, UserErrors: envelope.UserErrors}
	case len(envelope.UserErrors) > 0:
		return nil, &APIError{StatusCode: resp.StatusCode, UserErrors: envelope.UserErrors}
	case envelope.Discount == nil:
		return nil, fmt.Errorf("commerce API returned no discount")
	}
	return envelope.Discount, nil
}

// mockCreateDiscount mocks discount issuance for testing and local runs.
// Repeated codes return the existing discount, like the real platform.
func (c *Client) mockCreateDiscount(req DiscountRequest) (*Discount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.issued[req.Code]; ok {
		return existing, nil
	}
	discount := &Discount{
		ID:     fmt.Sprintf("mock-discount-%d", len(c.issued)+1),
		Code:   req.Code,
		Title:  req.Title,
		Status: "active",
	}
	c.issued[req.Code] = discount
	return discount, nil
}
