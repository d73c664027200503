// Package quote persists priced panel_letters_v1 items against quotes. Every item is
// recomputed on the server before it is stored; the stored output is an immutable
// snapshot that structural operations (duplicate, delete) never re-price.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/signworks/internal/pricing"
)

var (
	ErrQuoteNotFound      = errors.New("quote not found")
	ErrItemNotFound       = errors.New("quote item not found")
	ErrPricingSetNotFound = errors.New("pricing set not found")
	ErrInvalidQuote       = errors.New("invalid quote")
)

// ValidationError is returned when a committed item fails validation. The caller should
// fix the input rather than retry.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("item failed validation: %s", strings.Join(e.Errors, "; "))
}

// Quote is a titled collection of priced items against one pricing set.
type Quote struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PricingSetID string    `json:"pricing_set_id"`
	CreatedAt    time.Time `json:"created_at"`
	Items        []Item    `json:"items"`
	TotalPence   int64     `json:"total_pence"`
}

// Summary is one row of the quote list.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PricingSetID string    `json:"pricing_set_id"`
	CreatedAt    time.Time `json:"created_at"`
	ItemCount    int       `json:"item_count"`
	TotalPence   int64     `json:"total_pence"`
}

// Item is a persisted line: the submitted input, the server-computed output and the line
// total copied out of that output.
type Item struct {
	ID             string          `json:"id"`
	QuoteID        string          `json:"quote_id"`
	Position       int             `json:"position"`
	ItemType       string          `json:"item_type"`
	Input          json.RawMessage `json:"input"`
	Output         json.RawMessage `json:"output"`
	LineTotalPence int64           `json:"line_total_pence"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PricingSet is a stored rate card.
type PricingSet struct {
	Card        pricing.RateCard
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WriteResult reports what an upsert did.
type WriteResult int

const (
	Unchanged WriteResult = iota
	Inserted
	Updated
)

func (r WriteResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Store is the persistence boundary of the quote service. Implementations return the
// package's sentinel errors for missing records.
type Store interface {
	GetPricingSet(ctx context.Context, id string) (PricingSet, error)
	UpsertPricingSet(ctx context.Context, card pricing.RateCard) (WriteResult, error)

	CreateQuote(ctx context.Context, q Quote) error
	// GetQuote returns the quote with its items ordered by position. TotalPence is summed
	// from the stored rows.
	GetQuote(ctx context.Context, id string) (Quote, error)
	ListQuotes(ctx context.Context, query string) ([]Summary, error)

	// InsertItem appends item to its quote, assigning the next position.
	InsertItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, quoteID, itemID string) (Item, error)
	DeleteItem(ctx context.Context, quoteID, itemID string) error
}
