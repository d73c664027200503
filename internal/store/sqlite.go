// Package store implements quote.Store on SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/quote"
)

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite persists quotes and pricing sets in the schema owned by internal/migrations.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ quote.Store = (*SQLite)(nil)

// NewSQLite wraps an open, migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func (s *SQLite) GetPricingSet(ctx context.Context, id string) (quote.PricingSet, error) {
	var raw, hash, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT rate_card_json, content_hash, created_at, updated_at
		FROM pricing_sets
		WHERE id = ?
	`, id).Scan(&raw, &hash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.PricingSet{}, quote.ErrPricingSetNotFound
		}
		return quote.PricingSet{}, fmt.Errorf("query pricing set: %w", err)
	}

	set := quote.PricingSet{ContentHash: hash}
	if err := json.Unmarshal([]byte(raw), &set.Card); err != nil {
		return quote.PricingSet{}, fmt.Errorf("decode pricing set %s: %w", id, err)
	}
	if set.CreatedAt, err = parseTime(createdAt); err != nil {
		return quote.PricingSet{}, err
	}
	if set.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return quote.PricingSet{}, err
	}
	return set, nil
}

func (s *SQLite) UpsertPricingSet(ctx context.Context, card pricing.RateCard) (quote.WriteResult, error) {
	hash, err := card.ContentHash()
	if err != nil {
		return quote.Unchanged, err
	}
	raw, err := json.Marshal(card)
	if err != nil {
		return quote.Unchanged, fmt.Errorf("encode rate card: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quote.Unchanged, fmt.Errorf("begin pricing set transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	result := quote.Inserted

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT content_hash FROM pricing_sets WHERE id = ?`, card.PricingSetID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pricing_sets (id, version, content_hash, rate_card_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, card.PricingSetID, card.Version, hash, string(raw), now, now); err != nil {
			return quote.Unchanged, fmt.Errorf("insert pricing set: %w", err)
		}
	case err != nil:
		return quote.Unchanged, fmt.Errorf("check pricing set existence: %w", err)
	case existing == hash:
		return quote.Unchanged, nil
	default:
		result = quote.Updated
		if _, err := tx.ExecContext(ctx, `
			UPDATE pricing_sets
			SET version = ?, content_hash = ?, rate_card_json = ?, updated_at = ?
			WHERE id = ?
		`, card.Version, hash, string(raw), now, card.PricingSetID); err != nil {
			return quote.Unchanged, fmt.Errorf("update pricing set: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return quote.Unchanged, fmt.Errorf("commit pricing set: %w", err)
	}
	return result, nil
}

func (s *SQLite) CreateQuote(ctx context.Context, q quote.Quote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (id, title, pricing_set_id, created_at)
		VALUES (?, ?, ?, ?)
	`, q.ID, q.Title, q.PricingSetID, formatTime(q.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (s *SQLite) GetQuote(ctx context.Context, id string) (quote.Quote, error) {
	var (
		q         quote.Quote
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT q.id, q.title, q.pricing_set_id, q.created_at,
			COALESCE((SELECT SUM(line_total_pence) FROM quote_items WHERE quote_id = q.id), 0)
		FROM quotes q
		WHERE q.id = ?
	`, id).Scan(&q.ID, &q.Title, &q.PricingSetID, &createdAt, &q.TotalPence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Quote{}, quote.ErrQuoteNotFound
		}
		return quote.Quote{}, fmt.Errorf("query quote: %w", err)
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return quote.Quote{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quote_id, position, item_type, input_json, output_json, line_total_pence, created_at
		FROM quote_items
		WHERE quote_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("query quote items: %w", err)
	}
	defer rows.Close()

	q.Items = make([]quote.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return quote.Quote{}, err
		}
		q.Items = append(q.Items, item)
	}
	if err := rows.Err(); err != nil {
		return quote.Quote{}, fmt.Errorf("iterate quote items: %w", err)
	}

	return q, nil
}

func (s *SQLite) ListQuotes(ctx context.Context, query string) ([]quote.Summary, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.title, q.pricing_set_id, q.created_at,
			COUNT(i.id), COALESCE(SUM(i.line_total_pence), 0)
		FROM quotes q
		LEFT JOIN quote_items i ON i.quote_id = q.id
		WHERE (? = '' OR q.title LIKE ?)
		GROUP BY q.id
		ORDER BY q.created_at DESC, q.id DESC
	`, query, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]quote.Summary, 0)
	for rows.Next() {
		var (
			sum       quote.Summary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.PricingSetID, &createdAt, &sum.ItemCount, &sum.TotalPence); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		quotes = append(quotes, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

func (s *SQLite) InsertItem(ctx context.Context, item quote.Item) (quote.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quote.Item{}, fmt.Errorf("begin item transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, item.QuoteID).Scan(&exists); err != nil {
		return quote.Item{}, fmt.Errorf("check quote existence: %w", err)
	}
	if !exists {
		return quote.Item{}, quote.ErrQuoteNotFound
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) + 1 FROM quote_items WHERE quote_id = ?
	`, item.QuoteID).Scan(&item.Position); err != nil {
		return quote.Item{}, fmt.Errorf("next item position: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quote_items (id, quote_id, position, item_type, input_json, output_json, line_total_pence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.QuoteID, item.Position, item.ItemType, string(item.Input), string(item.Output), item.LineTotalPence, formatTime(item.CreatedAt)); err != nil {
		return quote.Item{}, fmt.Errorf("insert quote item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return quote.Item{}, fmt.Errorf("commit quote item: %w", err)
	}
	return item, nil
}

func (s *SQLite) GetItem(ctx context.Context, quoteID, itemID string) (quote.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, quote_id, position, item_type, input_json, output_json, line_total_pence, created_at
		FROM quote_items
		WHERE quote_id = ? AND id = ?
	`, quoteID, itemID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Item{}, quote.ErrItemNotFound
		}
		return quote.Item{}, err
	}
	return item, nil
}

func (s *SQLite) DeleteItem(ctx context.Context, quoteID, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = ? AND id = ?`, quoteID, itemID)
	if err != nil {
		return fmt.Errorf("delete quote item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quote item: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, quoteID).Scan(&exists); err != nil {
		return fmt.Errorf("check quote existence: %w", err)
	}
	if !exists {
		return quote.ErrQuoteNotFound
	}
	return quote.ErrItemNotFound
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (quote.Item, error) {
	var (
		item                 quote.Item
		input, output, stamp string
	)
	if err := row.Scan(&item.ID, &item.QuoteID, &item.Position, &item.ItemType, &input, &output, &item.LineTotalPence, &stamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Item{}, err
		}
		return quote.Item{}, fmt.Errorf("scan quote item: %w", err)
	}
	item.Input = json.RawMessage(input)
	item.Output = json.RawMessage(output)

	createdAt, err := parseTime(stamp)
	if err != nil {
		return quote.Item{}, err
	}
	item.CreatedAt = createdAt
	return item, nil
}
