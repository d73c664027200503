package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/signworks/internal/pricing"
)

// Service prices and commits quote items.
type Service struct {
	store  Store
	logger *zap.Logger

	now   func() time.Time
	newID func() string

	mu    sync.RWMutex
	cards map[string]pricing.RateCard
}

// NewService returns a Service backed by store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		cards:  make(map[string]pricing.RateCard),
	}
}

// RateCard returns the rate card for pricingSetID. Cards are immutable once stored, so
// each id is loaded at most once per process.
func (s *Service) RateCard(ctx context.Context, pricingSetID string) (pricing.RateCard, error) {
	s.mu.RLock()
	card, ok := s.cards[pricingSetID]
	s.mu.RUnlock()
	if ok {
		return card, nil
	}

	set, err := s.store.GetPricingSet(ctx, pricingSetID)
	if err != nil {
		return pricing.RateCard{}, err
	}

	s.mu.Lock()
	s.cards[pricingSetID] = set.Card
	s.mu.Unlock()

	return set.Card, nil
}

// Recalculate previews in against a pricing set without persisting anything.
func (s *Service) Recalculate(ctx context.Context, pricingSetID string, in pricing.Input) (pricing.Output, error) {
	card, err := s.RateCard(ctx, pricingSetID)
	if err != nil {
		return pricing.Output{}, err
	}
	return pricing.Recalculate(in, card), nil
}

// CreateQuote opens an empty quote against an existing pricing set.
func (s *Service) CreateQuote(ctx context.Context, title, pricingSetID string) (Quote, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Quote{}, fmt.Errorf("%w: title is required", ErrInvalidQuote)
	}
	if _, err := s.RateCard(ctx, pricingSetID); err != nil {
		return Quote{}, err
	}

	q := Quote{
		ID:           s.newID(),
		Title:        title,
		PricingSetID: pricingSetID,
		CreatedAt:    s.now(),
		Items:        []Item{},
	}
	if err := s.store.CreateQuote(ctx, q); err != nil {
		return Quote{}, fmt.Errorf("create quote: %w", err)
	}

	s.logger.Info("quote created", zap.String("quote_id", q.ID), zap.String("pricing_set_id", pricingSetID))
	return q, nil
}

// GetQuote returns a quote with its items and persisted total.
func (s *Service) GetQuote(ctx context.Context, quoteID string) (Quote, error) {
	return s.store.GetQuote(ctx, quoteID)
}

// ListQuotes returns quotes whose title contains query, newest first.
func (s *Service) ListQuotes(ctx context.Context, query string) ([]Summary, error) {
	return s.store.ListQuotes(ctx, strings.TrimSpace(query))
}

// AddItem validates and prices in on the server and commits the result. Whatever a
// client previewed is ignored; the stored output is recomputed here.
func (s *Service) AddItem(ctx context.Context, quoteID string, in pricing.Input) (Item, error) {
	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return Item{}, err
	}
	card, err := s.RateCard(ctx, q.PricingSetID)
	if err != nil {
		return Item{}, err
	}

	out := pricing.Recalculate(in, card)
	if !out.OK {
		s.logger.Info("item rejected",
			zap.String("quote_id", quoteID),
			zap.Int("errors", len(out.Errors)),
		)
		return Item{}, &ValidationError{Errors: out.Errors}
	}

	inputJSON, err := json.Marshal(in)
	if err != nil {
		return Item{}, fmt.Errorf("encode item input: %w", err)
	}
	outputJSON, err := json.Marshal(out)
	if err != nil {
		return Item{}, fmt.Errorf("encode item output: %w", err)
	}

	item, err := s.store.InsertItem(ctx, Item{
		ID:             s.newID(),
		QuoteID:        quoteID,
		ItemType:       pricing.ItemType,
		Input:          inputJSON,
		Output:         outputJSON,
		LineTotalPence: out.LineTotalPence,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return Item{}, fmt.Errorf("insert quote item: %w", err)
	}

	fields := []zap.Field{
		zap.String("quote_id", quoteID),
		zap.String("item_id", item.ID),
		zap.Int("position", item.Position),
		zap.Int64("line_total_pence", item.LineTotalPence),
	}
	if len(out.Overrides) > 0 {
		fields = append(fields, zap.Int("overrides", len(out.Overrides)))
	}
	if len(out.Warnings) > 0 {
		fields = append(fields, zap.Strings("warnings", out.Warnings))
	}
	s.logger.Info("item committed", fields...)

	return item, nil
}

// DuplicateItem copies an item's stored snapshot verbatim to the end of the quote.
func (s *Service) DuplicateItem(ctx context.Context, quoteID, itemID string) (Item, error) {
	src, err := s.store.GetItem(ctx, quoteID, itemID)
	if err != nil {
		return Item{}, err
	}

	item, err := s.store.InsertItem(ctx, Item{
		ID:             s.newID(),
		QuoteID:        quoteID,
		ItemType:       src.ItemType,
		Input:          src.Input,
		Output:         src.Output,
		LineTotalPence: src.LineTotalPence,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return Item{}, fmt.Errorf("duplicate quote item: %w", err)
	}

	s.logger.Info("item duplicated",
		zap.String("quote_id", quoteID),
		zap.String("source_item_id", itemID),
		zap.String("item_id", item.ID),
	)
	return item, nil
}

// DeleteItem removes an item from a quote.
func (s *Service) DeleteItem(ctx context.Context, quoteID, itemID string) error {
	if err := s.store.DeleteItem(ctx, quoteID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrQuoteNotFound) {
			return err
		}
		return fmt.Errorf("delete quote item: %w", err)
	}

	s.logger.Info("item deleted", zap.String("quote_id", quoteID), zap.String("item_id", itemID))
	return nil
}
