package quote

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Simplici0/signworks/internal/pricing"
)

type fakeStore struct {
	mu         sync.Mutex
	sets       map[string]pricing.RateCard
	setLookups int
	quotes     map[string]Quote
	items      map[string][]Item
}

func newFakeStore(cards ...pricing.RateCard) *fakeStore {
	f := &fakeStore{
		sets:   map[string]pricing.RateCard{},
		quotes: map[string]Quote{},
		items:  map[string][]Item{},
	}
	for _, c := range cards {
		f.sets[c.PricingSetID] = c
	}
	return f
}

func (f *fakeStore) GetPricingSet(_ context.Context, id string) (PricingSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLookups++
	card, ok := f.sets[id]
	if !ok {
		return PricingSet{}, ErrPricingSetNotFound
	}
	return PricingSet{Card: card}, nil
}

func (f *fakeStore) UpsertPricingSet(_ context.Context, card pricing.RateCard) (WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.sets[card.PricingSetID]
	f.sets[card.PricingSetID] = card
	if existed {
		return Updated, nil
	}
	return Inserted, nil
}

func (f *fakeStore) CreateQuote(_ context.Context, q Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.Items = nil
	f.quotes[q.ID] = q
	return nil
}

func (f *fakeStore) GetQuote(_ context.Context, id string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	q.Items = append([]Item{}, f.items[id]...)
	for _, it := range q.Items {
		q.TotalPence += it.LineTotalPence
	}
	return q, nil
}

func (f *fakeStore) ListQuotes(_ context.Context, query string) ([]Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Summary
	for _, q := range f.quotes {
		if query != "" && !strings.Contains(strings.ToLower(q.Title), strings.ToLower(query)) {
			continue
		}
		s := Summary{ID: q.ID, Title: q.Title, PricingSetID: q.PricingSetID, CreatedAt: q.CreatedAt}
		for _, it := range f.items[q.ID] {
			s.ItemCount++
			s.TotalPence += it.LineTotalPence
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) InsertItem(_ context.Context, item Item) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.quotes[item.QuoteID]; !ok {
		return Item{}, ErrQuoteNotFound
	}
	items := f.items[item.QuoteID]
	item.Position = 1
	if n := len(items); n > 0 {
		item.Position = items[n-1].Position + 1
	}
	f.items[item.QuoteID] = append(items, item)
	return item, nil
}

func (f *fakeStore) GetItem(_ context.Context, quoteID, itemID string) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items[quoteID] {
		if it.ID == itemID {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

func (f *fakeStore) DeleteItem(_ context.Context, quoteID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items[quoteID]
	for i, it := range items {
		if it.ID == itemID {
			f.items[quoteID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (f *fakeStore) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLookups
}
