package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/quote"
)

// listConcurrency bounds the per-quote item queries issued by ListQuotes.
const listConcurrency = 8

type pricingSetRecord struct {
	ID           string `dynamodbav:"id"`
	Version      int    `dynamodbav:"version"`
	ContentHash  string `dynamodbav:"content_hash"`
	RateCardJSON string `dynamodbav:"rate_card_json"`
	CreatedAt    string `dynamodbav:"created_at"`
	UpdatedAt    string `dynamodbav:"updated_at"`
}

type quoteRecord struct {
	ID           string `dynamodbav:"id"`
	Title        string `dynamodbav:"title"`
	PricingSetID string `dynamodbav:"pricing_set_id"`
	CreatedAt    string `dynamodbav:"created_at"`
	NextPosition int    `dynamodbav:"next_position"`
}

type itemRecord struct {
	QuoteID        string `dynamodbav:"quote_id"`
	ID             string `dynamodbav:"id"`
	Position       int    `dynamodbav:"position"`
	ItemType       string `dynamodbav:"item_type"`
	InputJSON      string `dynamodbav:"input_json"`
	OutputJSON     string `dynamodbav:"output_json"`
	LineTotalPence int64  `dynamodbav:"line_total_pence"`
	CreatedAt      string `dynamodbav:"created_at"`
}

// Store persists quotes and pricing sets in three DynamoDB tables:
//   - pricing sets: PK id
//   - quotes: PK id, with a next_position counter
//   - quote items: PK quote_id, SK id
type Store struct {
	api    API
	tables Tables
	now    func() time.Time
}

var _ quote.Store = (*Store)(nil)

// New returns a Store using the given tables.
func New(api API, tables Tables) *Store {
	return &Store{api: api, tables: tables, now: func() time.Time { return time.Now().UTC() }}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

func itemKey(quoteID, itemID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"quote_id": &types.AttributeValueMemberS{Value: quoteID},
		"id":       &types.AttributeValueMemberS{Value: itemID},
	}
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

func (s *Store) GetPricingSet(ctx context.Context, id string) (quote.PricingSet, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.PricingSets),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return quote.PricingSet{}, fmt.Errorf("get pricing set: %w", err)
	}
	if len(out.Item) == 0 {
		return quote.PricingSet{}, quote.ErrPricingSetNotFound
	}

	var rec pricingSetRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return quote.PricingSet{}, fmt.Errorf("decode pricing set: %w", err)
	}

	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return quote.PricingSet{}, fmt.Errorf("decode pricing set %s: %w", id, err)
	}
	updatedAt, err := parseTime(rec.UpdatedAt)
	if err != nil {
		return quote.PricingSet{}, fmt.Errorf("decode pricing set %s: %w", id, err)
	}
	set := quote.PricingSet{
		ContentHash: rec.ContentHash,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if err := json.Unmarshal([]byte(rec.RateCardJSON), &set.Card); err != nil {
		return quote.PricingSet{}, fmt.Errorf("decode pricing set %s: %w", id, err)
	}
	return set, nil
}

func (s *Store) UpsertPricingSet(ctx context.Context, card pricing.RateCard) (quote.WriteResult, error) {
	hash, err := card.ContentHash()
	if err != nil {
		return quote.Unchanged, err
	}
	raw, err := json.Marshal(card)
	if err != nil {
		return quote.Unchanged, fmt.Errorf("encode rate card: %w", err)
	}

	now := formatTime(s.now())
	rec := pricingSetRecord{
		ID:           card.PricingSetID,
		Version:      card.Version,
		ContentHash:  hash,
		RateCardJSON: string(raw),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	result := quote.Inserted

	existing, err := s.GetPricingSet(ctx, card.PricingSetID)
	switch {
	case errors.Is(err, quote.ErrPricingSetNotFound):
	case err != nil:
		return quote.Unchanged, err
	case existing.ContentHash == hash:
		return quote.Unchanged, nil
	default:
		result = quote.Updated
		rec.CreatedAt = formatTime(existing.CreatedAt)
	}

	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return quote.Unchanged, fmt.Errorf("encode pricing set: %w", err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.PricingSets),
		Item:      av,
	}); err != nil {
		return quote.Unchanged, fmt.Errorf("put pricing set: %w", err)
	}
	return result, nil
}

func (s *Store) CreateQuote(ctx context.Context, q quote.Quote) error {
	av, err := attributevalue.MarshalMap(quoteRecord{
		ID:           q.ID,
		Title:        q.Title,
		PricingSetID: q.PricingSetID,
		CreatedAt:    formatTime(q.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Quotes),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return fmt.Errorf("put quote: %w", err)
	}
	return nil
}

func (s *Store) getQuoteRecord(ctx context.Context, id string) (quoteRecord, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Quotes),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return quoteRecord{}, fmt.Errorf("get quote: %w", err)
	}
	if len(out.Item) == 0 {
		return quoteRecord{}, quote.ErrQuoteNotFound
	}

	var rec quoteRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return quoteRecord{}, fmt.Errorf("decode quote: %w", err)
	}
	return rec, nil
}

func (s *Store) GetQuote(ctx context.Context, id string) (quote.Quote, error) {
	rec, err := s.getQuoteRecord(ctx, id)
	if err != nil {
		return quote.Quote{}, err
	}

	items, err := s.queryItems(ctx, id)
	if err != nil {
		return quote.Quote{}, err
	}
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return quote.Quote{}, fmt.Errorf("decode quote %s: %w", id, err)
	}

	q := quote.Quote{
		ID:           rec.ID,
		Title:        rec.Title,
		PricingSetID: rec.PricingSetID,
		CreatedAt:    createdAt,
		Items:        items,
	}
	for _, it := range items {
		q.TotalPence += it.LineTotalPence
	}
	return q, nil
}

func (s *Store) queryItems(ctx context.Context, quoteID string) ([]quote.Item, error) {
	paginator := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.QuoteItems),
		KeyConditionExpression: aws.String("#quote_id = :quote_id"),
		ExpressionAttributeNames: map[string]string{
			"#quote_id": "quote_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":quote_id": &types.AttributeValueMemberS{Value: quoteID},
		},
		ConsistentRead: aws.Bool(true),
	})

	items := make([]quote.Item, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query quote items: %w", err)
		}
		var recs []itemRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("decode quote items: %w", err)
		}
		for _, rec := range recs {
			item, err := fromItemRecord(rec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (s *Store) ListQuotes(ctx context.Context, query string) ([]quote.Summary, error) {
	paginator := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName: aws.String(s.tables.Quotes),
	})

	needle := strings.ToLower(query)
	var recs []quoteRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan quotes: %w", err)
		}
		var batch []quoteRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode quotes: %w", err)
		}
		for _, rec := range batch {
			if needle == "" || strings.Contains(strings.ToLower(rec.Title), needle) {
				recs = append(recs, rec)
			}
		}
	}

	summaries := make([]quote.Summary, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			items, err := s.queryItems(gctx, rec.ID)
			if err != nil {
				return err
			}
			createdAt, err := parseTime(rec.CreatedAt)
			if err != nil {
				return fmt.Errorf("decode quote %s: %w", rec.ID, err)
			}
			sum := quote.Summary{
				ID:           rec.ID,
				Title:        rec.Title,
				PricingSetID: rec.PricingSetID,
				CreatedAt:    createdAt,
				ItemCount:    len(items),
			}
			for _, it := range items {
				sum.TotalPence += it.LineTotalPence
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

// InsertItem reserves the next position on the quote record, then writes the item.
func (s *Store) InsertItem(ctx context.Context, item quote.Item) (quote.Item, error) {
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tables.Quotes),
		Key:                 stringKey("id", item.QuoteID),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("ADD #next_position :one"),
		ExpressionAttributeNames: map[string]string{
			"#id":            "id",
			"#next_position": "next_position",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return quote.Item{}, quote.ErrQuoteNotFound
		}
		return quote.Item{}, fmt.Errorf("reserve item position: %w", err)
	}

	next, ok := out.Attributes["next_position"].(*types.AttributeValueMemberN)
	if !ok {
		return quote.Item{}, fmt.Errorf("reserve item position: missing next_position")
	}
	pos, err := strconv.Atoi(next.Value)
	if err != nil {
		return quote.Item{}, fmt.Errorf("reserve item position: %w", err)
	}
	item.Position = pos

	av, err := attributevalue.MarshalMap(toItemRecord(item))
	if err != nil {
		return quote.Item{}, fmt.Errorf("encode quote item: %w", err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.QuoteItems),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	}); err != nil {
		return quote.Item{}, fmt.Errorf("put quote item: %w", err)
	}
	return item, nil
}

func (s *Store) GetItem(ctx context.Context, quoteID, itemID string) (quote.Item, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.QuoteItems),
		Key:            itemKey(quoteID, itemID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return quote.Item{}, fmt.Errorf("get quote item: %w", err)
	}
	if len(out.Item) == 0 {
		return quote.Item{}, quote.ErrItemNotFound
	}

	var rec itemRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return quote.Item{}, fmt.Errorf("decode quote item: %w", err)
	}
	return fromItemRecord(rec)
}

func (s *Store) DeleteItem(ctx context.Context, quoteID, itemID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tables.QuoteItems),
		Key:                 itemKey(quoteID, itemID),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err == nil {
		return nil
	}
	if !isConditionFailed(err) {
		return fmt.Errorf("delete quote item: %w", err)
	}

	if _, err := s.getQuoteRecord(ctx, quoteID); err != nil {
		return err
	}
	return quote.ErrItemNotFound
}

func toItemRecord(it quote.Item) itemRecord {
	return itemRecord{
		QuoteID:        it.QuoteID,
		ID:             it.ID,
		Position:       it.Position,
		ItemType:       it.ItemType,
		InputJSON:      string(it.Input),
		OutputJSON:     string(it.Output),
		LineTotalPence: it.LineTotalPence,
		CreatedAt:      formatTime(it.CreatedAt),
	}
}

func fromItemRecord(rec itemRecord) (quote.Item, error) {
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return quote.Item{}, fmt.Errorf("decode quote item %s: %w", rec.ID, err)
	}
	return quote.Item{
		ID:             rec.ID,
		QuoteID:        rec.QuoteID,
		Position:       rec.Position,
		ItemType:       rec.ItemType,
		Input:          json.RawMessage(rec.InputJSON),
		Output:         json.RawMessage(rec.OutputJSON),
		LineTotalPence: rec.LineTotalPence,
		CreatedAt:      createdAt,
	}, nil
}
