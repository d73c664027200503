// Package backend opens the quote store selected by configuration.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/signworks/internal/config"
	"github.com/Simplici0/signworks/internal/db"
	"github.com/Simplici0/signworks/internal/migrations"
	"github.com/Simplici0/signworks/internal/quote"
	"github.com/Simplici0/signworks/internal/store"
	"github.com/Simplici0/signworks/internal/store/dynamo"
)

// Backend is an open store plus the schema operations its kind supports.
type Backend struct {
	Store quote.Store
	Kind  string

	database *sql.DB
	dynamo   dynamo.API
	tables   dynamo.Tables
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{Region: cfg.AWSRegion, Endpoint: cfg.DynamoEndpoint})
		if err != nil {
			return nil, err
		}
		tables := dynamo.Tables{
			PricingSets: cfg.PricingSetsTable,
			Quotes:      cfg.QuotesTable,
			QuoteItems:  cfg.QuoteItemsTable,
		}
		return &Backend{
			Store:  dynamo.New(client, tables),
			Kind:   config.BackendDynamoDB,
			dynamo: client,
			tables: tables,
		}, nil

	case config.BackendSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &Backend{
			Store:    store.NewSQLite(database),
			Kind:     config.BackendSQLite,
			database: database,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Migrate brings the schema up to date and returns how many changes were applied. For
// DynamoDB that means creating missing tables, which is reported as zero.
func (b *Backend) Migrate(ctx context.Context) (int, error) {
	if b.database != nil {
		applied, err := migrations.Up(ctx, b.database)
		if err != nil {
			return 0, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return applied, nil
	}
	if err := dynamo.EnsureTables(ctx, b.dynamo, b.tables); err != nil {
		return 0, err
	}
	return 0, nil
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.database != nil {
		return b.database.Close()
	}
	return nil
}
