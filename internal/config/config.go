package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultEnv          = "dev"
	defaultDBPath       = "./dev.db"
	defaultPort         = "8080"
	defaultStoreBackend = BackendSQLite
	defaultLogLevel     = "info"
	defaultLogFormat    = "json"
	defaultPricingSet   = "standard-v1"
	defaultAWSRegion    = "us-east-1"

	defaultPricingSetsTable = "pricing_sets"
	defaultQuotesTable      = "quotes"
	defaultQuoteItemsTable  = "quote_items"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env               string
	Port              string
	DBPath            string
	StoreBackend      string
	LogLevel          string
	LogFormat         string
	DefaultPricingSet string

	AWSRegion        string
	DynamoEndpoint   string
	PricingSetsTable string
	QuotesTable      string
	QuoteItemsTable  string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production injects real environment variables.
	_ = loadDotEnv(".env")

	return Config{
		Env:               getenvDefault("APP_ENV", defaultEnv),
		Port:              getenvDefault("PORT", defaultPort),
		DBPath:            getenvDefault("DB_PATH", defaultDBPath),
		StoreBackend:      strings.ToLower(getenvDefault("STORE_BACKEND", defaultStoreBackend)),
		LogLevel:          getenvDefault("LOG_LEVEL", defaultLogLevel),
		LogFormat:         getenvDefault("LOG_FORMAT", defaultLogFormat),
		DefaultPricingSet: getenvDefault("DEFAULT_PRICING_SET", defaultPricingSet),

		AWSRegion:        getenvDefault("AWS_REGION", defaultAWSRegion),
		DynamoEndpoint:   os.Getenv("DYNAMODB_ENDPOINT"),
		PricingSetsTable: getenvDefault("PRICING_SETS_TABLE", defaultPricingSetsTable),
		QuotesTable:      getenvDefault("QUOTES_TABLE", defaultQuotesTable),
		QuoteItemsTable:  getenvDefault("QUOTE_ITEMS_TABLE", defaultQuoteItemsTable),
	}
}

// IsDev reports whether the process runs in local development mode, where the server
// migrates and seeds its own database at boot.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, BackendSQLite, BackendDynamoDB)
	}
	return nil
}

// Warnings lists settings that are legal but probably unintended.
func (c Config) Warnings() []string {
	var warnings []string
	if !c.IsDev() && c.StoreBackend == BackendSQLite && c.DBPath == defaultDBPath {
		warnings = append(warnings, "DB_PATH is not set; using "+defaultDBPath)
	}
	if c.StoreBackend == BackendDynamoDB && c.DynamoEndpoint == "" && c.IsDev() {
		warnings = append(warnings, "DYNAMODB_ENDPOINT is not set; dev mode will talk to AWS")
	}
	return warnings
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
