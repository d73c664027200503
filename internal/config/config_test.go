package config

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if _, ok := os.LookupEnv(k); ok {
			t.Fatalf("%s is already set in the test environment", k)
		}
		key := k
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	unsetAfter(t, "SIGNWORKS_A", "SIGNWORKS_B", "SIGNWORKS_C", "SIGNWORKS_Q")

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte(`
# comment

SIGNWORKS_A=one
export SIGNWORKS_B=two
SIGNWORKS_C="three"
SIGNWORKS_Q='hello world'
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	for key, want := range map[string]string{
		"SIGNWORKS_A": "one",
		"SIGNWORKS_B": "two",
		"SIGNWORKS_C": "three",
		"SIGNWORKS_Q": "hello world",
	} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q, want %q", key, got, want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("SIGNWORKS_KEEP", "already")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SIGNWORKS_KEEP=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("SIGNWORKS_KEEP"); got != "already" {
		t.Fatalf("SIGNWORKS_KEEP=%q, want %q", got, "already")
	}
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "DB_PATH", "STORE_BACKEND", "LOG_LEVEL", "DEFAULT_PRICING_SET", "QUOTES_TABLE"} {
		t.Setenv(k, "")
	}
	testChdir(t, t.TempDir())

	cfg := Load()

	if cfg.Port != defaultPort || cfg.DBPath != defaultDBPath {
		t.Fatalf("unexpected defaults: port=%q db=%q", cfg.Port, cfg.DBPath)
	}
	if cfg.StoreBackend != BackendSQLite {
		t.Fatalf("StoreBackend=%q, want %q", cfg.StoreBackend, BackendSQLite)
	}
	if cfg.DefaultPricingSet != "standard-v1" {
		t.Fatalf("DefaultPricingSet=%q", cfg.DefaultPricingSet)
	}
	if cfg.QuotesTable != "quotes" {
		t.Fatalf("QuotesTable=%q", cfg.QuotesTable)
	}
	if !cfg.IsDev() {
		t.Fatal("expected dev mode by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("QUOTE_ITEMS_TABLE", "items-prod")
	testChdir(t, t.TempDir())

	cfg := Load()

	if cfg.IsDev() {
		t.Fatal("production must not be dev")
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q", cfg.Port)
	}
	if cfg.StoreBackend != BackendDynamoDB {
		t.Fatalf("StoreBackend=%q", cfg.StoreBackend)
	}
	if cfg.DynamoEndpoint != "http://localhost:8000" || cfg.QuoteItemsTable != "items-prod" {
		t.Fatalf("unexpected dynamo settings: %+v", cfg)
	}
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := Config{StoreBackend: "postgres"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestWarnings(t *testing.T) {
	cfg := Config{Env: "production", StoreBackend: BackendSQLite, DBPath: defaultDBPath}
	if got := cfg.Warnings(); len(got) != 1 {
		t.Fatalf("warnings=%v, want one", got)
	}

	cfg = Config{Env: "dev", StoreBackend: BackendDynamoDB, AWSRegion: "eu-west-2"}
	if got := cfg.Warnings(); len(got) != 1 {
		t.Fatalf("warnings=%v, want one", got)
	}

	cfg = Config{Env: "production", StoreBackend: BackendSQLite, DBPath: "/var/lib/signworks.db"}
	if got := cfg.Warnings(); len(got) != 0 {
		t.Fatalf("warnings=%v, want none", got)
	}
}

// testChdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
