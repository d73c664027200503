package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/pricing/pricingtest"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DEFAULT_PRICING_SET", "standard-v1")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateSeedAndShow(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "sqlite: 2 migration(s) applied\n", out)

	out, err = runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "sqlite: 0 migration(s) applied\n", out)

	out, err = runCLI(t, "seed")
	require.NoError(t, err)
	assert.Equal(t, "seeded: 1 inserted, 0 updated\n", out)

	out, err = runCLI(t, "ratecard", "show", "standard-v1")
	require.NoError(t, err)
	var card pricing.RateCard
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.Equal(t, "standard-v1", card.PricingSetID)

	out, err = runCLI(t, "ratecard", "show", "--format", "yaml", "standard-v1")
	require.NoError(t, err)
	assert.Contains(t, out, "pricing_set_id: standard-v1")

	_, err = runCLI(t, "ratecard", "show", "missing")
	assert.Error(t, err)
}

func TestRateCardImport(t *testing.T) {
	dir := setupEnv(t)
	_, err := runCLI(t, "migrate")
	require.NoError(t, err)

	path := filepath.Join(dir, "card.yaml")
	card := pricingtest.RateCard("import-v1")
	data, err := json.Marshal(card)
	require.NoError(t, err)
	// JSON is valid YAML.
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := runCLI(t, "ratecard", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "import-v1 v1: inserted\n", out)

	out, err = runCLI(t, "ratecard", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "import-v1 v1: unchanged\n", out)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("pricing_set_id: broken\n"), 0o600))
	_, err = runCLI(t, "ratecard", "import", bad)
	assert.Error(t, err)
}

func TestRecalc(t *testing.T) {
	dir := setupEnv(t)
	_, err := runCLI(t, "migrate")
	require.NoError(t, err)

	cardPath := filepath.Join(dir, "card.yaml")
	data, err := json.Marshal(pricingtest.RateCard("test-v1"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cardPath, data, 0o600))
	_, err = runCLI(t, "ratecard", "import", cardPath)
	require.NoError(t, err)

	inputPath := filepath.Join(dir, "item.json")
	data, err = json.Marshal(pricingtest.Input())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(inputPath, data, 0o600))

	out, err := runCLI(t, "recalc", "--pricing-set", "test-v1", inputPath)
	require.NoError(t, err)
	var result pricing.Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.OK)
	assert.Equal(t, pricingtest.BaseLineTotal, result.LineTotalPence)

	data, err = json.Marshal(pricingtest.InvalidInput())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(inputPath, data, 0o600))

	out, err = runCLI(t, "recalc", "--pricing-set", "test-v1", inputPath)
	assert.ErrorIs(t, err, errInvalidInput)
	assert.True(t, strings.Contains(out, `"ok": false`), out)
}
