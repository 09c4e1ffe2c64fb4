package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/finance"
	"github.com/Veraticus/mint-balance/internal/settings"
	"github.com/Veraticus/mint-balance/internal/storage"
)

type testEnv struct {
	dir        string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T, extraConfig ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)

	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "mint.db"),
	}
	cfg := fmt.Sprintf("database:\n  path: %s\nsettings:\n  path: %s\nlogging:\n  level: error\n",
		env.dbPath, filepath.Join(dir, "settings.yaml"))
	cfg += strings.Join(extraConfig, "\n")
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))

	t.Cleanup(viper.Reset)
	return env
}

func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath, "--offline"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) balance(t *testing.T) int64 {
	t.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, e.dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	userID, err := store.EnsureUser(ctx)
	require.NoError(t, err)
	accountID, err := store.EnsureAccount(ctx, userID)
	require.NoError(t, err)
	balance, err := store.GetBalance(ctx, accountID)
	require.NoError(t, err)
	return balance
}

func TestCLI_RecordAndReport(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "add", "85000", "--income", "--category", "Salary", "--date", "2024-01-10")
	require.NoError(t, err)
	_, err = env.run(t, "", "add", "150", "--category", "food", "--date", "2024-01-12", "--note", "lunch")
	require.NoError(t, err)

	assert.Equal(t, int64(8485000), env.balance(t))

	out, err := env.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "lunch")
	assert.Contains(t, out, "2024-01-10")

	out, err = env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "100.0%")

	out, err = env.run(t, "", "export", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "12.01.2024")
	assert.Contains(t, out, "Salary")
}

func TestCLI_AddRejectsWrongKindCategory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "add", "100", "--income", "--category", "Food")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrCategoryNotFound)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, int64(0), env.balance(t))
}

func TestCLI_AddZeroAmount(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "add", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing recorded")
	assert.Equal(t, int64(0), env.balance(t))
}

func TestCLI_Delete(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "add", "42.5", "--category", "Transport")
	require.NoError(t, err)
	require.Equal(t, int64(-4250), env.balance(t))

	out, err := env.run(t, "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Equal(t, int64(-4250), env.balance(t))

	_, err = env.run(t, "", "delete", "1", "--yes")
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.balance(t))

	_, err = env.run(t, "", "delete", "abc", "--yes")
	assert.Error(t, err)
}

func TestCLI_Settings(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "settings", "set", "display_currency", "usd")
	require.NoError(t, err)

	out, err := env.run(t, "", "settings", "get", "display_currency")
	require.NoError(t, err)
	assert.Equal(t, "USD", strings.TrimSpace(out))

	_, err = env.run(t, "", "settings", "set", "colour", "red")
	assert.ErrorIs(t, err, settings.ErrUnknownKey)

	out, err = env.run(t, "", "settings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ru")
	assert.Contains(t, out, "light")
	assert.Contains(t, out, "USD")
}

func TestCLI_Calculators(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "loan", "120000", "12", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "10661.85")

	out, err = env.run(t, "", "deposit", "10000", "12", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "11268.25")

	_, err = env.run(t, "", "loan", "--", "1000", "10", "-1")
	assert.ErrorIs(t, err, finance.ErrNegativeTerm)

	out, err = env.run(t, "", "convert", "92", "rub", "usd")
	require.NoError(t, err)
	assert.Contains(t, out, "1.00 USD")
}

func TestCLI_Migrate(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = env.run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestCLI_Import(t *testing.T) {
	env := newTestEnv(t, `import:
  rules:
    - pattern: perekrestok
      category: Food
    - pattern: "^metro"
      regex: true
      category: Transport
`)

	out, err := env.run(t, "", "import", filepath.Join("testdata", "statement.ofx"), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "PEREKRESTOK")
	assert.Contains(t, out, "3 operations not recorded")

	_, err = env.run(t, "", "import", filepath.Join("testdata", "statement.ofx"), "--income-category", "Salary")
	require.NoError(t, err)
	assert.Equal(t, int64(8500000-245075-30000), env.balance(t))

	out, err = env.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "Transport")
	assert.NotContains(t, out, "Uncategorized")
}

func TestCLI_ImportRejectsUnknownRuleCategory(t *testing.T) {
	env := newTestEnv(t, `import:
  rules:
    - pattern: cafe
      category: Dining
`)

	_, err := env.run(t, "", "import", filepath.Join("testdata", "statement.ofx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
	assert.Equal(t, int64(0), env.balance(t))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", input: "", want: time.Time{}},
		{name: "iso date", input: "2024-01-10", want: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{name: "with time", input: "2024-01-10 09:15", want: time.Date(2024, 1, 10, 9, 15, 0, 0, time.UTC)},
		{name: "export layout", input: "10.01.2024", want: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{name: "today", input: "today", want: now},
		{name: "yesterday", input: "Yesterday", want: now.AddDate(0, 0, -1)},
		{name: "garbage", input: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input, now)
			if tt.wantErr {
				var userErr *common.UserError
				assert.ErrorAs(t, err, &userErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "150", want: 150},
		{input: "1250,50", want: 1250.5},
		{input: " 1 000.25 ", want: 1000.25},
		{input: "-20", want: -20},
		{input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Cleanup(viper.Reset)
	root := newRootCmd()

	for _, name := range []string{"add", "delete", "list", "balance", "stats", "convert", "loan", "deposit",
		"rates", "settings", "categories", "import", "export", "migrate", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
