package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "missing", "settings.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ru", store.Language())
	assert.Equal(t, "light", store.Theme())
	assert.Equal(t, "RUB", store.DisplayCurrency())
	assert.Empty(t, store.Get(KeyFXRates))
	assert.Empty(t, store.Get(KeyFXDate))
}

func TestSync_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	store, err := New(path)
	require.NoError(t, err)
	store.Set(KeyTheme, "dark")
	store.Set(KeyFXRates, `{"EUR":98,"RUB":1,"USD":90}`)
	store.Set(KeyFXDate, "2024-01-15")
	require.NoError(t, store.Sync())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.Theme())
	assert.Equal(t, "ru", reloaded.Language())
	assert.Equal(t, `{"EUR":98,"RUB":1,"USD":90}`, reloaded.Get(KeyFXRates))
	assert.Equal(t, "2024-01-15", reloaded.Get(KeyFXDate))
}

func TestSetChecked(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{name: "currency upper-cased", key: KeyDisplayCurrency, value: " usd ", want: "USD"},
		{name: "key case-insensitive", key: "Language", value: "en", want: "en"},
		{name: "unknown key", key: "font", value: "mono", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemory()
			err := store.SetChecked(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.Get(tt.key))
		})
	}
}

func TestEffective(t *testing.T) {
	store := NewMemory()
	store.Set(KeyDisplayCurrency, "eur")
	store.Set(KeyFXDate, "2024-01-15")

	assert.Equal(t, "ru", store.Effective(KeyLanguage))
	assert.Equal(t, "light", store.Effective("Theme"))
	assert.Equal(t, "eur", store.Get(KeyDisplayCurrency))
	assert.Equal(t, "EUR", store.Effective(KeyDisplayCurrency))
	assert.Equal(t, "2024-01-15", store.Effective(KeyFXDate))
}

func TestNewMemory_SyncIsNoop(t *testing.T) {
	store := NewMemory()
	store.Set(KeyTheme, "dark")
	require.NoError(t, store.Sync())
	assert.Empty(t, store.Path())
	assert.Equal(t, "dark", store.Theme())
}

func TestNew_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [unclosed"), 0o600))

	_, err := New(path)
	assert.Error(t, err)
}
