// Package settings persists user preferences and the exchange rate cache.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Keys understood by the store.
const (
	KeyLanguage        = "language"
	KeyTheme           = "theme"
	KeyDisplayCurrency = "display_currency"
	KeyFXRates         = "fx_rates"
	KeyFXDate          = "fx_date"
)

// Default values for user preferences.
const (
	DefaultLanguage        = "ru"
	DefaultTheme           = "light"
	DefaultDisplayCurrency = "RUB"
)

// ErrUnknownKey is returned when setting a key the store does not manage.
var ErrUnknownKey = errors.New("unknown settings key")

// Store is a key/value settings file backed by viper.
// An empty path gives a memory-only store whose Sync is a no-op.
type Store struct {
	v    *viper.Viper
	path string
	mu   sync.RWMutex
}

// Keys returns every key the store manages, in display order.
func Keys() []string {
	return []string{KeyLanguage, KeyTheme, KeyDisplayCurrency, KeyFXRates, KeyFXDate}
}

// IsKnownKey reports whether key is managed by the store.
func IsKnownKey(key string) bool {
	key = normalizeKey(key)
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// New loads the settings file at path. A missing file is not an error.
func New(path string) (*Store, error) {
	v := viper.New()
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyTheme, DefaultTheme)
	v.SetDefault(KeyDisplayCurrency, DefaultDisplayCurrency)

	s := &Store{v: v, path: path}
	if path == "" {
		return s, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
		slog.Debug("settings file not found, using defaults", "path", path)
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	s, _ := New("")
	return s
}

// Path returns the backing file, empty for memory-only stores.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value for key or its default. Unset keys without a default yield "".
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(normalizeKey(key))
}

// Set updates key in memory. Call Sync to persist.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(normalizeKey(key), value)
}

// SetChecked is Set restricted to managed keys.
func (s *Store) SetChecked(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if normalizeKey(key) == KeyDisplayCurrency {
		value = strings.ToUpper(strings.TrimSpace(value))
	}
	s.Set(key, value)
	return nil
}

// Sync writes the current settings to the backing file.
func (s *Store) Sync() error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}
	return nil
}

// Language returns the interface language code.
func (s *Store) Language() string {
	return s.Get(KeyLanguage)
}

// Theme returns the color theme name.
func (s *Store) Theme() string {
	return s.Get(KeyTheme)
}

// DisplayCurrency returns the currency code used for input defaults and display.
func (s *Store) DisplayCurrency() string {
	return strings.ToUpper(s.Get(KeyDisplayCurrency))
}

// Effective returns the value key resolves to, as the rest of the program sees it.
func (s *Store) Effective(key string) string {
	switch normalizeKey(key) {
	case KeyLanguage:
		return s.Language()
	case KeyTheme:
		return s.Theme()
	case KeyDisplayCurrency:
		return s.DisplayCurrency()
	default:
		return s.Get(key)
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
