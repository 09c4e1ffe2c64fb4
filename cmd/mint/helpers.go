package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/config"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/model"
	"github.com/Veraticus/mint-balance/internal/rates"
	"github.com/Veraticus/mint-balance/internal/service"
	"github.com/Veraticus/mint-balance/internal/settings"
	"github.com/Veraticus/mint-balance/internal/storage"
)

// dateLayout is how dates are entered on the command line.
const dateLayout = "2006-01-02"

// app bundles everything a ledger command needs.
type app struct {
	config   *config.Config
	store    *storage.SQLiteStorage
	settings *settings.Store
	rates    *rates.Provider
	ledger   *engine.Engine
}

// openApp loads configuration and opens the store, settings, rate provider and engine.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	prefs, err := settings.New(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	cli.ApplyTheme(prefs.Theme())

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	sources, err := rateSources(cfg.Rates)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	provider, err := rates.New(ctx, rates.Config{
		Base:     cfg.Rates.Base,
		Required: cfg.Rates.Required,
		Offline:  viper.GetBool("rates.offline"),
	}, prefs, sources...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if provider.State() == rates.StateStaleFallback {
		slog.Warn("using stale exchange rates", "date", provider.Date().Format(dateLayout))
	}

	ledger, err := engine.Open(ctx, store, provider, prefs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		config:   cfg,
		store:    store,
		settings: prefs,
		rates:    provider,
		ledger:   ledger,
	}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// rateSources builds the configured source chain in priority order.
func rateSources(cfg config.RatesConfig) ([]service.RateSource, error) {
	var sources []service.RateSource
	if cfg.PrimaryURL != "" {
		primary, err := rates.ExchangeRateHost(cfg.PrimaryURL, cfg.AccessKey, cfg.Required, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		sources = append(sources, primary)
	}
	if cfg.SecondaryURL != "" {
		sources = append(sources, rates.OpenExchangeRates(cfg.SecondaryURL, cfg.Timeout))
	}
	return sources, nil
}

// parseDate accepts an ISO date, optionally with a time, or the words today and yesterday.
// An empty string yields the zero time.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return time.Time{}, nil
	case "today":
		return model.Naive(now), nil
	case "yesterday":
		return model.Naive(now.AddDate(0, 0, -1)), nil
	}

	var lastErr error
	for _, layout := range []string{dateLayout, "2006-01-02 15:04", model.TimestampLayout, engine.ExportDateLayout} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, use YYYY-MM-DD", s), lastErr)
}

// parseAmount reads a user supplied amount, accepting a comma as decimal separator.
func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	clean = strings.ReplaceAll(clean, ",", ".")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, common.NewUserError(fmt.Sprintf("invalid amount %q, use a number such as 1250.50", s), err)
	}
	return v, nil
}

// resolveCategory finds a category of the given kind by id or case-insensitive name.
func resolveCategory(ctx context.Context, ledger *engine.Engine, ref string, kind model.Kind) (*int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	categories, err := ledger.Categories(ctx, &kind)
	if err != nil {
		return nil, err
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, c := range categories {
			if c.ID == id {
				return &id, nil
			}
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, ref) {
			id := c.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: %s category %q", engine.ErrCategoryNotFound, kind, ref)
}

// describeError adds a hint to errors the user can act on.
func describeError(err error) error {
	var userErr *common.UserError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &userErr):
		return err
	case errors.Is(err, rates.ErrUnknownCurrency):
		return fmt.Errorf("%w (run 'mint rates show' for known codes)", err)
	case errors.Is(err, common.ErrDatabaseCorrupted):
		return fmt.Errorf("%w (run 'mint migrate --status')", err)
	default:
		return err
	}
}
