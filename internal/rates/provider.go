// Package rates keeps the exchange rate snapshot used to convert amounts into the base currency.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/model"
	"github.com/Veraticus/mint-balance/internal/service"
)

// Settings keys holding the persisted snapshot.
const (
	SettingsKeyRates = "fx_rates"
	SettingsKeyDate  = "fx_date"
)

// DefaultBase is the currency every stored amount is expressed in.
const DefaultBase = "RUB"

// DefaultRequired lists the currencies a fetched table must contain.
var DefaultRequired = []string{"RUB", "USD", "EUR"}

// ErrUnknownCurrency is returned for codes missing from the snapshot.
var ErrUnknownCurrency = errors.New("unknown currency")

// DefaultTable returns the hardcoded rates used before any fetch succeeds.
func DefaultTable() model.RateTable {
	return model.RateTable{
		Anchor: DefaultBase,
		Rates: map[string]float64{
			"RUB": 1,
			"USD": 92,
			"EUR": 100,
		},
	}
}

// State is the freshness of the in-memory snapshot.
type State int

const (
	// StateFresh means the snapshot was fetched or confirmed today.
	StateFresh State = iota
	// StateRefreshing means a fetch is in progress.
	StateRefreshing
	// StateStaleFallback means every source failed and older rates are served.
	StateStaleFallback
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateRefreshing:
		return "refreshing"
	case StateStaleFallback:
		return "stale"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config controls provider behavior. Zero values take defaults.
type Config struct {
	Now      func() time.Time
	Base     string
	Required []string
	// Offline serves the persisted snapshot without contacting sources or writing the cache.
	Offline bool
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Base == "" {
		c.Base = DefaultBase
	}
	c.Base = strings.ToUpper(c.Base)
	if len(c.Required) == 0 {
		c.Required = DefaultRequired
	}
	required := make([]string, 0, len(c.Required)+1)
	seen := make(map[string]bool)
	for _, code := range append([]string{c.Base}, c.Required...) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		required = append(required, code)
	}
	c.Required = required
	return c
}

// Provider serves rates relative to the base currency from a daily cached snapshot.
type Provider struct {
	settings service.Settings
	rates    map[string]float64
	date     time.Time
	sources  []service.RateSource
	cfg      Config
	state    State
	mu       sync.RWMutex
}

// New loads the persisted snapshot and refreshes it when it was not fetched today.
// Source failures are logged and never returned.
func New(ctx context.Context, cfg Config, settings service.Settings, sources ...service.RateSource) (*Provider, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}
	if settings == nil {
		return nil, errors.New("settings store is required")
	}

	p := &Provider{
		settings: settings,
		sources:  sources,
		cfg:      cfg.withDefaults(),
	}
	p.load()

	today := p.today()
	if !p.date.IsZero() && p.date.Equal(today) {
		slog.Debug("exchange rates are current", "date", today.Format(model.DateLayout))
		p.state = StateFresh
		return p, nil
	}
	if p.cfg.Offline {
		slog.Debug("offline, serving cached exchange rates")
		p.state = StateStaleFallback
		return p, nil
	}

	_ = p.refresh(ctx)
	return p, nil
}

// Refresh runs the source chain regardless of the cached date.
// It reports an error when every source failed; the provider keeps serving its previous rates.
func (p *Provider) Refresh(ctx context.Context) error {
	return p.refresh(ctx)
}

// Rate returns how many base units one unit of code is worth.
func (p *Provider) Rate(code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	p.mu.RLock()
	defer p.mu.RUnlock()

	rate, ok := p.rates[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return rate, nil
}

// Rates returns a copy of the snapshot.
func (p *Provider) Rates() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]float64, len(p.rates))
	for code, rate := range p.rates {
		out[code] = rate
	}
	return out
}

// Codes returns the known currency codes, sorted.
func (p *Provider) Codes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	codes := make([]string, 0, len(p.rates))
	for code := range p.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Date returns the date of the persisted snapshot, zero when none exists.
func (p *Provider) Date() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.date
}

// State returns the snapshot freshness.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Base returns the base currency code.
func (p *Provider) Base() string {
	return p.cfg.Base
}

func (p *Provider) today() time.Time {
	now := p.cfg.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// load reads the persisted snapshot, falling back to the default table.
func (p *Provider) load() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if raw := p.settings.Get(SettingsKeyDate); raw != "" {
		date, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			slog.Warn("ignoring invalid cached rate date", "value", raw, "error", err)
		} else {
			p.date = date
		}
	}

	if raw := p.settings.Get(SettingsKeyRates); raw != "" {
		var cached map[string]float64
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			slog.Warn("ignoring invalid cached rates", "error", err)
		} else if rates, err := normalize(model.RateTable{Anchor: p.cfg.Base, Rates: cached}, p.cfg.Base, []string{p.cfg.Base}); err != nil {
			slog.Warn("ignoring invalid cached rates", "error", err)
		} else {
			p.rates = rates
			return
		}
	}

	rates, err := normalize(DefaultTable(), p.cfg.Base, []string{p.cfg.Base})
	if err != nil {
		// Base outside the default table: serve the identity rate only.
		rates = map[string]float64{p.cfg.Base: 1}
	}
	p.rates = rates
}

func (p *Provider) refresh(ctx context.Context) error {
	p.mu.Lock()
	p.state = StateRefreshing
	p.mu.Unlock()

	today := p.today()
	var errs []error

	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		table, err := src.Fetch(ctx)
		if err != nil {
			slog.Warn("rate source failed", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		rates, err := normalize(table, p.cfg.Base, p.cfg.Required)
		if err != nil {
			slog.Warn("rate source returned unusable data", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		p.mu.Lock()
		p.rates = rates
		p.date = today
		p.state = StateFresh
		p.mu.Unlock()

		p.persist(rates, today)
		slog.Info("exchange rates refreshed",
			"source", src.Name(),
			"date", today.Format(model.DateLayout),
			"currencies", len(rates))
		return nil
	}

	// An interrupted refresh says nothing about the sources; keep the old date so the next run retries.
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.mu.Lock()
		p.state = StateStaleFallback
		p.mu.Unlock()
		slog.Warn("exchange rate refresh interrupted, using cached rates", "error", ctxErr)
		return fmt.Errorf("exchange rate refresh interrupted: %w", ctxErr)
	}

	p.mu.Lock()
	p.date = today
	p.state = StateStaleFallback
	p.mu.Unlock()

	p.persist(nil, today)

	err := fmt.Errorf("%w: all %d sources failed", common.ErrRateSourceFailed, len(p.sources))
	if len(errs) > 0 {
		err = fmt.Errorf("%w: %w", err, errors.Join(errs...))
	}
	slog.Error("using cached exchange rates", "error", err)
	return err
}

// persist writes the snapshot date and, when given, the rates to the settings store.
func (p *Provider) persist(rates map[string]float64, date time.Time) {
	if rates != nil {
		encoded, err := json.Marshal(rates)
		if err != nil {
			slog.Error("failed to encode rates", "error", err)
			return
		}
		p.settings.Set(SettingsKeyRates, string(encoded))
	}
	p.settings.Set(SettingsKeyDate, date.Format(model.DateLayout))

	if err := p.settings.Sync(); err != nil {
		slog.Warn("failed to persist exchange rates", "error", err)
	}
}

// normalize converts a table of anchor values into rates relative to base.
// Every required code must be present, positive and finite. Other invalid entries are dropped.
func normalize(table model.RateTable, base string, required []string) (map[string]float64, error) {
	values := make(map[string]float64, len(table.Rates)+1)
	for code, v := range table.Rates {
		values[strings.ToUpper(code)] = v
	}
	if table.Anchor != "" {
		if _, ok := values[strings.ToUpper(table.Anchor)]; !ok {
			values[strings.ToUpper(table.Anchor)] = 1
		}
	}

	baseValue, ok := values[base]
	if !ok || !validRate(baseValue) {
		return nil, fmt.Errorf("%w: base currency %s missing", common.ErrValidation, base)
	}

	rates := make(map[string]float64, len(values))
	for code, v := range values {
		if !validRate(v) {
			continue
		}
		rates[code] = v / baseValue
	}
	rates[base] = 1

	var missing []string
	for _, code := range required {
		if _, ok := rates[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing or invalid rates for %s", common.ErrValidation, strings.Join(missing, ", "))
	}
	return rates, nil
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
