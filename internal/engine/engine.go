// Package engine implements the ledger: recording, totals, conversion and aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/model"
	"github.com/Veraticus/mint-balance/internal/service"
)

// Validation errors raised before anything is written.
var (
	ErrCategoryNotFound     = fmt.Errorf("%w: category not found", common.ErrValidation)
	ErrCategoryKindMismatch = fmt.Errorf("%w: category kind does not match operation", common.ErrValidation)
	ErrInvalidWindow        = fmt.Errorf("%w: window must not be negative", common.ErrValidation)
)

// displayCurrencyKey is the settings key of the user's display currency.
const displayCurrencyKey = "display_currency"

// Context identifies whose ledger the engine operates on.
type Context struct {
	UserID    int64
	AccountID int64
}

// Engine orchestrates the ledger store and the rate provider.
type Engine struct {
	store    service.LedgerStore
	rates    service.RateLookup
	settings service.Settings
	now      func() time.Time
	ident    Context
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for windows and default dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Open resolves the local user and account, seeding default categories on first use.
func Open(ctx context.Context, store service.LedgerStore, rates service.RateLookup, settings service.Settings, opts ...Option) (*Engine, error) {
	if store == nil || rates == nil || settings == nil {
		return nil, errors.New("engine requires a store, a rate lookup and settings")
	}

	userID, err := store.EnsureUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	accountID, err := store.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	e := &Engine{
		store:    store,
		rates:    rates,
		settings: settings,
		now:      time.Now,
		ident:    Context{UserID: userID, AccountID: accountID},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.seedCategories(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) seedCategories(ctx context.Context) error {
	existing, err := e.store.GetCategories(ctx, e.ident.UserID, nil)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, c := range model.DefaultCategories {
		if _, err := e.store.AddCategory(ctx, e.ident.UserID, c.Name, c.Kind); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}
	slog.Info("seeded default categories", "count", len(model.DefaultCategories))
	return nil
}

// Ident returns the resolved user and account.
func (e *Engine) Ident() Context {
	return e.ident
}

// Base returns the base currency all stored amounts use.
func (e *Engine) Base() string {
	return e.rates.Base()
}

// DisplayCurrency returns the configured display currency, the base currency when unset.
func (e *Engine) DisplayCurrency() string {
	code := strings.ToUpper(strings.TrimSpace(e.settings.Get(displayCurrencyKey)))
	if code == "" {
		return e.rates.Base()
	}
	return code
}

// RecordInput describes an operation entered by the user.
type RecordInput struct {
	Date       time.Time
	CategoryID *int64
	Note       string
	// Currency of Amount. Empty means the display currency.
	Currency string
	Amount   float64
	Income   bool
}

// Record validates and stores an operation, converting its amount into the base currency.
// A zero amount is ignored and yields id 0.
func (e *Engine) Record(ctx context.Context, in RecordInput) (int64, error) {
	amount := math.Abs(in.Amount)
	if amount == 0 {
		slog.Debug("ignoring zero amount operation")
		return 0, nil
	}
	kind := model.KindFromIncome(in.Income)

	if in.CategoryID != nil {
		if err := e.checkCategory(ctx, *in.CategoryID, kind); err != nil {
			return 0, err
		}
	}

	currency := in.Currency
	if currency == "" {
		currency = e.DisplayCurrency()
	}
	baseAmount, err := e.Convert(amount, currency, e.rates.Base())
	if err != nil {
		return 0, err
	}

	date := in.Date
	if date.IsZero() {
		date = e.now()
	}

	return e.store.RecordOperation(ctx, model.OperationInput{
		AccountID:  e.ident.AccountID,
		Kind:       kind,
		Amount:     baseAmount,
		CategoryID: in.CategoryID,
		Date:       date,
		Note:       strings.TrimSpace(in.Note),
	})
}

func (e *Engine) checkCategory(ctx context.Context, id int64, kind model.Kind) error {
	cat, err := e.store.GetCategory(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat.UserID != e.ident.UserID {
		return fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	if cat.Kind != kind {
		return fmt.Errorf("%w: %q is %s", ErrCategoryKindMismatch, cat.Name, cat.Kind)
	}
	return nil
}

// Delete removes an operation. Unknown ids are ignored.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	return e.store.DeleteOperation(ctx, id)
}

// Operations lists the account's operations, newest first.
func (e *Engine) Operations(ctx context.Context) ([]model.Operation, error) {
	return e.store.ListOperations(ctx, e.ident.AccountID)
}

// Balance returns the account balance in base minor units.
func (e *Engine) Balance(ctx context.Context) (int64, error) {
	return e.store.GetBalance(ctx, e.ident.AccountID)
}

// BalanceAmount returns the account balance in base major units.
func (e *Engine) BalanceAmount(ctx context.Context) (float64, error) {
	minor, err := e.Balance(ctx)
	if err != nil {
		return 0, err
	}
	return model.FromMinorUnits(minor), nil
}

// Totals returns the income and expense sums over the whole history, in base major units.
func (e *Engine) Totals(ctx context.Context) (income, expense float64, err error) {
	ops, err := e.Operations(ctx)
	if err != nil {
		return 0, 0, err
	}

	var in, out int64
	for _, op := range ops {
		if op.Kind == model.KindIncome {
			in += op.Amount
		} else {
			out += op.Amount
		}
	}
	return model.FromMinorUnits(in), model.FromMinorUnits(out), nil
}

// Convert expresses amount of from in to.
func (e *Engine) Convert(amount float64, from, to string) (float64, error) {
	fromRate, err := e.rates.Rate(from)
	if err != nil {
		return 0, err
	}
	toRate, err := e.rates.Rate(to)
	if err != nil {
		return 0, err
	}
	return amount * fromRate / toRate, nil
}

// FormatMoney renders a base amount in the display currency.
func (e *Engine) FormatMoney(amountBase float64) string {
	display := e.renderCurrency()
	converted, err := e.Convert(amountBase, e.rates.Base(), display)
	if err != nil {
		return model.FormatMoney(amountBase, e.rates.Base())
	}
	return model.FormatMoney(converted, display)
}

// renderCurrency is the display currency, or the base when no rate is known for it.
func (e *Engine) renderCurrency() string {
	display := e.DisplayCurrency()
	if _, err := e.rates.Rate(display); err != nil {
		slog.Warn("display currency unavailable, showing base", "currency", display, "error", err)
		return e.rates.Base()
	}
	return display
}
