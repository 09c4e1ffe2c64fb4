// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/mint-balance/internal/model"
)

// LedgerStore defines the contract for our persistence layer.
type LedgerStore interface {
	// Identity
	EnsureUser(ctx context.Context) (int64, error)
	EnsureAccount(ctx context.Context, userID int64) (int64, error)

	// Category operations
	GetCategories(ctx context.Context, userID int64, kind *model.Kind) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	AddCategory(ctx context.Context, userID int64, name string, kind model.Kind) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Operation operations
	RecordOperation(ctx context.Context, input model.OperationInput) (int64, error)
	DeleteOperation(ctx context.Context, id int64) error
	ListOperations(ctx context.Context, accountID int64) ([]model.Operation, error)
	GetBalance(ctx context.Context, accountID int64) (int64, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Settings is the key/value store for user preferences and the rate cache.
type Settings interface {
	Get(key string) string
	Set(key string, value string)
	Sync() error
}

// RateSource fetches a rate table from one remote provider.
type RateSource interface {
	Name() string
	Fetch(ctx context.Context) (model.RateTable, error)
}

// RateLookup resolves a currency code to its rate relative to the base currency.
type RateLookup interface {
	Rate(code string) (float64, error)
	Base() string
}

// RowWriter receives already formatted tabular rows at the export boundary.
type RowWriter interface {
	Write(ctx context.Context, header []string, rows [][]string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills zero fields with sensible defaults.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
