// Package pattern assigns categories to imported operations with user defined rules.
package pattern

import (
	"context"

	"github.com/Veraticus/mint-balance/internal/model"
)

// Matcher evaluates imported operations against pattern rules.
type Matcher interface {
	// Match returns every active rule the operation satisfies, highest priority first.
	Match(ctx context.Context, op model.ImportedOperation) ([]Rule, error)
}

// Amount conditions understood by rules.
const (
	AmountAny   = "any"
	AmountLT    = "lt"
	AmountLE    = "le"
	AmountEQ    = "eq"
	AmountGE    = "ge"
	AmountGT    = "gt"
	AmountRange = "range"
)

// Rule maps operations whose note matches Pattern to Category.
type Rule struct {
	AmountValue     *float64    `mapstructure:"amount_value"`
	AmountMin       *float64    `mapstructure:"amount_min"`
	AmountMax       *float64    `mapstructure:"amount_max"`
	Kind            *model.Kind `mapstructure:"kind"`
	Pattern         string      `mapstructure:"pattern"`
	Category        string      `mapstructure:"category"`
	AmountCondition string      `mapstructure:"amount_condition"`
	Priority        int         `mapstructure:"priority"`
	ID              int         `mapstructure:"id"`
	IsRegex         bool        `mapstructure:"regex"`
	Disabled        bool        `mapstructure:"disabled"`
}
