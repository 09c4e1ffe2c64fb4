package pattern

import (
	"fmt"
	"strings"

	"github.com/Veraticus/mint-balance/internal/model"
)

// Validate checks that every rule names an existing category whose kind agrees with the rule.
// Rules without a kind must name a category that exists for at least one kind.
func Validate(rules []Rule, categories []model.Category) error {
	kinds := make(map[string]map[model.Kind]bool, len(categories))
	for _, c := range categories {
		name := strings.ToLower(c.Name)
		if kinds[name] == nil {
			kinds[name] = make(map[model.Kind]bool)
		}
		kinds[name][c.Kind] = true
	}

	for i, rule := range rules {
		if rule.Category == "" {
			return fmt.Errorf("rule %d: category is required", i+1)
		}
		known, ok := kinds[strings.ToLower(rule.Category)]
		if !ok {
			return fmt.Errorf("rule %d references unknown category %q", i+1, rule.Category)
		}
		if rule.Kind != nil && !known[*rule.Kind] {
			return fmt.Errorf("rule %d: category %q has no %s variant", i+1, rule.Category, *rule.Kind)
		}
		switch rule.AmountCondition {
		case "", AmountAny, AmountLT, AmountLE, AmountEQ, AmountGE, AmountGT, AmountRange:
		default:
			return fmt.Errorf("rule %d: unknown amount condition %q", i+1, rule.AmountCondition)
		}
	}
	return nil
}
