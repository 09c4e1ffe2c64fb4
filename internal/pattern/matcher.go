package pattern

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/mint-balance/internal/model"
)

// MatcherImpl implements Matcher for evaluating pattern rules.
type MatcherImpl struct {
	compiledRegex map[int]*regexp.Regexp
	rules         []Rule
}

// NewMatcher creates a matcher, numbering rules without an ID by position.
// Regex patterns are compiled case-insensitively; an invalid one is an error.
func NewMatcher(rules []Rule) (*MatcherImpl, error) {
	m := &MatcherImpl{
		rules:         make([]Rule, len(rules)),
		compiledRegex: make(map[int]*regexp.Regexp),
	}

	for i, rule := range rules {
		if rule.ID == 0 {
			rule.ID = i + 1
		}
		if rule.AmountCondition == "" {
			rule.AmountCondition = AmountAny
		}
		if rule.IsRegex && rule.Pattern != "" {
			re, err := regexp.Compile("(?i)" + rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", rule.ID, rule.Pattern, err)
			}
			m.compiledRegex[rule.ID] = re
		}
		m.rules[i] = rule
	}

	return m, nil
}

// Rules returns the normalized rules.
func (m *MatcherImpl) Rules() []Rule {
	return m.rules
}

// Match evaluates an operation against all configured patterns and returns matching rules.
func (m *MatcherImpl) Match(_ context.Context, op model.ImportedOperation) ([]Rule, error) {
	var matches []Rule

	for _, rule := range m.rules {
		if rule.Disabled {
			continue
		}
		if m.matchesRule(op, rule) {
			matches = append(matches, rule)
		}
	}

	sortByPriority(matches)
	return matches, nil
}

// Categorize returns the category of the highest priority matching rule.
func (m *MatcherImpl) Categorize(ctx context.Context, op model.ImportedOperation) (string, bool) {
	matches, err := m.Match(ctx, op)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0].Category, true
}

func (m *MatcherImpl) matchesRule(op model.ImportedOperation, rule Rule) bool {
	if !m.matchesNote(op, rule) {
		return false
	}
	if !matchesAmount(op.Amount, rule) {
		return false
	}
	if rule.Kind != nil && model.KindFromIncome(op.Income) != *rule.Kind {
		return false
	}
	return true
}

// matchesNote matches regex rules anywhere in the note and plain rules as a case-insensitive substring.
func (m *MatcherImpl) matchesNote(op model.ImportedOperation, rule Rule) bool {
	if rule.Pattern == "" {
		return true
	}

	if rule.IsRegex {
		if re, ok := m.compiledRegex[rule.ID]; ok {
			return re.MatchString(op.Note)
		}
		return false
	}

	return strings.Contains(strings.ToLower(op.Note), strings.ToLower(rule.Pattern))
}

func matchesAmount(amount float64, rule Rule) bool {
	switch rule.AmountCondition {
	case AmountAny:
		return true
	case AmountLT:
		return rule.AmountValue != nil && amount < *rule.AmountValue
	case AmountLE:
		return rule.AmountValue != nil && amount <= *rule.AmountValue
	case AmountEQ:
		return rule.AmountValue != nil && amount == *rule.AmountValue
	case AmountGE:
		return rule.AmountValue != nil && amount >= *rule.AmountValue
	case AmountGT:
		return rule.AmountValue != nil && amount > *rule.AmountValue
	case AmountRange:
		if rule.AmountMin != nil && amount < *rule.AmountMin {
			return false
		}
		if rule.AmountMax != nil && amount > *rule.AmountMax {
			return false
		}
		return true
	}

	return false
}

// sortByPriority sorts rules by priority, highest first, keeping configuration order on ties.
func sortByPriority(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
