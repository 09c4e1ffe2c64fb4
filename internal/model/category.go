// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind tells whether money came in or went out. It is shared by categories and operations.
type Kind string

const (
	// KindExpense represents money leaving the account.
	KindExpense Kind = "expense"
	// KindIncome represents money entering the account.
	KindIncome Kind = "income"
)

// UncategorizedLabel is shown for operations whose category reference is absent.
const UncategorizedLabel = "Uncategorized"

// ParseKind converts user input into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "exp", "e", "0":
		return KindExpense, nil
	case "income", "inc", "i", "1":
		return KindIncome, nil
	default:
		return "", fmt.Errorf("unknown kind %q: must be expense or income", s)
	}
}

// KindFromIncome maps a boolean income flag to a Kind.
func KindFromIncome(income bool) Kind {
	if income {
		return KindIncome
	}
	return KindExpense
}

// Sign returns +1 for income and -1 for expense.
func (k Kind) Sign() int64 {
	if k == KindIncome {
		return 1
	}
	return -1
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

// Category groups operations for reporting. Its kind never changes after creation.
type Category struct {
	CreatedAt time.Time
	Name      string
	Kind      Kind
	ID        int64
	UserID    int64
}

// DefaultCategories are seeded for a user that has none yet.
var DefaultCategories = []Category{
	{Name: "Food", Kind: KindExpense},
	{Name: "Transport", Kind: KindExpense},
	{Name: "Entertainment", Kind: KindExpense},
	{Name: "Salary", Kind: KindIncome},
	{Name: "Gift", Kind: KindIncome},
}
