package model

import "time"

// TimestampLayout is the storage format of operation timestamps. Timestamps carry no time zone.
const TimestampLayout = "2006-01-02T15:04:05"

// MonthLayout keys the monthly aggregation buckets.
const MonthLayout = "2006-01"

// Operation is a single stored income or expense.
type Operation struct {
	Date         time.Time
	CategoryID   *int64
	Kind         Kind
	CategoryName string // resolved display name, UncategorizedLabel when CategoryID is nil
	Note         string
	ID           int64
	AccountID    int64
	Amount       int64 // minor units, never negative
}

// Signed returns the operation's contribution to the account balance in minor units.
func (o Operation) Signed() int64 {
	return o.Kind.Sign() * o.Amount
}

// OperationInput carries everything needed to store a new operation.
type OperationInput struct {
	Date       time.Time
	CategoryID *int64
	Kind       Kind
	Note       string
	AccountID  int64
	Amount     float64 // major units, non-negative
}

// Account holds the incrementally maintained balance of a user.
type Account struct {
	ID      int64
	UserID  int64
	Balance int64 // minor units
}

// ImportedOperation is an operation parsed from a bank statement, not yet recorded.
type ImportedOperation struct {
	Date     time.Time
	Note     string
	Currency string
	Amount   float64
	Income   bool
}

// Naive drops the location of t while keeping its wall clock reading.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
