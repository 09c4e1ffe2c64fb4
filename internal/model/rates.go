package model

import "time"

// DateLayout is the ISO calendar date format used for rate snapshots.
const DateLayout = "2006-01-02"

// RateTable maps currency codes to the value of one unit of that currency
// expressed in Anchor. A table whose Anchor is the base currency is normalized.
type RateTable struct {
	Rates  map[string]float64
	Anchor string
}

// Clone returns a deep copy of the table.
func (t RateTable) Clone() RateTable {
	rates := make(map[string]float64, len(t.Rates))
	for code, v := range t.Rates {
		rates[code] = v
	}
	return RateTable{Anchor: t.Anchor, Rates: rates}
}

// RateSnapshot is the persisted form of the last known rates.
type RateSnapshot struct {
	Date  time.Time
	Rates map[string]float64
}
