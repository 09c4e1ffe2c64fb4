// Package finance provides loan and deposit calculators.
package finance

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrNegativeTerm is returned for terms below zero months.
var ErrNegativeTerm = errors.New("term cannot be negative")

func monthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12 / 100
}

// LoanPayment returns the fixed monthly annuity payment for a loan.
// A zero term yields 0; a zero rate spreads the principal evenly.
func LoanPayment(principal, annualRatePercent float64, termMonths int) (float64, error) {
	if termMonths < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeTerm, termMonths)
	}
	if termMonths == 0 {
		return 0, nil
	}
	n := float64(termMonths)
	if annualRatePercent == 0 {
		return principal / n, nil
	}

	r := monthlyRate(annualRatePercent)
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1), nil
}

// DepositGrowth returns the deposit balance after termMonths, rounded to cents.
// With capitalize, each month adds the contribution and then one month of interest.
// Without it, simple interest accrues on the initial amount only.
func DepositGrowth(initial, annualRatePercent float64, termMonths int, monthlyContribution float64, capitalize bool) (float64, error) {
	if termMonths < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeTerm, termMonths)
	}
	if termMonths == 0 {
		return initial, nil
	}

	var balance float64
	if capitalize {
		r := monthlyRate(annualRatePercent)
		balance = initial
		for i := 0; i < termMonths; i++ {
			balance = (balance + monthlyContribution) * (1 + r)
		}
	} else {
		years := float64(termMonths) / 12
		balance = initial + initial*annualRatePercent/100*years + monthlyContribution*float64(termMonths)
	}
	return roundCents(balance), nil
}

// TotalPaid returns the sum of all loan payments and the interest portion of it.
func TotalPaid(principal, annualRatePercent float64, termMonths int) (total, interest float64, err error) {
	payment, err := LoanPayment(principal, annualRatePercent, termMonths)
	if err != nil {
		return 0, 0, err
	}
	if termMonths == 0 {
		return 0, 0, nil
	}
	total = roundCents(payment * float64(termMonths))
	return total, roundCents(total - principal), nil
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
