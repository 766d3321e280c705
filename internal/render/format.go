// Package render turns portfolio and watchlist snapshots into markdown for
// the terminal.
package render

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Absent is shown for market fields that have no value yet
const Absent = "-"

// Formatter formats numbers for one display currency
type Formatter struct {
	currency string
}

// NewFormatter creates a formatter for an ISO 4217 currency code
func NewFormatter(currency string) Formatter {
	if currency == "" {
		currency = "TRY"
	}
	return Formatter{currency: currency}
}

// Money formats v rounded to the currency's minor unit
func (f Formatter) Money(v float64) string {
	cur := *money.New(0, f.currency).Currency()
	minor := decimal.NewFromFloat(v).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(minor.IntPart(), f.currency).Display()
}

// MoneyPtr formats an optional amount
func (f Formatter) MoneyPtr(v *float64) string {
	if v == nil {
		return Absent
	}
	return f.Money(*v)
}

// SignedMoney formats v with an explicit sign for gains
func (f Formatter) SignedMoney(v float64) string {
	if decimal.NewFromFloat(v).Round(2).IsPositive() {
		return "+" + f.Money(v)
	}
	return f.Money(v)
}

// SignedMoneyPtr formats an optional gain or loss
func (f Formatter) SignedMoneyPtr(v *float64) string {
	if v == nil {
		return Absent
	}
	return f.SignedMoney(*v)
}

// Percent formats a percentage with two decimals and an explicit sign
func Percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", decimal.NewFromFloat(v).Round(2).InexactFloat64())
}

// PercentPtr formats an optional percentage
func PercentPtr(v *float64) string {
	if v == nil {
		return Absent
	}
	return Percent(*v)
}

// Quantity formats a share count without trailing zeros
func Quantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}
