package ynab

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Milliunits is a YNAB currency amount: 1000 milliunits is one unit of the
// budget currency.
type Milliunits int64

// FromDollars converts a dollar amount, rounding to the nearest milliunit.
func FromDollars(dollars float64) Milliunits {
	return Milliunits(math.Round(dollars * 1000))
}

// FromDecimal converts a decimal amount, rounding to the nearest milliunit.
func FromDecimal(d decimal.Decimal) Milliunits {
	return Milliunits(d.Shift(3).Round(0).IntPart())
}

// Dollars returns the amount as a float.
func (m Milliunits) Dollars() float64 {
	return float64(m) / 1000
}

// Decimal returns the exact amount as a decimal.
func (m Milliunits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -3)
}

// Abs returns the absolute amount.
func (m Milliunits) Abs() Milliunits {
	if m < 0 {
		return -m
	}
	return m
}

// String formats the amount in dollars with thousands separators, for
// example "$1,234.56" or "-$12.30". Fractions of a cent round half away
// from zero.
func (m Milliunits) String() string {
	cents := m.Decimal().Shift(2).Round(0).IntPart()

	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}
