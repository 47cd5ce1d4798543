package rewards

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/ynab"
)

// CategoryOther is the reward category of spending no rule matches.
const CategoryOther = "other"

var (
	hundred          = decimal.NewFromInt(100)
	defaultPointCent = decimal.NewFromInt(1)
)

// Card is a rewards credit card.
type Card struct {
	Name      string
	Issuer    string
	AccountID string
	BaseRate  decimal.Decimal
	// Rates holds per-category multipliers keyed by lower-case category.
	Rates map[string]decimal.Decimal
	// PointValue is the value of one point in cents.
	PointValue decimal.Decimal
	AnnualFee  decimal.Decimal
}

// Rate returns the earn multiplier for category.
func (c Card) Rate(category string) decimal.Decimal {
	if r, ok := c.Rates[normalize(category)]; ok {
		return r
	}
	return c.BaseRate
}

// Return is the value earned per dollar spent in category, as a fraction:
// 0.045 means 4.5%.
func (c Card) Return(category string) decimal.Decimal {
	return c.Rate(category).Mul(c.PointValue).Div(hundred)
}

func cardFromConfig(cc config.CardConfig) (Card, error) {
	name := strings.TrimSpace(cc.Name)
	if name == "" {
		return Card{}, fmt.Errorf("card name is required")
	}
	if cc.BaseRate < 0 || cc.PointValueCents < 0 || cc.AnnualFee < 0 {
		return Card{}, fmt.Errorf("card %q: rates, point value and fee must not be negative", name)
	}

	card := Card{
		Name:       name,
		Issuer:     cc.Issuer,
		AccountID:  cc.AccountID,
		BaseRate:   decimal.NewFromFloat(cc.BaseRate),
		Rates:      make(map[string]decimal.Decimal, len(cc.Categories)),
		PointValue: decimal.NewFromFloat(cc.PointValueCents),
		AnnualFee:  decimal.NewFromFloat(cc.AnnualFee),
	}
	if cc.PointValueCents == 0 {
		card.PointValue = defaultPointCent
	}
	for category, rate := range cc.Categories {
		if rate < 0 {
			return Card{}, fmt.Errorf("card %q: rate for %q must not be negative", name, category)
		}
		card.Rates[normalize(category)] = decimal.NewFromFloat(rate)
	}
	return card, nil
}

// FormatDollars formats d as a dollar amount rounded to cents.
func FormatDollars(d decimal.Decimal) string {
	return ynab.FromDecimal(d).String()
}

// FormatPercent formats a fractional return such as 0.045 as "4.50%".
func FormatPercent(d decimal.Decimal) string {
	return d.Mul(hundred).StringFixed(2) + "%"
}

func normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
