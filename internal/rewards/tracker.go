package rewards

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/ynab"
)

// ErrNoCards is returned when no cards are configured.
var ErrNoCards = errors.New("no reward cards configured")

// Rule maps payees and YNAB categories onto a reward category.
type Rule struct {
	Category       string
	YNABCategories []string
	Payees         []string
}

// Tracker answers which card to use and what each card earned.
type Tracker struct {
	cards []Card
	rules []Rule
}

// New builds a Tracker from configuration.
func New(cfg config.RewardsConfig) (*Tracker, error) {
	t := &Tracker{}
	seen := make(map[string]bool, len(cfg.Cards))
	for _, cc := range cfg.Cards {
		card, err := cardFromConfig(cc)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(card.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate card %q", card.Name)
		}
		seen[key] = true
		t.cards = append(t.cards, card)
	}

	for _, rc := range cfg.Rules {
		category := normalize(rc.Category)
		if category == "" {
			return nil, fmt.Errorf("reward rule without a category")
		}
		rule := Rule{Category: category}
		for _, c := range rc.YNABCategories {
			rule.YNABCategories = append(rule.YNABCategories, normalize(c))
		}
		for _, p := range rc.Payees {
			rule.Payees = append(rule.Payees, normalize(p))
		}
		t.rules = append(t.rules, rule)
	}
	return t, nil
}

// Cards returns the configured cards in configuration order.
func (t *Tracker) Cards() []Card {
	return append([]Card(nil), t.cards...)
}

// Categories returns every reward category that appears in a card or a rule,
// sorted, with CategoryOther last.
func (t *Tracker) Categories() []string {
	set := map[string]bool{}
	for _, c := range t.cards {
		for cat := range c.Rates {
			set[cat] = true
		}
	}
	for _, r := range t.rules {
		set[r.Category] = true
	}
	delete(set, CategoryOther)

	out := make([]string, 0, len(set)+1)
	for cat := range set {
		out = append(out, cat)
	}
	sort.Strings(out)
	return append(out, CategoryOther)
}

// Categorize returns the reward category of tx. Payee rules win over YNAB
// category rules; within each kind the first matching rule wins.
func (t *Tracker) Categorize(tx ynab.Transaction) string {
	payee := strings.ToLower(tx.PayeeName)
	if payee != "" {
		for _, r := range t.rules {
			for _, p := range r.Payees {
				if p != "" && strings.Contains(payee, p) {
					return r.Category
				}
			}
		}
	}

	category := normalize(tx.CategoryName)
	if category != "" {
		for _, r := range t.rules {
			for _, c := range r.YNABCategories {
				if c == category {
					return r.Category
				}
			}
		}
	}
	return CategoryOther
}

// Ranked is a card's standing for one category.
type Ranked struct {
	Card   Card
	Rate   decimal.Decimal
	Return decimal.Decimal
}

// Best ranks all cards for category by effective return, highest first. Ties
// are broken by card name.
func (t *Tracker) Best(category string) ([]Ranked, error) {
	if len(t.cards) == 0 {
		return nil, ErrNoCards
	}

	out := make([]Ranked, 0, len(t.cards))
	for _, c := range t.cards {
		out = append(out, Ranked{Card: c, Rate: c.Rate(category), Return: c.Return(category)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Return.Cmp(out[j].Return); cmp != 0 {
			return cmp > 0
		}
		return out[i].Card.Name < out[j].Card.Name
	})
	return out, nil
}

func (t *Tracker) cardForAccount(accountID string) (Card, bool) {
	for _, c := range t.cards {
		if c.AccountID != "" && c.AccountID == accountID {
			return c, true
		}
	}
	return Card{}, false
}
