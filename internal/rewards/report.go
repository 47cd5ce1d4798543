package rewards

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/teemow/autopilot/internal/ynab"
)

// CardTotal is what one card earned.
type CardTotal struct {
	Card         string
	Transactions int
	Spend        decimal.Decimal
	Earned       decimal.Decimal
	Missed       decimal.Decimal
	AnnualFee    decimal.Decimal
}

// CategoryTotal is the spending and rewards for one reward category.
type CategoryTotal struct {
	Category string
	Spend    decimal.Decimal
	Earned   decimal.Decimal
	// BestCard is the card with the highest return for the category.
	BestCard   string
	BestEarned decimal.Decimal
	Missed     decimal.Decimal
}

// Miss is one purchase made on a card that was not the best for it.
type Miss struct {
	TransactionID string
	Date          string
	Payee         string
	Category      string
	Amount        decimal.Decimal
	Used          string
	Best          string
	Missed        decimal.Decimal
}

// Report is the rewards summary for a set of transactions.
type Report struct {
	Transactions int
	Spend        decimal.Decimal
	Earned       decimal.Decimal
	Missed       decimal.Decimal
	Cards        []CardTotal
	Categories   []CategoryTotal
	Misses       []Miss
}

// Report computes rewards for the outflows in txs that were charged to a
// configured card. Transfers, inflows, and accounts that are not cards are
// ignored.
func (t *Tracker) Report(txs []ynab.Transaction) Report {
	var r Report
	cards := make(map[string]*CardTotal, len(t.cards))
	for _, c := range t.cards {
		cards[c.Name] = &CardTotal{Card: c.Name, AnnualFee: c.AnnualFee}
	}
	categories := map[string]*CategoryTotal{}

	for _, tx := range txs {
		if !tx.IsOutflow() || tx.IsTransfer() || tx.Deleted {
			continue
		}
		card, ok := t.cardForAccount(tx.AccountID)
		if !ok {
			continue
		}

		category := t.Categorize(tx)
		spend := tx.Amount.Abs().Decimal()
		earned := spend.Mul(card.Return(category))

		ranked, _ := t.Best(category)
		best := ranked[0]
		bestEarned := spend.Mul(best.Return)
		missed := bestEarned.Sub(earned)
		if missed.IsNegative() {
			missed = decimal.Zero
		}

		r.Transactions++
		r.Spend = r.Spend.Add(spend)
		r.Earned = r.Earned.Add(earned)
		r.Missed = r.Missed.Add(missed)

		ct := cards[card.Name]
		ct.Transactions++
		ct.Spend = ct.Spend.Add(spend)
		ct.Earned = ct.Earned.Add(earned)
		ct.Missed = ct.Missed.Add(missed)

		cat, ok := categories[category]
		if !ok {
			cat = &CategoryTotal{Category: category, BestCard: best.Card.Name}
			categories[category] = cat
		}
		cat.Spend = cat.Spend.Add(spend)
		cat.Earned = cat.Earned.Add(earned)
		cat.BestEarned = cat.BestEarned.Add(bestEarned)
		cat.Missed = cat.Missed.Add(missed)

		if missed.IsPositive() {
			r.Misses = append(r.Misses, Miss{
				TransactionID: tx.ID,
				Date:          tx.Date,
				Payee:         tx.PayeeName,
				Category:      category,
				Amount:        spend,
				Used:          card.Name,
				Best:          best.Card.Name,
				Missed:        missed,
			})
		}
	}

	for _, c := range t.cards {
		r.Cards = append(r.Cards, *cards[c.Name])
	}
	for _, c := range categories {
		r.Categories = append(r.Categories, *c)
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		if cmp := r.Categories[i].Spend.Cmp(r.Categories[j].Spend); cmp != 0 {
			return cmp > 0
		}
		return r.Categories[i].Category < r.Categories[j].Category
	})
	sort.SliceStable(r.Misses, func(i, j int) bool {
		return r.Misses[i].Missed.GreaterThan(r.Misses[j].Missed)
	})
	return r
}
