package dashboard

import (
	"sort"
	"time"

	"github.com/teemow/autopilot/internal/ynab"
)

// uncategorized labels outflows without a category.
const uncategorized = "Uncategorized"

// Money is a currency value in dashboard output.
type Money struct {
	Milliunits int64  `json:"milliunits"`
	Formatted  string `json:"formatted"`
}

func money(m ynab.Milliunits) Money {
	return Money{Milliunits: int64(m), Formatted: m.String()}
}

// Account is one open account on the dashboard.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	OnBudget bool   `json:"on_budget"`
	Balance  Money  `json:"balance"`
}

// Category is one budget category for the month.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Group    string `json:"group,omitempty"`
	Budgeted Money  `json:"budgeted"`
	Activity Money  `json:"activity"`
	Balance  Money  `json:"balance"`
}

// Spending is the total outflow of one category.
type Spending struct {
	Category     string `json:"category"`
	Amount       Money  `json:"amount"`
	Transactions int    `json:"transactions"`
	// Share of all spending in the month, 0..100.
	Share float64 `json:"share"`
}

// Totals are the month-level figures.
type Totals struct {
	Income       Money `json:"income"`
	Budgeted     Money `json:"budgeted"`
	Activity     Money `json:"activity"`
	ToBeBudgeted Money `json:"to_be_budgeted"`
	AgeOfMoney   *int  `json:"age_of_money,omitempty"`
	Spent        Money `json:"spent"`
}

// Snapshot is the dashboard view of one month.
type Snapshot struct {
	Month       string     `json:"month"`
	GeneratedAt time.Time  `json:"generated_at"`
	NetWorth    Money      `json:"net_worth"`
	Accounts    []Account  `json:"accounts"`
	Totals      Totals     `json:"totals"`
	Categories  []Category `json:"categories"`
	Overspent   []Category `json:"overspent"`
	TopSpending []Spending `json:"top_spending"`
}

// Build computes a Snapshot from raw YNAB data. month is the first day of
// the month; transactions outside it are ignored.
func Build(month time.Time, accounts []ynab.Account, m *ynab.Month, txns []ynab.Transaction, topN int, now time.Time) *Snapshot {
	s := &Snapshot{
		Month:       month.Format("2006-01"),
		GeneratedAt: now,
		Accounts:    []Account{},
		Categories:  []Category{},
		Overspent:   []Category{},
		TopSpending: []Spending{},
	}

	var netWorth ynab.Milliunits
	for _, a := range accounts {
		if a.Closed || a.Deleted {
			continue
		}
		netWorth += a.Balance
		s.Accounts = append(s.Accounts, Account{
			ID:       a.ID,
			Name:     a.Name,
			Type:     a.Type,
			OnBudget: a.OnBudget,
			Balance:  money(a.Balance),
		})
	}
	sort.SliceStable(s.Accounts, func(i, j int) bool {
		if s.Accounts[i].OnBudget != s.Accounts[j].OnBudget {
			return s.Accounts[i].OnBudget
		}
		return s.Accounts[i].Balance.Milliunits > s.Accounts[j].Balance.Milliunits
	})
	s.NetWorth = money(netWorth)

	if m != nil {
		s.Totals = Totals{
			Income:       money(m.Income),
			Budgeted:     money(m.Budgeted),
			Activity:     money(m.Activity),
			ToBeBudgeted: money(m.ToBeBudgeted),
			AgeOfMoney:   m.AgeOfMoney,
		}
		for _, c := range m.Categories {
			if c.Deleted || c.Hidden {
				continue
			}
			cat := Category{
				ID:       c.ID,
				Name:     c.Name,
				Group:    c.CategoryGroupName,
				Budgeted: money(c.Budgeted),
				Activity: money(c.Activity),
				Balance:  money(c.Balance),
			}
			s.Categories = append(s.Categories, cat)
			if c.Balance < 0 {
				s.Overspent = append(s.Overspent, cat)
			}
		}
		sort.SliceStable(s.Overspent, func(i, j int) bool {
			return s.Overspent[i].Balance.Milliunits < s.Overspent[j].Balance.Milliunits
		})
	}

	s.TopSpending, s.Totals.Spent = spending(month, txns, topN)
	return s
}

func spending(month time.Time, txns []ynab.Transaction, topN int) ([]Spending, Money) {
	start := month.Format(ynab.DateFormat)
	end := month.AddDate(0, 1, 0).Format(ynab.DateFormat)

	type acc struct {
		amount ynab.Milliunits
		count  int
	}
	byCategory := map[string]*acc{}
	var total ynab.Milliunits
	for _, t := range txns {
		if t.Deleted || !t.IsOutflow() || t.IsTransfer() {
			continue
		}
		// ISO dates compare lexically.
		if t.Date < start || t.Date >= end {
			continue
		}
		name := t.CategoryName
		if name == "" {
			name = uncategorized
		}
		a := byCategory[name]
		if a == nil {
			a = &acc{}
			byCategory[name] = a
		}
		a.amount += t.Amount.Abs()
		a.count++
		total += t.Amount.Abs()
	}

	out := make([]Spending, 0, len(byCategory))
	for name, a := range byCategory {
		sp := Spending{Category: name, Amount: money(a.amount), Transactions: a.count}
		if total > 0 {
			sp.Share = float64(a.amount) * 100 / float64(total)
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Milliunits != out[j].Amount.Milliunits {
			return out[i].Amount.Milliunits > out[j].Amount.Milliunits
		}
		return out[i].Category < out[j].Category
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out, money(total)
}
