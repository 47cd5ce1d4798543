package ynab_tools

import "github.com/teemow/autopilot/internal/ynab"

// Amount is a currency value in tool output.
type Amount struct {
	Milliunits int64  `json:"milliunits"`
	Formatted  string `json:"formatted"`
}

func newAmount(m ynab.Milliunits) Amount {
	return Amount{Milliunits: int64(m), Formatted: m.String()}
}

type budgetView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FirstMonth string `json:"first_month,omitempty"`
	LastMonth  string `json:"last_month,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

type accountView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	OnBudget       bool   `json:"on_budget"`
	Closed         bool   `json:"closed"`
	Balance        Amount `json:"balance"`
	ClearedBalance Amount `json:"cleared_balance"`
}

type categoryView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Group    string `json:"group,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	Budgeted Amount `json:"budgeted"`
	Activity Amount `json:"activity"`
	Balance  Amount `json:"balance"`
	GoalType string `json:"goal_type,omitempty"`
}

type categoryGroupView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Hidden     bool           `json:"hidden,omitempty"`
	Categories []categoryView `json:"categories"`
}

type monthView struct {
	Month        string         `json:"month"`
	Note         string         `json:"note,omitempty"`
	Income       Amount         `json:"income"`
	Budgeted     Amount         `json:"budgeted"`
	Activity     Amount         `json:"activity"`
	ToBeBudgeted Amount         `json:"to_be_budgeted"`
	AgeOfMoney   *int           `json:"age_of_money,omitempty"`
	Categories   []categoryView `json:"categories,omitempty"`
}

type transactionView struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Amount    Amount `json:"amount"`
	Payee     string `json:"payee,omitempty"`
	Category  string `json:"category,omitempty"`
	Account   string `json:"account,omitempty"`
	AccountID string `json:"account_id"`
	Memo      string `json:"memo,omitempty"`
	Cleared   string `json:"cleared"`
	Approved  bool   `json:"approved"`
	Transfer  bool   `json:"transfer,omitempty"`
}

type payeeView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Transfer bool   `json:"transfer,omitempty"`
}

func toBudgetView(b ynab.BudgetSummary) budgetView {
	v := budgetView{ID: b.ID, Name: b.Name, FirstMonth: b.FirstMonth, LastMonth: b.LastMonth}
	if b.CurrencyFormat != nil {
		v.Currency = b.CurrencyFormat.ISOCode
	}
	return v
}

func toAccountView(a ynab.Account) accountView {
	return accountView{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		OnBudget:       a.OnBudget,
		Closed:         a.Closed,
		Balance:        newAmount(a.Balance),
		ClearedBalance: newAmount(a.ClearedBalance),
	}
}

func toCategoryView(c ynab.Category) categoryView {
	return categoryView{
		ID:       c.ID,
		Name:     c.Name,
		Group:    c.CategoryGroupName,
		Hidden:   c.Hidden,
		Budgeted: newAmount(c.Budgeted),
		Activity: newAmount(c.Activity),
		Balance:  newAmount(c.Balance),
		GoalType: c.GoalType,
	}
}

func toMonthView(m *ynab.Month, includeHidden bool) monthView {
	v := monthView{
		Month:        m.Month,
		Note:         m.Note,
		Income:       newAmount(m.Income),
		Budgeted:     newAmount(m.Budgeted),
		Activity:     newAmount(m.Activity),
		ToBeBudgeted: newAmount(m.ToBeBudgeted),
		AgeOfMoney:   m.AgeOfMoney,
	}
	for _, c := range m.Categories {
		if c.Deleted || (c.Hidden && !includeHidden) {
			continue
		}
		v.Categories = append(v.Categories, toCategoryView(c))
	}
	return v
}

func toTransactionView(t ynab.Transaction) transactionView {
	return transactionView{
		ID:        t.ID,
		Date:      t.Date,
		Amount:    newAmount(t.Amount),
		Payee:     t.PayeeName,
		Category:  t.CategoryName,
		Account:   t.AccountName,
		AccountID: t.AccountID,
		Memo:      t.Memo,
		Cleared:   t.Cleared,
		Approved:  t.Approved,
		Transfer:  t.IsTransfer(),
	}
}
