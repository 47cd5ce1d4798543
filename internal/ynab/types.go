package ynab

import (
	"errors"
	"time"
)

// DateFormat is the ISO date layout YNAB uses for dates and months.
const DateFormat = "2006-01-02"

// BudgetSummary is an entry of the budget list.
type BudgetSummary struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	LastModifiedOn *time.Time      `json:"last_modified_on,omitempty"`
	FirstMonth     string          `json:"first_month,omitempty"`
	LastMonth      string          `json:"last_month,omitempty"`
	CurrencyFormat *CurrencyFormat `json:"currency_format,omitempty"`
}

// CurrencyFormat describes how the budget displays amounts.
type CurrencyFormat struct {
	ISOCode        string `json:"iso_code"`
	CurrencySymbol string `json:"currency_symbol"`
	DecimalDigits  int    `json:"decimal_digits"`
}

// Account types that count toward net worth as liabilities.
const (
	AccountCreditCard   = "creditCard"
	AccountLineOfCredit = "lineOfCredit"
	AccountMortgage     = "mortgage"
)

// Account is a budget or tracking account.
type Account struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	OnBudget         bool       `json:"on_budget"`
	Closed           bool       `json:"closed"`
	Note             string     `json:"note,omitempty"`
	Balance          Milliunits `json:"balance"`
	ClearedBalance   Milliunits `json:"cleared_balance"`
	UnclearedBalance Milliunits `json:"uncleared_balance"`
	Deleted          bool       `json:"deleted"`
}

// CategoryGroup is a named group of categories.
type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories"`
}

// Category is a budget category. Budgeted, Activity and Balance are for the
// current month unless the category came from a Month.
type Category struct {
	ID                string     `json:"id"`
	CategoryGroupID   string     `json:"category_group_id"`
	CategoryGroupName string     `json:"category_group_name,omitempty"`
	Name              string     `json:"name"`
	Hidden            bool       `json:"hidden"`
	Budgeted          Milliunits `json:"budgeted"`
	Activity          Milliunits `json:"activity"`
	Balance           Milliunits `json:"balance"`
	GoalType          string     `json:"goal_type,omitempty"`
	GoalTarget        Milliunits `json:"goal_target,omitempty"`
	Deleted           bool       `json:"deleted"`
}

// Month is one budget month with its category balances.
type Month struct {
	Month        string     `json:"month"`
	Note         string     `json:"note,omitempty"`
	Income       Milliunits `json:"income"`
	Budgeted     Milliunits `json:"budgeted"`
	Activity     Milliunits `json:"activity"`
	ToBeBudgeted Milliunits `json:"to_be_budgeted"`
	AgeOfMoney   *int       `json:"age_of_money,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
}

// Transaction is a posted transaction. Outflows are negative.
type Transaction struct {
	ID                string     `json:"id"`
	Date              string     `json:"date"`
	Amount            Milliunits `json:"amount"`
	Memo              string     `json:"memo,omitempty"`
	Cleared           string     `json:"cleared"`
	Approved          bool       `json:"approved"`
	AccountID         string     `json:"account_id"`
	AccountName       string     `json:"account_name,omitempty"`
	PayeeID           string     `json:"payee_id,omitempty"`
	PayeeName         string     `json:"payee_name,omitempty"`
	CategoryID        string     `json:"category_id,omitempty"`
	CategoryName      string     `json:"category_name,omitempty"`
	TransferAccountID string     `json:"transfer_account_id,omitempty"`
	Deleted           bool       `json:"deleted"`
}

// IsOutflow reports whether the transaction spends money.
func (t Transaction) IsOutflow() bool {
	return t.Amount < 0
}

// IsTransfer reports whether the transaction moves money between accounts.
func (t Transaction) IsTransfer() bool {
	return t.TransferAccountID != ""
}

// Payee is a transaction payee.
type Payee struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
	Deleted           bool   `json:"deleted"`
}

// Cleared states.
const (
	ClearedCleared    = "cleared"
	ClearedUncleared  = "uncleared"
	ClearedReconciled = "reconciled"
)

// NewTransaction is the payload for CreateTransaction.
type NewTransaction struct {
	AccountID  string     `json:"account_id"`
	Date       string     `json:"date"`
	Amount     Milliunits `json:"amount"`
	PayeeID    string     `json:"payee_id,omitempty"`
	PayeeName  string     `json:"payee_name,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	Memo       string     `json:"memo,omitempty"`
	Cleared    string     `json:"cleared,omitempty"`
	Approved   bool       `json:"approved"`
}

// Validate checks the required fields.
func (t NewTransaction) Validate() error {
	if t.AccountID == "" {
		return errors.New("ynab: account id is required")
	}
	if _, err := time.Parse(DateFormat, t.Date); err != nil {
		return errors.New("ynab: date must be YYYY-MM-DD")
	}
	switch t.Cleared {
	case "", ClearedCleared, ClearedUncleared, ClearedReconciled:
	default:
		return errors.New("ynab: cleared must be cleared, uncleared or reconciled")
	}
	return nil
}
