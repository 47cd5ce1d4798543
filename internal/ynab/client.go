package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/autopilot/internal/instrumentation"
)

// DefaultBaseURL is the YNAB API v1 endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

// LastUsedBudget is the budget ID alias for the most recently opened budget.
const LastUsedBudget = "last-used"

const maxResponseBytes = 16 << 20

// Config holds configuration for creating a YNAB Client.
type Config struct {
	// Token is a YNAB personal access token. Required.
	Token string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
}

// Client is a YNAB API client. All methods take a budget ID; an empty ID
// means LastUsedBudget.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewClient creates a YNAB client.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("ynab: token is required")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		metrics:    config.Metrics,
	}, nil
}

// Budgets lists the budgets the token can access.
func (c *Client) Budgets(ctx context.Context) ([]BudgetSummary, error) {
	var data struct {
		Budgets []BudgetSummary `json:"budgets"`
	}
	if err := c.get(ctx, "list_budgets", "/budgets", &data); err != nil {
		return nil, err
	}
	return data.Budgets, nil
}

// Accounts lists the accounts of a budget, including closed ones.
func (c *Client) Accounts(ctx context.Context, budgetID string) ([]Account, error) {
	var data struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.get(ctx, "list_accounts", budgetPath(budgetID, "/accounts"), &data); err != nil {
		return nil, err
	}
	return liveAccounts(data.Accounts), nil
}

// Categories lists the category groups of a budget with their categories.
func (c *Client) Categories(ctx context.Context, budgetID string) ([]CategoryGroup, error) {
	var data struct {
		CategoryGroups []CategoryGroup `json:"category_groups"`
	}
	if err := c.get(ctx, "list_categories", budgetPath(budgetID, "/categories"), &data); err != nil {
		return nil, err
	}
	groups := data.CategoryGroups[:0]
	for _, g := range data.CategoryGroups {
		if !g.Deleted {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// Month returns the budget month. month is "current", "YYYY-MM" or "YYYY-MM-DD".
func (c *Client) Month(ctx context.Context, budgetID, month string) (*Month, error) {
	param, err := MonthParam(month)
	if err != nil {
		return nil, err
	}
	var data struct {
		Month Month `json:"month"`
	}
	if err := c.get(ctx, "get_month", budgetPath(budgetID, "/months/"+param), &data); err != nil {
		return nil, err
	}
	return &data.Month, nil
}

// Transactions lists transactions on or after since. A zero since returns
// the full history.
func (c *Client) Transactions(ctx context.Context, budgetID string, since time.Time) ([]Transaction, error) {
	path := budgetPath(budgetID, "/transactions")
	if !since.IsZero() {
		path += "?" + url.Values{"since_date": {since.Format(DateFormat)}}.Encode()
	}
	var data struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "list_transactions", path, &data); err != nil {
		return nil, err
	}
	txns := data.Transactions[:0]
	for _, t := range data.Transactions {
		if !t.Deleted {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

// Payees lists the payees of a budget.
func (c *Client) Payees(ctx context.Context, budgetID string) ([]Payee, error) {
	var data struct {
		Payees []Payee `json:"payees"`
	}
	if err := c.get(ctx, "list_payees", budgetPath(budgetID, "/payees"), &data); err != nil {
		return nil, err
	}
	payees := data.Payees[:0]
	for _, p := range data.Payees {
		if !p.Deleted {
			payees = append(payees, p)
		}
	}
	return payees, nil
}

// CreateTransaction creates a single transaction and returns it.
func (c *Client) CreateTransaction(ctx context.Context, budgetID string, txn NewTransaction) (*Transaction, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	payload := struct {
		Transaction NewTransaction `json:"transaction"`
	}{txn}
	var data struct {
		Transaction Transaction `json:"transaction"`
	}
	if err := c.send(ctx, "create_transaction", http.MethodPost, budgetPath(budgetID, "/transactions"), payload, &data); err != nil {
		return nil, err
	}
	return &data.Transaction, nil
}

// UpdateCategoryBudgeted sets the amount budgeted to a category for a month.
func (c *Client) UpdateCategoryBudgeted(ctx context.Context, budgetID, month, categoryID string, budgeted Milliunits) (*Category, error) {
	param, err := MonthParam(month)
	if err != nil {
		return nil, err
	}
	if categoryID == "" {
		return nil, errors.New("ynab: category id is required")
	}
	payload := map[string]any{"category": map[string]int64{"budgeted": int64(budgeted)}}
	var data struct {
		Category Category `json:"category"`
	}
	path := budgetPath(budgetID, "/months/"+param+"/categories/"+url.PathEscape(categoryID))
	if err := c.send(ctx, "update_category_budgeted", http.MethodPatch, path, payload, &data); err != nil {
		return nil, err
	}
	return &data.Category, nil
}

func budgetPath(budgetID, suffix string) string {
	if budgetID == "" {
		budgetID = LastUsedBudget
	}
	return "/budgets/" + url.PathEscape(budgetID) + suffix
}

// MonthParam normalizes a month argument for the API.
func MonthParam(month string) (string, error) {
	switch month {
	case "", "current":
		return "current", nil
	}
	if t, err := time.Parse("2006-01", month); err == nil {
		return t.Format(DateFormat), nil
	}
	if t, err := time.Parse(DateFormat, month); err == nil {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(DateFormat), nil
	}
	return "", fmt.Errorf("ynab: invalid month %q, want YYYY-MM", month)
}

func liveAccounts(accounts []Account) []Account {
	out := accounts[:0]
	for _, a := range accounts {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, op, path string, data any) error {
	return c.send(ctx, op, http.MethodGet, path, nil, data)
}

// send executes a request and decodes the "data" member of the response
// envelope into data.
func (c *Client) send(ctx context.Context, op, method, path string, requestBody, data any) error {
	return c.metrics.Observe(ctx, instrumentation.ServiceYNAB, op, func(ctx context.Context) error {
		var bodyReader io.Reader
		if requestBody != nil {
			encoded, err := json.Marshal(requestBody)
			if err != nil {
				return fmt.Errorf("ynab: encoding request body: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("ynab: creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if requestBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("ynab: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("ynab: reading response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return parseAPIError(resp.StatusCode, body)
		}

		envelope := struct {
			Data json.RawMessage `json:"data"`
		}{}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("ynab: decoding %s response: %w", op, err)
		}
		if data == nil || len(envelope.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return fmt.Errorf("ynab: decoding %s data: %w", op, err)
		}
		return nil
	})
}
