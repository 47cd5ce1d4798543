package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Token: "ynab-token", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client
}

func TestClient_Budgets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ynab-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"budgets":[{"id":"b1","name":"Household","currency_format":{"iso_code":"USD","currency_symbol":"$","decimal_digits":2}}]}}`)
	})
	client := newTestClient(t, mux)

	budgets, err := client.Budgets(context.Background())
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, "Household", budgets[0].Name)
	require.NotNil(t, budgets[0].CurrencyFormat)
	assert.Equal(t, "USD", budgets[0].CurrencyFormat.ISOCode)
}

func TestClient_AccountsUsesLastUsedAlias(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets/{budget}/accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LastUsedBudget, r.PathValue("budget"))
		_, _ = io.WriteString(w, `{"data":{"accounts":[
			{"id":"a1","name":"Checking","type":"checking","on_budget":true,"balance":1523450},
			{"id":"a2","name":"Old card","type":"creditCard","closed":true,"balance":0},
			{"id":"a3","name":"Gone","deleted":true}
		]}}`)
	})
	client := newTestClient(t, mux)

	accounts, err := client.Accounts(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, Milliunits(1523450), accounts[0].Balance)
	assert.True(t, accounts[1].Closed)
}

func TestClient_CategoriesAndMonth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets/b1/categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"category_groups":[
			{"id":"g1","name":"Everyday","categories":[{"id":"c1","category_group_id":"g1","name":"Groceries","budgeted":400000,"activity":-250000,"balance":150000}]},
			{"id":"g2","name":"Deleted group","deleted":true,"categories":[]}
		]}}`)
	})
	mux.HandleFunc("GET /budgets/b1/months/{month}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-03-01", r.PathValue("month"))
		_, _ = io.WriteString(w, `{"data":{"month":{"month":"2026-03-01","income":5000000,"budgeted":4200000,"activity":-3100000,"to_be_budgeted":800000,"age_of_money":41,"categories":[]}}}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	groups, err := client.Categories(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Groceries", groups[0].Categories[0].Name)

	month, err := client.Month(ctx, "b1", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, Milliunits(800000), month.ToBeBudgeted)
	require.NotNil(t, month.AgeOfMoney)
	assert.Equal(t, 41, *month.AgeOfMoney)

	_, err = client.Month(ctx, "b1", "March")
	assert.Error(t, err)
}

func TestClient_TransactionsSince(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets/b1/transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-02-01", r.URL.Query().Get("since_date"))
		_, _ = io.WriteString(w, `{"data":{"transactions":[
			{"id":"t1","date":"2026-02-03","amount":-45120,"account_id":"a1","payee_name":"Corner Cafe","category_name":"Dining Out"},
			{"id":"t2","date":"2026-02-04","amount":-1000,"deleted":true}
		]}}`)
	})
	client := newTestClient(t, mux)

	txns, err := client.Transactions(context.Background(), "b1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].IsOutflow())
	assert.False(t, txns[0].IsTransfer())
}

func TestClient_Writes(t *testing.T) {
	var created map[string]map[string]any
	var patched map[string]map[string]int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /budgets/b1/transactions", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"transaction_ids":["t9"],"transaction":{"id":"t9","date":"2026-03-02","amount":-12300,"account_id":"a1"}}}`)
	})
	mux.HandleFunc("PATCH /budgets/b1/months/2026-03-01/categories/c1", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		_, _ = io.WriteString(w, `{"data":{"category":{"id":"c1","name":"Groceries","budgeted":500000}}}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	txn, err := client.CreateTransaction(ctx, "b1", NewTransaction{
		AccountID: "a1",
		Date:      "2026-03-02",
		Amount:    FromDollars(-12.30),
		PayeeName: "Hardware store",
	})
	require.NoError(t, err)
	assert.Equal(t, "t9", txn.ID)
	assert.Equal(t, float64(-12300), created["transaction"]["amount"])
	assert.Equal(t, "Hardware store", created["transaction"]["payee_name"])

	cat, err := client.UpdateCategoryBudgeted(ctx, "b1", "2026-03-15", "c1", 500000)
	require.NoError(t, err)
	assert.Equal(t, Milliunits(500000), cat.Budgeted)
	assert.Equal(t, int64(500000), patched["category"]["budgeted"])

	_, err = client.CreateTransaction(ctx, "b1", NewTransaction{AccountID: "a1", Date: "yesterday"})
	assert.Error(t, err)
	_, err = client.UpdateCategoryBudgeted(ctx, "b1", "current", "", 1)
	assert.Error(t, err)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets/missing/payees", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"id":"404.2","name":"resource_not_found","detail":"Budget not found"}}`)
	})
	mux.HandleFunc("GET /budgets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"id":"429","name":"too_many_requests","detail":"Too many requests"}}`)
	})
	client := newTestClient(t, mux)

	_, err := client.Payees(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "404.2", apiErr.ID)
	assert.Equal(t, "ynab: HTTP 404 resource_not_found: Budget not found", err.Error())

	_, err = client.Budgets(context.Background())
	assert.True(t, IsRateLimited(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestMonthParam(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "current", false},
		{"current", "current", false},
		{"2026-03", "2026-03-01", false},
		{"2026-03-17", "2026-03-01", false},
		{"03/2026", "", true},
	}
	for _, tt := range tests {
		got, err := MonthParam(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
