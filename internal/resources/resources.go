package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/server"
)

const (
	BudgetsURI = "ynab://budgets"
	CardsURI   = "rewards://cards"
)

// RegisterResources registers the budget resource and, when a rewards tracker
// is configured, the card catalog resource.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.YNAB() == nil {
		return fmt.Errorf("YNAB client is not configured")
	}

	budgetsResource := mcp.NewResource(
		BudgetsURI,
		"YNAB Budgets",
		mcp.WithResourceDescription("Budgets accessible with the configured YNAB token"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(budgetsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleBudgets(ctx, request, sc)
	})

	if sc.Rewards() == nil {
		return nil
	}

	cardsResource := mcp.NewResource(
		CardsURI,
		"Reward Cards",
		mcp.WithResourceDescription("Configured credit cards with their reward rates"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(cardsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCards(ctx, request, sc)
	})

	return nil
}

type budgetEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Currency   string `json:"currency,omitempty"`
	FirstMonth string `json:"firstMonth,omitempty"`
	LastMonth  string `json:"lastMonth,omitempty"`
	Default    bool   `json:"default,omitempty"`
}

func handleBudgets(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	budgets, err := sc.YNAB().Budgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	defaultID := sc.BudgetID("")
	entries := make([]budgetEntry, 0, len(budgets))
	for _, b := range budgets {
		entry := budgetEntry{
			ID:         b.ID,
			Name:       b.Name,
			FirstMonth: b.FirstMonth,
			LastMonth:  b.LastMonth,
			Default:    b.ID == defaultID,
		}
		if b.CurrencyFormat != nil {
			entry.Currency = b.CurrencyFormat.ISOCode
		}
		entries = append(entries, entry)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"defaultBudget": defaultID,
		"budgets":       entries,
	})
}

type cardEntry struct {
	Name       string            `json:"name"`
	Issuer     string            `json:"issuer,omitempty"`
	AccountID  string            `json:"accountId,omitempty"`
	BaseRate   string            `json:"baseRate"`
	Rates      map[string]string `json:"rates,omitempty"`
	PointValue string            `json:"pointValueCents"`
	AnnualFee  string            `json:"annualFee,omitempty"`
}

func handleCards(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	tracker := sc.Rewards()
	cards := tracker.Cards()

	entries := make([]cardEntry, 0, len(cards))
	for _, c := range cards {
		entry := cardEntry{
			Name:       c.Name,
			Issuer:     c.Issuer,
			AccountID:  c.AccountID,
			BaseRate:   c.BaseRate.String() + "x",
			PointValue: c.PointValue.String(),
		}
		if len(c.Rates) > 0 {
			entry.Rates = make(map[string]string, len(c.Rates))
			for cat, rate := range c.Rates {
				entry.Rates[cat] = rate.String() + "x"
			}
		}
		if c.AnnualFee.IsPositive() {
			entry.AnnualFee = rewards.FormatDollars(c.AnnualFee)
		}
		entries = append(entries, entry)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"cards":      entries,
		"categories": tracker.Categories(),
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
