// Package rewards_tools provides the rewards_best_card MCP tool.
package rewards_tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/tools/common"
)

type rankedCard struct {
	Card   string `json:"card"`
	Issuer string `json:"issuer,omitempty"`
	Rate   string `json:"rate"`
	Return string `json:"return"`
	Earned string `json:"earned,omitempty"`
}

type bestCardResult struct {
	Category   string       `json:"category"`
	Known      bool         `json:"known"`
	Best       string       `json:"best"`
	Cards      []rankedCard `json:"cards"`
	Categories []string     `json:"categories,omitempty"`
}

// RegisterRewardsTools registers the rewards tools. It is a no-op when no
// cards are configured.
func RegisterRewardsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Rewards() == nil {
		return nil
	}

	bestCardTool := mcp.NewTool("rewards_best_card",
		mcp.WithDescription("Rank the configured credit cards by effective return for a spending category"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Reward category, e.g. dining, groceries, travel or other"),
		),
		mcp.WithNumber("amount",
			mcp.Description("Optional purchase amount in dollars to estimate the reward per card"),
		),
	)
	s.AddTool(bestCardTool, common.InstrumentedToolHandlerWithService("rewards_best_card",
		instrumentation.ServiceRewards, instrumentation.OperationGet, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBestCard(ctx, request, sc)
		}))

	return nil
}

func handleBestCard(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	category, err := common.RequiredString(args, "category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category = strings.ToLower(category)

	amount, hasAmount, err := common.NumberArg(args, "amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hasAmount && amount < 0 {
		return mcp.NewToolResultError("amount must not be negative"), nil
	}

	tracker := sc.Rewards()
	ranked, err := tracker.Best(category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to rank cards: %v", err)), nil
	}

	known := slices.Contains(tracker.Categories(), category)
	out := bestCardResult{
		Category: category,
		Known:    known,
		Cards:    make([]rankedCard, 0, len(ranked)),
	}
	if !known {
		out.Categories = tracker.Categories()
	}

	spend := decimal.NewFromFloat(amount)
	for _, r := range ranked {
		rc := rankedCard{
			Card:   r.Card.Name,
			Issuer: r.Card.Issuer,
			Rate:   r.Rate.String() + "x",
			Return: rewards.FormatPercent(r.Return),
		}
		if hasAmount {
			rc.Earned = rewards.FormatDollars(spend.Mul(r.Return))
		}
		out.Cards = append(out.Cards, rc)
	}
	if len(ranked) > 0 {
		out.Best = ranked[0].Card.Name
	}
	return common.JSONResult(out)
}
