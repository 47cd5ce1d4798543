package ynab_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/tools/common"
	"github.com/teemow/autopilot/internal/ynab"
)

// defaultLookback is the transaction window when sinceDate is omitted.
const defaultLookback = 30 * 24 * time.Hour

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listBudgetsTool := mcp.NewTool("ynab_list_budgets",
		mcp.WithDescription("List the YNAB budgets the token can access"),
	)
	s.AddTool(listBudgetsTool, common.InstrumentedToolHandlerWithService("ynab_list_budgets",
		instrumentation.ServiceYNAB, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListBudgets(ctx, request, sc)
		}))

	listAccountsTool := mcp.NewTool("ynab_list_accounts",
		mcp.WithDescription("List the accounts of a budget with their balances"),
		budgetIDOption(),
		mcp.WithBoolean("includeClosed",
			mcp.Description("Include closed accounts (default: false)"),
		),
	)
	s.AddTool(listAccountsTool, common.InstrumentedToolHandlerWithService("ynab_list_accounts",
		instrumentation.ServiceYNAB, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAccounts(ctx, request, sc)
		}))

	listCategoriesTool := mcp.NewTool("ynab_list_categories",
		mcp.WithDescription("List category groups and categories with budgeted, activity and balance for the current month"),
		budgetIDOption(),
		mcp.WithBoolean("includeHidden",
			mcp.Description("Include hidden categories (default: false)"),
		),
	)
	s.AddTool(listCategoriesTool, common.InstrumentedToolHandlerWithService("ynab_list_categories",
		instrumentation.ServiceYNAB, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCategories(ctx, request, sc)
		}))

	getMonthTool := mcp.NewTool("ynab_get_month",
		mcp.WithDescription("Get a budget month: income, budgeted, activity, to be budgeted, age of money and per-category figures"),
		budgetIDOption(),
		mcp.WithString("month",
			mcp.Description("Month as YYYY-MM, or 'current' (default: current)"),
		),
		mcp.WithBoolean("includeHidden",
			mcp.Description("Include hidden categories (default: false)"),
		),
	)
	s.AddTool(getMonthTool, common.InstrumentedToolHandlerWithService("ynab_get_month",
		instrumentation.ServiceYNAB, instrumentation.OperationGet, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMonth(ctx, request, sc)
		}))

	listTransactionsTool := mcp.NewTool("ynab_list_transactions",
		mcp.WithDescription("List transactions since a date, optionally filtered by account or payee"),
		budgetIDOption(),
		mcp.WithString("sinceDate",
			mcp.Description("Earliest date as YYYY-MM-DD (default: 30 days ago)"),
		),
		mcp.WithString("accountId",
			mcp.Description("Only transactions on this account"),
		),
		mcp.WithString("payee",
			mcp.Description("Only transactions whose payee contains this text (case-insensitive)"),
		),
	)
	s.AddTool(listTransactionsTool, common.InstrumentedToolHandlerWithService("ynab_list_transactions",
		instrumentation.ServiceYNAB, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTransactions(ctx, request, sc, time.Now())
		}))

	listPayeesTool := mcp.NewTool("ynab_list_payees",
		mcp.WithDescription("List the payees of a budget"),
		budgetIDOption(),
	)
	s.AddTool(listPayeesTool, common.InstrumentedToolHandlerWithService("ynab_list_payees",
		instrumentation.ServiceYNAB, instrumentation.OperationList, true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListPayees(ctx, request, sc)
		}))
}

func handleListBudgets(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	budgets, err := sc.YNAB().Budgets(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list budgets: %v", err)), nil
	}

	views := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, toBudgetView(b))
	}
	return common.JSONResult(views)
}

func handleListAccounts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)
	includeClosed := common.BoolArg(args, "includeClosed", false)

	accounts, err := sc.YNAB().Accounts(ctx, sc.BudgetID(common.StringArg(args, "budgetId")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list accounts: %v", err)), nil
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		if a.Closed && !includeClosed {
			continue
		}
		views = append(views, toAccountView(a))
	}
	return common.JSONResult(views)
}

func handleListCategories(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)
	includeHidden := common.BoolArg(args, "includeHidden", false)

	groups, err := sc.YNAB().Categories(ctx, sc.BudgetID(common.StringArg(args, "budgetId")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list categories: %v", err)), nil
	}

	views := make([]categoryGroupView, 0, len(groups))
	for _, g := range groups {
		if g.Hidden && !includeHidden {
			continue
		}
		gv := categoryGroupView{ID: g.ID, Name: g.Name, Hidden: g.Hidden, Categories: []categoryView{}}
		for _, c := range g.Categories {
			if c.Deleted || (c.Hidden && !includeHidden) {
				continue
			}
			cv := toCategoryView(c)
			cv.Group = ""
			gv.Categories = append(gv.Categories, cv)
		}
		views = append(views, gv)
	}
	return common.JSONResult(views)
}

func handleGetMonth(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	month := common.StringArg(args, "month")
	if _, err := ynab.MonthParam(month); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m, err := sc.YNAB().Month(ctx, sc.BudgetID(common.StringArg(args, "budgetId")), month)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get month: %v", err)), nil
	}
	return common.JSONResult(toMonthView(m, common.BoolArg(args, "includeHidden", false)))
}

func handleListTransactions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, now time.Time) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	since := now.Add(-defaultLookback)
	if raw := common.StringArg(args, "sinceDate"); raw != "" {
		t, err := time.Parse(ynab.DateFormat, raw)
		if err != nil {
			return mcp.NewToolResultError("sinceDate must be YYYY-MM-DD"), nil
		}
		since = t
	}
	accountID := common.StringArg(args, "accountId")
	payee := strings.ToLower(common.StringArg(args, "payee"))

	txns, err := sc.YNAB().Transactions(ctx, sc.BudgetID(common.StringArg(args, "budgetId")), since)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list transactions: %v", err)), nil
	}

	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		if payee != "" && !strings.Contains(strings.ToLower(t.PayeeName), payee) {
			continue
		}
		views = append(views, toTransactionView(t))
	}
	return common.JSONResult(views)
}

func handleListPayees(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	payees, err := sc.YNAB().Payees(ctx, sc.BudgetID(common.StringArg(args, "budgetId")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list payees: %v", err)), nil
	}

	views := make([]payeeView, 0, len(payees))
	for _, p := range payees {
		views = append(views, payeeView{ID: p.ID, Name: p.Name, Transfer: p.TransferAccountID != ""})
	}
	return common.JSONResult(views)
}
