package ynab_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/tools/common"
	"github.com/teemow/autopilot/internal/ynab"
)

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	createTransactionTool := mcp.NewTool("ynab_create_transaction",
		mcp.WithDescription("Create a transaction. Amounts are in dollars; use a negative amount for spending."),
		budgetIDOption(),
		mcp.WithString("accountId",
			mcp.Required(),
			mcp.Description("The account the transaction belongs to"),
		),
		mcp.WithNumber("amount",
			mcp.Required(),
			mcp.Description("Amount in dollars, e.g. -42.50 for an outflow"),
		),
		mcp.WithString("date",
			mcp.Description("Date as YYYY-MM-DD (default: today)"),
		),
		mcp.WithString("payeeName",
			mcp.Description("Payee name; YNAB matches or creates the payee"),
		),
		mcp.WithString("categoryId",
			mcp.Description("Category ID"),
		),
		mcp.WithString("memo",
			mcp.Description("Memo"),
		),
		mcp.WithString("cleared",
			mcp.Description("cleared, uncleared or reconciled (default: uncleared)"),
		),
		mcp.WithBoolean("approved",
			mcp.Description("Mark the transaction approved (default: false)"),
		),
	)
	s.AddTool(createTransactionTool, common.InstrumentedToolHandlerWithService("ynab_create_transaction",
		instrumentation.ServiceYNAB, instrumentation.OperationCreate, false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTransaction(ctx, request, sc, time.Now())
		}))

	updateBudgetTool := mcp.NewTool("ynab_update_category_budget",
		mcp.WithDescription("Set the amount budgeted to a category for a month. The amount is in dollars."),
		budgetIDOption(),
		mcp.WithString("categoryId",
			mcp.Required(),
			mcp.Description("Category ID"),
		),
		mcp.WithNumber("budgeted",
			mcp.Required(),
			mcp.Description("Amount budgeted in dollars, e.g. 450"),
		),
		mcp.WithString("month",
			mcp.Description("Month as YYYY-MM, or 'current' (default: current)"),
		),
	)
	s.AddTool(updateBudgetTool, common.InstrumentedToolHandlerWithService("ynab_update_category_budget",
		instrumentation.ServiceYNAB, instrumentation.OperationUpdate, false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateCategoryBudget(ctx, request, sc)
		}))
}

func handleCreateTransaction(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, now time.Time) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	accountID, err := common.RequiredString(args, "accountId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, ok, err := common.NumberArg(args, "amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("amount is required"), nil
	}

	date := common.StringArg(args, "date")
	if date == "" {
		date = now.Format(ynab.DateFormat)
	}

	txn := ynab.NewTransaction{
		AccountID:  accountID,
		Date:       date,
		Amount:     ynab.FromDollars(amount),
		PayeeName:  common.StringArg(args, "payeeName"),
		CategoryID: common.StringArg(args, "categoryId"),
		Memo:       common.StringArg(args, "memo"),
		Cleared:    common.StringArg(args, "cleared"),
		Approved:   common.BoolArg(args, "approved", false),
	}
	if err := txn.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := sc.YNAB().CreateTransaction(ctx, sc.BudgetID(common.StringArg(args, "budgetId")), txn)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create transaction: %v", err)), nil
	}
	return common.JSONResult(toTransactionView(*created))
}

func handleUpdateCategoryBudget(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := common.Arguments(request)

	categoryID, err := common.RequiredString(args, "categoryId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	budgeted, ok, err := common.NumberArg(args, "budgeted")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("budgeted is required"), nil
	}
	month := common.StringArg(args, "month")
	if _, err := ynab.MonthParam(month); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	category, err := sc.YNAB().UpdateCategoryBudgeted(ctx, sc.BudgetID(common.StringArg(args, "budgetId")), month, categoryID, ynab.FromDollars(budgeted))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update category budget: %v", err)), nil
	}
	return common.JSONResult(toCategoryView(*category))
}
