package ynab_tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autopilot/internal/server"
)

const budgetIDDescription = "Budget ID (default: the configured budget, or 'last-used')"

// RegisterYNABTools registers all YNAB tools with the MCP server
func RegisterYNABTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc.YNAB() == nil {
		return fmt.Errorf("YNAB client is not configured")
	}

	registerReadTools(s, sc)

	// Write tools require !readOnly
	if !readOnly {
		registerWriteTools(s, sc)
	}
	return nil
}

func budgetIDOption() mcp.ToolOption {
	return mcp.WithString("budgetId", mcp.Description(budgetIDDescription))
}
