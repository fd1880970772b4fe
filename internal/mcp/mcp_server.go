// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the churnscope MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Churnscope Scoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
	}

	// --- 1. Tool: score_customers ---
	s.AddTool(mcp.NewTool("score_customers",
		mcp.WithDescription("Score customers for 90-day churn risk and explain each prediction."),
		mcp.WithNumber("top", mcp.Description("Limit the number of source rows fetched (0 = all rows).")),
		mcp.WithString("as_of", mcp.Description("Only score records with this snapshot date (yyyy-mm-dd).")),
		mcp.WithString("target_col", mcp.Description("Label column for actual churn. Empty string disables actual-churn reporting.")),
		mcp.WithBoolean("skip_refresh", mcp.Description("Skip the upstream data refresh gate. Defaults to true for tool calls.")),
	), h.handleScoreCustomers)

	// --- 2. Tool: get_refresh_status ---
	s.AddTool(mcp.NewTool("get_refresh_status",
		mcp.WithDescription("Report the last recorded upstream refresh per target and whether each is within its TTL."),
	), h.handleGetRefreshStatus)

	// --- 3. Tool: list_feature_columns ---
	s.AddTool(mcp.NewTool("list_feature_columns",
		mcp.WithDescription("List the required source feature columns with their risk direction and phrase labels."),
	), h.handleListFeatureColumns)

	return s
}

// StartMCPServer starts the churnscope MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
