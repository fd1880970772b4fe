package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/churnscope/core"
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/dbsource"
	"github.com/huangsam/churnscope/internal/spgate"
	"github.com/huangsam/churnscope/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

func (h *toolHandler) handleScoreCustomers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if t := request.GetInt("top", 0); t > 0 {
		cfg.Top = t
	}
	if a := request.GetString("as_of", ""); a != "" {
		if _, err := time.Parse("2006-01-02", a); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid as_of date: %v", err)), nil
		}
		cfg.AsOf = a
	}
	if tc := request.GetString("target_col", cfg.TargetColumn); tc != cfg.TargetColumn {
		cfg.TargetColumn = tc
	}
	// Tool calls default to scoring whatever is already in the source table
	// rather than triggering a refresh.
	cfg.SkipRefresh = request.GetBool("skip_refresh", true)

	src, err := dbsource.New(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot open record source: %v", err)), nil
	}
	defer func() { _ = src.Close() }()

	out, err := core.RunScoring(ctx, cfg, src, src, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(out.Predictions, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetRefreshStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := spgate.Load(h.baseCfg.StateFile)

	type statusEntry struct {
		Target    string    `json:"target"`
		LastRun   time.Time `json:"last_run"`
		Fresh     bool      `json:"fresh"`
		StaleFor  string    `json:"stale_for,omitempty"`
		TTLWindow string    `json:"ttl_window"`
	}

	now := time.Now()
	entries := make([]statusEntry, 0, st.Len())
	for _, e := range st.Entries() {
		entry := statusEntry{
			Target:    e.Key,
			LastRun:   e.LastRun,
			Fresh:     now.Before(e.LastRun.Add(h.baseCfg.TTL)),
			TTLWindow: h.baseCfg.TTL.String(),
		}
		if !entry.Fresh {
			entry.StaleFor = now.Sub(e.LastRun.Add(h.baseCfg.TTL)).Round(time.Minute).String()
		}
		entries = append(entries, entry)
	}

	jsonData, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListFeatureColumns(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type featureEntry struct {
		Name      string `json:"name"`
		Direction string `json:"direction"`
		Kind      string `json:"kind"`
		Label     string `json:"label"`
		LowLabel  string `json:"low_label,omitempty"`
		BoolFlag  bool   `json:"bool_flag,omitempty"`
	}

	specs := schema.Features()
	entries := make([]featureEntry, len(specs))
	for i, s := range specs {
		entries[i] = featureEntry{
			Name:      s.Name,
			Direction: string(s.Direction),
			Kind:      string(s.Kind),
			Label:     s.Label,
			LowLabel:  s.LowLabel,
			BoolFlag:  s.BoolFlag,
		}
	}

	jsonData, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
