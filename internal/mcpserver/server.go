// Package mcpserver exposes the query facade as MCP tools over stdio.
// The tool surface mirrors the CLI: four lookups, JSON text results,
// typed failures mapped to MCP tool errors.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"yfmcp/internal/market"
	"yfmcp/internal/query"
)

const serverName = "yfinance-mcp"

type handler struct {
	svc *query.Service
	log *zap.Logger
}

// New builds the MCP server with the four lookup tools registered.
func New(svc *query.Service, version string, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{svc: svc, log: log}

	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("get_stock_price",
		mcp.WithDescription("Get the latest stock price and fundamentals for a TSE-listed stock."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("4-character Tokyo Stock Exchange code, e.g. \"7203\" for Toyota."),
		),
	), h.getStockPrice)

	s.AddTool(mcp.NewTool("get_stock_history",
		mcp.WithDescription("Get OHLCV price history for a TSE-listed stock."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("4-character Tokyo Stock Exchange code, e.g. \"7203\"."),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD format."),
		),
		mcp.WithString("end_date",
			mcp.Description("End date in YYYY-MM-DD format (defaults to today)."),
		),
		mcp.WithString("interval",
			mcp.Description("Data interval: \"1d\" (daily), \"1wk\" (weekly), \"1mo\" (monthly)."),
		),
	), h.getStockHistory)

	s.AddTool(mcp.NewTool("get_fx_rates",
		mcp.WithDescription("Get JPY foreign exchange rates (USDJPY, EURJPY, GBPJPY, CNYJPY)."),
		mcp.WithArray("pairs",
			mcp.Description("Pair names to fetch; defaults to all four."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), h.getFXRates)

	s.AddTool(mcp.NewTool("search_ticker",
		mcp.WithDescription("Search Yahoo Finance for a stock ticker by company name or keyword."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Company name or keyword, e.g. \"Toyota\"."),
		),
	), h.searchTicker)

	return s
}

// ServeStdio runs the server on stdin/stdout until the client hangs up.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handler) getStockPrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := h.svc.StockPrice(ctx, code)
	if err != nil {
		h.log.Warn("get_stock_price failed", zap.String("code", code), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

func (h *handler) getStockHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := req.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end := req.GetString("end_date", "")
	interval := req.GetString("interval", "")

	hist, err := h.svc.StockHistory(ctx, code, start, end, interval)
	if err != nil {
		h.log.Warn("get_stock_history failed", zap.String("code", code), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload := struct {
		market.PriceHistory
		Count int `json:"count"`
	}{*hist, len(hist.Candles)}
	return jsonResult(payload)
}

func (h *handler) getFXRates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pairs := req.GetStringSlice("pairs", nil)
	rates, err := h.svc.FXRates(ctx, pairs)
	if err != nil {
		h.log.Warn("get_fx_rates failed", zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload := struct {
		Source string          `json:"source"`
		Rates  []market.FXRate `json:"rates"`
	}{"yahoo_fx", rates}
	return jsonResult(payload)
}

func (h *handler) searchTicker(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := h.svc.SearchTicker(ctx, q)
	if err != nil {
		h.log.Warn("search_ticker failed", zap.String("query", q), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(matches) == 0 {
		payload := []map[string]string{{"message": fmt.Sprintf("No tickers found for query: %s", q)}}
		return jsonResult(payload)
	}
	return jsonResult(matches)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
