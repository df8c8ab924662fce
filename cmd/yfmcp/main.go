package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yfmcp/internal/config"
	"yfmcp/internal/httpx"
	"yfmcp/internal/logging"
	"yfmcp/internal/market"
	"yfmcp/internal/market/ratelimit"
	"yfmcp/internal/mcpserver"
	"yfmcp/internal/query"
	"yfmcp/internal/yahoo"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *zap.Logger
	svc *query.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgPath string

	root := &cobra.Command{
		Use:          "yfmcp",
		Short:        "Yahoo Finance MCP server and CLI for TSE-listed stocks",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			a.svc = query.New(buildSource(cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")

	root.AddCommand(
		newPriceCmd(a),
		newHistoryCmd(a),
		newFXCmd(a),
		newSearchCmd(a),
		newTestCmd(a),
		newServeCmd(a),
	)
	return root
}

// buildSource assembles the upstream client and, when configured, the
// rate-limit gate in front of it. Token bucket wins over min-interval
// when both are set.
func buildSource(cfg config.Config) market.Source {
	hc := httpx.New(time.Duration(cfg.Yahoo.TimeoutSec)*time.Second, cfg.Yahoo.UserAgent)
	var src market.Source = yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(hc),
	)
	if cfg.Yahoo.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.Yahoo.MaxRequestsPerMinute) / 60.0
		burst := cfg.Yahoo.Burst
		if burst <= 0 {
			burst = 1
		}
		src = &ratelimit.TokenBucketSource{S: src, TB: ratelimit.NewTokenBucket(rate, burst)}
	} else if cfg.Yahoo.MinRequestIntervalSec > 0 {
		src = &ratelimit.MinInterval{S: src, Interval: time.Duration(cfg.Yahoo.MinRequestIntervalSec) * time.Second}
	}
	return src
}

func newPriceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price <code>",
		Short: "Get the latest stock price for a TSE-listed stock (e.g. 7203)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.svc.StockPrice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, snap)
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var start, end, interval string
	cmd := &cobra.Command{
		Use:   "history <code>",
		Short: "Get OHLCV price history for a TSE-listed stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := a.svc.StockHistory(cmd.Context(), args[0], start, end, interval)
			if err != nil {
				return err
			}
			return printJSON(cmd, hist)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&interval, "interval", "1d", "1d / 1wk / 1mo")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newFXCmd(a *app) *cobra.Command {
	var pairsCSV string
	cmd := &cobra.Command{
		Use:   "fx",
		Short: "Get JPY FX rates (USDJPY, EURJPY, GBPJPY, CNYJPY)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pairs []string
			if pairsCSV != "" {
				pairs = splitCSV(pairsCSV)
			}
			rates, err := a.svc.FXRates(cmd.Context(), pairs)
			if err != nil {
				return err
			}
			payload := struct {
				Source string          `json:"source"`
				Rates  []market.FXRate `json:"rates"`
			}{"yahoo_fx", rates}
			return printJSON(cmd, payload)
		},
	}
	cmd.Flags().StringVar(&pairsCSV, "pairs", "", "comma-separated pairs e.g. USDJPY,EURJPY")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search for a ticker by company name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := a.svc.SearchTicker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, matches)
		},
	}
}

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run a quick connectivity check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			ok := true

			fmt.Fprintln(out, "Testing stock price (Toyota 7203)...")
			if snap, err := a.svc.StockPrice(ctx, "7203"); err != nil {
				ok = false
				fmt.Fprintf(out, "  x %v\n", err)
			} else {
				fmt.Fprintf(out, "  ok close=%g, date=%s\n", snap.Close, snap.Date)
			}

			fmt.Fprintln(out, "Testing FX rates...")
			if rates, err := a.svc.FXRates(ctx, []string{"USDJPY"}); err != nil {
				ok = false
				fmt.Fprintf(out, "  x %v\n", err)
			} else {
				fmt.Fprintf(out, "  ok USDJPY=%g\n", rates[0].Rate)
			}

			if !ok {
				return fmt.Errorf("connectivity check failed")
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info("mcp server listening on stdio", zap.String("version", version))
			return mcpserver.ServeStdio(mcpserver.New(a.svc, version, a.log))
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
