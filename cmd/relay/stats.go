package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/proxy/handlers"
)

var statsFlags struct {
	addr    string
	output  string
	timeout time.Duration
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the counters of a running relay",
	Long: `Fetch /stats from a running relay and print the request counters and the
recent request log.

Examples:
  # Summary of a local relay
  relay stats

  # Recent requests as CSV
  relay stats --addr http://relay.internal:8080 --output csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(statsFlags.output)
		if err != nil {
			return cli.NewCommandError("stats", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), statsFlags.timeout)
		defer cancel()

		resp, err := fetchStats(ctx, http.DefaultClient, statsFlags.addr)
		if err != nil {
			return cli.NewCommandError("stats", err)
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.StatsView{StatsResponse: *resp})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsFlags.addr, "addr", "http://127.0.0.1:8080", "base URL of the running relay")
	statsCmd.Flags().StringVarP(&statsFlags.output, "output", "o", "text", "output format: text, json, csv")
	statsCmd.Flags().DurationVar(&statsFlags.timeout, "timeout", 10*time.Second, "request timeout")
}

func fetchStats(ctx context.Context, client *http.Client, addr string) (*handlers.StatsResponse, error) {
	url := strings.TrimSuffix(addr, "/") + "/stats"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid relay address %q: %w", addr, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("relay answered %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out handlers.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}
	return &out, nil
}
