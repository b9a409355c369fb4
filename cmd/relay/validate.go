package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/telemetry/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the relay configuration",
	Long: `Load the configuration exactly as "relay run" would (file, environment
variables and .env) and report every problem found.

Secrets are never printed; the summary only shows whether they are set.

Examples:
  # Validate a config file
  relay validate --config relay.yaml

  # Validate an environment-only setup
  PROXY_URL=https://llm.example.com API_KEY=sk-... MY_ACCESS_KEY=secret relay validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateConfig(cmd.OutOrStdout(), cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(out io.Writer, path string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ Configuration has %d problem(s):\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
		}
		return cli.NewConfigError(path, err)
	}
	if _, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging)); err != nil {
		return cli.NewConfigError(path, err)
	}

	fmt.Fprintln(out, "✓ Configuration valid")
	printSummary(out, cfg)
	return nil
}

func printSummary(out io.Writer, cfg *config.Config) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Listen address:\t%s\n", cfg.Proxy.ListenAddress)
	fmt.Fprintf(tw, "  Upstream:\t%s\n", cfg.Upstream.BaseURL)
	fmt.Fprintf(tw, "  Upstream key:\t%s\n", setOrMissing(cfg.Upstream.APIKey))
	fmt.Fprintf(tw, "  Access key:\t%s\n", setOrMissing(cfg.Auth.AccessKey))
	fmt.Fprintf(tw, "  Max attempts:\t%d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(tw, "  Backoff:\t%s\n", describeBackoff(cfg.Retry.Backoff))
	fmt.Fprintf(tw, "  Timeouts:\trequest %s, stream handshake %s, models %s\n",
		cfg.Upstream.RequestTimeout, cfg.Upstream.StreamTimeout, cfg.Upstream.ModelsTimeout)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(tw, "  Metrics:\t%s\n", cfg.Telemetry.Metrics.Path)
	} else {
		fmt.Fprintf(tw, "  Metrics:\tdisabled\n")
	}
	tw.Flush()
}

func setOrMissing(secret string) string {
	if secret == "" {
		return "missing"
	}
	return "set"
}

func describeBackoff(b config.BackoffConfig) string {
	switch b.Policy {
	case "", "none":
		return "none"
	case "fixed":
		return fmt.Sprintf("fixed %s", b.Base)
	default:
		return fmt.Sprintf("%s %s..%s", b.Policy, b.Base, b.Max)
	}
}
