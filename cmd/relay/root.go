package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - credential-gating reverse proxy for LLM upstreams",
	Long: `Relay forwards OpenAI- and Anthropic-style API calls to a single upstream.

Callers present a shared access key, which the relay replaces with the
upstream credential. Transient upstream failures (rate limits, timeouts,
connection errors, 5xx) are retried; streaming responses are relayed as
Server-Sent Events; every request is counted and shown on the dashboard.

Configuration comes from an optional YAML file, RELAY_* environment
variables, and the legacy PROXY_URL, API_KEY, MY_ACCESS_KEY and MAX_RETRIES
variables. A .env file in the working directory is loaded first.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
}

// loadEnvFile loads envFile without overriding variables already set. A
// missing default file is not an error.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	err := godotenv.Load(envFile)
	if err == nil || (errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file")) {
		return nil
	}
	return cli.NewConfigError(envFile, err)
}
