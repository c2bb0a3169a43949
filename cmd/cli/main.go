package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "oilledger-cli",
		Short:         "Oil ledger CLI tool",
		Long:          `A command line interface for interacting with the oil ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("OILLEDGER_URL", "http://localhost:8080"), "Base URL of the oil ledger API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("OILLEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(verifyCmd())

	sequenceCmd := &cobra.Command{
		Use:   "sequence",
		Short: "Identifier sequences",
	}
	sequenceCmd.AddCommand(nextIDCmd())

	treasuryCmd := &cobra.Command{
		Use:   "treasury",
		Short: "Treasury postings",
	}
	treasuryCmd.AddCommand(postCmd(), importCmd())

	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Client reports",
	}
	clientCmd.AddCommand(statementCmd())

	activityRoot := &cobra.Command{
		Use:   "activity",
		Short: "Operator activity log",
	}
	activityRoot.AddCommand(activityCmd())

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Access tokens",
	}
	tokenCmd.AddCommand(issueTokenCmd())

	rootCmd.AddCommand(ledgerCmd, sequenceCmd, treasuryCmd, clientCmd, activityRoot, tokenCmd)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
