// Command server runs the claim lifecycle and fraud triage engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Claim lifecycle and fraud triage engine",
	Long: `Runs the claim engine HTTP API.

With no environment set the server uses in-memory stores and a log
notification channel. Set CLAIMS_DATABASE_URL, CLAIMS_REDIS_URL and
CLAIMS_KAFKA_BROKERS to enable Postgres, the dashboard cache and the
event relay.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}
