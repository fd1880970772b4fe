package cmd

import (
	"github.com/huangsam/churnscope/core"
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/dbsource"
	"github.com/spf13/cobra"
)

// checkCmd verifies source connectivity and the feature column contract.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the record source before scheduling scoring runs.",
	Long: `Check connectivity to the record source and validate the source table.

Verifies:
- The database is reachable and reports its version
- The source table exposes every required feature column
- Whether the target column is present for actual-churn reporting

Exits non-zero when the source is unreachable or columns are missing, so it
slots into CI/CD pipelines as a preflight gate.

Examples:
  # Check the default SQLite source
  churnscope check --db-connect churn.db

  # Check a MySQL source with a custom table
  churnscope check --backend mysql --db-connect "user:pass@tcp(host:3306)/db" --source-table CadenceSnapshots`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		src, err := dbsource.New(cfg)
		if err != nil {
			contract.LogFatal("Cannot open record source", err)
		}
		defer func() { _ = src.Close() }()

		if err := core.ExecuteChurnCheck(rootCtx, cfg, src); err != nil {
			contract.LogFatal("Source check failed", err)
		}
	},
}
