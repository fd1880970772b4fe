// Package cmd defines the command-line interface for churnscope.
package cmd

import (
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the gate subcommands to the parent gate command
	gateCmd.AddCommand(gateStatusCmd)
	gateCmd.AddCommand(gateClearCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Record source backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string for the record source")
	rootCmd.PersistentFlags().String("server", contract.DefaultServerName, "Logical server name for the refresh gate key")
	rootCmd.PersistentFlags().String("database", contract.DefaultDatabaseName, "Logical database name for the refresh gate key")
	rootCmd.PersistentFlags().String("source-table", contract.DefaultSourceTable, "Source table or view with churn cadence snapshots")
	rootCmd.PersistentFlags().String("target-col", schema.DefaultTargetColumn, "Label column for actual churn (empty disables actual-churn reporting)")
	rootCmd.PersistentFlags().IntP("top", "t", 0, "Limit the number of source rows fetched (0 = all rows)")
	rootCmd.PersistentFlags().String("as-of", "", "Only score records with this snapshot date (yyyy-mm-dd)")
	rootCmd.PersistentFlags().Bool("keep-all-rows", false, "Score every snapshot row instead of the latest per customer")
	rootCmd.PersistentFlags().String("proc-name", contract.DefaultProcName, "Upstream refresh procedure name")
	rootCmd.PersistentFlags().String("proc-schema", contract.DefaultProcSchema, "Upstream refresh procedure schema")
	rootCmd.PersistentFlags().Int("ttl-hours", contract.DefaultTTLHours, "Hours before the refresh gate re-runs the procedure")
	rootCmd.PersistentFlags().Bool("force-refresh", false, "Run the refresh procedure regardless of the TTL")
	rootCmd.PersistentFlags().Bool("skip-refresh", false, "Never run the refresh procedure")
	rootCmd.PersistentFlags().String("state-file", contract.DefaultStateFile, "Path to the refresh gate state file")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("raw-output", "", "Optional path to export the raw source records as CSV")
	rootCmd.PersistentFlags().String("headers", string(schema.FriendlyHeaders), "CSV header style: friendly or technical")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", "", "Prediction store backend: sqlite, mysql, postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the prediction store")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
