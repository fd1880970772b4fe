package cmd

import (
	"fmt"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/sinkstore"
	"github.com/huangsam/churnscope/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" || backend == schema.NoneBackend {
		return fmt.Errorf("store commands require --store-backend (sqlite, mysql or postgresql)")
	}
	switch backend {
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return fmt.Errorf("unsupported store backend: %q", backend)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = viper.GetString("store-db-connect")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeCmd manages the prediction store.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the prediction store",
	Long: `Manage the database table that keeps a history of scored predictions.

Every score run with a configured store backend appends its rows to the
` + sinkstore.PredictionsTable + ` table, keyed by customer and run time.

Supported backends: SQLite, MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection info
  migrate - Run schema migrations to a specific version

Examples:
  # Check how many predictions are stored
  churnscope store status --store-backend sqlite --store-db-connect predictions.db

  # Bring the store schema up to date
  churnscope store migrate --store-backend sqlite --store-db-connect predictions.db`,
}

// storeStatusCmd shows prediction store statistics.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display prediction store statistics",
	Long: `Show connection details and row counts for the prediction store.

Examples:
  # SQLite store status
  churnscope store status --store-backend sqlite --store-db-connect predictions.db`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := sinkstore.NewStore(cfg.StoreBackend, cfg.StoreDBConnect)
		if err != nil {
			contract.LogFatal("Cannot open prediction store", err)
		}
		defer func() { _ = store.Close() }()

		count, err := store.CountPredictions(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot count predictions", err)
		}
		fmt.Printf("Prediction store (%s):\n", cfg.StoreBackend)
		fmt.Printf("  Table: %s\n", sinkstore.PredictionsTable)
		fmt.Printf("  Rows:  %d\n", count)
	},
}

// storeMigrateCmd runs prediction store schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run prediction store schema migrations",
	Long: `Migrate the prediction store schema to a target version.

By default this migrates to the latest version. Pass --target-version 0 to
roll back all migrations, or a positive number to land on that version.

Examples:
  # Migrate to the latest version
  churnscope store migrate --store-backend sqlite --store-db-connect predictions.db

  # Roll everything back
  churnscope store migrate --store-backend sqlite --store-db-connect predictions.db --target-version 0`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := sinkstore.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Migration failed", err)
		}
	},
}
