package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/spgate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// gateSetup loads minimal configuration needed for gate operations.
// This is used by commands that need gate state without full shared setup.
func gateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	cfg.StateFile = viper.GetString("state-file")
	if cfg.StateFile == "" {
		cfg.StateFile = contract.DefaultStateFile
	}
	ttlHours := viper.GetInt("ttl-hours")
	if ttlHours <= 0 {
		ttlHours = contract.DefaultTTLHours
	}
	cfg.TTL = time.Duration(ttlHours) * time.Hour

	return nil
}

// gateSetupWrapper wraps gateSetup to provide PreRunE for gate commands.
func gateSetupWrapper(_ *cobra.Command, _ []string) error {
	return gateSetup()
}

// gateCmd manages the upstream refresh gate state.
//
// Note: Gate subcommands use minimal initialization (gateSetup) instead of the
// full sharedSetup used by scoring commands. This avoids database validation
// for simple state-file operations.
var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Manage the upstream refresh gate state",
	Long: `Manage the TTL gate that throttles upstream snapshot refreshes.

Churnscope records when each refresh procedure last ran and skips re-running
it while the run is within its TTL. State lives in a small JSON file keyed by
server, database, schema and procedure.

Subcommands:
  status - Show recorded refresh runs and their freshness
  clear  - Forget all recorded runs

Examples:
  # See what the gate knows
  churnscope gate status

  # Force the next score run to refresh
  churnscope gate clear`,
}

// gateStatusCmd shows the recorded refresh runs.
var gateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display recorded refresh runs and their freshness",
	Long: `Show every refresh target the gate has recorded, when it last ran,
and whether the run is still within its TTL window.

Examples:
  # Check gate status with a non-default TTL
  churnscope gate status --ttl-hours 6`,
	PreRunE: gateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		st := spgate.Load(cfg.StateFile)
		if st.Len() == 0 {
			fmt.Printf("No recorded refresh runs in %s\n", cfg.StateFile)
			return
		}

		now := time.Now()
		fmt.Printf("Refresh gate state (%s, TTL %s):\n", cfg.StateFile, cfg.TTL)
		for _, e := range st.Entries() {
			freshness := "stale"
			if now.Before(e.LastRun.Add(cfg.TTL)) {
				freshness = "fresh"
			}
			fmt.Printf("  %-50s last run %s (%s)\n", e.Key, e.LastRun.UTC().Format(time.RFC3339), freshness)
		}
	},
}

// gateClearCmd forgets all recorded refresh runs.
var gateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recorded refresh runs",
	Long: `Delete the gate state file so every target refreshes on its next run.

Use this when:
- The upstream table was rebuilt outside of churnscope
- The state file may be stale or corrupted

Examples:
  # Clear the default state file
  churnscope gate clear`,
	PreRunE: gateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := os.Remove(cfg.StateFile); err != nil && !os.IsNotExist(err) {
			contract.LogFatal("Failed to clear gate state", err)
		}
		fmt.Println("Gate state cleared successfully.")
	},
}
