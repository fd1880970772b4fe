package cmd

import (
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/outwriter"
	"github.com/spf13/cobra"
)

// featuresCmd prints the feature column contract.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Show the required feature columns and their phrase labels.",
	Long: `Display the feature column contract the source table must satisfy.

For each column this shows the risk direction (whether a high, low or
negative value raises churn risk), how values are formatted, and the phrase
the explainer uses when the column drives a prediction.

Examples:
  # Human-readable table
  churnscope features

  # Machine-readable contract for tooling
  churnscope features --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.WriteFeatureCatalog(cfg); err != nil {
			contract.LogFatal("Cannot print feature catalog", err)
		}
	},
}
