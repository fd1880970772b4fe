package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteFeatureCatalog prints the feature contract: every required column, its
// risk direction, value kind, and the phrase labels the explainer uses.
func WriteFeatureCatalog(cfg *contract.Config) error {
	specs := schema.Features()

	switch cfg.Output {
	case schema.JSONOut:
		type JSONFeature struct {
			Name      string `json:"name"`
			Direction string `json:"direction"`
			Kind      string `json:"kind"`
			Label     string `json:"label"`
			LowLabel  string `json:"low_label,omitempty"`
			BoolFlag  bool   `json:"bool_flag,omitempty"`
		}
		output := make([]JSONFeature, len(specs))
		for i, s := range specs {
			output[i] = JSONFeature{
				Name:      s.Name,
				Direction: string(s.Direction),
				Kind:      string(s.Kind),
				Label:     s.Label,
				LowLabel:  s.LowLabel,
				BoolFlag:  s.BoolFlag,
			}
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, output)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFeatureTable(specs, w)
		}, "Wrote table")
	}
}

func writeFeatureTable(specs []schema.FeatureSpec, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Column", "Direction", "Kind", "High Phrase", "Low Phrase"})

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, s := range specs {
		data = append(data, []string{
			s.Name,
			string(s.Direction),
			string(s.Kind),
			s.Label,
			s.LowLabel,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(writer, "%d required feature columns\n", len(specs))
	return err
}
