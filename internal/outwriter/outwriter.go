// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/churnscope/internal/contract"
	"golang.org/x/term"
)

// getMaxReasonWidth calculates the maximum width for reason phrases in table
// output based on terminal width and the fixed columns around them.
func getMaxReasonWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for Rank + Customer + Snapshot + Prob + Label + Rule
	// columns with borders and padding.
	baseWidth := 58

	available := termWidth - baseWidth
	if available < 20 {
		// Minimum reasonable reason width
		return 20
	}
	if available > 90 {
		// Maximum reason width to keep rows scannable
		return 90
	}
	return available
}

// truncateReason shortens a reason string to fit the table, marking the cut
// with an ellipsis.
func truncateReason(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
