package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatBatchSummaryMessage builds the completion message sent after a
// rating run.
func FormatBatchSummaryMessage(at time.Time, runID string, succeeded, requested int, reportPath string) string {
	var b strings.Builder
	b.WriteString("*Stock Rating Completed*\n")
	b.WriteString(fmt.Sprintf("Run: `%s`\n", runID))
	b.WriteString(fmt.Sprintf("Coverage: %d/%d\n", succeeded, requested))
	if reportPath != "" {
		b.WriteString(fmt.Sprintf("Report: `%s`\n", reportPath))
	}
	b.WriteString(fmt.Sprintf("Time: %s", at.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatErrorAlertMessage builds an alert message for a failed run.
func FormatErrorAlertMessage(at time.Time, message string) string {
	return fmt.Sprintf("*Stock Rating Error*\n%s\nTime: %s", message, at.Format("2006-01-02 15:04:05"))
}
