package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatErrorAlertMessage formats an operator alert for a task that exhausted
// its retry budget.
func FormatErrorAlertMessage(ts time.Time, message string) string {
	var b strings.Builder
	b.WriteString("🚨 *Pipeline Alert* 🚨\n\n")
	b.WriteString(fmt.Sprintf("🕐 *Time:* %s\n", ts.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("💬 *Detail:* %s\n", message))
	return b.String()
}

// FormatCallAlertMessage formats a notification for a newly persisted call.
func FormatCallAlertMessage(influencer, asset, direction string, confidence float64, quote string) string {
	icon := "📈"
	if strings.EqualFold(direction, "bearish") {
		icon = "📉"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *New %s call on %s*\n\n", icon, strings.ToUpper(direction), asset))
	b.WriteString(fmt.Sprintf("🗣 *Influencer:* %s\n", influencer))
	b.WriteString(fmt.Sprintf("🎯 *Confidence:* %.2f\n", confidence))
	if quote != "" {
		b.WriteString(fmt.Sprintf("💬 _%s_\n", quote))
	}
	return b.String()
}
