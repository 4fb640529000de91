package history

import (
	"fmt"
	"strings"
	"time"

	"faqbot/internal/domain"
)

// Export renders turns as a Markdown document.
func Export(turns []domain.ChatTurn, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Chat History Export\n\n")
	fmt.Fprintf(&b, "Exported on: %s\n\n", now.Format("2006-01-02 15:04:05"))

	for _, turn := range turns {
		role := "Assistant"
		if turn.Role == domain.RoleUser {
			role = "You"
		}

		fmt.Fprintf(&b, "## %s (%s)\n", role, turn.Timestamp)
		fmt.Fprintf(&b, "%s\n\n", turn.Content)
		if turn.Source != "" {
			fmt.Fprintf(&b, "*Source: %s*\n\n", turn.Source)
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}
