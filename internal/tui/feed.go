package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/farum-board/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// renderFeed lays out messages in the order given, which is newest first.
func renderFeed(msgs []*domain.Message, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("No messages yet. Be the first to post!")
	}

	body := contentStyle
	if width > 4 {
		body = body.Width(width - 2)
	}

	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		header := lipgloss.JoinHorizontal(lipgloss.Top,
			authorStyle.Render(m.AuthorName),
			"  ",
			timeStyle.Render(m.CreatedAt.Local().Format(timeLayout)),
		)
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(body.Render(m.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func feedTitle(n int) string {
	return headerStyle.Render(fmt.Sprintf("Messages (%d)", n))
}
