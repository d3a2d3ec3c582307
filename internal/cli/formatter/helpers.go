package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// DateLabel names a plan date relative to today: "Today", "Yesterday",
// "3d ago" within two weeks, else the date itself.
func DateLabel(date, today string) string {
	d, err1 := time.Parse(domain.DateLayout, date)
	t, err2 := time.Parse(domain.DateLayout, today)
	if err1 != nil || err2 != nil {
		return date
	}
	days := int(t.Sub(d).Hours() / 24)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 14:
		return fmt.Sprintf("%dd ago", days)
	default:
		return d.Format("Jan 2, 2006")
	}
}

// Truncate shortens s to n visible characters with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}

// FormatMinutes converts raw minutes into human-friendly format.
func FormatMinutes(min int) string {
	if min <= 0 {
		return "0m"
	}
	h := min / 60
	m := min % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}
