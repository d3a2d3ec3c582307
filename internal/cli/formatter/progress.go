package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a progress bar like [████░░░░] 45%.
// The bar is colored based on the fraction: green above 0.66, yellow from
// 0.33, red below.
func RenderProgress(pct float64, width int) string {
	return fmt.Sprintf("[%s] %3.0f%%", bar(pct, width), clamp01(pct)*100)
}

// RenderRatio renders done out of total as a bar with a count, like
// [██░░░░] 2/6.
func RenderRatio(done, total, width int) string {
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	return fmt.Sprintf("[%s] %d/%d", bar(pct, width), done, total)
}

func bar(pct float64, width int) string {
	pct = clamp01(pct)
	if width < 2 {
		width = 2
	}
	filled := min(int(pct*float64(width)), width)
	blocks := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return style.Render(blocks)
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
