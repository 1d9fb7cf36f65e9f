package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/nconklindev/datasweeper/internal/transform"
	"github.com/nconklindev/datasweeper/internal/types"

	"github.com/charmbracelet/lipgloss"
)

// maxChartRows caps how many bars are drawn per series.
const maxChartRows = 12

// renderChart draws each series as horizontal bars, one per row, scaled to the
// largest absolute value in that series.
func renderChart(series []transform.Series, width int) string {
	if len(series) == 0 {
		return MutedStyle.Render("No numeric columns to chart")
	}

	barWidth := width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 60 {
		barWidth = 60
	}

	blocks := make([]string, 0, len(series))
	for _, s := range series {
		blocks = append(blocks, renderSeries(s, barWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderSeries(s transform.Series, barWidth int) string {
	var b strings.Builder

	b.WriteString(CheckedStyle.Render(fmt.Sprintf("%s (max %s)", s.Name, types.FormatNumber(s.Max()))))
	b.WriteString("\n")

	scale := absMax(s)
	for i, v := range s.Values {
		if i == maxChartRows {
			b.WriteString(MutedStyle.Render(fmt.Sprintf("     ... %d more rows", len(s.Values)-maxChartRows)))
			b.WriteString("\n")
			break
		}

		label := fmt.Sprintf("%4d ", i+1)
		if s.Missing[i] {
			b.WriteString(label + MutedStyle.Render("n/a") + "\n")
			continue
		}

		bar := strings.Repeat("█", barLength(v, scale, barWidth))
		style := BarStyle
		if v < 0 {
			style = NegativeBarStyle
		}
		b.WriteString(label + style.Render(bar) + " " + types.FormatNumber(v) + "\n")
	}

	return b.String()
}

// barLength scales |v| against scale into at most width cells. Any non-zero
// value gets at least one cell.
func barLength(v, scale float64, width int) int {
	if scale == 0 || v == 0 {
		return 0
	}
	n := int(math.Round(math.Abs(v) / scale * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

func absMax(s transform.Series) float64 {
	var m float64
	for i, v := range s.Values {
		if !s.Missing[i] && math.Abs(v) > m {
			m = math.Abs(v)
		}
	}
	return m
}
