// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header lipgloss.Style
	cell   lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4)),
		cell:   lipgloss.NewStyle().PaddingRight(2),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
	}
}

func formatPeak(peak float32) string {
	if peak <= 0 {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", dbfs(peak))
}

// summary renders one row per result in input order.
func summary(results []result, sampleRate float64) string {
	st := newStyles()

	rows := [][]string{{"INPUT", "OUTPUT", "LENGTH", "PEAK", "TIME", "STATUS"}}
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "FAILED: " + r.Err.Error()
		}
		length := time.Duration(float64(r.Frames) / sampleRate * float64(time.Second))
		rows = append(rows, []string{
			r.Input,
			r.Output,
			length.Round(time.Millisecond).String(),
			formatPeak(r.Peak),
			r.Elapsed.Round(time.Millisecond).String(),
			status,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			style := st.cell.Width(widths[j] + 2)
			switch {
			case i == 0:
				style = style.Inherit(st.header)
			case j == len(row)-1 && results[i-1].Err != nil:
				c = st.err.Render(c)
			case j == len(row)-1:
				c = st.ok.Render(c)
			}
			cells[j] = style.Render(c)
		}
		lines = append(lines, strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
