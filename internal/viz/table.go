package viz

import (
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
	return t.String()
}

// MetricsTable renders a name/value table sorted by name.
func MetricsTable(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, k := range names {
		rows[i] = []string{k, strconv.FormatFloat(metrics[k], 'f', 2, 64)}
	}
	return Table([]string{"metric", "value"}, rows)
}
