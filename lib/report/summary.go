package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// MonthSummary is one row of the per-year monthly totals display.
type MonthSummary struct {
	Year       int
	Month      string
	TotalMoves int
}

// YearSummary is one row of the cross-year totals display.
type YearSummary struct {
	Year       int
	TotalMoves int
}

// MonthlySummary rolls the aggregated totals up to one entry per
// month, in calendar order. Months without data report zero moves.
func MonthlySummary(year int, totals MonthlyDays) []MonthSummary {
	out := make([]MonthSummary, 0, 12)
	for m := 1; m <= 12; m++ {
		moves := 0
		for d := 1; d <= 31; d++ {
			moves += totals[m][d]
		}
		out = append(out, MonthSummary{
			Year:       year,
			Month:      ShortMonthNames[m-1],
			TotalMoves: moves,
		})
	}
	return out
}

// WriteMonthlySummary renders the per-year monthly totals table.
func WriteMonthlySummary(w io.Writer, rows []MonthSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Year", "Month", "Total Moves"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Year, r.Month, r.TotalMoves})
	}
	t.Render()
}

// WriteYearSummary renders the cross-year totals table.
func WriteYearSummary(w io.Writer, rows []YearSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Year", "Total Moves"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Year, r.TotalMoves})
	}
	t.Render()
}
