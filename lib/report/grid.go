package report

import (
	"fmt"
	"time"
)

var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var ShortMonthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Legend explains the ADA marker appended to day cells.
const Legend = "* = ADA (Wheelchair) job(s)"

// GridCell is one rendered day/month cell: its display text and
// whether it should carry the weekend style.
type GridCell struct {
	Text    string
	Weekend bool
}

// GridRow is one day row: twelve month cells plus the row-wise total.
type GridRow struct {
	Day   int
	Cells [12]GridCell
	Total int
}

// Grid is the laid-out report: 31 day rows, a monthly-totals row and
// a grand total. Layout is fully deterministic for identical inputs.
type Grid struct {
	Year          int
	DayRows       [31]GridRow
	MonthlyTotals [12]int
	GrandTotal    int
}

func (g *Grid) Headers() []string {
	headers := make([]string, 0, 14)
	headers = append(headers, "Day")
	headers = append(headers, MonthNames[:]...)
	headers = append(headers, "Total")
	return headers
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// cellText renders one day/month value with its optional delta arrow
// and ADA marker.
func cellText(value int, delta int, hasDelta bool, adaCount int) string {
	text := fmt.Sprintf("%d", value)
	if hasDelta {
		if delta > 0 {
			text += fmt.Sprintf(" ↑%d", delta)
		} else if delta < 0 {
			text += fmt.Sprintf(" ↓%d", -delta)
		}
	}
	if adaCount > 0 {
		text += "*"
	}
	return text
}

// BuildGrid lays the aggregated year data out as the daily-totals
// calendar: one row per day 1..31, one column per month, annotated
// with delta arrows and ADA markers. Day/month combinations that do
// not form a real calendar date still render their (zero) value, just
// without the weekend style.
func BuildGrid(year int, totals, ada, delta MonthlyDays) *Grid {
	g := &Grid{Year: year}

	for d := 1; d <= 31; d++ {
		row := GridRow{Day: d}
		for m := 1; m <= 12; m++ {
			value := totals[m][d]
			adaCount := ada[m][d]

			dayDelta := 0
			hasDelta := false
			if delta != nil {
				if days, ok := delta[m]; ok {
					dayDelta, hasDelta = days[d]
				}
			}

			weekend := false
			if d <= daysIn(year, m) {
				wd := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC).Weekday()
				weekend = wd == time.Saturday || wd == time.Sunday
			}

			row.Cells[m-1] = GridCell{
				Text:    cellText(value, dayDelta, hasDelta, adaCount),
				Weekend: weekend,
			}
			row.Total += value
			g.MonthlyTotals[m-1] += value
		}
		g.DayRows[d-1] = row
		g.GrandTotal += row.Total
	}

	return g
}
