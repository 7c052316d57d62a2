package report

import (
	"strconv"

	"tbnreports/lib/textutil"
)

// LabelColumn is the column carrying the vehicle-type designation of
// each scraped row.
const LabelColumn = "Vehicle Types"

var totalMatchers = []string{"total"}
var adaMatchers = []string{"wheelchair"}

// DayValues maps a day of month (always keyed 1..31, regardless of the
// month's true length) to an integer total.
type DayValues map[int]int

// MonthlyDays maps a month (1..12) to its per-day values.
type MonthlyDays map[int]DayValues

func zeroDays() DayValues {
	days := make(DayValues, 31)
	for d := 1; d <= 31; d++ {
		days[d] = 0
	}
	return days
}

func findRow(rows []Row, matchers []string) (Row, bool) {
	for _, r := range rows {
		if textutil.MatchName(string(r[LabelColumn]), matchers) {
			return r, true
		}
	}
	return Row{}, false
}

func rowDays(row Row) DayValues {
	days := zeroDays()
	for d := 1; d <= 31; d++ {
		if cell, ok := row[strconv.Itoa(d)]; ok {
			days[d] = cell.Int()
		}
	}
	return days
}

func sumDays(rows []Row) DayValues {
	days := zeroDays()
	for _, r := range rows {
		for d := 1; d <= 31; d++ {
			if cell, ok := r[strconv.Itoa(d)]; ok {
				days[d] += cell.Int()
			}
		}
	}
	return days
}

// Aggregate rolls a year dataset up into per-day totals and per-day
// ADA counts. For each month the designated TOTAL row wins when
// present (first match), otherwise all day columns are summed across
// rows. Months absent from the dataset contribute all-zero days.
func Aggregate(ds YearDataset) (totals MonthlyDays, ada MonthlyDays) {
	totals = make(MonthlyDays, 12)
	ada = make(MonthlyDays, 12)

	for m := 1; m <= 12; m++ {
		rows := ds.MonthRows(m)
		if len(rows) == 0 {
			totals[m] = zeroDays()
			ada[m] = zeroDays()
			continue
		}

		if row, ok := findRow(rows, totalMatchers); ok {
			totals[m] = rowDays(row)
		} else {
			totals[m] = sumDays(rows)
		}

		if row, ok := findRow(rows, adaMatchers); ok {
			ada[m] = rowDays(row)
		} else {
			ada[m] = zeroDays()
		}
	}
	return totals, ada
}

// Diff computes per (month, day) signed deltas between new and old
// totals. An entry exists only where the old totals carry the same
// (month, day) key; days without prior data get no delta at all.
func Diff(newTotals, oldTotals MonthlyDays) MonthlyDays {
	if oldTotals == nil {
		return nil
	}
	delta := make(MonthlyDays, len(newTotals))
	for m, days := range newTotals {
		oldDays, ok := oldTotals[m]
		if !ok {
			continue
		}
		for d, v := range days {
			old, ok := oldDays[d]
			if !ok {
				continue
			}
			if delta[m] == nil {
				delta[m] = DayValues{}
			}
			delta[m][d] = v - old
		}
	}
	return delta
}
