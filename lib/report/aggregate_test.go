package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateTotalRow(t *testing.T) {
	ds := YearDataset{
		Year: 2025,
		Months: []MonthRecord{
			{Year: 2025, Month: 3, Rows: []Row{
				{LabelColumn: "Mini Coach", "1": "2", "2": "1"},
				{LabelColumn: "TOTAL", "1": "5", "2": "7"},
			}},
		},
	}

	totals, ada := Aggregate(ds)

	require.Equal(t, 5, totals[3][1])
	require.Equal(t, 7, totals[3][2])
	require.Equal(t, 0, totals[3][3], "absent column coerces to zero")
	require.Equal(t, 0, totals[3][31])

	// no wheelchair row, ADA defaults to zero
	require.Equal(t, 0, ada[3][1])

	// months not in the dataset contribute all-zero days
	for m := 1; m <= 12; m++ {
		if m == 3 {
			continue
		}
		for d := 1; d <= 31; d++ {
			require.Equal(t, 0, totals[m][d])
		}
	}
}

func TestAggregateSummationFallback(t *testing.T) {
	ds := YearDataset{
		Year: 2025,
		Months: []MonthRecord{
			{Year: 2025, Month: 5, Rows: []Row{
				{LabelColumn: "Mini Coach", "1": "2", "2": "3", "3": "4"},
				{LabelColumn: "Full Coach", "1": "1", "2": "1", "3": "1"},
			}},
		},
	}

	totals, _ := Aggregate(ds)

	require.Equal(t, 3, totals[5][1])
	require.Equal(t, 4, totals[5][2])
	require.Equal(t, 5, totals[5][3])
	require.Equal(t, 0, totals[5][4])
}

func TestAggregateADARow(t *testing.T) {
	ds := YearDataset{
		Year: 2025,
		Months: []MonthRecord{
			{Year: 2025, Month: 6, Rows: []Row{
				{LabelColumn: "TOTAL", "15": "9"},
				{LabelColumn: "Wheelchair Van", "15": "2"},
			}},
		},
	}

	totals, ada := Aggregate(ds)
	require.Equal(t, 9, totals[6][15])
	require.Equal(t, 2, ada[6][15])
	require.Equal(t, 0, ada[6][16])
}

func TestAggregateCoercesJunkCells(t *testing.T) {
	ds := YearDataset{
		Year: 2025,
		Months: []MonthRecord{
			{Year: 2025, Month: 1, Rows: []Row{
				{LabelColumn: "TOTAL", "1": "n/a", "2": "", "3": "1,204"},
			}},
		},
	}

	totals, _ := Aggregate(ds)
	require.Equal(t, 0, totals[1][1])
	require.Equal(t, 0, totals[1][2])
	require.Equal(t, 1204, totals[1][3])
}

func TestDiff(t *testing.T) {
	newTotals := MonthlyDays{1: {1: 10, 2: 4, 3: 4}}
	oldTotals := MonthlyDays{1: {1: 7, 2: 4}}

	delta := Diff(newTotals, oldTotals)
	require.Equal(t, 3, delta[1][1])
	require.Equal(t, 0, delta[1][2])

	_, ok := delta[1][3]
	require.False(t, ok, "day without prior data gets no delta entry")

	require.Nil(t, Diff(newTotals, nil))
}
