package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleDataset() YearDataset {
	return YearDataset{
		Year: 2024,
		Months: []MonthRecord{
			{Year: 2024, Month: 1, Rows: []Row{
				{LabelColumn: "Mini Coach", "1": "2", "2": "0"},
				{LabelColumn: "TOTAL", "1": "5", "2": "7"},
			}},
			{Year: 2024, Month: 2, Rows: []Row{
				{LabelColumn: "TOTAL", "10": "3"},
			}},
		},
	}
}

func TestRawExportRoundTrip(t *testing.T) {
	ds := sampleDataset()

	data, err := ds.MarshalRecords()
	require.NoError(t, err)

	records, err := ParseRecords(data)
	require.NoError(t, err)

	back := DatasetFromRecords(records, 2024)
	require.Empty(t, cmp.Diff(ds, back))
}

func TestRecordsStampYearAndMonth(t *testing.T) {
	records := sampleDataset().Records()
	require.Len(t, records, 3)
	for _, r := range records {
		require.Equal(t, 2024, r["Year"].Int())
		require.NotZero(t, r["Month"].Int())
	}
}

func TestDatasetFromRecordsFiltersYear(t *testing.T) {
	records := []Row{
		{"Year": "2023", "Month": "1", LabelColumn: "TOTAL", "1": "2"},
		{"Year": "2024", "Month": "1", LabelColumn: "TOTAL", "1": "9"},
	}
	ds := DatasetFromRecords(records, 2024)
	require.Len(t, ds.Months, 1)
	require.Equal(t, Cell("9"), ds.Months[0].Rows[0]["1"])
}

func TestCellJSON(t *testing.T) {
	// numeric-looking cells marshal as bare numbers
	data, err := Cell("42").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "42", string(data))

	// labels stay quoted
	data, err = Cell("TOTAL").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"TOTAL"`, string(data))

	// leading zeros must not be mangled into numbers
	data, err = Cell("007").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"007"`, string(data))

	var c Cell
	require.NoError(t, c.UnmarshalJSON([]byte("7")))
	require.Equal(t, Cell("7"), c)
	require.NoError(t, c.UnmarshalJSON([]byte(`"x"`)))
	require.Equal(t, Cell("x"), c)
	require.NoError(t, c.UnmarshalJSON([]byte("null")))
	require.Equal(t, Cell(""), c)
}

func TestCellInt(t *testing.T) {
	require.Equal(t, 5, Cell("5").Int())
	require.Equal(t, 1204, Cell("1,204").Int())
	require.Equal(t, 3, Cell("3.0").Int())
	require.Equal(t, 0, Cell("").Int())
	require.Equal(t, 0, Cell("n/a").Int())
}

func TestValidatePriorRecords(t *testing.T) {
	err := ValidatePriorRecords([]Row{{"Year": "2024", "Month": "1"}})
	require.NoError(t, err)

	err = ValidatePriorRecords([]Row{{"Month": "1"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Year")

	require.Error(t, ValidatePriorRecords(nil))
}
