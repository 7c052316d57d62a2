package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Cell is a single table value. The portal renders both vehicle-type
// labels and day counts in the same table, so a cell is held as a
// string and coerced numerically only where aggregation needs it.
type Cell string

var intCellRegex = regexp.MustCompile(`^-?\d+$`)

// Cells that look like integers marshal as bare JSON numbers so that
// the raw export matches the shape the reporting portal tooling
// expects (and round-trips through older exports).
func (c Cell) MarshalJSON() ([]byte, error) {
	s := string(c)
	if intCellRegex.MatchString(s) {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(v, 10) == s {
			return []byte(s), nil
		}
	}
	return json.Marshal(s)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*c = ""
	case string:
		*c = Cell(v)
	case float64:
		if v == float64(int64(v)) {
			*c = Cell(strconv.FormatInt(int64(v), 10))
		} else {
			*c = Cell(strconv.FormatFloat(v, 'f', -1, 64))
		}
	case bool:
		*c = Cell(strconv.FormatBool(v))
	default:
		return fmt.Errorf("unsupported cell value %T", raw)
	}
	return nil
}

// Int coerces the cell to an integer total. Missing or non-numeric
// values coerce to zero, thousands separators are tolerated.
func (c Cell) Int() int {
	s := strings.ReplaceAll(strings.TrimSpace(string(c)), ",", "")
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// Row maps a column name (the vehicle-type label column or a
// day-of-month column "1".."31") to a cell value. Scraped rows also
// carry "Year" and "Month" columns.
type Row map[string]Cell

// MonthRecord is the scrape result of one (year, month). Every row is
// stamped with its source year and month.
type MonthRecord struct {
	Year  int
	Month int
	Rows  []Row
}

// YearDataset is the concatenation of the months scraped for one year,
// in month order. Months that yielded no table are simply absent.
type YearDataset struct {
	Year   int
	Months []MonthRecord
}

func (d YearDataset) Empty() bool {
	for _, m := range d.Months {
		if len(m.Rows) > 0 {
			return false
		}
	}
	return true
}

// MonthRows returns the rows scraped for the given month, or nil.
func (d YearDataset) MonthRows(month int) []Row {
	for _, m := range d.Months {
		if m.Month == month {
			return m.Rows
		}
	}
	return nil
}

// Records flattens the dataset into the raw-export form: one JSON
// object per table row, each carrying Year and Month columns.
func (d YearDataset) Records() []Row {
	var records []Row
	for _, m := range d.Months {
		for _, r := range m.Rows {
			flat := make(Row, len(r)+2)
			for k, v := range r {
				flat[k] = v
			}
			flat["Year"] = Cell(strconv.Itoa(m.Year))
			flat["Month"] = Cell(strconv.Itoa(m.Month))
			records = append(records, flat)
		}
	}
	return records
}

// MarshalRecords serializes the dataset as an indented records array,
// the format of the <Prefix>_RawData_<year>.json artifact.
func (d YearDataset) MarshalRecords() ([]byte, error) {
	return json.MarshalIndent(d.Records(), "", "  ")
}

// DatasetFromRecords reassembles a YearDataset for one year from flat
// records, grouping rows by their Month column in ascending order.
// Rows belonging to other years are ignored.
func DatasetFromRecords(records []Row, year int) YearDataset {
	byMonth := map[int][]Row{}
	for _, r := range records {
		if r["Year"].Int() != year {
			continue
		}
		m := r["Month"].Int()
		if m < 1 || m > 12 {
			continue
		}
		row := make(Row, len(r))
		for k, v := range r {
			if k == "Year" || k == "Month" {
				continue
			}
			row[k] = v
		}
		byMonth[m] = append(byMonth[m], row)
	}

	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Ints(months)

	ds := YearDataset{Year: year}
	for _, m := range months {
		ds.Months = append(ds.Months, MonthRecord{
			Year:  year,
			Month: m,
			Rows:  byMonth[m],
		})
	}
	return ds
}

// ParseRecords parses a raw-export records array.
func ParseRecords(data []byte) ([]Row, error) {
	var records []Row
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ValidatePriorRecords checks that uploaded prior data carries the
// columns comparisons need. It only inspects shape; values are coerced
// later like any scraped cell.
func ValidatePriorRecords(records []Row) error {
	if len(records) == 0 {
		return fmt.Errorf("prior data is empty")
	}
	for _, required := range []string{"Year", "Month"} {
		if _, ok := records[0][required]; !ok {
			return fmt.Errorf("prior data is missing required column %q", required)
		}
	}
	return nil
}
