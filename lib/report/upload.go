package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// ParsePriorUpload reads uploaded prior-year data, either a raw-export
// JSON records array or a CSV with a header row. The filename only
// decides the format.
func ParsePriorUpload(data []byte, filename string) ([]Row, error) {
	var records []Row
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		records, err = ParseRecords(data)
	} else {
		records, err = parseCSVRecords(data)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read uploaded file: %w", err)
	}
	if err := ValidatePriorRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseCSVRecords(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	header := lines[0]
	var records []Row
	for _, line := range lines[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = Cell(line[i])
			}
		}
		records = append(records, row)
	}
	return records, nil
}
