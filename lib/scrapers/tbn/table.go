package tbn

import (
	"context"
	"strings"

	"tbnreports/lib/htmlutil"
	"tbnreports/lib/report"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMonthTable pulls the first data table out of rendered report
// markup and maps it to a MonthRecord keyed by the table's own header
// labels. Returns nil when the page holds no table, which is the
// portal's way of saying the month has no activity.
func ExtractMonthTable(ctx context.Context, html string, year, month int) (*report.MonthRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := htmlutil.ParseTable(ctx, doc.Selection)
	if table == nil || len(table.Headers) == 0 || len(table.Rows) == 0 {
		return nil, nil
	}

	record := &report.MonthRecord{Year: year, Month: month}
	for _, cells := range table.Rows {
		row := report.Row{}
		for i, header := range table.Headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = cells[i]
			}
			row[header] = report.Cell(value)
		}
		record.Rows = append(record.Rows, row)
	}
	return record, nil
}
