package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Daily Totals"

const (
	titleLine    = "Starr Transit Company, Inc."
	subtitleLine = "Coach Requirements Calendar Based on Number of Moves Per Day"
	garageLine   = "Garage: Starr Garage"
)

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// RenderExcel writes the grid out as the spreadsheet artifact:
// title block, Day | January..December | Total header, 31 day rows,
// the Monthly Totals row and the ADA legend. Weekend cells carry a
// grey fill.
func RenderExcel(g *Grid) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	leftStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}
	weekendStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D3D3D3"}},
	})
	if err != nil {
		return nil, err
	}

	headers := g.Headers()
	ncols := len(headers)

	// title block
	f.MergeCell(sheetName, cellName(1, 1), cellName(ncols, 1))
	f.SetCellStr(sheetName, cellName(1, 1), titleLine)
	f.SetCellStyle(sheetName, cellName(1, 1), cellName(ncols, 1), titleStyle)

	f.MergeCell(sheetName, cellName(1, 2), cellName(ncols, 2))
	f.SetCellStr(sheetName, cellName(1, 2), subtitleLine)
	f.SetCellStyle(sheetName, cellName(1, 2), cellName(ncols, 2), titleStyle)

	f.SetCellStr(sheetName, cellName(1, 3), garageLine)
	f.SetCellStyle(sheetName, cellName(1, 3), cellName(1, 3), leftStyle)
	f.MergeCell(sheetName, cellName(2, 3), cellName(ncols, 3))
	f.SetCellStr(sheetName, cellName(2, 3), fmt.Sprintf("January 1 %d to December 31 %d", g.Year, g.Year))
	f.SetCellStyle(sheetName, cellName(2, 3), cellName(ncols, 3), titleStyle)

	const headerRow = 5
	for c, h := range headers {
		f.SetCellStr(sheetName, cellName(c+1, headerRow), h)
	}
	f.SetCellStyle(sheetName, cellName(1, headerRow), cellName(ncols, headerRow), headerStyle)

	f.SetColWidth(sheetName, "A", "A", 10)
	endCol, _ := excelize.ColumnNumberToName(ncols)
	f.SetColWidth(sheetName, "B", endCol, 15)

	firstRow := headerRow + 1
	for i, dayRow := range g.DayRows {
		r := firstRow + i
		f.SetCellInt(sheetName, cellName(1, r), dayRow.Day)
		f.SetCellStyle(sheetName, cellName(1, r), cellName(1, r), leftStyle)

		for m := 0; m < 12; m++ {
			cell := dayRow.Cells[m]
			name := cellName(m+2, r)
			f.SetCellStr(sheetName, name, cell.Text)
			style := dataStyle
			if cell.Weekend {
				style = weekendStyle
			}
			f.SetCellStyle(sheetName, name, name, style)
		}

		f.SetCellInt(sheetName, cellName(ncols, r), dayRow.Total)
		f.SetCellStyle(sheetName, cellName(ncols, r), cellName(ncols, r), dataStyle)
	}

	totalsRow := firstRow + len(g.DayRows)
	f.SetCellStr(sheetName, cellName(1, totalsRow), "Monthly Totals")
	f.SetCellStyle(sheetName, cellName(1, totalsRow), cellName(1, totalsRow), leftStyle)
	for m := 0; m < 12; m++ {
		name := cellName(m+2, totalsRow)
		f.SetCellInt(sheetName, name, g.MonthlyTotals[m])
		f.SetCellStyle(sheetName, name, name, dataStyle)
	}
	f.SetCellInt(sheetName, cellName(ncols, totalsRow), g.GrandTotal)
	f.SetCellStyle(sheetName, cellName(ncols, totalsRow), cellName(ncols, totalsRow), dataStyle)

	footerRow := totalsRow + 2
	f.SetCellStr(sheetName, cellName(1, footerRow), Legend)
	f.SetCellStyle(sheetName, cellName(1, footerRow), cellName(1, footerRow), leftStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExcelFilename names the spreadsheet artifact for a year.
func ExcelFilename(year int) string {
	return "TBN_Report_" + strconv.Itoa(year) + ".xlsx"
}

// RawFilename names the raw-data export for a year.
func RawFilename(year int) string {
	return "TBN_RawData_" + strconv.Itoa(year) + ".json"
}
