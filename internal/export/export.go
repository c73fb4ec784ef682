// Package export writes stored tables to spreadsheet workbooks.
package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// DefaultScoresFile is the workbook written after a scores run
const DefaultScoresFile = "df_scores.xlsx"

// Sheet is one named table in a workbook
type Sheet struct {
	Name  string
	Table table.Table
	// Numeric lists columns whose integer values are written as numbers
	Numeric []string
}

// Write creates a workbook at path with one sheet per entry. The first row of
// each sheet is the header; null cells are left blank.
func Write(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.Name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sh.Name, err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sh.Name, err)
		}
		if err := writeSheet(f, sh); err != nil {
			return fmt.Errorf("writing sheet %q: %w", sh.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh Sheet) error {
	header := make([]interface{}, len(sh.Table.Columns))
	numeric := make([]bool, len(sh.Table.Columns))
	for i, c := range sh.Table.Columns {
		header[i] = c
		for _, n := range sh.Numeric {
			if n == c {
				numeric[i] = true
			}
		}
	}
	if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
		return err
	}

	for r, row := range sh.Table.Rows {
		values := make([]interface{}, len(row))
		for i, cell := range row {
			switch {
			case !cell.Valid:
				values[i] = nil
			case numeric[i]:
				if n, err := strconv.Atoi(cell.String); err == nil {
					values[i] = n
				} else {
					values[i] = cell.String
				}
			default:
				values[i] = cell.String
			}
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.Name, addr, &values); err != nil {
			return err
		}
	}
	return nil
}
