package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"docmine/internal"
)

// ExportResultsToXLSX writes result rows to a spreadsheet, one row per
// extracted address, creating the output directory as needed.
func ExportResultsToXLSX(rows []internal.ExtractionResult, outputPath, sheetName string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if sheetName != "" && sheetName != sheet {
		if err := f.SetSheetName(sheet, sheetName); err != nil {
			return err
		}
		sheet = sheetName
	}

	headers := []string{"File Name", "Exact Title", "Email"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.FileName)
		set(2, row.Title)
		set(3, row.Email)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
