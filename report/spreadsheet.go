package report

import (
	"fmt"
	"log/slog"

	"coffeescraper/models"

	"github.com/xuri/excelize/v2"
)

var spreadsheetHeader = []interface{}{"id", "url", "price", "timestamp"}

// WriteSpreadsheet saves every stored observation as one row of an xlsx
// workbook at path, below a header row.
func WriteSpreadsheet(path string, records []models.PriceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := f.SetSheetRow(sheet, "A1", &spreadsheetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.ID, r.URL, r.Price, r.Timestamp}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 80); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "D", 20); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save spreadsheet: %w", err)
	}

	slog.Info("spreadsheet saved", "path", path, "rows", len(records))
	return nil
}
