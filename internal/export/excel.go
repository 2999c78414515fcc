// Package export renders ledger rows into a downloadable spreadsheet.
package export

import (
	"bytes"
	"fmt"

	"github.com/jraftery/expense-ledger/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExcelWriter produces an expense report workbook
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel report writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

var reportHeaders = []string{
	"Date", "Merchant", "Amount", "Category", "Status",
	"Sender", "Submitted", "Receipt URL",
}

// WriteReport renders the records into a single-sheet workbook and
// returns the serialized bytes
func (w *ExcelWriter) WriteReport(records []*models.ExpenseRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Expenses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range reportHeaders {
		w.setCell(f, sheet, col+1, 1, header)
	}

	for i, rec := range records {
		row := i + 2
		w.setCell(f, sheet, 1, row, models.FormatDate(rec.Date))
		w.setCell(f, sheet, 2, row, deref(rec.Merchant))
		w.setCell(f, sheet, 3, row, models.FormatCurrency(rec.Amount))
		if rec.Category != nil {
			w.setCell(f, sheet, 4, row, models.CategoryLabel(*rec.Category))
		}
		w.setCell(f, sheet, 5, row, models.StatusLabel(rec.Status))
		w.setCell(f, sheet, 6, row, deref(rec.SenderName))
		w.setCell(f, sheet, 7, row, models.FormatDay(rec.SubmittedAt))
		w.setCell(f, sheet, 8, row, deref(rec.ReceiptURL))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	w.logger.Info("Expense report generated", zap.Int("rows", len(records)))
	return buf.Bytes(), nil
}

func (w *ExcelWriter) setCell(f *excelize.File, sheet string, col, row int, value string) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.logger.Warn("Invalid cell coordinates",
			zap.Int("col", col),
			zap.Int("row", row),
			zap.Error(err))
		return
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		w.logger.Warn("Failed to set cell", zap.String("cell", cell), zap.Error(err))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
