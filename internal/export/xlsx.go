package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxBalancesSheet = "Balances"
	xlsxTotalsSheet   = "Totals"
)

// XLSXWriter implements StatementWriter by saving a workbook to a file. The
// file is replaced atomically on every write.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter targeting path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write replaces the workbook at the configured path with st.
func (w *XLSXWriter) Write(_ context.Context, st Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxBalancesSheet); err != nil {
		return fmt.Errorf("naming balances sheet: %w", err)
	}
	if _, err := f.NewSheet(xlsxTotalsSheet); err != nil {
		return fmt.Errorf("adding totals sheet: %w", err)
	}

	if err := writeRows(f, xlsxBalancesSheet, balanceValues(st)); err != nil {
		return err
	}
	if err := writeRows(f, xlsxTotalsSheet, totalValues(st)); err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxBalancesSheet, "B", "B", 48); err != nil {
		return fmt.Errorf("sizing account column: %w", err)
	}
	if err := f.SetColWidth(xlsxBalancesSheet, "C", "C", 42); err != nil {
		return fmt.Errorf("sizing balance column: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".statement-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing workbook: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replacing %s: %w", w.path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
