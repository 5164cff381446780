package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesledger/internal/models"
	"salesledger/internal/report"
	"salesledger/internal/timeseries"
)

// Sheet names of the XLSX export
const (
	SheetTransactions = "Ventas"
	SheetMonthly      = "Mensual"
	SheetRolling      = "Promedio Movil"
	SheetProducts     = "Productos"
	SheetPairs        = "Sucursal Producto"
)

// LedgerHeaders are the column captions of the transaction exports
var LedgerHeaders = []string{
	"Fecha Documento",
	"Sucursal",
	"Producto / Servicio",
	"Cliente",
	"Subtotal Bruto",
	"Subtotal Neto",
	"Cantidad",
}

func recordRow(r models.TransactionRecord) []string {
	return []string{
		r.Date.Format(models.DateLayout),
		r.Branch,
		r.Product,
		r.Customer,
		r.GrossAmount.String(),
		r.NetAmount.String(),
		strconv.FormatInt(r.Quantity, 10),
	}
}

// WriteCSV writes records in order, one row each, with full-precision amounts
func WriteCSV(records []models.TransactionRecord, writer io.Writer, delimiter rune, headers bool) error {
	csvWriter := csv.NewWriter(writer)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}

	if headers {
		if err := csvWriter.Write(LedgerHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range records {
		if err := csvWriter.Write(recordRow(r)); err != nil {
			return fmt.Errorf("failed to write transaction record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// BuildWorkbook lays the summary out as a workbook: the filtered
// transactions followed by one sheet per monthly matrix
func BuildWorkbook(summary *report.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetTransactions)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeTransactionSheet(f, SheetTransactions, summary.Filtered, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	matrices := []struct {
		sheet  string
		matrix *timeseries.Matrix
	}{
		{SheetMonthly, summary.BranchMonthly},
		{SheetRolling, summary.BranchRolling},
		{SheetProducts, summary.ProductMonthly},
		{SheetPairs, summary.BranchProductMonthly},
	}
	for _, m := range matrices {
		if m.matrix == nil {
			continue
		}
		if _, err := f.NewSheet(m.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", m.sheet, err)
		}
		if err := writeMatrixSheet(f, m.sheet, m.matrix, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// WriteXLSX writes the summary workbook to writer
func WriteXLSX(summary *report.Summary, writer io.Writer) error {
	f, err := BuildWorkbook(summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTransactionSheet(f *excelize.File, sheet string, records []models.TransactionRecord, style int) error {
	if err := writeHeaderRow(f, sheet, LedgerHeaders, style); err != nil {
		return err
	}

	for i, r := range records {
		row := []interface{}{
			r.Date.Format(models.DateLayout),
			r.Branch,
			r.Product,
			r.Customer,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
		if err := writeAmountCells(f, sheet, len(row)+1, i+2, r.GrossAmount, r.NetAmount); err != nil {
			return err
		}
		cell, _ = excelize.CoordinatesToCellName(len(row)+3, i+2)
		if err := f.SetCellValue(sheet, cell, r.Quantity); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

func writeMatrixSheet(f *excelize.File, sheet string, m *timeseries.Matrix, style int) error {
	headers := append([]string{"Mes"}, m.Columns...)
	if err := writeHeaderRow(f, sheet, headers, style); err != nil {
		return err
	}

	for i, month := range m.Months {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellStr(sheet, cell, month.String()); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
		if err := writeAmountCells(f, sheet, 2, i+2, m.Cells[i]...); err != nil {
			return err
		}
	}
	return nil
}

// writeAmountCells stores amounts as numeric cells holding their exact
// decimal text, so no digit is lost to a float conversion
func writeAmountCells(f *excelize.File, sheet string, col, row int, amounts ...decimal.Decimal) error {
	for j, d := range amounts {
		cell, _ := excelize.CoordinatesToCellName(col+j, row)
		if err := f.SetCellDefault(sheet, cell, d.String()); err != nil {
			return fmt.Errorf("failed to write %s of %s: %w", cell, sheet, err)
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}
