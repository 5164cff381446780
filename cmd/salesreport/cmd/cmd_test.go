package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"salesledger/cmd/salesreport/config"
	"salesledger/internal/models"
	"salesledger/internal/reporter"
	"salesledger/pkg/errors"
)

const testLedger = `Fecha Documento,Sucursal,Producto / Servicio,Cliente,Subtotal Bruto,Subtotal Neto,Cantidad
15/01/2023,CASA MATRIZ,Producto X,C1,1500,1260,2
20/01/2023,CASA MATRIZ,Producto Y,,500,420,1
03/02/2023,SUCURSAL NORTE,Producto X,C2,2000,1680,3
10/02/2023,CASA MATRIZ,Producto X,C2,250,210,1
`

func writeLedger(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventas.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func newReportOptions(path string, branches, products, customers []string) *reportOptions {
	return &reportOptions{
		ledgerOptions: ledgerOptions{
			Path:      path,
			Selection: config.CreateSelection(branches, products, customers),
		},
		Measure:     models.MeasureGross,
		Format:      reporter.FormatConsole,
		Concurrency: 2,
		Locale:      "en",
	}
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := writeLedger(t, testLedger)

	tests := []struct {
		name       string
		filePath   string
		expectCode int
	}{
		{"valid file", validFile, 0},
		{"empty path", "", 4},
		{"non-existent file", "/non/existent/file.csv", 2},
		{"directory instead of file", tmpDir, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "ledger file")
			if tt.expectCode == 0 {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
				}
				return
			}
			salesErr, ok := errors.AsSalesError(err)
			if !ok {
				t.Fatalf("expected SalesError, got %v", err)
			}
			if salesErr.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, salesErr.GetExitCode())
			}
		})
	}
}

func TestLoadReportOptions(t *testing.T) {
	path := writeLedger(t, testLedger)

	t.Run("defaults from viper", func(t *testing.T) {
		resetViper(t)
		viper.Set("ledger", path)
		viper.Set("branches", []string{"CASA MATRIZ"})
		viper.Set("measure", "neto")
		viper.Set("output-format", "json")
		viper.Set("rolling", 3)
		viper.Set("from", "2023-01-01")

		opts, err := loadReportOptions()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Measure != models.MeasureNet || opts.Format != reporter.FormatJSON || opts.Rolling != 3 {
			t.Errorf("unexpected options %+v", opts)
		}
		if opts.DateRange.From.IsZero() || !opts.DateRange.To.IsZero() {
			t.Errorf("unexpected date range %+v", opts.DateRange)
		}
	})

	t.Run("comma separated environment style list", func(t *testing.T) {
		resetViper(t)
		viper.Set("ledger", path)
		viper.Set("branches", "CASA MATRIZ,SUCURSAL NORTE")

		opts, err := loadReportOptions()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(opts.Selection.Branches, "|") != "CASA MATRIZ|SUCURSAL NORTE" {
			t.Errorf("unexpected branches %v", opts.Selection.Branches)
		}
	})

	t.Run("explicitly empty branches stay empty", func(t *testing.T) {
		resetViper(t)
		viper.Set("ledger", path)
		viper.Set("branches", "")

		opts, err := loadReportOptions()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Selection.HasBranches() {
			t.Errorf("expected no branches, got %v", opts.Selection.Branches)
		}
	})

	errorTests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"bad measure", "measure", "margin"},
		{"bad format", "output-format", "pdf"},
		{"bad date", "to", "31/01/2023"},
		{"xlsx without file", "output-format", "xlsx"},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set("ledger", path)
			viper.Set(tt.key, tt.value)

			_, err := loadReportOptions()
			salesErr, ok := errors.AsSalesError(err)
			if !ok || salesErr.GetExitCode() != 4 {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestExecuteReportConsole(t *testing.T) {
	path := writeLedger(t, testLedger)
	opts := newReportOptions(path, []string{"CASA MATRIZ"}, []string{"Producto X"}, []string{"C2"})

	var out bytes.Buffer
	if err := executeReport(context.Background(), opts, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"* **Ventas Totales CASA MATRIZ:** $2,250",
		"    * **Ventas Totales Producto X en CASA MATRIZ:** $1,750",
		"        * **Ventas Totales C2 en Producto X en CASA MATRIZ:** $250",
		"=== VENTAS MENSUALES POR SUCURSAL ===",
		"Total: 1 transacciones, $250",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestExecuteReportEmptyBranches(t *testing.T) {
	path := writeLedger(t, testLedger)
	opts := newReportOptions(path, []string{}, []string{"Producto X"}, nil)

	err := executeReport(context.Background(), opts, &bytes.Buffer{})
	if !errors.IsInvalidSelection(err) {
		t.Fatalf("expected invalid selection, got %v", err)
	}
}

func TestExecuteReportLoadFailure(t *testing.T) {
	path := writeLedger(t, strings.Replace(testLedger, "15/01/2023", "2023-01-15", 1))
	opts := newReportOptions(path, []string{"CASA MATRIZ"}, nil, nil)

	err := executeReport(context.Background(), opts, &bytes.Buffer{})
	if !errors.IsLoadError(err) {
		t.Fatalf("expected load error, got %v", err)
	}
	salesErr, _ := errors.AsSalesError(err)
	if salesErr.Code != errors.CodeInvalidDate {
		t.Errorf("expected %s, got %s", errors.CodeInvalidDate, salesErr.Code)
	}
}

func TestExecuteReportToFile(t *testing.T) {
	path := writeLedger(t, testLedger)
	outFile := filepath.Join(t.TempDir(), "resumen.xlsx")

	opts := newReportOptions(path, []string{"CASA MATRIZ", "SUCURSAL NORTE"}, nil, nil)
	opts.Format = reporter.FormatXLSX
	opts.OutputFile = outFile

	var out bytes.Buffer
	if err := executeReport(context.Background(), opts, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), outFile) {
		t.Errorf("expected output path in %q", out.String())
	}

	f, err := excelize.OpenFile(outFile)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(reporter.SheetTransactions)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("expected header and 4 rows, got %d", len(rows))
	}
}

func TestExportCSV(t *testing.T) {
	path := writeLedger(t, testLedger)

	resetViper(t)
	viper.Set("ledger", path)
	viper.Set("branches", []string{"SUCURSAL NORTE"})

	opts, err := loadExportOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Format != reporter.FormatCSV {
		t.Errorf("expected csv, got %s", opts.Format)
	}

	var out bytes.Buffer
	if err := executeReport(context.Background(), opts, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "SUCURSAL NORTE") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestExecuteValues(t *testing.T) {
	path := writeLedger(t, testLedger)
	opts := ledgerOptions{Path: path}

	tests := []struct {
		dimension string
		want      []string
	}{
		{"branches", []string{"CASA MATRIZ", "SUCURSAL NORTE"}},
		{"products", []string{"Producto X", "Producto Y"}},
		{"customers", []string{"C1", models.NoCustomer, "C2"}},
	}

	for _, tt := range tests {
		t.Run(tt.dimension, func(t *testing.T) {
			var out bytes.Buffer
			if err := executeValues(context.Background(), opts, tt.dimension, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := strings.Split(strings.TrimSpace(out.String()), "\n")
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if err := executeValues(context.Background(), opts, "regions", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown dimension")
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		contains   string
	}{
		{"nil", nil, 0, ""},
		{"selection", errors.InvalidSelection(nil, nil), 3, "Selection help"},
		{"load", errors.LoadFailure(errors.CodeInvalidDate, "ventas.csv", 3, "Fecha Documento", "x", nil), 2, "line: 3"},
		{"configuration", errors.ConfigurationError(errors.CodeInvalidConfig, "measure", "x", nil), 4, "Configuration help"},
		{"export", errors.ExportError("out.xlsx", os.ErrPermission), 5, "Export help"},
		{"missing file", os.ErrNotExist, 2, "File not found"},
		{"generic", os.ErrClosed, 1, "salesreport --help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := NewCLIErrorHandler()
			h.out = &out

			if code := h.HandleError(tt.err); code != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, code)
			}
			if !strings.Contains(out.String(), tt.contains) {
				t.Errorf("expected %q in output:\n%s", tt.contains, out.String())
			}
		})
	}
}

func TestReportCommandHelp(t *testing.T) {
	for _, name := range append([]string{"ledger", "branches", "products", "customers"}, reportFlagNames...) {
		if reportCmd.Flags().Lookup(name) == nil && rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found", name)
		}
	}

	var helpOutput bytes.Buffer
	reportCmd.SetOut(&helpOutput)
	reportCmd.Help()

	for _, section := range []string{"Usage:", "Examples:", "Flags:", "--measure", "--output-format"} {
		if !strings.Contains(helpOutput.String(), section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestGenerateThenReport(t *testing.T) {
	resetViper(t)
	viper.Set("rows", 120)
	viper.Set("seed", 7)
	viper.Set("pattern", "end-of-month")
	viper.Set("branches", []string{"CASA MATRIZ", "SUCURSAL SUR"})
	viper.Set("from", "2023-01-01")
	viper.Set("to", "2023-03-31")

	g, err := loadGenerator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Branches) != 2 || g.Count != 120 {
		t.Fatalf("unexpected generator %+v", g)
	}

	path := filepath.Join(t.TempDir(), "generado.csv")
	var out bytes.Buffer
	if err := executeGenerate(g, path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Generated 120 sales") {
		t.Errorf("unexpected output %q", out.String())
	}

	opts := newReportOptions(path, []string{"CASA MATRIZ", "SUCURSAL SUR"}, nil, nil)
	opts.Format = reporter.FormatJSON
	out.Reset()
	if err := executeReport(context.Background(), opts, &out); err != nil {
		t.Fatalf("report on generated ledger failed: %v", err)
	}
	if !strings.Contains(out.String(), `"CASA MATRIZ"`) {
		t.Errorf("expected branch in JSON output")
	}
}

func TestLoadGeneratorErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"bad amount", "min-amount", "mucho"},
		{"bad pattern", "pattern", "weekends"},
		{"negative rows", "rows", -5},
		{"empty branches", "branches", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set("pattern", "random")
			viper.Set("rows", 10)
			viper.Set(tt.key, tt.value)

			_, err := loadGenerator()
			salesErr, ok := errors.AsSalesError(err)
			if !ok || salesErr.GetExitCode() != 4 {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}
