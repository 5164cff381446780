package reporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salesledger/internal/models"
	"salesledger/internal/report"
	"salesledger/internal/timeseries"
)

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(summary *report.Summary, writer io.Writer) error {
	p := rg.printer()

	fmt.Fprintf(writer, "REPORTE DE VENTAS\n")
	fmt.Fprintf(writer, "Fuente: %s\n", summary.Source)
	fmt.Fprintf(writer, "Medida: %s\n\n", summary.Measure.Label())

	fmt.Fprintf(writer, "=== RESUMEN ===\n")
	rg.printBreakdown(p, summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMonthly {
		fmt.Fprintf(writer, "=== VENTAS MENSUALES POR SUCURSAL ===\n")
		if err := rg.printMatrix(p, summary.BranchMonthly, summary.Measure, writer); err != nil {
			return err
		}
		fmt.Fprintf(writer, "\n")

		if summary.BranchRolling != nil {
			fmt.Fprintf(writer, "=== PROMEDIO MÓVIL POR SUCURSAL ===\n")
			if err := rg.printMatrix(p, summary.BranchRolling, summary.Measure, writer); err != nil {
				return err
			}
			fmt.Fprintf(writer, "\n")
		}

		if summary.ProductMonthly != nil {
			fmt.Fprintf(writer, "=== VENTAS MENSUALES POR PRODUCTO ===\n")
			if err := rg.printMatrix(p, summary.ProductMonthly, summary.Measure, writer); err != nil {
				return err
			}
			fmt.Fprintf(writer, "\n")
		}

		if summary.BranchProductMonthly != nil {
			fmt.Fprintf(writer, "=== VENTAS MENSUALES POR SUCURSAL Y PRODUCTO ===\n")
			if err := rg.printMatrix(p, summary.BranchProductMonthly, summary.Measure, writer); err != nil {
				return err
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeFiltered {
		fmt.Fprintf(writer, "=== TRANSACCIONES FILTRADAS ===\n")
		rg.printFiltered(p, summary, writer)
	}
	return nil
}

// printBreakdown writes the branch → product → customer bullets
func (rg *ReportGenerator) printBreakdown(p *message.Printer, summary *report.Summary, writer io.Writer) {
	caption := "Ventas Totales"
	if !summary.Measure.IsMonetary() {
		caption = "Unidades Totales"
	}

	for _, branch := range summary.Branches {
		fmt.Fprintf(writer, "* **%s %s:** %s\n", caption, branch.Label,
			formatValue(p, branch.Total, summary.Measure))
		for _, product := range branch.Children {
			fmt.Fprintf(writer, "    * **%s %s en %s:** %s\n", caption, product.Label, branch.Label,
				formatValue(p, product.Total, summary.Measure))
			for _, customer := range product.Children {
				fmt.Fprintf(writer, "        * **%s %s en %s en %s:** %s\n", caption, customer.Label, product.Label, branch.Label,
					formatValue(p, customer.Total, summary.Measure))
			}
		}
	}
}

func (rg *ReportGenerator) printMatrix(p *message.Printer, m *timeseries.Matrix, measure models.Measure, writer io.Writer) error {
	if m.Empty() {
		fmt.Fprintf(writer, "Sin ventas en el período\n")
		return nil
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Mes\t%s\t\n", strings.Join(m.Columns, "\t"))
	for i, month := range m.Months {
		cells := make([]string, len(m.Columns))
		for j, v := range m.Cells[i] {
			cells[j] = formatValue(p, v, measure)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", month, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (rg *ReportGenerator) printFiltered(p *message.Printer, summary *report.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Total: %d transacciones, %s\n", len(summary.Filtered),
		formatValue(p, summary.FilteredTotal, summary.Measure))

	for i, r := range summary.Filtered {
		if rg.config.MaxFilteredRows > 0 && i >= rg.config.MaxFilteredRows {
			fmt.Fprintf(writer, "  ... y %d más\n", len(summary.Filtered)-i)
			break
		}
		fmt.Fprintf(writer, "  %d. %s %s / %s / %s: %s\n",
			i+1,
			r.Date.Format(models.DateLayout),
			r.Branch,
			r.Product,
			r.Customer,
			formatValue(p, summary.Measure.Of(r), summary.Measure))
	}
}

func (rg *ReportGenerator) printer() *message.Printer {
	tag, err := language.Parse(rg.config.Locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// formatValue rounds to whole units and groups thousands. Monetary values
// carry a leading currency sign, ahead of any minus sign ("$-1,234").
func formatValue(p *message.Printer, v decimal.Decimal, measure models.Measure) string {
	whole := v.Round(0).IntPart()
	if measure.IsMonetary() {
		return p.Sprintf("$%d", whole)
	}
	return p.Sprintf("%d", whole)
}
