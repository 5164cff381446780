// Package timeseries aligns several monthly series on a shared month axis.
//
// Alignment is the one place where absent months become explicit zeros, so
// every cell of a Matrix is defined.
package timeseries

import (
	"github.com/shopspring/decimal"

	"salesledger/internal/models"
)

// Matrix is a months × columns table of values. Months ascend; columns keep
// the order requested by the caller.
type Matrix struct {
	Months  []models.MonthKey   `json:"months"`
	Columns []string            `json:"columns"`
	Cells   [][]decimal.Decimal `json:"cells"`

	columnIndex map[string]int
	monthIndex  map[models.MonthKey]int
}

// Align builds a matrix whose rows are the union of months present in any
// requested column's series. A column with no series, or a month absent from
// a series, holds zero.
func Align(columns []string, seriesByName map[string]models.MonthlySeries) *Matrix {
	seen := make(map[models.MonthKey]bool)
	var months []models.MonthKey
	for _, name := range columns {
		s, ok := seriesByName[name]
		if !ok {
			continue
		}
		for k := range s.Values {
			if !seen[k] {
				seen[k] = true
				months = append(months, k)
			}
		}
	}
	models.SortMonthKeys(months)

	m := &Matrix{
		Months:  months,
		Columns: append([]string(nil), columns...),
		Cells:   make([][]decimal.Decimal, len(months)),
	}
	m.index()

	for i, k := range months {
		row := make([]decimal.Decimal, len(columns))
		for j, name := range columns {
			row[j] = decimal.Zero
			if v, ok := seriesByName[name].Values[k]; ok {
				row[j] = v
			}
		}
		m.Cells[i] = row
	}
	return m
}

func (m *Matrix) index() {
	m.columnIndex = make(map[string]int, len(m.Columns))
	for j, name := range m.Columns {
		if _, dup := m.columnIndex[name]; !dup {
			m.columnIndex[name] = j
		}
	}
	m.monthIndex = make(map[models.MonthKey]int, len(m.Months))
	for i, k := range m.Months {
		m.monthIndex[k] = i
	}
}

// Empty reports whether the matrix has no rows
func (m *Matrix) Empty() bool {
	return m == nil || len(m.Months) == 0
}

// Column returns the values of one column in month order, or nil when the
// column is unknown
func (m *Matrix) Column(name string) []decimal.Decimal {
	j, ok := m.columnIndex[name]
	if !ok {
		return nil
	}
	out := make([]decimal.Decimal, len(m.Months))
	for i := range m.Months {
		out[i] = m.Cells[i][j]
	}
	return out
}

// Row returns the values of one month in column order, or nil when the month
// is not on the axis
func (m *Matrix) Row(month models.MonthKey) []decimal.Decimal {
	i, ok := m.monthIndex[month]
	if !ok {
		return nil
	}
	return append([]decimal.Decimal(nil), m.Cells[i]...)
}

// Value returns one cell and whether both coordinates exist
func (m *Matrix) Value(month models.MonthKey, column string) (decimal.Decimal, bool) {
	i, ok := m.monthIndex[month]
	if !ok {
		return decimal.Zero, false
	}
	j, ok := m.columnIndex[column]
	if !ok {
		return decimal.Zero, false
	}
	return m.Cells[i][j], true
}

// ColumnTotal sums one column over all months
func (m *Matrix) ColumnTotal(name string) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.Column(name) {
		total = total.Add(v)
	}
	return total
}

// Series converts one column back to a monthly series, keeping the zero
// cells
func (m *Matrix) Series(name string) models.MonthlySeries {
	s := models.NewMonthlySeries(name)
	for i, v := range m.Column(name) {
		s.Values[m.Months[i]] = v
	}
	return s
}
