// Package aggregator sums ledger measures, overall, by calendar month and by
// arbitrary grouping keys. Sums are exact decimals; rounding is left to the
// presentation layer.
package aggregator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesledger/internal/models"
)

// rollingMeanPlaces is the precision of rolling mean divisions
const rollingMeanPlaces = 8

// TotalOf sums measure over records. An empty input sums to zero.
func TotalOf(records []models.TransactionRecord, measure models.Measure) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(measure.Of(r))
	}
	return total
}

// MonthlyTotals groups records by the calendar month of dateField and sums
// measure within each month. Months with no records are absent.
func MonthlyTotals(name string, records []models.TransactionRecord, dateField models.DateField, measure models.Measure) models.MonthlySeries {
	series := models.NewMonthlySeries(name)
	for _, r := range records {
		series.Add(dateField.Of(r), measure.Of(r))
	}
	return series
}

// Group is one keyed subtotal
type Group struct {
	Key   string
	Total decimal.Decimal
	Count int
}

// GroupTotals sums measure per key(record). Groups are returned in the order
// their key is first seen.
func GroupTotals(records []models.TransactionRecord, key func(models.TransactionRecord) string, measure models.Measure) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Total: decimal.Zero})
		}
		groups[i].Total = groups[i].Total.Add(measure.Of(r))
		groups[i].Count++
	}
	return groups
}

// MonthlyTotalsBy builds one monthly series per key(record), in first-seen
// key order
func MonthlyTotalsBy(records []models.TransactionRecord, key func(models.TransactionRecord) string, dateField models.DateField, measure models.Measure) ([]string, map[string]models.MonthlySeries) {
	var names []string
	series := make(map[string]models.MonthlySeries)
	for _, r := range records {
		k := key(r)
		s, ok := series[k]
		if !ok {
			s = models.NewMonthlySeries(k)
			series[k] = s
			names = append(names, k)
		}
		s.Add(dateField.Of(r), measure.Of(r))
	}
	return names, series
}

// RollingMean returns the trailing mean of series over window consecutive
// present months. Early months average over the months available so far.
func RollingMean(series models.MonthlySeries, window int) (models.MonthlySeries, error) {
	if window < 1 {
		return models.MonthlySeries{}, fmt.Errorf("rolling window must be at least 1, got %d", window)
	}

	out := models.NewMonthlySeries(series.Name)
	keys := series.Keys()
	sum := decimal.Zero
	for i, k := range keys {
		sum = sum.Add(series.Values[k])
		if i >= window {
			sum = sum.Sub(series.Values[keys[i-window]])
		}
		n := i + 1
		if n > window {
			n = window
		}
		out.Values[k] = sum.DivRound(decimal.NewFromInt(int64(n)), rollingMeanPlaces)
	}
	return out, nil
}
