package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/models"
)

func rec(y int, m time.Month, d int, branch, product string, gross string, qty int64) models.TransactionRecord {
	amount := decimal.RequireFromString(gross)
	return models.NewTransactionRecord(time.Date(y, m, d, 0, 0, 0, 0, time.UTC), branch, product, "C1",
		amount, amount.Mul(decimal.RequireFromString("0.84")), qty)
}

func TestTotalOf(t *testing.T) {
	records := []models.TransactionRecord{
		rec(2023, 1, 15, "A", "X", "100", 2),
		rec(2023, 1, 20, "A", "Y", "50", 1),
	}

	if got := TotalOf(records, models.MeasureGross); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("gross total = %s, want 150", got)
	}
	if got := TotalOf(records, models.MeasureNet); !got.Equal(decimal.NewFromInt(126)) {
		t.Errorf("net total = %s, want 126", got)
	}
	if got := TotalOf(records, models.MeasureQuantity); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("quantity total = %s, want 3", got)
	}
	if got := TotalOf(nil, models.MeasureGross); !got.IsZero() {
		t.Errorf("empty total = %s, want 0", got)
	}
}

func TestTotalOfIsExact(t *testing.T) {
	var records []models.TransactionRecord
	for i := 0; i < 10; i++ {
		records = append(records, rec(2023, 1, 1, "A", "X", "0.1", 1))
	}
	if got := TotalOf(records, models.MeasureGross); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected exactly 1, got %s", got)
	}
}

func TestMonthlyTotals(t *testing.T) {
	records := []models.TransactionRecord{
		rec(2023, 3, 2, "A", "X", "5", 1),
		rec(2023, 1, 15, "A", "X", "100", 1),
		rec(2023, 1, 20, "A", "Y", "50", 1),
	}

	series := MonthlyTotals("A", records, models.DateFieldDocument, models.MeasureGross)

	if series.Name != "A" {
		t.Errorf("unexpected name %s", series.Name)
	}
	keys := series.Keys()
	if len(keys) != 2 || keys[0].String() != "2023-01" || keys[1].String() != "2023-03" {
		t.Fatalf("unexpected months %v", keys)
	}
	if v, _ := series.Get(keys[0]); !v.Equal(decimal.NewFromInt(150)) {
		t.Errorf("2023-01 = %s, want 150", v)
	}
	if _, ok := series.Get(models.MonthKey{Year: 2023, Month: time.February}); ok {
		t.Error("months without records must be absent")
	}
	if !series.Total().Equal(TotalOf(records, models.MeasureGross)) {
		t.Error("series must sum to the overall total")
	}

	empty := MonthlyTotals("none", nil, models.DateFieldDocument, models.MeasureGross)
	if empty.Len() != 0 {
		t.Errorf("expected empty series, got %d months", empty.Len())
	}
}

func TestGroupTotals(t *testing.T) {
	records := []models.TransactionRecord{
		rec(2023, 1, 1, "A", "Y", "10", 1),
		rec(2023, 1, 2, "A", "X", "20", 1),
		rec(2023, 1, 3, "B", "Y", "5", 1),
	}

	groups := GroupTotals(records, func(r models.TransactionRecord) string { return r.Product }, models.MeasureGross)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "Y" || !groups[0].Total.Equal(decimal.NewFromInt(15)) || groups[0].Count != 2 {
		t.Errorf("unexpected first group %+v", groups[0])
	}
	if groups[1].Key != "X" || !groups[1].Total.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected second group %+v", groups[1])
	}
}

func TestMonthlyTotalsBy(t *testing.T) {
	records := []models.TransactionRecord{
		rec(2023, 2, 1, "B", "X", "200", 1),
		rec(2023, 1, 15, "A", "X", "100", 1),
		rec(2023, 1, 20, "A", "Y", "50", 1),
	}

	names, series := MonthlyTotalsBy(records, func(r models.TransactionRecord) string { return r.Product },
		models.DateFieldDocument, models.MeasureGross)

	if len(names) != 2 || names[0] != "X" || names[1] != "Y" {
		t.Fatalf("unexpected names %v", names)
	}
	if series["X"].Len() != 2 || !series["X"].Total().Equal(decimal.NewFromInt(300)) {
		t.Errorf("unexpected X series %v", series["X"].Values)
	}
}

func TestRollingMean(t *testing.T) {
	series := models.NewMonthlySeries("A")
	series.Add(models.MonthKey{Year: 2023, Month: time.January}, decimal.NewFromInt(10))
	series.Add(models.MonthKey{Year: 2023, Month: time.February}, decimal.NewFromInt(20))
	series.Add(models.MonthKey{Year: 2023, Month: time.March}, decimal.NewFromInt(40))

	mean, err := RollingMean(series, 2)
	if err != nil {
		t.Fatalf("RollingMean() error = %v", err)
	}

	want := map[time.Month]string{
		time.January:  "10",
		time.February: "15",
		time.March:    "30",
	}
	for month, w := range want {
		got, _ := mean.Get(models.MonthKey{Year: 2023, Month: month})
		if !got.Equal(decimal.RequireFromString(w)) {
			t.Errorf("%s = %s, want %s", month, got, w)
		}
	}

	thirds, _ := RollingMean(series, 3)
	got, _ := thirds.Get(models.MonthKey{Year: 2023, Month: time.March})
	if !got.Equal(decimal.RequireFromString("23.33333333")) {
		t.Errorf("3-month mean = %s, want 23.33333333", got)
	}

	if _, err := RollingMean(series, 0); err == nil {
		t.Error("expected error for window 0")
	}
}
