package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/filter"
	"salesledger/internal/models"
	"salesledger/pkg/errors"
)

var (
	jan = models.MonthKey{Year: 2023, Month: time.January}
	feb = models.MonthKey{Year: 2023, Month: time.February}
)

func rec(y int, m time.Month, d int, branch, product, customer string, gross int64) models.TransactionRecord {
	return models.NewTransactionRecord(time.Date(y, m, d, 0, 0, 0, 0, time.UTC), branch, product, customer,
		decimal.NewFromInt(gross), decimal.NewFromInt(gross), 1)
}

func sampleLedger() *models.Ledger {
	return models.NewLedger("mem", []models.TransactionRecord{
		rec(2023, 1, 15, "A", "X", "C1", 100),
		rec(2023, 1, 20, "A", "Y", "C2", 50),
		rec(2023, 2, 1, "B", "X", "C1", 200),
	})
}

func newTestAssembler(t *testing.T, modify func(*Config)) *Assembler {
	t.Helper()
	config := DefaultConfig()
	if modify != nil {
		modify(config)
	}
	a, err := NewAssembler(config)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	return a
}

func build(t *testing.T, a *Assembler, sel models.Selection) *Summary {
	t.Helper()
	summary, err := a.Build(context.Background(), sampleLedger(), sel, models.MeasureGross)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return summary
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", label, got, want)
	}
}

func TestBuildBranchesOnly(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil), models.NewSelection([]string{"A", "B"}, nil, nil))

	if len(summary.Branches) != 2 || summary.Branches[0].Label != "A" || summary.Branches[1].Label != "B" {
		t.Fatalf("unexpected branches %v", summary.Branches)
	}
	assertDecimal(t, "A total", summary.Branch("A").Total, 150)
	assertDecimal(t, "B total", summary.Branch("B").Total, 200)
	if len(summary.Branch("A").Children) != 0 {
		t.Error("no product children expected without a product selection")
	}

	m := summary.BranchMonthly
	if len(m.Months) != 2 || m.Months[0] != jan || m.Months[1] != feb {
		t.Fatalf("unexpected months %v", m.Months)
	}
	a, b := m.Column("A"), m.Column("B")
	assertDecimal(t, "A[2023-01]", a[0], 150)
	assertDecimal(t, "A[2023-02]", a[1], 0)
	assertDecimal(t, "B[2023-01]", b[0], 0)
	assertDecimal(t, "B[2023-02]", b[1], 200)

	if len(summary.Filtered) != 3 {
		t.Errorf("expected all 3 records in the filtered view, got %d", len(summary.Filtered))
	}
	assertDecimal(t, "filtered total", summary.FilteredTotal, 350)
	if summary.ProductMonthly != nil {
		t.Error("product matrix should be omitted without a product selection")
	}
	if summary.BranchProductMonthly != nil {
		t.Error("branch/product matrix should be omitted without a product selection")
	}
	if summary.QueryID == "" || summary.Stats.LedgerRecords != 3 {
		t.Errorf("unexpected metadata %q %+v", summary.QueryID, summary.Stats)
	}
}

func TestBuildNestedBreakdown(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "B"}, []string{"X"}, []string{"C1"}))

	a := summary.Branch("A")
	assertDecimal(t, "A total ignores product selection", a.Total, 150)

	x := a.Find("X")
	if x == nil {
		t.Fatal("expected product X under A")
	}
	assertDecimal(t, "A/X", x.Total, 100)
	assertDecimal(t, "A/X/C1", x.Find("C1").Total, 100)
	assertDecimal(t, "B/X", summary.Branch("B").Find("X").Total, 200)

	if len(summary.Filtered) != 2 {
		t.Errorf("expected 2 filtered records, got %d", len(summary.Filtered))
	}
	for _, r := range summary.Filtered {
		if r.Product != "X" || r.Customer != "C1" {
			t.Errorf("unexpected filtered record %s", r)
		}
	}
}

func TestBuildUnmatchedSelectionsSumToZero(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "Q"}, []string{"Z"}, []string{"C9"}))

	assertDecimal(t, "A/Z", summary.Branch("A").Find("Z").Total, 0)
	assertDecimal(t, "A/Z/C9", summary.Branch("A").Find("Z").Find("C9").Total, 0)
	assertDecimal(t, "Q total", summary.Branch("Q").Total, 0)

	q := summary.BranchMonthly.Column("Q")
	for i, v := range q {
		assertDecimal(t, fmt.Sprintf("Q[%d]", i), v, 0)
	}
	if len(summary.Filtered) != 0 {
		t.Errorf("expected empty filtered view, got %d", len(summary.Filtered))
	}
}

func TestBuildConservation(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "B"}, []string{"X", "Y"}, []string{"C1", "C2"}))

	for _, branch := range summary.Branches {
		if !summary.BranchMonthly.ColumnTotal(branch.Label).Equal(branch.Total) {
			t.Errorf("%s: monthly series does not sum to branch total", branch.Label)
		}
		// Every product and customer of the sample is selected
		if !branch.ChildTotal().Equal(branch.Total) {
			t.Errorf("%s: products sum to %s, want %s", branch.Label, branch.ChildTotal(), branch.Total)
		}
		for _, product := range branch.Children {
			if !product.ChildTotal().Equal(product.Total) {
				t.Errorf("%s/%s: customers sum to %s, want %s", branch.Label, product.Label, product.ChildTotal(), product.Total)
			}
		}
	}
}

func TestBuildProductMonthly(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "B"}, []string{"Y", "X"}, nil))

	m := summary.ProductMonthly
	if m == nil {
		t.Fatal("expected product matrix")
	}
	if m.Columns[0] != "Y" || m.Columns[1] != "X" {
		t.Errorf("unexpected columns %v", m.Columns)
	}
	x, y := m.Column("X"), m.Column("Y")
	assertDecimal(t, "X[2023-01]", x[0], 100)
	assertDecimal(t, "X[2023-02]", x[1], 200)
	assertDecimal(t, "Y[2023-01]", y[0], 50)
	assertDecimal(t, "Y[2023-02]", y[1], 0)
}

func TestBuildBranchProductMonthly(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "B"}, []string{"Y", "X"}, nil))

	m := summary.BranchProductMonthly
	if m == nil {
		t.Fatal("expected branch/product matrix")
	}
	want := []string{"A - Y", "A - X", "B - X"}
	if strings.Join(m.Columns, "|") != strings.Join(want, "|") {
		t.Fatalf("columns = %v, want %v", m.Columns, want)
	}
	if len(m.Months) != 2 || m.Months[0] != jan || m.Months[1] != feb {
		t.Fatalf("unexpected months %v", m.Months)
	}
	assertDecimal(t, "A - Y[2023-01]", m.Column("A - Y")[0], 50)
	assertDecimal(t, "A - X[2023-01]", m.Column("A - X")[0], 100)
	assertDecimal(t, "A - X[2023-02]", m.Column("A - X")[1], 0)
	assertDecimal(t, "B - X[2023-01]", m.Column("B - X")[0], 0)
	assertDecimal(t, "B - X[2023-02]", m.Column("B - X")[1], 200)

	// The pair columns partition the filtered view
	total := decimal.Zero
	for _, c := range m.Columns {
		total = total.Add(m.ColumnTotal(c))
	}
	if !total.Equal(summary.FilteredTotal) {
		t.Errorf("pair totals = %s, filtered total = %s", total, summary.FilteredTotal)
	}
}

func TestBuildBranchProductMonthlyFollowsCustomerFilter(t *testing.T) {
	summary := build(t, newTestAssembler(t, nil),
		models.NewSelection([]string{"A", "B"}, []string{"X", "Y"}, []string{"C2"}))

	m := summary.BranchProductMonthly
	if m == nil || len(m.Columns) != 1 || m.Columns[0] != "A - Y" {
		t.Fatalf("expected only the A - Y column, got %+v", m)
	}
	assertDecimal(t, "A - Y total", m.ColumnTotal("A - Y"), 50)
}

func TestBuildEmptyBranchSelection(t *testing.T) {
	a := newTestAssembler(t, nil)

	summary, err := a.Build(context.Background(), sampleLedger(), models.NewSelection(nil, []string{"X"}, nil), models.MeasureGross)
	if summary != nil {
		t.Error("expected no summary")
	}
	if !errors.IsInvalidSelection(err) {
		t.Errorf("expected invalid selection error, got %v", err)
	}
}

func TestBuildRejectsBadInputs(t *testing.T) {
	a := newTestAssembler(t, nil)
	sel := models.NewSelection([]string{"A"}, nil, nil)

	if _, err := a.Build(context.Background(), sampleLedger(), sel, models.Measure("margin")); err == nil {
		t.Error("expected error for invalid measure")
	}
	if _, err := a.Build(context.Background(), nil, sel, models.MeasureGross); !errors.IsLoadError(err) {
		t.Errorf("expected load error for missing ledger, got %v", err)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	sel := models.NewSelection([]string{"B", "A"}, []string{"X", "Y"}, []string{"C1"})

	sequential := build(t, newTestAssembler(t, func(c *Config) { c.MaxConcurrency = 1 }), sel)
	parallel := build(t, newTestAssembler(t, func(c *Config) { c.MaxConcurrency = 8 }), sel)
	again := build(t, newTestAssembler(t, func(c *Config) { c.MaxConcurrency = 8 }), sel)

	want := render(sequential)
	if got := render(parallel); got != want {
		t.Errorf("parallel build differs:\n%s\nwant:\n%s", got, want)
	}
	if got := render(again); got != want {
		t.Errorf("repeated build differs:\n%s\nwant:\n%s", got, want)
	}
}

func render(s *Summary) string {
	var b strings.Builder
	var walk func(n *models.SummaryNode, depth int)
	walk = func(n *models.SummaryNode, depth int) {
		fmt.Fprintf(&b, "%s%s=%s\n", strings.Repeat(" ", depth), n.Label, n.Total)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, n := range s.Branches {
		walk(n, 0)
	}
	for i, k := range s.BranchMonthly.Months {
		fmt.Fprintf(&b, "%s %v\n", k, s.BranchMonthly.Cells[i])
	}
	for _, r := range s.Filtered {
		fmt.Fprintln(&b, r.String())
	}
	return b.String()
}

func TestBuildCancelled(t *testing.T) {
	a := newTestAssembler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Build(ctx, sampleLedger(), models.NewSelection([]string{"A"}, nil, nil), models.MeasureGross)
	salesErr, ok := errors.AsSalesError(err)
	if !ok || salesErr.Code != errors.CodeCancelled {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestBuildDateRangeAndRolling(t *testing.T) {
	a := newTestAssembler(t, func(c *Config) {
		c.RollingWindow = 2
	})
	summary := build(t, a, models.NewSelection([]string{"A", "B"}, nil, nil))

	rolling := summary.BranchRolling
	if rolling == nil {
		t.Fatal("expected rolling matrix")
	}
	// A has no February sales; the zero-filled month still counts
	if v, _ := rolling.Value(jan, "A"); !v.Equal(decimal.NewFromInt(150)) {
		t.Errorf("rolling A[2023-01] = %s, want 150", v)
	}
	if v, _ := rolling.Value(feb, "A"); !v.Equal(decimal.NewFromInt(75)) {
		t.Errorf("rolling A[2023-02] = %s, want 75", v)
	}
	if v, _ := rolling.Value(feb, "B"); !v.Equal(decimal.NewFromInt(100)) {
		t.Errorf("rolling B[2023-02] = %s, want 100", v)
	}

	ranged := newTestAssembler(t, func(c *Config) {
		c.DateRange = filter.DateRange{From: time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC)}
	})
	summary = build(t, ranged, models.NewSelection([]string{"A", "B"}, nil, nil))
	assertDecimal(t, "A total in range", summary.Branch("A").Total, 50)
	if summary.Stats.InRangeRecords != 2 {
		t.Errorf("expected 2 in-range records, got %d", summary.Stats.InRangeRecords)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, true},
		{"negative rolling", func(c *Config) { c.RollingWindow = -1 }, true},
		{"inverted range", func(c *Config) {
			c.DateRange = filter.DateRange{From: time.Now(), To: time.Now().AddDate(0, 0, -1)}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			if err := config.Validate(); (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
