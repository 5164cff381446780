package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthKey identifies a calendar month. Keys order by (Year, Month).
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the month t falls in
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses the canonical YYYY-MM form
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key '%s': %w", s, err)
	}
	return MonthKeyOf(t), nil
}

// String returns the canonical YYYY-MM form
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Compare returns -1, 0 or +1
func (k MonthKey) Compare(other MonthKey) int {
	switch {
	case k.Year < other.Year:
		return -1
	case k.Year > other.Year:
		return 1
	case k.Month < other.Month:
		return -1
	case k.Month > other.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether k sorts before other
func (k MonthKey) Before(other MonthKey) bool {
	return k.Compare(other) < 0
}

// Start returns the first instant of the month in UTC
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MarshalText lets MonthKey be used as a JSON object key
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the canonical YYYY-MM form
func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortMonthKeys sorts keys ascending in place
func SortMonthKeys(keys []MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}

// MonthlySeries maps months to a summed value for one named dimension (a
// branch or a product). A month with no contributing record is absent, not
// zero.
type MonthlySeries struct {
	Name   string                      `json:"name"`
	Values map[MonthKey]decimal.Decimal `json:"values"`
}

// NewMonthlySeries creates an empty series
func NewMonthlySeries(name string) MonthlySeries {
	return MonthlySeries{Name: name, Values: make(map[MonthKey]decimal.Decimal)}
}

// Add accumulates v into month k
func (s MonthlySeries) Add(k MonthKey, v decimal.Decimal) {
	s.Values[k] = s.Values[k].Add(v)
}

// Get returns the value for month k and whether the month is present
func (s MonthlySeries) Get(k MonthKey) (decimal.Decimal, bool) {
	v, ok := s.Values[k]
	return v, ok
}

// Keys returns the present months in ascending order
func (s MonthlySeries) Keys() []MonthKey {
	keys := make([]MonthKey, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	SortMonthKeys(keys)
	return keys
}

// Len returns the number of present months
func (s MonthlySeries) Len() int {
	return len(s.Values)
}

// Total sums every month of the series
func (s MonthlySeries) Total() decimal.Decimal {
	total := decimal.Zero
	for _, k := range s.Keys() {
		total = total.Add(s.Values[k])
	}
	return total
}
