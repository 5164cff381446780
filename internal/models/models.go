package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoCustomer is the customer value used by sales without an identified buyer
const NoCustomer = "Sin cliente"

// DateLayout is the zero-padded day/month/year layout dates are written with
const DateLayout = "02/01/2006"

// DateParseLayout reads day/month/year dates with or without zero padding
const DateParseLayout = "2/1/2006"

// TransactionRecord is one sales row of the ledger. Records are immutable once
// loaded.
type TransactionRecord struct {
	Date        time.Time       `json:"date"`
	Branch      string          `json:"branch"`
	Product     string          `json:"product"`
	Customer    string          `json:"customer"`
	GrossAmount decimal.Decimal `json:"grossAmount"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	Quantity    int64           `json:"quantity"`
}

// NewTransactionRecord creates a record, truncating date to its calendar day
func NewTransactionRecord(date time.Time, branch, product, customer string, gross, net decimal.Decimal, qty int64) TransactionRecord {
	return TransactionRecord{
		Date:        CalendarDay(date),
		Branch:      branch,
		Product:     product,
		Customer:    customer,
		GrossAmount: gross,
		NetAmount:   net,
		Quantity:    qty,
	}
}

// Validate performs basic validation on the record
func (r TransactionRecord) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	if strings.TrimSpace(r.Branch) == "" {
		return fmt.Errorf("branch cannot be empty")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative: %d", r.Quantity)
	}
	return nil
}

// Month returns the calendar month the record falls in
func (r TransactionRecord) Month() MonthKey {
	return MonthKeyOf(r.Date)
}

func (r TransactionRecord) String() string {
	return fmt.Sprintf("Sale{%s %s/%s/%s gross=%s net=%s qty=%d}",
		r.Date.Format("2006-01-02"), r.Branch, r.Product, r.Customer,
		r.GrossAmount.String(), r.NetAmount.String(), r.Quantity)
}

// MarshalJSON writes amounts as strings so no precision is lost
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Date        string `json:"date"`
		Branch      string `json:"branch"`
		Product     string `json:"product"`
		Customer    string `json:"customer"`
		GrossAmount string `json:"grossAmount"`
		NetAmount   string `json:"netAmount"`
		Quantity    int64  `json:"quantity"`
	}{
		Date:        r.Date.Format("2006-01-02"),
		Branch:      r.Branch,
		Product:     r.Product,
		Customer:    r.Customer,
		GrossAmount: r.GrossAmount.String(),
		NetAmount:   r.NetAmount.String(),
		Quantity:    r.Quantity,
	})
}

// Ledger is the full ordered collection of records for a session. It is
// read-only after load; duplicate rows are valid and all contribute to sums.
type Ledger struct {
	Source   string
	LoadedAt time.Time
	Records  []TransactionRecord
}

// NewLedger wraps records loaded from source
func NewLedger(source string, records []TransactionRecord) *Ledger {
	return &Ledger{
		Source:   source,
		LoadedAt: time.Now(),
		Records:  records,
	}
}

// Len returns the number of records
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Records)
}

// Branches returns the distinct branches in first-seen order
func (l *Ledger) Branches() []string {
	return l.distinct(func(r TransactionRecord) string { return r.Branch })
}

// Products returns the distinct products in first-seen order
func (l *Ledger) Products() []string {
	return l.distinct(func(r TransactionRecord) string { return r.Product })
}

// Customers returns the distinct customers in first-seen order
func (l *Ledger) Customers() []string {
	return l.distinct(func(r TransactionRecord) string { return r.Customer })
}

func (l *Ledger) distinct(field func(TransactionRecord) string) []string {
	if l == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range l.Records {
		v := field(r)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// CalendarDay drops the time of day, keeping the date in UTC
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDocumentDate parses a day/month/year date
func ParseDocumentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}
	t, err := time.Parse(DateParseLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, err)
	}
	return t, nil
}

// ParseDecimalFromString parses an amount, tolerating a currency symbol and
// comma thousands separators
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// ParseQuantity parses a non-negative whole quantity. Values written with a
// zero fractional part ("3.0") are accepted.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("quantity string cannot be empty")
	}

	q, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.Equal(d.Truncate(0)) {
			return 0, fmt.Errorf("invalid quantity '%s'", s)
		}
		q = d.IntPart()
	}
	if q < 0 {
		return 0, fmt.Errorf("quantity cannot be negative: %d", q)
	}
	return q, nil
}
