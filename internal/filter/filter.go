// Package filter selects ledger records matching a branch, product and
// customer selection.
package filter

import (
	"time"

	"salesledger/internal/models"
	"salesledger/pkg/errors"
)

// Predicate reports whether a record is kept
type Predicate func(models.TransactionRecord) bool

// Apply returns the records whose branch is selected and whose product and
// customer are selected or unrestricted. The result preserves ledger order.
// An empty branch selection fails without producing any output.
func Apply(records []models.TransactionRecord, sel models.Selection) ([]models.TransactionRecord, error) {
	if !sel.HasBranches() {
		return nil, errors.InvalidSelection(sel.Products, sel.Customers)
	}
	return Where(records, Matches(sel)), nil
}

// Matches builds the conjunctive predicate for a selection. Empty product or
// customer lists match everything.
func Matches(sel models.Selection) Predicate {
	branches := models.NewSet(sel.Branches)
	products := models.NewSet(sel.Products)
	customers := models.NewSet(sel.Customers)

	return func(r models.TransactionRecord) bool {
		if !branches.Contains(r.Branch) {
			return false
		}
		if len(products) > 0 && !products.Contains(r.Product) {
			return false
		}
		if len(customers) > 0 && !customers.Contains(r.Customer) {
			return false
		}
		return true
	}
}

// Where returns the subsequence of records satisfying keep
func Where(records []models.TransactionRecord, keep Predicate) []models.TransactionRecord {
	out := make([]models.TransactionRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ByBranch keeps records of one branch
func ByBranch(records []models.TransactionRecord, branch string) []models.TransactionRecord {
	return Where(records, func(r models.TransactionRecord) bool {
		return r.Branch == branch
	})
}

// ByBranchProduct keeps records of one branch and product
func ByBranchProduct(records []models.TransactionRecord, branch, product string) []models.TransactionRecord {
	return Where(records, func(r models.TransactionRecord) bool {
		return r.Branch == branch && r.Product == product
	})
}

// ByBranchProductCustomer keeps records of one branch, product and customer
func ByBranchProductCustomer(records []models.TransactionRecord, branch, product, customer string) []models.TransactionRecord {
	return Where(records, func(r models.TransactionRecord) bool {
		return r.Branch == branch && r.Product == product && r.Customer == customer
	})
}

// DateRange is an inclusive day range. A zero bound leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range is open on both sides
func (d DateRange) IsZero() bool {
	return d.From.IsZero() && d.To.IsZero()
}

// Contains reports whether t falls on a day inside the range
func (d DateRange) Contains(t time.Time) bool {
	day := models.CalendarDay(t)
	if !d.From.IsZero() && day.Before(models.CalendarDay(d.From)) {
		return false
	}
	if !d.To.IsZero() && day.After(models.CalendarDay(d.To)) {
		return false
	}
	return true
}

// Apply keeps the records dated inside the range
func (d DateRange) Apply(records []models.TransactionRecord) []models.TransactionRecord {
	if d.IsZero() {
		return records
	}
	return Where(records, func(r models.TransactionRecord) bool {
		return d.Contains(r.Date)
	})
}
