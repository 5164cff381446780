package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Selection is the per-query filter criteria. Branches are required; an
// empty Products or Customers list means "no filter" on that field, not
// "match nothing". List order is the caller's display order.
type Selection struct {
	Branches  []string `json:"branches" mapstructure:"branches"`
	Products  []string `json:"products,omitempty" mapstructure:"products"`
	Customers []string `json:"customers,omitempty" mapstructure:"customers"`
}

// NewSelection builds a selection, dropping blank entries and repeats while
// keeping the first-given order
func NewSelection(branches, products, customers []string) Selection {
	return Selection{
		Branches:  dedupe(branches),
		Products:  dedupe(products),
		Customers: dedupe(customers),
	}
}

// HasBranches reports whether the required branch selection is present
func (s Selection) HasBranches() bool {
	return len(s.Branches) > 0
}

func (s Selection) String() string {
	return fmt.Sprintf("Selection{branches=[%s] products=[%s] customers=[%s]}",
		strings.Join(s.Branches, ", "), strings.Join(s.Products, ", "), strings.Join(s.Customers, ", "))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Set is a string membership set
type Set map[string]struct{}

// NewSet builds a set from values
func NewSet(values []string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports membership
func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Measure names the numeric field being summed
type Measure string

const (
	MeasureGross    Measure = "gross"
	MeasureNet      Measure = "net"
	MeasureQuantity Measure = "quantity"
)

// IsValid checks if the measure is supported
func (m Measure) IsValid() bool {
	switch m {
	case MeasureGross, MeasureNet, MeasureQuantity:
		return true
	default:
		return false
	}
}

// Of returns the measure's value for a record
func (m Measure) Of(r TransactionRecord) decimal.Decimal {
	switch m {
	case MeasureNet:
		return r.NetAmount
	case MeasureQuantity:
		return decimal.NewFromInt(r.Quantity)
	default:
		return r.GrossAmount
	}
}

// IsMonetary reports whether the measure is a currency amount
func (m Measure) IsMonetary() bool {
	return m != MeasureQuantity
}

// Label is the column caption used by reports
func (m Measure) Label() string {
	switch m {
	case MeasureNet:
		return "Subtotal Neto"
	case MeasureQuantity:
		return "Cantidad"
	default:
		return "Subtotal Bruto"
	}
}

// ParseMeasure parses a measure name or one of its aliases
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gross", "bruto", "subtotal bruto", "":
		return MeasureGross, nil
	case "net", "neto", "subtotal neto":
		return MeasureNet, nil
	case "quantity", "qty", "cantidad":
		return MeasureQuantity, nil
	default:
		return "", fmt.Errorf("invalid measure '%s': must be gross, net or quantity", s)
	}
}

// DateField names the record date used for time bucketing. Records carry a
// single date today.
type DateField string

// DateFieldDocument is the document date of the sale
const DateFieldDocument DateField = "document"

// Of returns the date of r selected by the field
func (f DateField) Of(r TransactionRecord) MonthKey {
	return r.Month()
}

// SummaryNode is one level of the branch → product → customer breakdown
type SummaryNode struct {
	Label    string          `json:"label"`
	Total    decimal.Decimal `json:"total"`
	Children []*SummaryNode  `json:"children,omitempty"`
}

// ChildTotal sums the totals of the node's direct children
func (n *SummaryNode) ChildTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range n.Children {
		total = total.Add(c.Total)
	}
	return total
}

// Find returns the direct child with the given label
func (n *SummaryNode) Find(label string) *SummaryNode {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}
