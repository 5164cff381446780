// Package sample generates synthetic sales ledgers for demos and load tests.
package sample

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/models"
)

// Pattern selects how sale dates are spread over the range
type Pattern string

const (
	PatternRandom     Pattern = "random"
	PatternEndOfMonth Pattern = "end-of-month"
)

// vatFactor converts gross amounts to net ones (19% VAT)
var vatFactor = decimal.RequireFromString("1.19")

// LedgerGenerator builds reproducible ledgers. The same Seed always yields
// the same records.
type LedgerGenerator struct {
	Count     int
	StartDate time.Time
	EndDate   time.Time
	Branches  []string
	Products  []string
	Customers []string
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	// AnonymousRatio is the share of sales recorded without a customer
	AnonymousRatio float64
	Pattern        Pattern
	Seed           int64
}

// DefaultLedgerGenerator returns a generator for one year of sales in three
// branches
func DefaultLedgerGenerator() *LedgerGenerator {
	return &LedgerGenerator{
		Count:          1000,
		StartDate:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Branches:       []string{"CASA MATRIZ", "SUCURSAL NORTE", "SUCURSAL SUR"},
		Products:       []string{"Producto A", "Producto B", "Producto C", "Servicio Técnico"},
		Customers:      []string{"Cliente 1", "Cliente 2", "Cliente 3", "Cliente 4", "Cliente 5"},
		MinAmount:      decimal.NewFromInt(1000),
		MaxAmount:      decimal.NewFromInt(250000),
		AnonymousRatio: 0.3,
		Pattern:        PatternRandom,
		Seed:           1,
	}
}

// Validate checks if the generator settings are usable
func (g *LedgerGenerator) Validate() error {
	if g.Count < 0 {
		return fmt.Errorf("count cannot be negative, got %d", g.Count)
	}
	if g.EndDate.Before(g.StartDate) {
		return fmt.Errorf("start date cannot be after end date")
	}
	if len(g.Branches) == 0 || len(g.Products) == 0 {
		return fmt.Errorf("at least one branch and one product are required")
	}
	if g.MinAmount.IsNegative() || g.MaxAmount.LessThan(g.MinAmount) {
		return fmt.Errorf("invalid amount range %s..%s", g.MinAmount, g.MaxAmount)
	}
	if g.AnonymousRatio < 0 || g.AnonymousRatio > 1 {
		return fmt.Errorf("anonymous ratio must be between 0 and 1, got %f", g.AnonymousRatio)
	}
	switch g.Pattern {
	case PatternRandom, PatternEndOfMonth, "":
	default:
		return fmt.Errorf("unknown pattern '%s'", g.Pattern)
	}
	return nil
}

// Generate builds Count records ordered by date
func (g *LedgerGenerator) Generate() ([]models.TransactionRecord, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.Seed))
	days := int(g.EndDate.Sub(g.StartDate).Hours()/24) + 1

	records := make([]models.TransactionRecord, g.Count)
	for i := range records {
		var date time.Time
		if g.Pattern == PatternEndOfMonth && rng.Float64() < 0.7 {
			date = g.endOfMonthDay(rng, days)
		} else {
			date = g.StartDate.AddDate(0, 0, rng.Intn(days))
		}

		customer := models.NoCustomer
		if len(g.Customers) > 0 && rng.Float64() >= g.AnonymousRatio {
			customer = g.Customers[rng.Intn(len(g.Customers))]
		}

		quantity := int64(1 + rng.Intn(5))
		gross := g.amount(rng).Mul(decimal.NewFromInt(quantity))
		net := gross.Div(vatFactor).Round(0)

		records[i] = models.NewTransactionRecord(
			date,
			g.Branches[rng.Intn(len(g.Branches))],
			g.Products[rng.Intn(len(g.Products))],
			customer,
			gross,
			net,
			quantity,
		)
	}

	sortByDate(records)
	return records, nil
}

// amount draws a whole unit price in [MinAmount, MaxAmount]
func (g *LedgerGenerator) amount(rng *rand.Rand) decimal.Decimal {
	span := g.MaxAmount.Sub(g.MinAmount)
	return decimal.NewFromFloat(rng.Float64()).Mul(span).Add(g.MinAmount).Round(0)
}

// endOfMonthDay picks one of the last five days of a random month in range
func (g *LedgerGenerator) endOfMonthDay(rng *rand.Rand, days int) time.Time {
	anchor := g.StartDate.AddDate(0, 0, rng.Intn(days))
	lastDay := time.Date(anchor.Year(), anchor.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	date := lastDay.AddDate(0, 0, -rng.Intn(5))

	if date.Before(g.StartDate) {
		return g.StartDate
	}
	if date.After(g.EndDate) {
		return g.EndDate
	}
	return date
}

func sortByDate(records []models.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
