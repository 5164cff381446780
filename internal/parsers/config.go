package parsers

import (
	"fmt"
	"strings"

	"salesledger/internal/models"
)

// Standard field names used as keys of ColumnAliases
const (
	FieldDate     = "date"
	FieldBranch   = "branch"
	FieldProduct  = "product"
	FieldCustomer = "customer"
	FieldGross    = "gross"
	FieldNet      = "net"
	FieldQuantity = "quantity"
)

// LedgerParserConfig maps ledger fields onto source column names
type LedgerParserConfig struct {
	DateColumn     string            `json:"date_column" mapstructure:"date"`
	BranchColumn   string            `json:"branch_column" mapstructure:"branch"`
	ProductColumn  string            `json:"product_column" mapstructure:"product"`
	CustomerColumn string            `json:"customer_column" mapstructure:"customer"`
	GrossColumn    string            `json:"gross_column" mapstructure:"gross"`
	NetColumn      string            `json:"net_column" mapstructure:"net"`
	QuantityColumn string            `json:"quantity_column" mapstructure:"quantity"`
	DateFormat     string            `json:"date_format" mapstructure:"date_format"`
	HasHeader      bool              `json:"has_header" mapstructure:"has_header"`
	Delimiter      rune              `json:"delimiter" mapstructure:"delimiter"`
	ColumnAliases  map[string]string `json:"column_aliases,omitempty" mapstructure:"aliases"`

	// OptionalNet and OptionalQuantity let sources without those columns load,
	// with net set equal to gross and quantity set to zero.
	OptionalNet      bool `json:"optional_net" mapstructure:"optional_net"`
	OptionalQuantity bool `json:"optional_quantity" mapstructure:"optional_quantity"`
}

// DefaultLedgerParserConfig returns the column layout of the sales export
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		DateColumn:       "Fecha Documento",
		BranchColumn:     "Sucursal",
		ProductColumn:    "Producto / Servicio",
		CustomerColumn:   "Cliente",
		GrossColumn:      "Subtotal Bruto",
		NetColumn:        "Subtotal Neto",
		QuantityColumn:   "Cantidad",
		DateFormat:       models.DateParseLayout,
		HasHeader:        true,
		Delimiter:        ',',
		ColumnAliases:    make(map[string]string),
		OptionalNet:      true,
		OptionalQuantity: true,
	}
}

// EnglishLedgerParserConfig returns a layout using plain English headers
func EnglishLedgerParserConfig() *LedgerParserConfig {
	cfg := DefaultLedgerParserConfig()
	cfg.DateColumn = FieldDate
	cfg.BranchColumn = FieldBranch
	cfg.ProductColumn = FieldProduct
	cfg.CustomerColumn = FieldCustomer
	cfg.GrossColumn = FieldGross
	cfg.NetColumn = FieldNet
	cfg.QuantityColumn = FieldQuantity
	return cfg
}

// Validate checks if the ledger parser configuration is valid
func (c *LedgerParserConfig) Validate() error {
	required := map[string]string{
		FieldDate:     c.DateColumn,
		FieldBranch:   c.BranchColumn,
		FieldProduct:  c.ProductColumn,
		FieldCustomer: c.CustomerColumn,
		FieldGross:    c.GrossColumn,
	}
	for _, field := range []string{FieldDate, FieldBranch, FieldProduct, FieldCustomer, FieldGross} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("%s column cannot be empty", field)
		}
	}

	if !c.OptionalNet && strings.TrimSpace(c.NetColumn) == "" {
		return fmt.Errorf("net column cannot be empty")
	}
	if !c.OptionalQuantity && strings.TrimSpace(c.QuantityColumn) == "" {
		return fmt.Errorf("quantity column cannot be empty")
	}

	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if c.Delimiter == '"' || c.Delimiter == '\n' || c.Delimiter == '\r' {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	return nil
}

// GetColumnName returns the source column name for a standard field,
// checking aliases first
func (c *LedgerParserConfig) GetColumnName(field string) string {
	if alias, exists := c.ColumnAliases[field]; exists {
		return alias
	}

	switch field {
	case FieldDate:
		return c.DateColumn
	case FieldBranch:
		return c.BranchColumn
	case FieldProduct:
		return c.ProductColumn
	case FieldCustomer:
		return c.CustomerColumn
	case FieldGross:
		return c.GrossColumn
	case FieldNet:
		return c.NetColumn
	case FieldQuantity:
		return c.QuantityColumn
	default:
		return field
	}
}

// RequiredColumns lists the source columns that must appear in the header
func (c *LedgerParserConfig) RequiredColumns() []string {
	columns := []string{
		c.GetColumnName(FieldDate),
		c.GetColumnName(FieldBranch),
		c.GetColumnName(FieldProduct),
		c.GetColumnName(FieldCustomer),
		c.GetColumnName(FieldGross),
	}
	if !c.OptionalNet {
		columns = append(columns, c.GetColumnName(FieldNet))
	}
	if !c.OptionalQuantity {
		columns = append(columns, c.GetColumnName(FieldQuantity))
	}
	return columns
}

// ParseConfig derives the low-level reader settings
func (c *LedgerParserConfig) ParseConfig() *ParseConfig {
	pc := DefaultParseConfig()
	pc.HasHeader = c.HasHeader
	pc.Delimiter = c.Delimiter
	return pc
}

func (c *LedgerParserConfig) dateFormat() string {
	if c.DateFormat == "" {
		return models.DateParseLayout
	}
	return c.DateFormat
}
