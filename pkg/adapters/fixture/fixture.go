// Package fixture loads demo and test data from YAML: a price catalog, sold
// invoices, the "fast-fill" selection and the interaction tree of the screen.
package fixture

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/dsl"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demo []byte

// FastFill names the invoices and quantities a demo return starts with.
type FastFill struct {
	Invoices []string            `yaml:"invoices"`
	Items    []domain.ReturnItem `yaml:"items"`
}

// File is the on-disk fixture format.
type File struct {
	Catalog  []domain.CatalogEntry `yaml:"catalog"`
	Invoices []domain.Invoice      `yaml:"invoices"`
	FastFill FastFill              `yaml:"fast_fill"`
	Screen   []dsl.NodeSpec        `yaml:"screen"`
}

// Demo returns the built-in demo fixture.
func Demo() *File {
	f, err := Parse(demo)
	if err != nil {
		panic(fmt.Sprintf("fixture: embedded demo is invalid: %v", err))
	}
	return f
}

// Load reads and validates a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for i, e := range f.Catalog {
		if e.ItemID == "" {
			return fmt.Errorf("catalog[%d]: missing item_id", i)
		}
		if e.UnitValueCents < 0 {
			return fmt.Errorf("catalog[%d]: negative unit_value_cents", i)
		}
	}

	known := make(map[string]bool, len(f.Invoices))
	for i, inv := range f.Invoices {
		if inv.ID == "" {
			return fmt.Errorf("invoices[%d]: missing id", i)
		}
		if known[inv.ID] {
			return fmt.Errorf("invoices[%d]: duplicate id %s", i, inv.ID)
		}
		known[inv.ID] = true
		for j, l := range inv.Lines {
			if l.ItemID == "" || l.Qty < 0 {
				return fmt.Errorf("invoices[%d].lines[%d]: invalid line", i, j)
			}
		}
	}

	for _, id := range f.FastFill.Invoices {
		if !known[id] {
			return fmt.Errorf("fast_fill: %w: %s", domain.ErrInvoiceNotFound, id)
		}
	}
	return nil
}

// PriceCatalog returns the fixture's catalog.
func (f *File) PriceCatalog() *memory.Catalog {
	return memory.NewCatalog(f.Catalog...)
}

// InvoiceSource returns the fixture's invoices as a searchable source.
func (f *File) InvoiceSource() *memory.Invoices {
	return memory.NewInvoices(f.Invoices...)
}

// Selection resolves the fast-fill block into invoices and return items.
func (f *File) Selection() ([]domain.Invoice, []domain.ReturnItem) {
	byID := make(map[string]domain.Invoice, len(f.Invoices))
	for _, inv := range f.Invoices {
		byID[inv.ID] = inv
	}
	invoices := make([]domain.Invoice, 0, len(f.FastFill.Invoices))
	for _, id := range f.FastFill.Invoices {
		invoices = append(invoices, byID[id])
	}
	return invoices, append([]domain.ReturnItem(nil), f.FastFill.Items...)
}

// Tree builds the screen's interaction tree. A fixture without a screen
// yields a nil tree.
func (f *File) Tree() (*domain.Tree, error) {
	if len(f.Screen) == 0 {
		return nil, nil
	}
	return dsl.New().Spec("", f.Screen...).Build()
}
