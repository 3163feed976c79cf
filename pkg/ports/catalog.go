package ports

import (
	"context"

	"github.com/aretw0/qret/pkg/domain"
)

// Catalog is the price authority. Lookup never fails: unknown ids resolve
// to domain.Placeholder.
type Catalog interface {
	domain.PriceLookup

	// Version changes whenever the catalog content changes. It keys
	// derivation caches.
	Version() string

	// List returns every entry, sorted by item id.
	List() []domain.CatalogEntry
}

// ReloadableCatalog is a Catalog backed by content that can change while
// the host runs. A failed Reload keeps the previous content active.
type ReloadableCatalog interface {
	Catalog
	Reload(ctx context.Context) error
}

// InvoiceSource finds sold invoices that can be attached to a return.
type InvoiceSource interface {
	// Find returns the invoice with the given id.
	// Returns domain.ErrInvoiceNotFound if it does not exist.
	Find(ctx context.Context, invoiceID string) (domain.Invoice, error)

	// Search returns invoices whose id, customer name, email or phone
	// contains query (case-insensitive). An empty query returns everything.
	Search(ctx context.Context, query string) ([]domain.Invoice, error)
}
