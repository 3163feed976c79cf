package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/qret/pkg/domain"
)

// Invoices implements ports.InvoiceSource over a fixed list, kept in the order given.
type Invoices struct {
	list []domain.Invoice
	byID map[string]int
}

// NewInvoices creates a source. Duplicate ids keep the first occurrence.
func NewInvoices(invoices ...domain.Invoice) *Invoices {
	src := &Invoices{byID: make(map[string]int, len(invoices))}
	for _, inv := range invoices {
		if _, dup := src.byID[inv.ID]; dup || inv.ID == "" {
			continue
		}
		src.byID[inv.ID] = len(src.list)
		src.list = append(src.list, inv)
	}
	return src
}

// Find returns the invoice with the given id.
func (s *Invoices) Find(ctx context.Context, invoiceID string) (domain.Invoice, error) {
	i, ok := s.byID[invoiceID]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, invoiceID)
	}
	return s.list[i], nil
}

// Search matches query against id and customer fields.
func (s *Invoices) Search(ctx context.Context, query string) ([]domain.Invoice, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Invoice, 0, len(s.list))
	for _, inv := range s.list {
		if q == "" || Matches(inv, q) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// Matches reports whether a lower-cased query hits the invoice id or its customer.
func Matches(inv domain.Invoice, q string) bool {
	for _, field := range []string{inv.ID, inv.Customer.ID, inv.Customer.Name, inv.Customer.Email, inv.Customer.Phone} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
