package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/ports"
)

// Masked replaces every masked value.
const Masked = "***"

// DefaultPIIPatterns masks customer contact data and card digits.
var DefaultPIIPatterns = []string{`^customer\.(name|email|phone)$`, `^payment\.last4$`}

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks invoice fields whose
// path matches one of the patterns. Paths are "customer.name",
// "customer.email", "customer.phone" and "payment.last4". Snapshots are
// masked on the way to storage; the caller's copy is left untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Receipts are immutable values, so rebuilding them leaves snap alone.
	cloned := snap.Clone()
	invoices := cloned.Transaction.Receipts.List()
	for i := range invoices {
		m.maskInvoice(&invoices[i])
	}
	cloned.Transaction.Receipts = domain.NewReceipts(invoices...)

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func (m *piiMiddleware) maskInvoice(inv *domain.Invoice) {
	fields := map[string]*string{
		"customer.name":  &inv.Customer.Name,
		"customer.email": &inv.Customer.Email,
		"customer.phone": &inv.Customer.Phone,
		"payment.last4":  &inv.Payment.Last4,
	}
	for path, value := range fields {
		if *value == "" {
			continue
		}
		for _, p := range m.patterns {
			if p.MatchString(path) {
				*value = Masked
				break
			}
		}
	}
}
