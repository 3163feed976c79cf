package domain

import (
	"encoding/json"
	"time"
)

// Customer is the buyer recorded on an invoice.
type Customer struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Payment is the tender used on the original sale.
type Payment struct {
	Method      string `json:"method" yaml:"method"`
	Last4       string `json:"last4,omitempty" yaml:"last4,omitempty"`
	AmountCents int64  `json:"amount_cents" yaml:"amount_cents"`
}

// InvoiceLine is one sold item on an invoice.
// UnitValueCents is informational only: refunds are priced from the catalog.
type InvoiceLine struct {
	ItemID         string `json:"item_id" yaml:"item_id"`
	Qty            int    `json:"qty" yaml:"qty"`
	UnitValueCents int64  `json:"unit_value_cents" yaml:"unit_value_cents"`
	InvoiceID      string `json:"invoice_id" yaml:"invoice_id"`
}

// Invoice is a receipted sale attached to a return transaction.
type Invoice struct {
	ID       string        `json:"id" yaml:"id"`
	Customer Customer      `json:"customer" yaml:"customer"`
	Payment  Payment       `json:"payment" yaml:"payment"`
	Lines    []InvoiceLine `json:"lines" yaml:"lines"`
	IssuedAt time.Time     `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
}

// clone returns a deep copy whose lines are all owned by the invoice.
func (inv Invoice) clone() Invoice {
	out := inv
	out.Lines = make([]InvoiceLine, len(inv.Lines))
	for i, l := range inv.Lines {
		l.InvoiceID = inv.ID
		out.Lines[i] = l
	}
	return out
}

// Receipts is the insertion-ordered set of receipted invoices keyed by id.
// Values are immutable; With and Without return new collections.
type Receipts struct {
	ids  []string
	byID map[string]Invoice
}

// NewReceipts builds a collection from invoices in order.
func NewReceipts(invoices ...Invoice) Receipts {
	var r Receipts
	for _, inv := range invoices {
		r = r.With(inv)
	}
	return r
}

// With adds inv. Re-adding an id replaces the stored snapshot in place.
func (r Receipts) With(inv Invoice) Receipts {
	out := Receipts{
		ids:  make([]string, len(r.ids), len(r.ids)+1),
		byID: make(map[string]Invoice, len(r.byID)+1),
	}
	copy(out.ids, r.ids)
	for k, v := range r.byID {
		out.byID[k] = v
	}
	if _, exists := out.byID[inv.ID]; !exists {
		out.ids = append(out.ids, inv.ID)
	}
	out.byID[inv.ID] = inv.clone()
	return out
}

// Without removes the invoice with the given id, if present.
func (r Receipts) Without(id string) Receipts {
	if _, ok := r.byID[id]; !ok {
		return r
	}
	out := Receipts{
		ids:  make([]string, 0, len(r.ids)),
		byID: make(map[string]Invoice, len(r.byID)),
	}
	for _, k := range r.ids {
		if k == id {
			continue
		}
		out.ids = append(out.ids, k)
		out.byID[k] = r.byID[k]
	}
	return out
}

// Get returns a copy of the invoice with the given id.
func (r Receipts) Get(id string) (Invoice, bool) {
	inv, ok := r.byID[id]
	if !ok {
		return Invoice{}, false
	}
	return inv.clone(), true
}

// Has reports whether an invoice with id is present.
func (r Receipts) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of invoices.
func (r Receipts) Len() int {
	return len(r.ids)
}

// IDs returns invoice ids in insertion order.
func (r Receipts) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// List returns copies of the invoices in insertion order.
func (r Receipts) List() []Invoice {
	out := make([]Invoice, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id].clone())
	}
	return out
}

// LinesFor returns every line selling itemID, in invoice insertion order
// and line order within each invoice.
func (r Receipts) LinesFor(itemID string) []InvoiceLine {
	var out []InvoiceLine
	for _, id := range r.ids {
		for _, l := range r.byID[id].Lines {
			if l.ItemID == itemID {
				out = append(out, l)
			}
		}
	}
	return out
}

func (r Receipts) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.List())
}

func (r *Receipts) UnmarshalJSON(data []byte) error {
	var invoices []Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		return err
	}
	*r = NewReceipts(invoices...)
	return nil
}
