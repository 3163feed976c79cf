package domain

// Atom is one priced, attributable run of returned units. Atoms are
// recomputed on demand and never stored.
type Atom struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
	// InvoiceID is empty when the units could not be matched to a
	// receipted line ("unreceipted").
	InvoiceID      string `json:"invoice_id,omitempty"`
	UnitValueCents int64  `json:"unit_value_cents"`
	ValueCents     int64  `json:"value_cents"`
}

// Receipted reports whether the atom is attributed to an invoice.
func (a Atom) Receipted() bool {
	return a.InvoiceID != ""
}

// Derive projects the transaction onto atoms.
//
// Return items are visited in insertion order. Each one greedily consumes
// the quantity of every matching invoice line, invoices in the order they
// were added, and whatever is left becomes a single unreceipted atom. Unit
// values always come from the catalog. Items with a non-positive quantity
// produce nothing.
func Derive(tx Transaction, catalog PriceLookup) []Atom {
	var atoms []Atom
	for _, item := range tx.ReturnItems.List() {
		if item.Qty <= 0 {
			continue
		}
		unit := catalog.Lookup(item.ItemID).UnitValueCents
		remaining := item.Qty

		for _, line := range tx.Receipts.LinesFor(item.ItemID) {
			if remaining == 0 {
				break
			}
			if line.Qty <= 0 {
				continue
			}
			take := min(line.Qty, remaining)
			atoms = append(atoms, newAtom(item.ItemID, take, line.InvoiceID, unit))
			remaining -= take
		}

		if remaining > 0 {
			atoms = append(atoms, newAtom(item.ItemID, remaining, "", unit))
		}
	}
	return atoms
}

func newAtom(itemID string, qty int, invoiceID string, unit int64) Atom {
	return Atom{
		ItemID:         itemID,
		Qty:            qty,
		InvoiceID:      invoiceID,
		UnitValueCents: unit,
		ValueCents:     int64(qty) * unit,
	}
}

// Field selects the numeric atom attribute Aggregate sums.
type Field int

const (
	FieldQty Field = iota + 1
	FieldValueCents
)

func (f Field) String() string {
	switch f {
	case FieldQty:
		return "qty"
	case FieldValueCents:
		return "valueCents"
	}
	return "unknown"
}

// Aggregate sums field across atoms.
func Aggregate(atoms []Atom, field Field) int64 {
	var total int64
	for _, a := range atoms {
		switch field {
		case FieldQty:
			total += int64(a.Qty)
		case FieldValueCents:
			total += a.ValueCents
		}
	}
	return total
}

// Filter returns the atoms for which keep is true.
func Filter(atoms []Atom, keep func(Atom) bool) []Atom {
	var out []Atom
	for _, a := range atoms {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// ForItem keeps the atoms of one item.
func ForItem(atoms []Atom, itemID string) []Atom {
	return Filter(atoms, func(a Atom) bool { return a.ItemID == itemID })
}

// ForInvoice keeps the atoms attributed to one invoice.
func ForInvoice(atoms []Atom, invoiceID string) []Atom {
	return Filter(atoms, func(a Atom) bool { return a.InvoiceID == invoiceID && invoiceID != "" })
}

// Receipted keeps attributed atoms.
func Receipted(atoms []Atom) []Atom {
	return Filter(atoms, Atom.Receipted)
}

// Unreceipted keeps atoms without an invoice.
func Unreceipted(atoms []Atom) []Atom {
	return Filter(atoms, func(a Atom) bool { return !a.Receipted() })
}
