package domain

// ItemRefund is the per-item row of a refund summary.
type ItemRefund struct {
	ItemID         string `json:"item_id"`
	Description    string `json:"description"`
	Qty            int    `json:"qty"`
	ReceiptedQty   int    `json:"receipted_qty"`
	UnreceiptedQty int    `json:"unreceipted_qty"`
	UnitValueCents int64  `json:"unit_value_cents"`
	ValueCents     int64  `json:"value_cents"`
}

// InvoiceRefund totals the atoms attributed to one invoice.
type InvoiceRefund struct {
	InvoiceID  string `json:"invoice_id"`
	Qty        int    `json:"qty"`
	ValueCents int64  `json:"value_cents"`
}

// Summary is everything a refund screen renders, derived in one pass.
type Summary struct {
	Atoms            []Atom          `json:"atoms"`
	Items            []ItemRefund    `json:"items"`
	Invoices         []InvoiceRefund `json:"invoices"`
	TotalQty         int             `json:"total_qty"`
	UnreceiptedQty   int             `json:"unreceipted_qty"`
	TotalValueCents  int64           `json:"total_value_cents"`
	UnreceiptedCents int64           `json:"unreceipted_cents"`
}

// Summarize derives atoms for tx and aggregates them per item, per invoice
// and overall.
func Summarize(tx Transaction, catalog PriceLookup) Summary {
	return SummarizeAtoms(tx, catalog, Derive(tx, catalog))
}

// SummarizeAtoms aggregates atoms that were already derived for tx.
func SummarizeAtoms(tx Transaction, catalog PriceLookup, atoms []Atom) Summary {
	s := Summary{
		Atoms:    atoms,
		Items:    []ItemRefund{},
		Invoices: []InvoiceRefund{},
	}
	if s.Atoms == nil {
		s.Atoms = []Atom{}
	}

	for _, item := range tx.ReturnItems.List() {
		entry := catalog.Lookup(item.ItemID)
		mine := ForItem(atoms, item.ItemID)
		unreceipted := Unreceipted(mine)
		s.Items = append(s.Items, ItemRefund{
			ItemID:         item.ItemID,
			Description:    entry.Description,
			Qty:            int(Aggregate(mine, FieldQty)),
			ReceiptedQty:   int(Aggregate(Receipted(mine), FieldQty)),
			UnreceiptedQty: int(Aggregate(unreceipted, FieldQty)),
			UnitValueCents: entry.UnitValueCents,
			ValueCents:     Aggregate(mine, FieldValueCents),
		})
	}

	for _, id := range tx.Receipts.IDs() {
		mine := ForInvoice(atoms, id)
		s.Invoices = append(s.Invoices, InvoiceRefund{
			InvoiceID:  id,
			Qty:        int(Aggregate(mine, FieldQty)),
			ValueCents: Aggregate(mine, FieldValueCents),
		})
	}

	unreceipted := Unreceipted(atoms)
	s.TotalQty = int(Aggregate(atoms, FieldQty))
	s.TotalValueCents = Aggregate(atoms, FieldValueCents)
	s.UnreceiptedQty = int(Aggregate(unreceipted, FieldQty))
	s.UnreceiptedCents = Aggregate(unreceipted, FieldValueCents)
	return s
}
