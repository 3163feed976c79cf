package domain

import "encoding/json"

// ReturnItem is one SKU the customer is bringing back.
type ReturnItem struct {
	ItemID string `json:"item_id" yaml:"item_id"`
	Qty    int    `json:"qty" yaml:"qty"`
}

// ReturnItems is keyed by item id and remembers insertion order.
// Setting an existing id overwrites its quantity and keeps its position.
type ReturnItems struct {
	ids []string
	qty map[string]int
}

// NewReturnItems builds a collection from items in order.
func NewReturnItems(items ...ReturnItem) ReturnItems {
	var r ReturnItems
	for _, it := range items {
		r = r.Set(it.ItemID, it.Qty)
	}
	return r
}

// Set returns a copy with itemID at qty.
func (r ReturnItems) Set(itemID string, qty int) ReturnItems {
	out := ReturnItems{
		ids: make([]string, len(r.ids), len(r.ids)+1),
		qty: make(map[string]int, len(r.qty)+1),
	}
	copy(out.ids, r.ids)
	for k, v := range r.qty {
		out.qty[k] = v
	}
	if _, exists := out.qty[itemID]; !exists {
		out.ids = append(out.ids, itemID)
	}
	out.qty[itemID] = qty
	return out
}

// Remove returns a copy without itemID.
func (r ReturnItems) Remove(itemID string) ReturnItems {
	if _, ok := r.qty[itemID]; !ok {
		return r
	}
	out := ReturnItems{
		ids: make([]string, 0, len(r.ids)),
		qty: make(map[string]int, len(r.qty)),
	}
	for _, id := range r.ids {
		if id == itemID {
			continue
		}
		out.ids = append(out.ids, id)
		out.qty[id] = r.qty[id]
	}
	return out
}

// Qty returns the requested quantity for itemID (0 when absent).
func (r ReturnItems) Qty(itemID string) int {
	return r.qty[itemID]
}

// Has reports whether itemID has an entry.
func (r ReturnItems) Has(itemID string) bool {
	_, ok := r.qty[itemID]
	return ok
}

// Len returns the number of entries.
func (r ReturnItems) Len() int {
	return len(r.ids)
}

// List returns the entries in insertion order.
func (r ReturnItems) List() []ReturnItem {
	out := make([]ReturnItem, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, ReturnItem{ItemID: id, Qty: r.qty[id]})
	}
	return out
}

func (r ReturnItems) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.List())
}

func (r *ReturnItems) UnmarshalJSON(data []byte) error {
	var items []ReturnItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*r = NewReturnItems(items...)
	return nil
}
