package domain

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Phase *Phase `json:"phase,omitempty"`

	// Transient lists keys that became active or inactive.
	Transient *KeyDelta `json:"transient,omitempty"`

	// Receipts lists invoice ids that were added or removed.
	Receipts *KeyDelta `json:"receipts,omitempty"`

	// ReturnItems contains only changed, added or deleted quantities.
	// For deletions, the key is present with a nil value.
	ReturnItems map[string]*int `json:"return_items,omitempty"`
}

// KeyDelta is a set difference.
type KeyDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}
	old := oldSnap
	if old == nil {
		old = &Snapshot{}
	}

	diff := &SnapshotDiff{SessionID: newSnap.SessionID}

	if oldSnap == nil || old.Transaction.Phase != newSnap.Transaction.Phase {
		p := newSnap.Transaction.Phase
		diff.Phase = &p
	}
	diff.Transient = diffKeys(old.Transient.Keys(), newSnap.Transient.Keys())
	diff.Receipts = diffKeys(old.Transaction.Receipts.IDs(), newSnap.Transaction.Receipts.IDs())
	diff.ReturnItems = diffQuantities(old.Transaction.ReturnItems, newSnap.Transaction.ReturnItems)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffKeys(oldKeys, newKeys []string) *KeyDelta {
	oldSet := NewSetting(oldKeys...)
	newSet := NewSetting(newKeys...)

	delta := &KeyDelta{}
	for _, k := range newKeys {
		if !oldSet.Has(k) {
			delta.Added = append(delta.Added, k)
		}
	}
	for _, k := range oldKeys {
		if !newSet.Has(k) {
			delta.Removed = append(delta.Removed, k)
		}
	}

	// Return nil if delta is empty so omitempty can remove the key
	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return nil
	}
	return delta
}

func diffQuantities(old, new ReturnItems) map[string]*int {
	delta := make(map[string]*int)

	for _, it := range new.List() {
		if !old.Has(it.ItemID) || old.Qty(it.ItemID) != it.Qty {
			q := it.Qty
			delta[it.ItemID] = &q
		}
	}
	for _, it := range old.List() {
		if !new.Has(it.ItemID) {
			delta[it.ItemID] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.Transient == nil &&
		d.Receipts == nil &&
		len(d.ReturnItems) == 0
}
