package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// Memo caches the last derivation, keyed by a fingerprint of the return
// items, the receipts and the catalog version. Any change to one of them
// produces a different fingerprint, so a cached result is never stale.
type Memo struct {
	mu    sync.Mutex
	key   string
	atoms []Atom
	hits  int
}

// Derive returns the cached atoms when the inputs are unchanged, and
// recomputes them otherwise. The returned slice is a copy.
func (m *Memo) Derive(tx Transaction, catalog PriceLookup, catalogVersion string) []Atom {
	key := Fingerprint(tx, catalogVersion)

	m.mu.Lock()
	defer m.mu.Unlock()

	if key == m.key && m.key != "" {
		m.hits++
		return append([]Atom(nil), m.atoms...)
	}
	m.key = key
	m.atoms = Derive(tx, catalog)
	return append([]Atom(nil), m.atoms...)
}

// Hits returns how many derivations were served from cache.
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

// Fingerprint hashes the derivation inputs of tx together with catalogVersion.
func Fingerprint(tx Transaction, catalogVersion string) string {
	payload := struct {
		Items    ReturnItems `json:"i"`
		Receipts Receipts    `json:"r"`
		Version  string      `json:"v"`
	}{tx.ReturnItems, tx.Receipts, catalogVersion}

	// Both collections marshal as ordered arrays, so the encoding is stable.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
