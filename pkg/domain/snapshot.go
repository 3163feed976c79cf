package domain

import "time"

// Snapshot is the serialisable state of one return session: the transient
// keys of the current screen plus the transaction.
type Snapshot struct {
	SessionID   string         `json:"session_id"`
	Transient   TransientState `json:"transient"`
	Transaction Transaction    `json:"transaction"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Sealed carries an encrypted copy of the whole snapshot when a storage
	// middleware encrypts at rest. Sealed envelopes keep only SessionID,
	// Transaction.Phase and UpdatedAt in clear.
	Sealed string `json:"sealed,omitempty"`
}

// NewSnapshot creates a clean session at the first phase.
func NewSnapshot(sessionID string) *Snapshot {
	return &Snapshot{
		SessionID:   sessionID,
		Transient:   Empty(),
		Transaction: NewTransaction(),
	}
}

// Clone returns an independent copy. Collections are immutable values, so
// copying the struct is enough.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
