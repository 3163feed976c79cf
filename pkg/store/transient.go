package store

import "github.com/aretw0/qret/pkg/domain"

// TransientStore owns the transient state of one screen. Every write is a
// full-value replacement of the held state.
type TransientStore struct {
	state domain.TransientState
}

// NewTransientStore creates a store with no active keys.
func NewTransientStore() *TransientStore {
	return &TransientStore{state: domain.Empty()}
}

// State returns the current value.
func (s *TransientStore) State() domain.TransientState {
	return s.state
}

// IsActive reports whether key is active.
func (s *TransientStore) IsActive(key string) bool {
	return s.state.IsActive(key)
}

// Replace makes the state exactly setting.
func (s *TransientStore) Replace(setting domain.Setting) domain.TransientState {
	s.state = s.state.Replace(setting)
	return s.state
}

// MergeAdd activates setting on top of the current keys.
func (s *TransientStore) MergeAdd(setting domain.Setting) domain.TransientState {
	s.state = s.state.MergeAdd(setting)
	return s.state
}

// ResetAll clears every key.
func (s *TransientStore) ResetAll() domain.TransientState {
	s.state = domain.Empty()
	return s.state
}

// Dispatch applies a click bubbling through path (innermost first).
func (s *TransientStore) Dispatch(click domain.Click, path ...domain.Node) domain.Effect {
	next, eff := domain.Dispatch(s.state, click, path...)
	s.state = next
	return eff
}
