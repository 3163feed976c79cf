package domain

// TransientState is the flat set of currently active UI keys for one screen.
// Values are immutable: every operation returns a new state.
type TransientState struct {
	active map[string]struct{}
}

// Empty returns a state with no active keys.
func Empty() TransientState {
	return TransientState{}
}

// StateOf returns a state whose active keys are exactly the setting's members.
func StateOf(s Setting) TransientState {
	return TransientState{active: copyKeys(s)}
}

// IsActive reports whether key is active. Missing keys are inactive.
func (t TransientState) IsActive(key string) bool {
	_, ok := t.active[key]
	return ok
}

// Replace discards every active key and activates exactly the setting.
func (t TransientState) Replace(s Setting) TransientState {
	return StateOf(s)
}

// MergeAdd activates the setting's keys on top of the current ones.
func (t TransientState) MergeAdd(s Setting) TransientState {
	out := make(map[string]struct{}, len(t.active)+len(s))
	for k := range t.active {
		out[k] = struct{}{}
	}
	for k := range s {
		out[k] = struct{}{}
	}
	return TransientState{active: out}
}

// Len returns the number of active keys.
func (t TransientState) Len() int {
	return len(t.active)
}

// Keys returns the active keys in sorted order.
func (t TransientState) Keys() []string {
	return Setting(t.active).Keys()
}

// Setting returns a copy of the active keys as a Setting.
func (t TransientState) Setting() Setting {
	return Setting(copyKeys(t.active))
}

// Equal reports whether both states activate the same keys.
func (t TransientState) Equal(other TransientState) bool {
	if len(t.active) != len(other.active) {
		return false
	}
	for k := range t.active {
		if _, ok := other.active[k]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the state as {"key": true, ...}.
func (t TransientState) MarshalJSON() ([]byte, error) {
	return marshalFlat(t.active)
}

// UnmarshalJSON rejects nested values and anything that is not literally true.
func (t *TransientState) UnmarshalJSON(data []byte) error {
	keys, err := unmarshalFlat(data)
	if err != nil {
		return err
	}
	t.active = keys
	return nil
}

func copyKeys(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
