package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Setting is the set of transient keys a node declares active.
// Membership is presence: there is no way to hold a "false" member.
type Setting map[string]struct{}

// NewSetting builds a Setting from keys. Empty keys are ignored.
func NewSetting(keys ...string) Setting {
	s := make(Setting, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		s[k] = struct{}{}
	}
	return s
}

// Namespaced builds the conventional "<prefix>-<id>" key used by nodes that
// repeat per item (e.g. "refund-details-1122").
func Namespaced(prefix, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// Has reports whether key is a member.
func (s Setting) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// With returns a new Setting with keys added. The receiver is not modified.
func (s Setting) With(keys ...string) Setting {
	out := make(Setting, len(s)+len(keys))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, k := range keys {
		if k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}

// Keys returns the members in sorted order.
func (s Setting) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the setting as a flat {"key": true} object.
func (s Setting) MarshalJSON() ([]byte, error) {
	return marshalFlat(s)
}

// UnmarshalJSON accepts only flat objects whose values are literally true.
func (s *Setting) UnmarshalJSON(data []byte) error {
	keys, err := unmarshalFlat(data)
	if err != nil {
		return err
	}
	*s = keys
	return nil
}

func marshalFlat(keys map[string]struct{}) ([]byte, error) {
	flat := make(map[string]bool, len(keys))
	for k := range keys {
		flat[k] = true
	}
	return json.Marshal(flat)
}

func unmarshalFlat(data []byte) (map[string]struct{}, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	out := make(map[string]struct{}, len(raw))
	for k, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil || !b {
			return nil, fmt.Errorf("%w: key %q must be true, got %s", ErrInvalidSetting, k, string(v))
		}
		out[k] = struct{}{}
	}
	return out, nil
}
