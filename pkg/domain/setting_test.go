package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientState_Operations(t *testing.T) {
	s := Empty()
	assert.False(t, s.IsActive("anything"), "missing keys are inactive")

	s = s.MergeAdd(NewSetting("a"))
	s = s.MergeAdd(NewSetting("b", "a"))
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	replaced := s.Replace(NewSetting("c"))
	assert.Equal(t, []string{"c"}, replaced.Keys())
	assert.Equal(t, []string{"a", "b"}, s.Keys(), "receiver is not modified")
}

func TestSetting_IgnoresEmptyKeys(t *testing.T) {
	s := NewSetting("", "a").With("", "b")
	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, "refund-details-1122", Namespaced("refund-details", "1122"))
	assert.Equal(t, "1122", Namespaced("", "1122"))
}

func TestTransientState_JSON(t *testing.T) {
	data, err := json.Marshal(StateOf(NewSetting("x", "y")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":true,"y":true}`, string(data))

	var s TransientState
	require.NoError(t, json.Unmarshal([]byte(`{"k":true}`), &s))
	assert.True(t, s.IsActive("k"))

	invalid := []string{
		`{"k":false}`,
		`{"k":{"nested":true}}`,
		`{"k":[true]}`,
		`{"k":"true"}`,
		`[]`,
	}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			var s TransientState
			assert.ErrorIs(t, json.Unmarshal([]byte(in), &s), ErrInvalidSetting)
		})
	}
}
