package domain

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// screen builds the interaction tree used by most tests:
//
//	stage "screen"
//	  actor "item-1122"
//	    actor "refund-details-1122" (inherits item-1122)
//	    vignette "details-panel" (item-1122 AND refund-details-1122)
//	  actor "item-3344"
func screen(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	require.NoError(t, tree.Add("", NewStage("screen")))
	require.NoError(t, tree.Add("screen", NewActor("item-1122")))
	require.NoError(t, tree.Add("item-1122", NewActor(Namespaced("refund-details", "1122"), "item-1122")))
	require.NoError(t, tree.Add("item-1122", NewVignette("details-panel", "item-1122", "refund-details-1122")))
	require.NoError(t, tree.Add("screen", NewActor("item-3344")))
	return tree
}

func TestStageClick_ReplacesState(t *testing.T) {
	tree := screen(t)
	state := StateOf(NewSetting("item-1122", "unrelated"))

	next, eff, err := tree.Click(state, "screen")
	require.NoError(t, err)

	assert.Equal(t, OpReplace, eff.Op)
	assert.Equal(t, RoleStage, eff.Role)
	assert.Equal(t, 0, next.Len(), "stage with empty setting closes everything")
}

func TestStageClick_OwnSetting(t *testing.T) {
	state := StateOf(NewSetting("a", "b"))
	stage := NewStage("receipts", "search-open")

	next, eff := Dispatch(state, Click{TargetID: "receipts"}, stage)

	assert.Equal(t, OpReplace, eff.Op)
	assert.Equal(t, []string{"search-open"}, next.Keys())
}

func TestActorClick_InsideStage(t *testing.T) {
	// Clicking an actor inside the stage must not reset the stage.
	tree := screen(t)
	state := StateOf(NewSetting("banner", "item-3344"))

	next, eff, err := tree.Click(state, "item-1122")
	require.NoError(t, err)

	assert.Equal(t, OpMerge, eff.Op)
	assert.Equal(t, "item-1122", eff.NodeID)
	assert.Equal(t, []string{"banner", "item-1122", "item-3344"}, next.Keys())
}

func TestActorClick_HandBuiltNodeStillMergesOwnID(t *testing.T) {
	bare := Node{ID: "row-7", Role: RoleActor, Setting: NewSetting("list")}

	next, eff := Dispatch(Empty(), Click{TargetID: "row-7"}, bare, NewStage("screen"))

	assert.Equal(t, OpMerge, eff.Op)
	assert.Equal(t, []string{"list", "row-7"}, next.Keys())
}

func TestActorClick_StopsPropagation(t *testing.T) {
	tree := screen(t)

	next, eff, err := tree.Click(Empty(), "refund-details-1122")
	require.NoError(t, err)

	assert.Equal(t, "refund-details-1122", eff.NodeID)
	assert.Equal(t, []string{"item-1122", "refund-details-1122"}, next.Keys())
}

func TestStage_IgnoresClickOnPlainDescendant(t *testing.T) {
	state := StateOf(NewSetting("x"))
	stage := NewStage("screen")

	// A click on a non-interactive element bubbles to the stage with a
	// different target: nothing happens.
	next, eff := Dispatch(state, Click{TargetID: "label"}, stage)

	assert.Equal(t, OpNone, eff.Op)
	assert.True(t, next.Equal(state))
}

func TestVignette_AndVisibility(t *testing.T) {
	v := NewVignette("v", "a", "b")

	tests := []struct {
		name  string
		state TransientState
		want  bool
	}{
		{"both", StateOf(NewSetting("a", "b")), true},
		{"both plus extra", StateOf(NewSetting("a", "b", "c")), true},
		{"only a", StateOf(NewSetting("a")), false},
		{"only b", StateOf(NewSetting("b")), false},
		{"none", Empty(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(v, tt.state))
		})
	}

	assert.True(t, Visible(NewVignette("always"), Empty()), "no keys means always visible")
}

func TestVignette_IgnoredByDispatch(t *testing.T) {
	state := StateOf(NewSetting("a"))
	next, eff := Dispatch(state, Click{TargetID: "v"}, NewVignette("v", "a"))
	assert.Equal(t, OpNone, eff.Op)
	assert.True(t, next.Equal(state))
}

func TestTree_VisibleIDs(t *testing.T) {
	tree := screen(t)
	state, _, err := tree.Click(Empty(), "refund-details-1122")
	require.NoError(t, err)
	assert.Equal(t, []string{"details-panel"}, tree.VisibleIDs(state))

	state, _, err = tree.Click(state, "screen")
	require.NoError(t, err)
	assert.Empty(t, tree.VisibleIDs(state))
}

func TestTree_Errors(t *testing.T) {
	tree := screen(t)

	_, _, err := tree.Click(Empty(), "missing")
	assert.ErrorIs(t, err, ErrUnknownNode)

	assert.ErrorIs(t, tree.Add("", NewStage("screen")), ErrInvalidNode)
	assert.ErrorIs(t, tree.Add("nope", NewActor("x")), ErrUnknownNode)
	assert.ErrorIs(t, tree.Add("", Node{Role: RoleStage}), ErrInvalidNode)
}

// TestClickSequences_Properties runs random click sequences and checks that
// the state stays flat, actors never remove keys and stages reset.
func TestClickSequences_Properties(t *testing.T) {
	tree := screen(t)
	ids := []string{"screen", "item-1122", "refund-details-1122", "item-3344", "details-panel"}
	rng := rand.New(rand.NewSource(42))

	state := Empty()
	for i := 0; i < 500; i++ {
		target := ids[rng.Intn(len(ids))]
		before := state

		next, eff, err := tree.Click(state, target)
		require.NoError(t, err)

		switch eff.Role {
		case RoleActor:
			for _, k := range before.Keys() {
				assert.True(t, next.IsActive(k), "actor click removed %q", k)
			}
			n, _ := tree.Node(eff.NodeID)
			for k := range n.Setting {
				assert.True(t, next.IsActive(k))
			}
		case RoleStage:
			n, _ := tree.Node(eff.NodeID)
			assert.Equal(t, n.Setting.Keys(), next.Keys())
		}

		// Flatness: the JSON form is an object of literal trues.
		data, err := json.Marshal(next)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		for k, v := range raw {
			assert.Equal(t, true, v, "key %q", k)
		}

		state = next
	}
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(NewActor("a"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","role":"actor","setting":{"a":true}}`, string(data))

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d","role":"dialog","setting":{"x":true}}`), &n))
	assert.Equal(t, RoleVignette, n.Role)

	_, err = ParseRole("button")
	assert.ErrorIs(t, err, ErrInvalidNode)
}
