package dsl

import (
	"testing"

	"github.com/aretw0/qret/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_ItemsScreen(t *testing.T) {
	b := New()

	items := b.Stage("items-screen")
	row := items.Actor("item-1122")
	row.Vignette("keypad-1122", "item-1122")
	row.Actor("refund-1122").Keys(domain.Namespaced("refund-details", "1122"))
	items.Vignette("details-1122", domain.Namespaced("refund-details", "1122"))

	tree, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, tree.Nodes(), 5)

	path, err := tree.Path("refund-1122")
	require.NoError(t, err)
	ids := make([]string, 0, len(path))
	for _, n := range path {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"refund-1122", "item-1122", "items-screen"}, ids)

	state, eff, err := tree.Click(domain.Empty(), "refund-1122")
	require.NoError(t, err)
	assert.Equal(t, domain.OpMerge, eff.Op)
	assert.Equal(t, []string{"details-1122"}, tree.VisibleIDs(state))
}

func TestBuilder_Up(t *testing.T) {
	b := New()
	stage := b.Stage("s")
	actor := stage.Actor("a")

	assert.Same(t, stage, actor.Up())
	assert.Nil(t, stage.Up())
}

func TestBuilder_Spec(t *testing.T) {
	tree, err := New().Spec("", NodeSpec{
		ID:   "review-screen",
		Role: "stage",
		Children: []NodeSpec{
			{ID: "confirm", Role: "actor", Setting: []string{"confirm-dialog"}, Children: []NodeSpec{
				{ID: "confirm-dialog-view", Role: "dialog", Setting: []string{"confirm-dialog"}},
			}},
		},
	}).Build()
	require.NoError(t, err)

	n, ok := tree.Node("confirm")
	require.True(t, ok)
	assert.Equal(t, domain.RoleActor, n.Role)
	assert.True(t, n.Setting.Has("confirm"), "actors always carry their own id")
	assert.Equal(t, "confirm", tree.Parent("confirm-dialog-view"))

	dialog, _ := tree.Node("confirm-dialog-view")
	assert.Equal(t, domain.RoleVignette, dialog.Role)
}

func TestBuilder_ReportsAllErrors(t *testing.T) {
	b := New()
	b.Stage("dup")
	b.Stage("dup")
	b.Spec("", NodeSpec{ID: "x", Role: "button"})

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidNode)
	assert.Contains(t, err.Error(), "dup")
	assert.Contains(t, err.Error(), "button")
}
