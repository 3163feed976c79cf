package domain

import "fmt"

// Tree indexes the nodes of one screen by id and remembers who encloses whom,
// so a host can turn a clicked id into the bubbling path Dispatch expects.
type Tree struct {
	nodes  map[string]Node
	parent map[string]string
	order  []string
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes:  make(map[string]Node),
		parent: make(map[string]string),
	}
}

// Add registers n under parentID. An empty parentID makes n a root.
func (t *Tree) Add(parentID string, n Node) error {
	if n.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidNode)
	}
	if _, exists := t.nodes[n.ID]; exists {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidNode, n.ID)
	}
	if parentID != "" {
		if _, ok := t.nodes[parentID]; !ok {
			return fmt.Errorf("%w: parent %q of %q", ErrUnknownNode, parentID, n.ID)
		}
	}
	t.nodes[n.ID] = n
	t.parent[n.ID] = parentID
	t.order = append(t.order, n.ID)
	return nil
}

// Node returns the node registered under id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Parent returns the id of the node enclosing id ("" for roots).
func (t *Tree) Parent(id string) string {
	return t.parent[id]
}

// Nodes returns every node in registration order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Children returns the direct children of id in registration order.
func (t *Tree) Children(id string) []Node {
	var out []Node
	for _, cid := range t.order {
		if t.parent[cid] == id {
			out = append(out, t.nodes[cid])
		}
	}
	return out
}

// Path returns targetID and its ancestors, innermost first.
func (t *Tree) Path(targetID string) ([]Node, error) {
	if _, ok := t.nodes[targetID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, targetID)
	}
	var path []Node
	for id := targetID; id != ""; id = t.parent[id] {
		path = append(path, t.nodes[id])
	}
	return path, nil
}

// Click resolves targetID to its path and dispatches the click.
func (t *Tree) Click(state TransientState, targetID string) (TransientState, Effect, error) {
	path, err := t.Path(targetID)
	if err != nil {
		return state, Effect{Op: OpNone}, err
	}
	next, eff := Dispatch(state, Click{TargetID: targetID}, path...)
	return next, eff, nil
}

// VisibleIDs lists the vignettes currently shown for state, in registration order.
func (t *Tree) VisibleIDs(state TransientState) []string {
	var ids []string
	for _, id := range t.order {
		n := t.nodes[id]
		if n.Role == RoleVignette && Visible(n, state) {
			ids = append(ids, id)
		}
	}
	return ids
}
