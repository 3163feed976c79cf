package dsl

import "github.com/aretw0/qret/pkg/domain"

// NodeSpec is the declarative form of a node, as found in fixture files.
type NodeSpec struct {
	ID       string     `json:"id" yaml:"id"`
	Role     string     `json:"role" yaml:"role"`
	Setting  []string   `json:"setting,omitempty" yaml:"setting,omitempty"`
	Children []NodeSpec `json:"children,omitempty" yaml:"children,omitempty"`
}

// NodeBuilder provides a fluent API for configuring a node and declaring
// the nodes it encloses.
type NodeBuilder struct {
	node     domain.Node
	parentID string
	builder  *Builder
}

// Keys adds keys to the node's setting.
func (n *NodeBuilder) Keys(keys ...string) *NodeBuilder {
	n.node.Setting = n.node.Setting.With(keys...)
	return n
}

// Stage declares a nested stage inside this node.
func (n *NodeBuilder) Stage(id string, keys ...string) *NodeBuilder {
	return n.builder.add(n.node.ID, domain.NewStage(id, keys...))
}

// Actor declares an actor inside this node.
func (n *NodeBuilder) Actor(id string, keys ...string) *NodeBuilder {
	return n.builder.add(n.node.ID, domain.NewActor(id, keys...))
}

// Vignette declares a vignette inside this node. It returns the vignette's
// builder; vignettes may still enclose actors (e.g. a dialog's buttons).
func (n *NodeBuilder) Vignette(id string, keys ...string) *NodeBuilder {
	return n.builder.add(n.node.ID, domain.NewVignette(id, keys...))
}

// Up returns the builder of the enclosing node, or nil at a root.
func (n *NodeBuilder) Up() *NodeBuilder {
	for _, nb := range n.builder.nodes {
		if nb.node.ID == n.parentID {
			return nb
		}
	}
	return nil
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
