package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/qret/pkg/domain"
)

// Builder collects node declarations in order and compiles them into a tree.
type Builder struct {
	nodes []*NodeBuilder
	errs  []error
}

// New creates a new screen builder.
func New() *Builder {
	return &Builder{}
}

// Stage declares a root stage.
func (b *Builder) Stage(id string, keys ...string) *NodeBuilder {
	return b.add("", domain.NewStage(id, keys...))
}

// Actor declares a root actor.
func (b *Builder) Actor(id string, keys ...string) *NodeBuilder {
	return b.add("", domain.NewActor(id, keys...))
}

func (b *Builder) add(parentID string, n domain.Node) *NodeBuilder {
	nb := &NodeBuilder{node: n, parentID: parentID, builder: b}
	b.nodes = append(b.nodes, nb)
	return nb
}

// Spec declares every node of specs (and their children) under parentID.
func (b *Builder) Spec(parentID string, specs ...NodeSpec) *Builder {
	for _, s := range specs {
		role, err := domain.ParseRole(s.Role)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("node %q: %w", s.ID, err))
			continue
		}
		var n domain.Node
		switch role {
		case domain.RoleStage:
			n = domain.NewStage(s.ID, s.Setting...)
		case domain.RoleActor:
			n = domain.NewActor(s.ID, s.Setting...)
		default:
			n = domain.NewVignette(s.ID, s.Setting...)
		}
		b.add(parentID, n)
		b.Spec(s.ID, s.Children...)
	}
	return b
}

// Build compiles the declarations into a domain.Tree. All declaration
// errors are reported together.
func (b *Builder) Build() (*domain.Tree, error) {
	errs := append([]error(nil), b.errs...)
	tree := domain.NewTree()
	for _, nb := range b.nodes {
		if err := tree.Add(nb.parentID, nb.node); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build screen: %w", errors.Join(errs...))
	}
	return tree, nil
}
