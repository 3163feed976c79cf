package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role selects how a node takes part in click handling.
type Role int

const (
	// RoleStage replaces the transient state with its own setting when
	// clicked on its own boundary.
	RoleStage Role = iota + 1
	// RoleActor merges its own setting into the transient state and stops
	// the click from reaching enclosing nodes.
	RoleActor
	// RoleVignette never handles clicks. It is visible only while all of
	// its keys are active.
	RoleVignette
)

func (r Role) String() string {
	switch r {
	case RoleStage:
		return "stage"
	case RoleActor:
		return "actor"
	case RoleVignette:
		return "vignette"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a role name back to a Role. "dialog" is accepted for vignettes.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stage":
		return RoleStage, nil
	case "actor":
		return RoleActor, nil
	case "vignette", "dialog":
		return RoleVignette, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidNode, s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Node is one interactive element of a screen. Its Setting is fixed at
// construction and never consulted by other nodes.
type Node struct {
	ID      string  `json:"id"`
	Role    Role    `json:"role"`
	Setting Setting `json:"setting"`
}

// NewStage declares a stage. With no keys a click closes everything.
func NewStage(id string, keys ...string) Node {
	return Node{ID: id, Role: RoleStage, Setting: NewSetting(keys...)}
}

// NewActor declares an actor. Its setting always contains its own id on top
// of the keys it inherits from the enclosing node.
func NewActor(id string, parentKeys ...string) Node {
	return Node{ID: id, Role: RoleActor, Setting: NewSetting(parentKeys...).With(id)}
}

// NewVignette declares a passive node shown while every key is active.
func NewVignette(id string, keys ...string) Node {
	return Node{ID: id, Role: RoleVignette, Setting: NewSetting(keys...)}
}

// Op describes the transient-state transition a click produced.
type Op string

const (
	OpNone    Op = "none"
	OpReplace Op = "replace"
	OpMerge   Op = "merge"
)

// Click identifies the node the user clicked on.
type Click struct {
	TargetID string `json:"target_id"`
}

// Effect reports which node handled a click and how.
type Effect struct {
	NodeID string `json:"node_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
	Op     Op     `json:"op"`
}

// Dispatch applies a click to state. path lists the nodes enclosing the
// click target, innermost first, the way a DOM event bubbles.
//
// Actors merge their setting plus their own id and stop propagation. Stages only react when they are the
// click target themselves. Vignettes are skipped.
func Dispatch(state TransientState, click Click, path ...Node) (TransientState, Effect) {
	for _, n := range path {
		switch n.Role {
		case RoleActor:
			return state.MergeAdd(n.Setting.With(n.ID)), Effect{NodeID: n.ID, Role: n.Role, Op: OpMerge}
		case RoleStage:
			if n.ID == click.TargetID {
				return state.Replace(n.Setting), Effect{NodeID: n.ID, Role: n.Role, Op: OpReplace}
			}
		}
	}
	return state, Effect{Op: OpNone}
}

// Visible reports whether every key of n's setting is active. A node that
// declares no keys is always visible.
func Visible(n Node, state TransientState) bool {
	for k := range n.Setting {
		if !state.IsActive(k) {
			return false
		}
	}
	return true
}
