package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/qret/pkg/dsl"
)

func TestValidateTree(t *testing.T) {
	// 1. Valid screen: every vignette key is set by an actor
	b := dsl.New()
	items := b.Stage("items")
	row := items.Actor("row")
	row.Vignette("keypad", "row")
	items.Vignette("banner")
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := ValidateTree(tree); err != nil {
		t.Errorf("Expected valid tree, got error: %v", err)
	}

	// 2. Broken screen: a vignette waits for a key nobody sets
	b = dsl.New()
	b.Stage("items").Vignette("details", "refund-details-1122")
	tree, err = b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	err = ValidateTree(tree)
	if err == nil {
		t.Fatal("Expected error for unreachable vignette, got nil")
	}
	if !strings.Contains(err.Error(), "refund-details-1122") {
		t.Errorf("Expected error to name the key, got: %v", err)
	}

	if err := ValidateTree(nil); err != nil {
		t.Errorf("nil tree should be valid, got %v", err)
	}
}

type sample struct {
	Name  string `validate:"required"`
	Kind  string `validate:"oneof=memory file"`
	Inner struct {
		Port int `validate:"min=1"`
	}
}

func TestStruct(t *testing.T) {
	s := sample{Kind: "disk"}
	err := Struct(s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"name is required", "kind must be one of: memory file", "inner.port must be at least 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %q", want, err.Error())
		}
	}

	s = sample{Name: "x", Kind: "file"}
	s.Inner.Port = 8080
	if err := Struct(s); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
