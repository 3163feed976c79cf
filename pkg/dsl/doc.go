/*
Package dsl provides a fluent builder for the interaction tree of a QRET screen.

It lets hosts declare stages, actors and vignettes in Go (or from a declarative
NodeSpec list, as loaded from YAML fixtures) instead of assembling a domain.Tree
by hand. Parent links come from the call chain, so the bubbling path of every
node is fixed by construction.

Example usage:

	b := dsl.New()

	items := b.Stage("items-screen")
	row := items.Actor("item-1122")
	row.Vignette("keypad-1122", "item-1122")
	row.Actor("refund-1122").Keys(domain.Namespaced("refund-details", "1122"))

	tree, err := b.Build()
	if err != nil {
		return err
	}
	// ... pass tree to qret.New(qret.WithTree(tree))
*/
package dsl
