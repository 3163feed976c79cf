/*
Package qret is the core of a retail returns workstation.

A cashier processing a return walks a screen of nodes. Stages and actors
switch transient UI keys on and off; vignettes appear while the keys they
wait for are all active. Alongside that view state the session carries a
transaction with two slots, the receipts presented by the customer and the
quantities selected for return. The refund is derived from the transaction
by allocating each returned unit to a receipt line and pricing the rest at
catalog value.

# Architecture

The domain (pkg/domain) is pure. Stores (pkg/store) own the transient and
transaction state of one screen, the session manager (pkg/session) persists
snapshots through a ports.SnapshotStore and serializes commands per session.
Adapters expose the manager over HTTP (pkg/adapters/http) and the Model
Context Protocol (pkg/adapters/mcp), and back it with memory, file or redis
storage and fixture, Loam or spreadsheet catalogs.

# Usage

	app, err := qret.New(ctx, qret.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	snap, err := app.Sessions.Start(ctx, "register-1")
	if err != nil {
		log.Fatal(err)
	}
	inv, _ := app.Invoices.Find(ctx, "INV-2001")
	snap, _ = app.Sessions.AddInvoice(ctx, snap.SessionID, inv)
	snap, _ = app.Sessions.SetQuantity(ctx, snap.SessionID, "1122", 2)

	summary, _ := app.Sessions.Refund(ctx, snap.SessionID)
	fmt.Println(summary.TotalValueCents)
*/
package qret
