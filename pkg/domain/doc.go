/*
Package domain contains the core model of a QRET return transaction.

It is pure: no I/O, no persistence, no clocks other than the timestamps callers
pass in. Everything here is a value; operations return new values instead of
mutating their receivers.

# Key Entities

  - Setting / TransientState: the flat set of active UI keys for a screen.
  - Node: a Stage, Actor or Vignette, with Dispatch implementing click bubbling.
  - Transaction: the phase, receipted invoices and return items of a return.
  - Atom: one priced run of returned units, produced by Derive and summed by Aggregate.
  - Snapshot: the serialisable state of a session, compared with Diff.
*/
package domain
