/*
Package ports defines the driven ports (interfaces) of QRET.

These interfaces decouple the core from external collaborators, so the same
session manager works with any storage backend, catalog source or invoice
backend.

# Key Interfaces

  - Catalog: the price authority consulted by the derivation engine.
  - InvoiceSource: search and lookup of sold invoices (search / fast-fill).
  - SnapshotStore: persistence of session snapshots between requests.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
