/*
Package store holds the owned, per-screen state containers.

TransientStore keeps the flat set of active UI keys. TransactionStore keeps the
phase, receipts and return items, and resets its TransientStore whenever the
phase changes. Screen bundles both with a catalog and an optional interaction
tree; it is the object a host creates per request (or per screen) and throws
away afterwards.

None of the containers are safe for concurrent use: the host serialises access
(see package session).
*/
package store
