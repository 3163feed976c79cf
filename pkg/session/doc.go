/*
Package session implements session management and persistence orchestration.

A Manager owns the load → apply → save cycle of every return session: it
serialises operations on one session (a ref-counted local mutex, plus an
optional distributed lock across replicas), rebuilds the screen from the
stored snapshot, applies the operation through the stores, validates phase
exits with an optional guard, persists a full new snapshot and finally fires
the observability hooks.
*/
package session
