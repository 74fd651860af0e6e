// Package state owns the viewer's session state: the decaying per-tracker
// tag store, the deduplicated identity ledger, the first-seen camera
// registry, and the global alert level.
//
// All stores are mutated from the stream dispatch goroutine and read
// concurrently by the compositor and the HTTP surface, so each store
// guards its data with a mutex. None of the stores is tied to the
// connection lifecycle: reconnects never reset them.
package state
