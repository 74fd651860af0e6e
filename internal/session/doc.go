// Package session persists the viewer's session state so that a restart
// within the same session shows no apparent loss.
//
// Two keyed JSON blobs are stored in a SQLite database under the state
// directory: the first-seen camera order and the identity match ledger.
// Both are written on every mutation and re-read once at cold start,
// before any live events arrive. Write failures are non-fatal: the
// in-memory stores remain authoritative for the running session.
package session
