// Package stream owns the connection lifecycle and the event dispatch
// loop: connect, subscribe the topics, feed the stores and the
// compositor, detect loss, back off, retry forever.
//
// No transport error is fatal. A failed connect attempt and a
// post-connect disconnect take the same path: transition to
// reconnecting, sleep the current backoff, retry. The backoff grows by
// half each attempt up to a ceiling and resets on a successful connect.
// The only way out of the loop is cancellation of the run context, and
// none of the stores is reset on any of these transitions.
package stream
