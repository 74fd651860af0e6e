// Package transport wraps the NATS connection behind the small surface
// the stream client needs: connect, subscribe-by-topic, a closed
// notification, and close.
//
// The adapter deliberately disables the NATS client's own reconnect
// machinery; connection lifecycle (backoff, retry, re-subscribe) is
// owned by the stream package so that one component decides what a
// disconnect means. The adapter holds no business state.
package transport
