// Package middleware provides the HTTP middleware stack for the
// camwatch control surface: request logging and Prometheus metrics.
package middleware
