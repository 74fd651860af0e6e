// Package event provides shared type definitions for the camwatch event
// stream: frame records, face detections, identity matches, tag requests,
// and alert signals.
//
// This package exists as a dependency-free foundation that can be imported
// by other packages without creating import cycles. It contains only the
// wire-level payload types, their topic names, and pure helpers with no
// dependencies beyond the standard library.
package event
