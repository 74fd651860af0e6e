// Package handlers implements the HTTP control and read surface for the
// viewer: connection status, camera list, ledger access, focus control,
// and JPEG snapshots of the composited surfaces.
//
// This surface is a collaborator of the stream engine, not part of it:
// it only reads the stores and invokes the two user actions the engine
// exposes (clear ledger, focus/unfocus a camera).
package handlers
