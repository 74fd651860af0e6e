// Package compositor renders incoming frames onto per-camera surfaces.
//
// Each frame is decoded once, drawn with its detection overlays
// (bounding boxes, tag indicators, identity labels), and, when the
// frame's camera is the focused one, mirrored to the focused surface by
// copying the just-rendered raster. The mirror is a blit, never a
// second decode, so the two surfaces can never diverge for a frame.
//
// A decode failure skips only that frame: the previous raster stays on
// the surface and the next valid frame resumes rendering.
package compositor
