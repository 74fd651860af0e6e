package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	"camwatch/internal/event"
	"camwatch/internal/logging"
	"camwatch/internal/metrics"
	"camwatch/internal/state"
)

const (
	// MaxFrameDimension is the largest frame width or height accepted.
	// Oversized frames are skipped like decode failures.
	MaxFrameDimension = 4096

	// snapshotQuality is the JPEG quality for surface snapshots.
	snapshotQuality = 85
)

// Overlay colors by display state.
var (
	colorTagAlert   = color.RGBA{R: 220, G: 40, B: 40, A: 255}  // flagged track
	colorTagNormal  = color.RGBA{R: 60, G: 200, B: 90, A: 255}  // post-alert track
	colorResolved   = color.RGBA{R: 70, G: 150, B: 240, A: 255} // identity known
	colorUnresolved = color.RGBA{R: 230, G: 200, B: 60, A: 255} // identity pending
	colorLabelText  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// surface is one camera's rendering target.
type surface struct {
	raster   *image.RGBA
	lastSeq  int64
	rendered time.Time
}

// Compositor owns the per-camera surfaces plus the focused mirror. Tag
// state is read synchronously from the TagStore during each render so
// overlays always reflect the latest set value.
type Compositor struct {
	mu       sync.Mutex
	tags     *state.TagStore
	surfaces map[string]*surface
	focused  string
	mirror   *image.RGBA
}

// New creates a Compositor reading tag state from tags.
func New(tags *state.TagStore) *Compositor {
	return &Compositor{
		tags:     tags,
		surfaces: make(map[string]*surface),
	}
}

// Render decodes a frame and composites it onto its camera's surface,
// mirroring to the focused surface when that camera is focused. Frames
// are rendered strictly in arrival order; the compositor never reorders
// or buffers ahead.
//
// The returned error is informational: the caller treats it as
// non-fatal, the previous raster stays displayed, and the next valid
// frame resumes rendering.
func (c *Compositor) Render(frame event.FrameRecord) error {
	start := time.Now()

	img, _, err := image.Decode(bytes.NewReader(frame.Image))
	if err != nil {
		metrics.FrameDecodeFailuresTotal.Inc()
		return fmt.Errorf("frame %d decode failed for camera %s: %w", frame.Sequence, frame.CameraID, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxFrameDimension || bounds.Dy() > MaxFrameDimension {
		metrics.FrameDecodeFailuresTotal.Inc()
		return fmt.Errorf("frame %d for camera %s exceeds %dpx limit (%dx%d)",
			frame.Sequence, frame.CameraID, MaxFrameDimension, bounds.Dx(), bounds.Dy())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.surfaces[frame.CameraID]
	if !ok {
		s = &surface{}
		c.surfaces[frame.CameraID] = s
	}

	// Reallocate the surface only when the frame dimensions change.
	if s.raster == nil || s.raster.Bounds().Dx() != bounds.Dx() || s.raster.Bounds().Dy() != bounds.Dy() {
		s.raster = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}

	draw.Draw(s.raster, s.raster.Bounds(), img, bounds.Min, draw.Src)

	for _, det := range frame.Detections {
		c.drawDetection(s.raster, det)
	}

	s.lastSeq = frame.Sequence
	s.rendered = time.Now()

	// Mirror to the focused surface from the just-rendered raster so
	// both surfaces show the identical frame.
	if c.focused == frame.CameraID {
		c.mirrorLocked(s)
	}

	metrics.FramesRenderedTotal.WithLabelValues(frame.CameraID).Inc()
	metrics.FrameRenderDuration.Observe(time.Since(start).Seconds())
	return nil
}

// drawDetection draws one detection's overlays: the bounding box in the
// resolved display color, a tag indicator marker when a tag is present,
// and a label on a background sized to the measured text width.
func (c *Compositor) drawDetection(dst *image.RGBA, det event.FaceDetection) {
	tag, tagged := c.tags.Get(det.TrackerID)

	var col color.RGBA
	switch {
	case tagged && tag == event.TagAlert:
		col = colorTagAlert
	case tagged && tag == event.TagNormal:
		col = colorTagNormal
	case det.Resolved():
		col = colorResolved
	default:
		col = colorUnresolved
	}

	box := clampBox(det.Box, dst.Bounds())
	drawRectOutline(dst, box, col, 2)

	if tagged {
		drawTagMarker(dst, box, col)
	}

	label := det.SubjectID
	if label == "" {
		label = "unresolved"
	}
	drawLabel(dst, box, label, col)
}

// SetFocus marks a camera as focused and immediately repaints the
// focused surface from that camera's most recent raster, if any.
func (c *Compositor) SetFocus(cameraID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.focused = cameraID
	c.mirror = nil
	if s, ok := c.surfaces[cameraID]; ok && s.raster != nil {
		c.mirrorLocked(s)
	}
	logging.Debug("Focused camera: %s", cameraID)
}

// ClearFocus removes the focused camera.
func (c *Compositor) ClearFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = ""
	c.mirror = nil
}

// Focused returns the currently focused camera ID, if any.
func (c *Compositor) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// mirrorLocked copies a surface's raster to the focused mirror. Uses
// imaging.Clone semantics via a straight pixel copy; the source raster
// is never shared so the two surfaces update atomically.
func (c *Compositor) mirrorLocked(s *surface) {
	b := s.raster.Bounds()
	if c.mirror == nil || c.mirror.Bounds() != b {
		c.mirror = image.NewRGBA(b)
	}
	copy(c.mirror.Pix, s.raster.Pix)
}

// Snapshot returns the current raster for a camera, JPEG-encoded.
// Returns false if the camera has no rendered frame yet.
func (c *Compositor) Snapshot(cameraID string) ([]byte, bool) {
	c.mu.Lock()
	s, ok := c.surfaces[cameraID]
	if !ok || s.raster == nil {
		c.mu.Unlock()
		return nil, false
	}
	clone := imaging.Clone(s.raster)
	c.mu.Unlock()

	return encodeJPEG(clone), true
}

// FocusedSnapshot returns the focused surface, JPEG-encoded. Returns
// false when no camera is focused or the focused camera has not
// rendered yet.
func (c *Compositor) FocusedSnapshot() ([]byte, bool) {
	c.mu.Lock()
	if c.focused == "" || c.mirror == nil {
		c.mu.Unlock()
		return nil, false
	}
	clone := imaging.Clone(c.mirror)
	c.mu.Unlock()

	return encodeJPEG(clone), true
}

// LastSequence returns the sequence number of the last rendered frame
// for a camera, or false if none has been rendered.
func (c *Compositor) LastSequence(cameraID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.surfaces[cameraID]
	if !ok || s.raster == nil {
		return 0, false
	}
	return s.lastSeq, true
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: snapshotQuality}); err != nil {
		logging.Error("snapshot encode failed: %v", err)
		return nil
	}
	return buf.Bytes()
}
