package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"camwatch/internal/event"
	"camwatch/internal/state"
)

// encodeFrame produces an in-memory JPEG of the given size and fill.
func encodeFrame(t *testing.T, w, h int, fill color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func testFrame(t *testing.T, cameraID string, seq int64, detections ...event.FaceDetection) event.FrameRecord {
	t.Helper()
	return event.FrameRecord{
		CameraID:   cameraID,
		Sequence:   seq,
		Image:      encodeFrame(t, 320, 240, color.RGBA{R: 40, G: 40, B: 40, A: 255}),
		Detections: detections,
	}
}

func newTestCompositor(t *testing.T) (*Compositor, *state.TagStore) {
	t.Helper()
	tags := state.NewTagStore(time.Minute)
	t.Cleanup(tags.Stop)
	return New(tags), tags
}

func TestRenderSequence(t *testing.T) {
	c, _ := newTestCompositor(t)

	det := event.FaceDetection{
		TrackerID: 1,
		Box:       event.BoundingBox{X: 50, Y: 50, W: 60, H: 80},
	}

	for seq := int64(1); seq <= 5; seq++ {
		if err := c.Render(testFrame(t, "A", seq, det)); err != nil {
			t.Fatalf("Render(seq=%d) failed: %v", seq, err)
		}
	}

	seq, ok := c.LastSequence("A")
	if !ok || seq != 5 {
		t.Errorf("LastSequence = %d, %v, want 5, true", seq, ok)
	}

	data, ok := c.Snapshot("A")
	if !ok || len(data) == 0 {
		t.Fatal("Snapshot missing after render")
	}

	// The unresolved detection draws a yellowish border at the box edge.
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	r, g, b, _ := img.At(80, 50).RGBA()
	if r>>8 < 150 || g>>8 < 120 || b>>8 > 120 {
		t.Errorf("border pixel = (%d,%d,%d), want unresolved (yellowish)", r>>8, g>>8, b>>8)
	}
}

func TestRenderDecodeFailureHoldsLastFrame(t *testing.T) {
	c, _ := newTestCompositor(t)

	if err := c.Render(testFrame(t, "A", 1)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	before, ok := c.Snapshot("A")
	if !ok {
		t.Fatal("Snapshot missing after first render")
	}

	bad := event.FrameRecord{CameraID: "A", Sequence: 2, Image: []byte("not a jpeg")}
	if err := c.Render(bad); err == nil {
		t.Fatal("Render of malformed payload should report an error")
	}

	after, ok := c.Snapshot("A")
	if !ok {
		t.Fatal("Snapshot gone after decode failure")
	}
	if !bytes.Equal(before, after) {
		t.Error("decode failure must hold the last good raster")
	}
	if seq, _ := c.LastSequence("A"); seq != 1 {
		t.Errorf("LastSequence = %d after failed frame, want 1", seq)
	}
}

func TestRenderReusesSurfaceForSameDimensions(t *testing.T) {
	c, _ := newTestCompositor(t)

	if err := c.Render(testFrame(t, "A", 1)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	first := c.surfaces["A"].raster

	if err := c.Render(testFrame(t, "A", 2)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if c.surfaces["A"].raster != first {
		t.Error("same-size frame must reuse the surface raster")
	}

	// A different frame size forces reallocation.
	big := event.FrameRecord{
		CameraID: "A",
		Sequence: 3,
		Image:    encodeFrame(t, 640, 480, color.RGBA{R: 40, G: 40, B: 40, A: 255}),
	}
	if err := c.Render(big); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if c.surfaces["A"].raster == first {
		t.Error("resized frame must reallocate the surface raster")
	}
}

func TestFocusedMirrorMatchesSurface(t *testing.T) {
	c, _ := newTestCompositor(t)
	c.SetFocus("A")

	det := event.FaceDetection{TrackerID: 1, SubjectID: "P1", Box: event.BoundingBox{X: 10, Y: 10, W: 50, H: 50}}
	if err := c.Render(testFrame(t, "A", 1, det)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	normal, ok := c.Snapshot("A")
	if !ok {
		t.Fatal("Snapshot missing")
	}
	focused, ok := c.FocusedSnapshot()
	if !ok {
		t.Fatal("FocusedSnapshot missing")
	}
	if !bytes.Equal(normal, focused) {
		t.Error("focused surface must be frame-identical to the camera surface")
	}
}

func TestFocusRepaintsFromLastRaster(t *testing.T) {
	c, _ := newTestCompositor(t)

	if err := c.Render(testFrame(t, "A", 1)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Focusing after the fact repaints the mirror without a new frame.
	c.SetFocus("A")
	focused, ok := c.FocusedSnapshot()
	if !ok {
		t.Fatal("FocusedSnapshot missing after late focus")
	}
	normal, _ := c.Snapshot("A")
	if !bytes.Equal(normal, focused) {
		t.Error("late focus must repaint from the most recent raster")
	}
}

func TestUnfocusedCameraDoesNotMirror(t *testing.T) {
	c, _ := newTestCompositor(t)
	c.SetFocus("B")

	if err := c.Render(testFrame(t, "A", 1)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if _, ok := c.FocusedSnapshot(); ok {
		t.Error("frames for an unfocused camera must not reach the focused surface")
	}

	c.ClearFocus()
	if got := c.Focused(); got != "" {
		t.Errorf("Focused() = %q after ClearFocus, want empty", got)
	}
}

func TestRenderTagColorPriority(t *testing.T) {
	c, tags := newTestCompositor(t)
	tags.Set(5, event.TagAlert)

	// Resolved subject, but the alert tag wins the display state.
	det := event.FaceDetection{TrackerID: 5, SubjectID: "P1", Box: event.BoundingBox{X: 100, Y: 80, W: 80, H: 80}}
	if err := c.Render(testFrame(t, "A", 1, det)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	data, _ := c.Snapshot("A")
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	r, g, b, _ := img.At(140, 80).RGBA()
	if r>>8 < 150 || g>>8 > 120 || b>>8 > 120 {
		t.Errorf("border pixel = (%d,%d,%d), want alert (reddish)", r>>8, g>>8, b>>8)
	}
}

func TestRenderOversizedFrameRejected(t *testing.T) {
	c, _ := newTestCompositor(t)

	frame := event.FrameRecord{
		CameraID: "A",
		Sequence: 1,
		Image:    encodeFrame(t, MaxFrameDimension+10, 8, color.RGBA{A: 255}),
	}
	if err := c.Render(frame); err == nil {
		t.Error("oversized frame must be rejected")
	}
	if _, ok := c.Snapshot("A"); ok {
		t.Error("rejected frame must not create a surface")
	}
}
