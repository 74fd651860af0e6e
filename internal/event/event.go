package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topic names on the stream. Messages within a single topic arrive in
// delivery order; there is no ordering guarantee across topics.
const (
	TopicTrackerFrames = "frames.tracker"
	TopicRawFrames     = "frames.raw"
	TopicMatches       = "frames.matches"
	TopicColor         = "frames.color"
	TopicAlert         = "frames.alert"
)

// Topics lists every topic the viewer subscribes to.
func Topics() []string {
	return []string{
		TopicTrackerFrames,
		TopicRawFrames,
		TopicMatches,
		TopicColor,
		TopicAlert,
	}
}

// Tag is the transient decorative state attached to a tracker ID.
type Tag string

const (
	// TagAlert flags a tracked face; it decays back to TagNormal.
	TagAlert Tag = "alert"
	// TagNormal is the post-alert baseline for a tracked face.
	TagNormal Tag = "normal"
)

// AlertLevel is the process-wide alert state.
type AlertLevel string

const (
	// AlertClear is the baseline alert level.
	AlertClear AlertLevel = "clear"
	// AlertActive means the environment is currently on alert.
	AlertActive AlertLevel = "alert"
)

// BoundingBox locates a detection within a frame, in pixel coordinates.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceDetection is a single tracked face within a frame. TrackerID is
// stable for the lifetime of a physical track; SubjectID is populated
// only once identity resolution succeeds.
type FaceDetection struct {
	TrackerID int         `json:"trackerId"`
	SubjectID string      `json:"subjectId,omitempty"`
	Box       BoundingBox `json:"boundingBox"`
}

// Resolved reports whether identity resolution has succeeded for this
// detection.
func (d FaceDetection) Resolved() bool {
	return d.SubjectID != ""
}

// FrameRecord is one frame's worth of image data plus detections.
// Frames are ephemeral: each record supersedes the previous one for the
// same camera.
type FrameRecord struct {
	CameraID   string          `json:"cameraId"`
	Sequence   int64           `json:"sequenceNumber"`
	Image      []byte          `json:"image"`
	Detections []FaceDetection `json:"detections,omitempty"`
}

// MatchRecord is an identity-resolution result for a tracked face.
// SubjectID is the identity key: the ledger keeps at most one live
// record per subject.
type MatchRecord struct {
	SubjectID  string    `json:"subjectId"`
	TrackerID  int       `json:"trackerId"`
	Confidence float64   `json:"confidence"`
	Thumbnail  []byte    `json:"thumbnail,omitempty"`
	ObservedAt time.Time `json:"observedAt"`
}

// TagRequest asks the viewer to set a tag on a tracker ID.
type TagRequest struct {
	TrackerID int `json:"trackerId"`
	Tag       Tag `json:"tag"`
}

// AlertSignal carries a raw alert-level event.
type AlertSignal struct {
	Level AlertLevel `json:"level"`
}

// DecodeFrame parses a frame payload. A parse failure discards only the
// one message; callers continue with the next.
func DecodeFrame(data []byte) (FrameRecord, error) {
	var f FrameRecord
	if err := json.Unmarshal(data, &f); err != nil {
		return FrameRecord{}, fmt.Errorf("malformed frame payload: %w", err)
	}
	if f.CameraID == "" {
		return FrameRecord{}, fmt.Errorf("frame payload missing cameraId")
	}
	return f, nil
}

// DecodeMatch parses a match payload.
func DecodeMatch(data []byte) (MatchRecord, error) {
	var m MatchRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return MatchRecord{}, fmt.Errorf("malformed match payload: %w", err)
	}
	if m.SubjectID == "" {
		return MatchRecord{}, fmt.Errorf("match payload missing subjectId")
	}
	return m, nil
}

// DecodeTagRequest parses a tag-set payload.
func DecodeTagRequest(data []byte) (TagRequest, error) {
	var t TagRequest
	if err := json.Unmarshal(data, &t); err != nil {
		return TagRequest{}, fmt.Errorf("malformed tag payload: %w", err)
	}
	if t.Tag != TagAlert && t.Tag != TagNormal {
		return TagRequest{}, fmt.Errorf("unknown tag %q", t.Tag)
	}
	return t, nil
}

// DecodeAlertSignal parses an alert payload. Any level other than
// "alert" is treated as clear.
func DecodeAlertSignal(data []byte) (AlertSignal, error) {
	var a AlertSignal
	if err := json.Unmarshal(data, &a); err != nil {
		return AlertSignal{}, fmt.Errorf("malformed alert payload: %w", err)
	}
	if a.Level != AlertActive {
		a.Level = AlertClear
	}
	return a, nil
}
