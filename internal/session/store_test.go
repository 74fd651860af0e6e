package session

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"camwatch/internal/event"
)

func newTestStore(t *testing.T, includeThumbnails bool) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "session.db")
	s, err := New(context.Background(), dbPath, includeThumbnails)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return s
}

func TestStoreCamerasRoundTrip(t *testing.T) {
	s := newTestStore(t, true)

	want := []string{"cam-01", "cam-02", "cam-03"}
	if err := s.SaveCameras(want); err != nil {
		t.Fatalf("SaveCameras() failed: %v", err)
	}

	got, err := s.LoadCameras()
	if err != nil {
		t.Fatalf("LoadCameras() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadCameras() = %v, want %v", got, want)
	}
}

func TestStoreLoadMissingBlobs(t *testing.T) {
	s := newTestStore(t, true)

	cameras, err := s.LoadCameras()
	if err != nil {
		t.Fatalf("LoadCameras() on empty store failed: %v", err)
	}
	if len(cameras) != 0 {
		t.Errorf("LoadCameras() = %v, want empty", cameras)
	}

	records, err := s.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger() on empty store failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadLedger() = %v, want empty", records)
	}
}

func TestStoreLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t, true)

	observed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	want := []event.MatchRecord{
		{SubjectID: "P2", TrackerID: 8, Confidence: 0.91, Thumbnail: []byte{0xFF, 0xD8}, ObservedAt: observed},
		{SubjectID: "P1", TrackerID: 7, Confidence: 0.811, ObservedAt: observed},
	}
	if err := s.SaveLedger(want); err != nil {
		t.Fatalf("SaveLedger() failed: %v", err)
	}

	got, err := s.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadLedger() = %+v, want %+v", got, want)
	}
}

func TestStoreLedgerStripsThumbnails(t *testing.T) {
	s := newTestStore(t, false)

	records := []event.MatchRecord{
		{SubjectID: "P1", TrackerID: 7, Confidence: 0.8, Thumbnail: []byte{1, 2, 3}},
	}
	if err := s.SaveLedger(records); err != nil {
		t.Fatalf("SaveLedger() failed: %v", err)
	}

	// The caller's slice is untouched.
	if records[0].Thumbnail == nil {
		t.Error("SaveLedger mutated the caller's records")
	}

	got, err := s.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger() failed: %v", err)
	}
	if len(got) != 1 || got[0].Thumbnail != nil {
		t.Errorf("persisted record kept its thumbnail: %+v", got)
	}
}

func TestStoreOverwriteKeepsLatest(t *testing.T) {
	s := newTestStore(t, true)

	if err := s.SaveCameras([]string{"cam-01"}); err != nil {
		t.Fatalf("SaveCameras() failed: %v", err)
	}
	if err := s.SaveCameras([]string{"cam-01", "cam-02"}); err != nil {
		t.Fatalf("SaveCameras() failed: %v", err)
	}

	got, err := s.LoadCameras()
	if err != nil {
		t.Fatalf("LoadCameras() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("LoadCameras() = %v, want 2 cameras", got)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")

	s, err := New(context.Background(), dbPath, true)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.SaveCameras([]string{"cam-01", "cam-02"}); err != nil {
		t.Fatalf("SaveCameras() failed: %v", err)
	}
	if err := s.SaveLedger([]event.MatchRecord{{SubjectID: "P1", TrackerID: 1, Confidence: 0.7}}); err != nil {
		t.Fatalf("SaveLedger() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Cold start: the same path rehydrates both blobs.
	s2, err := New(context.Background(), dbPath, true)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() {
		if err := s2.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	}()

	cameras, err := s2.LoadCameras()
	if err != nil {
		t.Fatalf("LoadCameras() after reopen failed: %v", err)
	}
	if len(cameras) != 2 {
		t.Errorf("cameras after reopen = %v, want 2", cameras)
	}

	records, err := s2.LoadLedger()
	if err != nil {
		t.Fatalf("LoadLedger() after reopen failed: %v", err)
	}
	if len(records) != 1 || records[0].SubjectID != "P1" {
		t.Errorf("ledger after reopen = %+v, want P1", records)
	}
}
