package state

import (
	"reflect"
	"testing"
)

func TestRegistryObserveAppendsInOrder(t *testing.T) {
	r := NewCameraRegistry(nil)

	r.Observe("cam-b")
	r.Observe("cam-a")
	r.Observe("cam-c")

	want := []string{"cam-b", "cam-a", "cam-c"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v (first-seen order)", got, want)
	}
}

func TestRegistryObserveIsIdempotent(t *testing.T) {
	r := NewCameraRegistry(nil)

	r.Observe("cam-a")
	once := r.List()

	r.Observe("cam-a")
	twice := r.List()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second Observe changed registry: %v -> %v", once, twice)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistryPersistOnlyOnNewCamera(t *testing.T) {
	calls := 0
	r := NewCameraRegistry(func([]string) { calls++ })

	r.Observe("cam-a")
	r.Observe("cam-a")
	r.Observe("cam-b")

	if calls != 2 {
		t.Errorf("persist calls = %d, want 2", calls)
	}
}

func TestRegistryRehydrate(t *testing.T) {
	calls := 0
	r := NewCameraRegistry(func([]string) { calls++ })

	r.Rehydrate([]string{"cam-a", "cam-b", "cam-a", ""})

	want := []string{"cam-a", "cam-b"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if calls != 0 {
		t.Errorf("Rehydrate triggered %d persists, want 0", calls)
	}

	// Live observation after rehydrate appends, and known IDs stay put.
	r.Observe("cam-b")
	r.Observe("cam-c")
	want = []string{"cam-a", "cam-b", "cam-c"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() after observe = %v, want %v", got, want)
	}
}

func TestRegistryIgnoresEmptyID(t *testing.T) {
	r := NewCameraRegistry(nil)
	r.Observe("")
	if r.Len() != 0 {
		t.Errorf("Len() = %d after empty observe, want 0", r.Len())
	}
}
