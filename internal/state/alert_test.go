package state

import (
	"testing"
	"time"

	"camwatch/internal/event"
)

func TestAlertReducerStartsClear(t *testing.T) {
	a := NewAlertReducer(time.Minute)
	defer a.Stop()

	if got := a.Level(); got != event.AlertClear {
		t.Errorf("Level() = %q, want clear", got)
	}
}

func TestAlertReducerRaisesAndReverts(t *testing.T) {
	a := NewAlertReducer(60 * time.Millisecond)
	defer a.Stop()

	a.OnSignal(event.AlertActive)
	if got := a.Level(); got != event.AlertActive {
		t.Fatalf("Level() = %q immediately after signal, want alert", got)
	}

	// Not before the window elapses.
	time.Sleep(30 * time.Millisecond)
	if got := a.Level(); got != event.AlertActive {
		t.Errorf("Level() = %q at half the window, want alert", got)
	}

	deadline := time.Now().Add(time.Second)
	for a.Level() != event.AlertClear {
		if time.Now().After(deadline) {
			t.Fatal("alert never reverted to clear")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAlertReducerRefreshExtendsWindow(t *testing.T) {
	a := NewAlertReducer(80 * time.Millisecond)
	defer a.Stop()

	a.OnSignal(event.AlertActive)
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		a.OnSignal(event.AlertActive)
	}

	if got := a.Level(); got != event.AlertActive {
		t.Errorf("Level() = %q after refreshes, want alert", got)
	}
}

func TestAlertReducerClearSignalAppliesImmediately(t *testing.T) {
	a := NewAlertReducer(time.Minute)
	defer a.Stop()

	a.OnSignal(event.AlertActive)
	a.OnSignal(event.AlertClear)

	if got := a.Level(); got != event.AlertClear {
		t.Errorf("Level() = %q after clear signal, want clear", got)
	}

	// The cancelled revert timer must not fire later.
	time.Sleep(50 * time.Millisecond)
	if got := a.Level(); got != event.AlertClear {
		t.Errorf("Level() = %q, want clear", got)
	}
}
