package workflow

import (
	"testing"
	"time"
)

// NOTE: These tests are intentionally DB-free. They validate the retry
// schedule semantics of the dispatcher. Full DB+PubSub integration tests
// require MySQL and a Pub/Sub emulator.

func TestBackoffForAttempt_DoublesAndCaps(t *testing.T) {
	d := &OutboxDispatcher{InitialBackoff: 5 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{5, 80 * time.Second},
		{8, 640 * time.Second},
		{9, 10 * time.Minute},
		{20, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := d.backoffForAttempt(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoffForAttempt_FirstAttemptUsesInitial(t *testing.T) {
	d := &OutboxDispatcher{InitialBackoff: 2 * time.Second}
	if got := d.backoffForAttempt(0); got != 2*time.Second {
		t.Errorf("attempt 0: got %v, want 2s", got)
	}
	if got := d.backoffForAttempt(1); got != 2*time.Second {
		t.Errorf("attempt 1: got %v, want 2s", got)
	}
}
