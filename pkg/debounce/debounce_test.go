package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalesces(t *testing.T) {
	d := New(30 * time.Millisecond)
	var runs atomic.Int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() { runs.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestTriggerRunsAgainAfterWindow(t *testing.T) {
	d := New(10 * time.Millisecond)
	var runs atomic.Int32

	d.Trigger(func() { runs.Add(1) })
	time.Sleep(50 * time.Millisecond)
	d.Trigger(func() { runs.Add(1) })
	time.Sleep(50 * time.Millisecond)

	if got := runs.Load(); got != 2 {
		t.Errorf("callback ran %d times, want 2", got)
	}
}

func TestCancelDropsPending(t *testing.T) {
	d := New(20 * time.Millisecond)
	var runs atomic.Int32

	d.Trigger(func() { runs.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("callback ran %d times after Cancel, want 0", got)
	}
}

func TestZeroWaitUsesDefault(t *testing.T) {
	d := New(0)
	if d.Wait() != DefaultWait {
		t.Errorf("Wait = %v, want %v", d.Wait(), DefaultWait)
	}
}
