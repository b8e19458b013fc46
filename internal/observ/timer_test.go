package observ

import (
	"sync"
	"testing"
	"time"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)

	endCook := tm.Begin("cook")
	endCook("bytes=42")
	endLocate := tm.Begin("locate")
	endLocate("")
	endLocate("ignored")

	want := "timings:\n" +
		"  cook             1.00 ms  // bytes=42\n" +
		"  locate           1.00 ms\n" +
		"  total            2.00 ms\n"
	if got := tm.Summary(); got != want {
		t.Fatalf("Summary:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Begin("worker")("")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("phases = %d, want 8", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Begin("x")("note")
	if r := tm.Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("nil timer report = %+v", r)
	}
}
