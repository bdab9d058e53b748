package game

import (
	"testing"
	"time"
)

func TestTickerSchedulerDeliversToOps(t *testing.T) {
	ops := make(chan func(), 16)
	s := NewTickerScheduler(ops)

	ticks := 0
	if !s.Start(1, time.Millisecond, func() { ticks++ }) {
		t.Fatal("first start should succeed")
	}
	if s.Start(1, time.Millisecond, func() {}) {
		t.Error("second start for the same match should be refused")
	}

	for i := 0; i < 3; i++ {
		select {
		case op := <-ops:
			op()
		case <-time.After(time.Second):
			t.Fatal("no tick delivered")
		}
	}
	if ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", ticks)
	}
	if !s.Running(1) {
		t.Error("task should be running")
	}
}

func TestTickerSchedulerStopIsIdempotent(t *testing.T) {
	ops := make(chan func())
	s := NewTickerScheduler(ops)
	s.Start(1, time.Millisecond, func() {})

	if !s.Stop(1) {
		t.Error("first stop should report a running task")
	}
	if s.Stop(1) {
		t.Error("second stop should be a no-op")
	}
	if s.Running(1) || s.Len() != 0 {
		t.Error("task should be gone")
	}

	// The stopped task must not deliver anything further.
	select {
	case <-ops:
		t.Error("tick delivered after stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTickerSchedulerStopAll(t *testing.T) {
	s := NewTickerScheduler(make(chan func()))
	s.Start(1, time.Millisecond, func() {})
	s.Start(2, time.Millisecond, func() {})

	s.StopAll()
	if s.Len() != 0 {
		t.Errorf("expected no tasks, got %d", s.Len())
	}
}
