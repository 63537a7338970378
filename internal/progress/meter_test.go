package progress

import (
	"testing"
	"time"
)

func TestMeterPercent(t *testing.T) {
	m := NewMeter()
	m.Start(1000)
	m.Add(250)
	s := m.Snapshot()
	if s.BytesDone != 250 || s.Total != 1000 {
		t.Errorf("snapshot = %+v, want 250/1000", s)
	}
	if s.Percent != 25 {
		t.Errorf("Percent = %v, want 25", s.Percent)
	}
}

func TestMeterRate(t *testing.T) {
	clock := time.Unix(0, 0)
	m := NewMeterWithNow(func() time.Time { return clock })
	m.Start(1 << 20)

	clock = clock.Add(time.Second)
	m.Add(1024)

	s := m.Snapshot()
	if s.RateBps != 1024 {
		t.Errorf("RateBps = %v, want 1024", s.RateBps)
	}
}

func TestMeterIgnoresNonPositive(t *testing.T) {
	m := NewMeter()
	m.Start(100)
	m.Add(0)
	m.Add(-5)
	if s := m.Snapshot(); s.BytesDone != 0 {
		t.Errorf("BytesDone = %d, want 0", s.BytesDone)
	}
}

func TestMeterZeroTotal(t *testing.T) {
	m := NewMeter()
	m.Start(0)
	m.Add(10)
	if s := m.Snapshot(); s.Percent != 0 {
		t.Errorf("Percent = %v, want 0 for zero total", s.Percent)
	}
}
