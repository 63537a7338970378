package bufpool

import "testing"

func TestGetReturnsExactSize(t *testing.T) {
	p := New(1024)
	buf := p.Get()
	if len(buf) != 1024 {
		t.Errorf("Get() len = %d, want 1024", len(buf))
	}
}

func TestPutGetReuse(t *testing.T) {
	p := New(512)
	buf := p.Get()
	buf[0] = 0xAA
	p.Put(buf)

	again := p.Get()
	if len(again) != 512 {
		t.Errorf("reused buffer len = %d, want 512", len(again))
	}
}

func TestPutUndersizedDiscarded(t *testing.T) {
	p := New(256)
	p.Put(make([]byte, 16)) // must not poison the pool
	if buf := p.Get(); len(buf) != 256 {
		t.Errorf("Get() after undersized Put len = %d, want 256", len(buf))
	}
}

func TestNewPanicsOnInvalidSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	New(0)
}
