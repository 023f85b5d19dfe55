package main

import "testing"

type fakeControls struct {
	next, prev int
	muted      [3]bool
}

func (f *fakeControls) NextTune() { f.next++ }
func (f *fakeControls) PrevTune() { f.prev++ }

func (f *fakeControls) ToggleMute(voice int) bool {
	f.muted[voice] = !f.muted[voice]
	return f.muted[voice]
}

func TestHandleKey(t *testing.T) {
	c := &fakeControls{}

	for _, b := range []byte("nn+p2x") {
		if handleKey(b, c) {
			t.Fatalf("key %q should not quit", b)
		}
	}
	if c.next != 3 || c.prev != 1 {
		t.Fatalf("expected 3 next and 1 prev, got %d and %d", c.next, c.prev)
	}
	if c.muted != [3]bool{false, true, false} {
		t.Fatalf("expected voice 2 muted, got %v", c.muted)
	}

	for _, b := range []byte{'q', 0x03} {
		if !handleKey(b, c) {
			t.Fatalf("key %q should quit", b)
		}
	}
}
