package eventqueue

import "testing"

func TestWireRoundTripRedraw(t *testing.T) {
	e := Redraw()
	got, err := FromWire(e.ToWire())
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if got != e {
		t.Fatalf("round trip = %+v, want %+v", got, e)
	}
}

func TestWireRoundTripKeys(t *testing.T) {
	for _, k := range []KeyCode{KeyUp, KeyDown, KeyLeft, KeyRight, KeyOK, Key0, Key5, Key9, KeyHash, KeyStar} {
		for _, mk := range []func(KeyCode) Event{KeyDownEvent, KeyUpEvent} {
			e := mk(k)
			got, err := FromWire(e.ToWire())
			if err != nil {
				t.Fatalf("FromWire(%v): %v", e, err)
			}
			if got != e {
				t.Fatalf("round trip %+v = %+v", e, got)
			}
		}
	}
}

func TestFromWireRejectsGarbage(t *testing.T) {
	if _, err := FromWire([4]int32{99, 0, 0, 0}); err == nil {
		t.Fatalf("expected error for unrecognized event kind")
	}
}

func TestQueueFIFO(t *testing.T) {
	q := New()
	q.Push(Redraw())
	q.Push(KeyDownEvent(KeyOK))

	first, ok := q.Pop()
	if !ok || first.Kind != KindRedraw {
		t.Fatalf("first pop = %+v, %v; want Redraw, true", first, ok)
	}
	second, ok := q.Pop()
	if !ok || second.Kind != KindKeyDown {
		t.Fatalf("second pop = %+v, %v; want KeyDown, true", second, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}
