package classlib

import (
	"testing"

	"github.com/palmrunner/palmrunner/internal/eventqueue"
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/platform"
)

func newTestContext(t *testing.T) *jvmbridge.Context {
	t.Helper()
	r := jvmbridge.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return &jvmbridge.Context{Registry: r, Heap: jvmbridge.NewHeap()}
}

func TestStringBufferAppendAndToString(t *testing.T) {
	ctx := newTestContext(t)

	handle, err := ctx.NewClass("java/lang/StringBuffer", "()V", nil)
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}

	if _, err := ctx.InvokeVirtual(handle, "append", "(Ljava/lang/String;)Ljava/lang/StringBuffer;", []any{"score: "}); err != nil {
		t.Fatalf("append(String): %v", err)
	}
	if _, err := ctx.InvokeVirtual(handle, "append", "(I)Ljava/lang/StringBuffer;", []any{int32(42)}); err != nil {
		t.Fatalf("append(int): %v", err)
	}

	result, err := ctx.InvokeVirtual(handle, "toString", "()Ljava/lang/String;", nil)
	if err != nil {
		t.Fatalf("toString: %v", err)
	}
	if result != "score: 42" {
		t.Fatalf("toString = %q, want %q", result, "score: 42")
	}

	length, err := ctx.InvokeVirtual(handle, "length", "()I", nil)
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if length != int32(len("score: 42")) {
		t.Fatalf("length = %v, want %d", length, len("score: 42"))
	}
}

func TestStringBufferRetainsSpareCapacity(t *testing.T) {
	ctx := newTestContext(t)

	handle, err := ctx.NewClass("java/lang/StringBuffer", "()V", nil)
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	if _, err := ctx.InvokeVirtual(handle, "append", "(Ljava/lang/String;)Ljava/lang/StringBuffer;", []any{"foo"}); err != nil {
		t.Fatalf("append(String): %v", err)
	}
	if _, err := ctx.InvokeVirtual(handle, "append", "(I)Ljava/lang/StringBuffer;", []any{int32(42)}); err != nil {
		t.Fatalf("append(int): %v", err)
	}

	length, err := ctx.InvokeVirtual(handle, "length", "()I", nil)
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if length != int32(5) {
		t.Fatalf("length = %v, want 5", length)
	}

	value, err := ctx.GetField(handle, "value")
	if err != nil {
		t.Fatalf("GetField value: %v", err)
	}
	arr, err := ctx.Heap.Get(value.(jvmbridge.InstanceHandle))
	if err != nil {
		t.Fatalf("Get value array: %v", err)
	}
	if len(arr.Elements) < 16 {
		t.Fatalf("backing array length = %d, want >= 16", len(arr.Elements))
	}
}

func TestStringBufferTwoInstancesDoNotShareState(t *testing.T) {
	ctx := newTestContext(t)

	a, err := ctx.NewClass("java/lang/StringBuffer", "(Ljava/lang/String;)V", []any{"a"})
	if err != nil {
		t.Fatalf("NewClass a: %v", err)
	}
	b, err := ctx.NewClass("java/lang/StringBuffer", "(Ljava/lang/String;)V", []any{"b"})
	if err != nil {
		t.Fatalf("NewClass b: %v", err)
	}

	if _, err := ctx.InvokeVirtual(a, "append", "(Ljava/lang/String;)Ljava/lang/StringBuffer;", []any{"!"}); err != nil {
		t.Fatalf("append a: %v", err)
	}

	aVal, _ := ctx.InvokeVirtual(a, "toString", "()Ljava/lang/String;", nil)
	bVal, _ := ctx.InvokeVirtual(b, "toString", "()Ljava/lang/String;", nil)
	if aVal != "a!" || bVal != "b" {
		t.Fatalf("got a=%q b=%q, want a=%q b=%q", aVal, bVal, "a!", "b")
	}
}

func TestEventQueueGetNextEventDrainsFIFO(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Runtime = &jvmbridge.Runtime{Events: eventqueue.New()}
	ctx.Runtime.Events.Push(eventqueue.Redraw())

	queueHandle, err := ctx.NewClass("org/kwis/msp/lcdui/EventQueue", "()V", nil)
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	arrHandle := ctx.Heap.NewArray(4)

	if _, err := ctx.InvokeVirtual(queueHandle, "getNextEvent", "([I)V", []any{arrHandle}); err != nil {
		t.Fatalf("getNextEvent: %v", err)
	}

	arr, err := ctx.Heap.Get(arrHandle)
	if err != nil {
		t.Fatalf("Get array: %v", err)
	}
	want := eventqueue.Redraw().ToWire()
	for i, w := range want {
		if arr.Elements[i] != w {
			t.Fatalf("Elements[%d] = %v, want %v", i, arr.Elements[i], w)
		}
	}
}

func TestGraphicsFillRectClipsToBounds(t *testing.T) {
	ctx := newTestContext(t)

	handle, err := ctx.NewClass("org/kwis/msp/lcdui/Graphics", "(II)V", []any{int32(4), int32(4)})
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	if _, err := ctx.InvokeVirtual(handle, "setColor", "(I)V", []any{int32(0x00FF00)}); err != nil {
		t.Fatalf("setColor: %v", err)
	}
	if _, err := ctx.InvokeVirtual(handle, "fillRect", "(IIII)V", []any{int32(-1), int32(2), int32(3), int32(10)}); err != nil {
		t.Fatalf("fillRect: %v", err)
	}

	inst, err := ctx.Heap.Get(handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	buf := inst.Native.([]uint32)
	if buf[2*4+0] != 0xFF00FF00 {
		t.Fatalf("pixel (0,2) = %#x, want %#x", buf[2*4+0], 0xFF00FF00)
	}
	if buf[0] != 0 {
		t.Fatalf("pixel (0,0) = %#x, want untouched", buf[0])
	}
}

func TestDisplayGetGraphicsSizedToScreen(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Runtime = &jvmbridge.Runtime{Plat: &fakePlatform{width: 8, height: 6}}

	display, err := ctx.NewClass("org/kwis/msp/lcdui/Display", "()V", nil)
	if err != nil {
		t.Fatalf("NewClass Display: %v", err)
	}
	g, err := ctx.InvokeVirtual(display, "getGraphics", "()Lorg/kwis/msp/lcdui/Graphics;", nil)
	if err != nil {
		t.Fatalf("getGraphics: %v", err)
	}
	handle := g.(jvmbridge.InstanceHandle)

	w, err := ctx.InvokeVirtual(handle, "getWidth", "()I", nil)
	if err != nil {
		t.Fatalf("getWidth: %v", err)
	}
	if w != int32(8) {
		t.Fatalf("getWidth = %v, want 8", w)
	}
}

type fakePlatform struct {
	width, height int
	painted       []uint32
}

func (p *fakePlatform) Now() uint64                        { return 0 }
func (p *fakePlatform) Screen() platform.Screen            { return fakeScreen{p} }
func (p *fakePlatform) WriteStdout(b []byte) (int, error)  { return len(b), nil }
func (p *fakePlatform) Exit(int)                           {}

type fakeScreen struct{ p *fakePlatform }

func (s fakeScreen) Width() int  { return s.p.width }
func (s fakeScreen) Height() int { return s.p.height }
func (s fakeScreen) Paint(pixels []uint32) error {
	s.p.painted = pixels
	return nil
}
