package jvmbridge

import "testing"

func objectProto() *ClassProto {
	return &ClassProto{
		Name: "java/lang/Object",
		Methods: []MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: func(*Context, InstanceHandle, []any) (any, error) { return nil, nil }},
		},
	}
}

func TestResolutionOrderPrefersRtOverWie(t *testing.T) {
	r := NewRegistry()
	rt := &ClassProto{Name: "org/kwis/msp/lcdui/Card"}
	wie := &ClassProto{Name: "org/kwis/msp/lcdui/Card"}

	if err := r.RegisterProto(RtRustjar, rt); err != nil {
		t.Fatalf("register rt: %v", err)
	}
	if err := r.RegisterProto(WieRustjar, wie); err != nil {
		t.Fatalf("register wie: %v", err)
	}

	rc, err := r.Resolve("org/kwis/msp/lcdui/Card")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rc.Proto != rt {
		t.Fatalf("expected RT_RUSTJAR proto to win over WIE_RUSTJAR")
	}
}

func TestResolutionFallsBackToBytecode(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterBytecode(&ClassFile{Name: "com/example/Game", Data: []byte{0xCA, 0xFE}}); err != nil {
		t.Fatalf("RegisterBytecode: %v", err)
	}

	rc, err := r.Resolve("com/example/Game")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rc.Tier != "bytecode" || rc.Bytecode == nil {
		t.Fatalf("expected bytecode tier resolution, got %+v", rc)
	}
}

func TestResolveUnknownClassFails(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("does/not/Exist"); err == nil {
		t.Fatalf("expected class-not-found error")
	}
}

func TestFirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := &ClassProto{Name: "a/B"}
	second := &ClassProto{Name: "a/B"}

	if err := r.RegisterProto(RtRustjar, first); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.RegisterProto(RtRustjar, second); err == nil {
		t.Fatalf("expected error re-registering a/B")
	}

	rc, err := r.Resolve("a/B")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rc.Proto != first {
		t.Fatalf("expected first registration to win")
	}
}

func TestDispatchWalksParentChain(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterProto(RtRustjar, objectProto()); err != nil {
		t.Fatalf("register object: %v", err)
	}

	child := &ClassProto{Name: "a/Child", Parent: "java/lang/Object"}
	if err := r.RegisterProto(RtRustjar, child); err != nil {
		t.Fatalf("register child: %v", err)
	}

	h := NewHeap()
	ctx := &Context{Registry: r, Heap: h}

	handle, err := ctx.NewClass("a/Child", "()V", nil)
	if err != nil {
		t.Fatalf("NewClass: %v", err)
	}
	if handle == Nil {
		t.Fatalf("expected non-null handle")
	}
}

func TestGetFieldDefaultsToNil(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterProto(RtRustjar, &ClassProto{Name: "a/B"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	h := NewHeap()
	ctx := &Context{Registry: r, Heap: h}

	rc, _ := r.Resolve("a/B")
	handle := h.NewInstance(rc)

	v, err := ctx.GetField(handle, "unset")
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for unset field, got %v", v)
	}
}

func TestPutFieldThenGetField(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterProto(RtRustjar, &ClassProto{Name: "a/B"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	h := NewHeap()
	ctx := &Context{Registry: r, Heap: h}

	rc, _ := r.Resolve("a/B")
	handle := h.NewInstance(rc)

	if err := ctx.PutField(handle, "x", int32(42)); err != nil {
		t.Fatalf("PutField: %v", err)
	}
	v, err := ctx.GetField(handle, "x")
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if v != int32(42) {
		t.Fatalf("GetField = %v; want 42", v)
	}
}

func TestHeapDestroyInvalidatesHandle(t *testing.T) {
	h := NewHeap()
	handle := h.NewArray(4)
	if h.Live() != 1 {
		t.Fatalf("expected 1 live instance, got %d", h.Live())
	}
	h.Destroy(handle)
	if _, err := h.Get(handle); err == nil {
		t.Fatalf("expected error reading destroyed handle")
	}
	if h.Live() != 0 {
		t.Fatalf("expected 0 live instances after destroy, got %d", h.Live())
	}
}
