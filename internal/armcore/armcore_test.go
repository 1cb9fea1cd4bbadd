package armcore

import "testing"

func newTestCore(t *testing.T) *Core {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRegisterFunctionReturnsThumbAddress(t *testing.T) {
	c := newTestCore(t)

	addr, err := c.RegisterFunction("noop", func(core *Core) (uint32, error) { return 7, nil })
	if err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}
	if addr&1 != 1 {
		t.Fatalf("expected thumb bit set, got %#x", addr)
	}
	if addr&^1 != FunctionsBase {
		t.Fatalf("expected first slot at FunctionsBase, got %#x", addr&^1)
	}

	name, fn, ok := c.LookupFunction(addr)
	if !ok || name != "noop" {
		t.Fatalf("LookupFunction(%#x) = %q, %v; want noop, true", addr, name, ok)
	}
	result, err := fn(c)
	if err != nil || result != 7 {
		t.Fatalf("fn() = %d, %v; want 7, nil", result, err)
	}
}

func TestRegisterFunctionSlotsAreSequential(t *testing.T) {
	c := newTestCore(t)

	a1, _ := c.RegisterFunction("a", func(*Core) (uint32, error) { return 0, nil })
	a2, _ := c.RegisterFunction("b", func(*Core) (uint32, error) { return 0, nil })

	if a2&^1-(a1&^1) != 2 {
		t.Fatalf("expected consecutive 2-byte slots, got %#x then %#x", a1, a2)
	}
}

func TestRunFunctionDirectDispatch(t *testing.T) {
	c := newTestCore(t)

	addr, err := c.RegisterFunction("add", func(core *Core) (uint32, error) {
		a, _ := core.R(0)
		b, _ := core.R(1)
		return a + b, nil
	})
	if err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}

	dispatch := func(name string, fn HostFunc) (uint32, error) { return fn(c) }

	result, err := c.RunFunction(addr, []uint32{3, 4}, 0, dispatch)
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if result != 7 {
		t.Fatalf("result = %d, want 7", result)
	}
}

func TestRunFunctionRestoresCallerContext(t *testing.T) {
	c := newTestCore(t)

	if err := c.SetR(5, 0xdeadbeef); err != nil {
		t.Fatalf("SetR: %v", err)
	}
	before, err := c.SaveContext()
	if err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	addr, _ := c.RegisterFunction("noop", func(*Core) (uint32, error) { return 0, nil })
	dispatch := func(name string, fn HostFunc) (uint32, error) { return fn(c) }
	if _, err := c.RunFunction(addr, nil, 0, dispatch); err != nil {
		t.Fatalf("RunFunction: %v", err)
	}

	after, err := c.SaveContext()
	if err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	// RunFunction is free to leave its result in R0; every other register
	// must come back exactly as it was, not just the ones this test
	// happens to name.
	after.R[0] = before.R[0]
	if after != before {
		t.Fatalf("context after call = %+v, want restored %+v", after, before)
	}
}

func TestAllocIsBumpAllocator(t *testing.T) {
	c := newTestCore(t)

	a, err := c.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b, err := c.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if b <= a {
		t.Fatalf("expected monotonically increasing addresses, got %#x then %#x", a, b)
	}
	if b-a < 16 {
		t.Fatalf("expected 16-byte aligned allocation, got gap %d", b-a)
	}
}

func TestMemReadWriteRoundTrip(t *testing.T) {
	c := newTestCore(t)

	addr, err := c.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := c.MemWriteString(addr, "hello"); err != nil {
		t.Fatalf("MemWriteString: %v", err)
	}
	s, err := c.MemReadString(addr, 64)
	if err != nil {
		t.Fatalf("MemReadString: %v", err)
	}
	if s != "hello" {
		t.Fatalf("MemReadString = %q, want hello", s)
	}
}
