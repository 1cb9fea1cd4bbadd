// Package armcore emulates ARMv4T user-mode execution over a sparse memory
// map, using Unicorn as the stepping engine, with a trampoline mechanism
// for bidirectional control transfer between emulated guest code and
// host-implemented functions. Every suspension point inside a registered
// function's host body is a cooperative yield in the owning executor.Executor
// — the Core itself holds no goroutines and starts none.
package armcore

import (
	"encoding/binary"
	"fmt"
	"sync"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Memory layout, exactly as spec.md §3/§6.
const (
	FunctionsBase = uint32(0x71000000)
	FunctionsSize = uint32(0x1000)
	RunFunctionLR = uint32(0x7F000000)
	HeapBase      = uint32(0x40000000)
	HeapSize      = uint32(0x04000000) // 64MiB guest heap
	PebBase       = uint32(0x50000000)
	PebSize       = uint32(0x1000)

	// StackBase/StackSize are not spec-mandated addresses but are needed
	// for a runnable guest stack; chosen well clear of the other regions.
	StackBase = uint32(0x60000000)
	StackSize = uint32(0x00100000)

	// InitialCPSR is User-mode (spec §3 ARM Register File).
	InitialCPSR = uint32(0x10)

	// DefaultMaxSteps is the per-batch instruction budget used by run_some
	// unless a caller overrides it (spec §9 Open Questions: heuristic,
	// trades tick granularity for throughput).
	DefaultMaxSteps = 1000
)

// Perm is a memory permission bitmask, mirroring the {R,W,X} bits of the
// ARM Memory Map data model.
type Perm int

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

// region records one mapped page range for introspection (GetRegions),
// independent of Unicorn's own bookkeeping.
type region struct {
	base, size uint32
	perm       Perm
	name       string
}

// HostFunc is a registered function's host body. It receives only the Core
// as its re-entrant context (it may itself call RunFunction, or dispatch
// into the JVM bridge); no task suspension capability is passed to it.
type HostFunc func(core *Core) (uint32, error)

type registered struct {
	addr uint32
	fn   HostFunc
	name string
}

// Core is the ARM emulation core: memory map, register file, and the
// Registered Function Table. It does not own an executor.Executor; callers
// pass task suspension capability in wherever a body needs it, per the
// "explicit capability argument, not a stored reference" design decision.
type Core struct {
	mu sync.Mutex // serializes engine access; never held across a host-body call

	engine  uc.Unicorn
	regions []region

	functions    []registered
	functionByPC map[uint32]*registered

	heapNext uint32

	stopped    bool
	stopReason stopReason
	steps      uint32
	maxSteps   uint32
}

type stopReason int

const (
	stopNone stopReason = iota
	stopAtLR
	stopAtTrampoline
	stopAtMaxSteps
)

// New creates a Core with the trampoline page, heap, stack and PEB region
// mapped and the register file reset to its initial state.
func New() (*Core, error) {
	engine, err := uc.NewUnicorn(uc.ARCH_ARM, uc.MODE_ARM)
	if err != nil {
		return nil, fmt.Errorf("armcore: create engine: %w", err)
	}

	c := &Core{
		engine:       engine,
		functionByPC: make(map[uint32]*registered),
		heapNext:     HeapBase,
	}

	for _, r := range []struct {
		base, size uint32
		perm       Perm
		name       string
	}{
		{FunctionsBase, FunctionsSize, PermRead | PermExec, "trampoline"},
		{HeapBase, HeapSize, PermRead | PermWrite, "heap"},
		{StackBase, StackSize, PermRead | PermWrite, "stack"},
		{PebBase, PebSize, PermRead | PermWrite, "peb"},
		{RunFunctionLR &^ 0xFFF, uint32(0x1000), PermRead | PermExec, "run-function-sentinel"},
	} {
		if err := c.mapRegion(r.base, r.size, r.perm, r.name); err != nil {
			engine.Close()
			return nil, err
		}
	}

	// Fill the sentinel page with harmless ARM NOPs (MOV R0, R0) so that a
	// stray fetch there, before our code hook gets to stop emulation,
	// never faults.
	nop := []byte{0x00, 0x00, 0xA0, 0xE1}
	sentinelPage := make([]byte, 0x1000)
	for i := 0; i < len(sentinelPage); i += 4 {
		copy(sentinelPage[i:i+4], nop)
	}
	if err := engine.MemWrite(uint64(RunFunctionLR&^0xFFF), sentinelPage); err != nil {
		engine.Close()
		return nil, fmt.Errorf("armcore: init sentinel page: %w", err)
	}

	if err := c.regWrite(uc.ARM_REG_CPSR, InitialCPSR); err != nil {
		engine.Close()
		return nil, err
	}
	if err := c.regWrite(uc.ARM_REG_SP, StackBase+StackSize-0x100); err != nil {
		engine.Close()
		return nil, err
	}

	if err := c.installCodeHook(); err != nil {
		engine.Close()
		return nil, err
	}

	return c, nil
}

func (c *Core) mapRegion(base, size uint32, perm Perm, name string) error {
	// The Unicorn binding this is grounded on maps whole pages without a
	// separate permission argument; {R,W,X} bits are tracked ourselves,
	// purely for introspection (Regions, crash-dump stack walking).
	if err := c.engine.MemMap(uint64(base), uint64(size)); err != nil {
		return wieerr.Wrap(wieerr.KindMemoryFault, err, "map region %s at %#x", name, base)
	}
	c.regions = append(c.regions, region{base: base, size: size, perm: perm, name: name})
	return nil
}

// MapRegion maps additional guest memory, e.g. an application image or a
// native library's segments.
func (c *Core) MapRegion(base, size uint32, perm Perm, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapRegion(base, size, perm, name)
}

// Regions returns the currently mapped page ranges, for introspection.
func (c *Core) Regions() []struct {
	Base, Size uint32
	Perm       Perm
	Name       string
} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]struct {
		Base, Size uint32
		Perm       Perm
		Name       string
	}, len(c.regions))
	for i, r := range c.regions {
		out[i] = struct {
			Base, Size uint32
			Perm       Perm
			Name       string
		}{r.base, r.size, r.perm, r.name}
	}
	return out
}

// Close releases the underlying engine.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Close()
}

// Alloc bumps the guest heap pointer and returns the allocated address.
// There is no free in the core contract — device-library stubs that wrap
// malloc/free rely on this being a leaky bump allocator, matching the
// teacher's Emulator.Malloc.
func (c *Core) Alloc(size uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size = (size + 15) &^ 15
	if size == 0 {
		size = 16
	}

	addr := c.heapNext
	if uint64(addr)+uint64(size) > uint64(HeapBase)+uint64(HeapSize) {
		return 0, wieerr.New(wieerr.KindMemoryFault, "guest heap exhausted")
	}
	c.heapNext += size
	return addr, nil
}

func (c *Core) regRead(reg int) (uint32, error) {
	v, err := c.engine.RegRead(reg)
	if err != nil {
		return 0, wieerr.Wrap(wieerr.KindMemoryFault, err, "read register %d", reg)
	}
	return uint32(v), nil
}

func (c *Core) regWrite(reg int, v uint32) error {
	if err := c.engine.RegWrite(reg, uint64(v)); err != nil {
		return wieerr.Wrap(wieerr.KindMemoryFault, err, "write register %d", reg)
	}
	return nil
}

// MemRead reads size bytes at addr.
func (c *Core) MemRead(addr, size uint32) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.engine.MemRead(uint64(addr), uint64(size))
	if err != nil {
		return nil, wieerr.Wrap(wieerr.KindMemoryFault, err, "read %#x (%d bytes)", addr, size)
	}
	return data, nil
}

// MemWrite writes data at addr.
func (c *Core) MemWrite(addr uint32, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.engine.MemWrite(uint64(addr), data); err != nil {
		return wieerr.Wrap(wieerr.KindMemoryFault, err, "write %#x (%d bytes)", addr, len(data))
	}
	return nil
}

func (c *Core) MemReadU32(addr uint32) (uint32, error) {
	b, err := c.MemRead(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Core) MemWriteU32(addr, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return c.MemWrite(addr, b)
}

// MemReadString reads a NUL-terminated guest string, capped at maxLen.
func (c *Core) MemReadString(addr uint32, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = 4096
	}
	data, err := c.MemRead(addr, uint32(maxLen))
	if err != nil {
		return "", err
	}
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), nil
		}
	}
	return string(data), nil
}

func (c *Core) MemWriteString(addr uint32, s string) error {
	return c.MemWrite(addr, append([]byte(s), 0))
}

// armReg maps R0..R15 to their Unicorn register constants.
func armReg(n int) (int, error) {
	switch {
	case n >= 0 && n <= 12:
		return uc.ARM_REG_R0 + n, nil
	case n == 13:
		return uc.ARM_REG_SP, nil
	case n == 14:
		return uc.ARM_REG_LR, nil
	case n == 15:
		return uc.ARM_REG_PC, nil
	default:
		return 0, wieerr.New(wieerr.KindMemoryFault, "invalid register r%d", n)
	}
}

// R reads general-purpose register r0..r15.
func (c *Core) R(n int) (uint32, error) {
	reg, err := armReg(n)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regRead(reg)
}

// SetR writes general-purpose register r0..r15.
func (c *Core) SetR(n int, v uint32) error {
	reg, err := armReg(n)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regWrite(reg, v)
}

func (c *Core) PC() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.regRead(uc.ARM_REG_PC)
	return v
}

func (c *Core) SetPC(v uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regWrite(uc.ARM_REG_PC, v)
}

func (c *Core) SP() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.regRead(uc.ARM_REG_SP)
	return v
}

func (c *Core) SetSP(v uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regWrite(uc.ARM_REG_SP, v)
}

func (c *Core) LR() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.regRead(uc.ARM_REG_LR)
	return v
}

func (c *Core) SetLR(v uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regWrite(uc.ARM_REG_LR, v)
}

func (c *Core) CPSR() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _ := c.regRead(uc.ARM_REG_CPSR)
	return v
}

// Stop halts the engine at the next instruction boundary if it is running.
// The code hook halts the engine itself rather than through Stop. The next
// runSome clears the stop flag, so Stop does not end a RunFunction loop.
func (c *Core) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.engine.Stop()
}
