package armcore

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// stubBytes is the Thumb encoding of BX LR (0x4770), little-endian. Every
// registered function's trampoline slot is exactly this instruction: it
// exists only so that branching to it, via BX from guest code, produces an
// instruction fetch our code hook can recognize before anything actually
// executes.
var stubBytes = []byte{0x70, 0x47}

// RegisterFunction installs a new entry in the Registered Function Table
// and returns its guest-visible address. The returned address always has
// the Thumb bit set (odd), matching how ARMv4T's BX interworking branch
// picks the instruction set from the target address's low bit.
func (c *Core) RegisterFunction(name string, fn HostFunc) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot := uint32(len(c.functions)) * 2
	if slot+2 > FunctionsSize {
		return 0, errTrampolineTableFull
	}
	addr := FunctionsBase + slot

	if err := c.engine.MemWrite(uint64(addr), stubBytes); err != nil {
		return 0, wieerr.Wrap(wieerr.KindMemoryFault, err, "install trampoline stub for %s", name)
	}

	r := registered{addr: addr, fn: fn, name: name}
	c.functions = append(c.functions, r)
	c.functionByPC[addr] = &c.functions[len(c.functions)-1]

	return addr | 1, nil
}

// LookupFunction resolves a trampoline address (odd or even) to its
// registered host body, if any.
func (c *Core) LookupFunction(addr uint32) (name string, fn HostFunc, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.functionByPC[addr&^1]
	if !ok {
		return "", nil, false
	}
	return r.name, r.fn, true
}

// inTrampolinePage reports whether addr (with the Thumb bit cleared) falls
// inside the Registered Function Table's page.
func inTrampolinePage(addr uint32) bool {
	a := addr &^ 1
	return a >= FunctionsBase && a < FunctionsBase+FunctionsSize
}

func (c *Core) installCodeHook() error {
	_, err := c.engine.HookAdd(uc.HOOK_CODE, func(mu uc.Unicorn, addr uint64, size uint32) {
		c.onCodeHook(uint32(addr))
	}, 1, 0)
	if err != nil {
		return wieerr.Wrap(wieerr.KindMemoryFault, err, "install code hook")
	}
	return nil
}

// onCodeHook is invoked by Unicorn immediately before the instruction at
// addr executes. It only ever halts the engine; it never mutates registers
// or memory, so whichever instruction was about to run either never
// observably executes (BX LR / NOP, both idempotent no-ops for our
// purposes) or is harmless to let complete.
func (c *Core) onCodeHook(addr uint32) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	switch {
	case addr == RunFunctionLR:
		c.stopped = true
		c.stopReason = stopAtLR
	case inTrampolinePage(addr):
		c.stopped = true
		c.stopReason = stopAtTrampoline
	default:
		c.steps++
		if c.steps >= c.maxSteps {
			c.stopped = true
			c.stopReason = stopAtMaxSteps
		}
	}
	halt := c.stopped
	c.mu.Unlock()

	if halt {
		c.engine.Stop()
	}
}
