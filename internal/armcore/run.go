package armcore

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/palmrunner/palmrunner/internal/wieerr"
)

var errTrampolineTableFull = wieerr.New(wieerr.KindUnknownTrampoline, "registered function table is full")

// Context is a full snapshot of the register file, used to save and
// restore a caller's state around a re-entrant RunFunction call: a call
// that faults restores its caller's registers rather than leaving them
// smeared mid-call.
type Context struct {
	R    [13]uint32
	SP   uint32
	LR   uint32
	PC   uint32
	CPSR uint32
}

// SaveContext captures the current register file.
func (c *Core) SaveContext() (Context, error) {
	var ctx Context
	for i := 0; i < 13; i++ {
		v, err := c.R(i)
		if err != nil {
			return Context{}, err
		}
		ctx.R[i] = v
	}
	ctx.SP = c.SP()
	ctx.LR = c.LR()
	ctx.PC = c.PC()
	ctx.CPSR = c.CPSR()
	return ctx, nil
}

// RestoreContext writes a previously saved register file back.
func (c *Core) RestoreContext(ctx Context) error {
	for i := 0; i < 13; i++ {
		if err := c.SetR(i, ctx.R[i]); err != nil {
			return err
		}
	}
	if err := c.SetSP(ctx.SP); err != nil {
		return err
	}
	if err := c.SetLR(ctx.LR); err != nil {
		return err
	}
	c.mu.Lock()
	err := c.regWrite(uc.ARM_REG_CPSR, ctx.CPSR)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.SetPC(ctx.PC)
}

// RunFunction performs a host-to-guest call: it marshals params into
// R0-R3 then the stack, sets LR to the sentinel so the callee's final
// return lands us back here, and steps the engine in bounded batches
// (run_some) until the sentinel is reached, a registered trampoline is
// entered (re-entrant host call), or the instruction budget for a batch is
// exhausted. maxSteps of 0 uses DefaultMaxSteps.
//
// dispatch is called whenever execution lands on a registered function's
// trampoline; it is expected to invoke that function's host body (which
// may itself call RunFunction) and return its result, which RunFunction
// writes to R0 before resuming at LR. Passing nil dispatch means "this call site cannot field
// re-entrant host calls", appropriate only for leaf guest functions.
func (c *Core) RunFunction(addr uint32, params []uint32, maxSteps uint32, dispatch func(name string, fn HostFunc) (uint32, error)) (uint32, error) {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	saved, err := c.SaveContext()
	if err != nil {
		return 0, err
	}

	if err := c.writeParams(params); err != nil {
		return 0, err
	}
	if err := c.SetLR(RunFunctionLR); err != nil {
		return 0, err
	}
	if err := c.SetPC(addr); err != nil {
		return 0, err
	}

	for {
		pc := c.PC()
		if pc == RunFunctionLR {
			break
		}

		if name, fn, ok := c.LookupFunction(pc); ok {
			if dispatch == nil {
				return 0, wieerr.New(wieerr.KindUnknownTrampoline, "re-entrant call to %s from a non-dispatching call site", name)
			}
			result, err := dispatch(name, fn)
			if err != nil {
				c.RestoreContext(saved)
				return 0, err
			}
			if err := c.SetR(0, result); err != nil {
				return 0, err
			}
			// Return from the trampoline stub exactly as its BX LR would.
			lr := c.LR()
			if err := c.SetPC(lr); err != nil {
				return 0, err
			}
			continue
		}

		reason, err := c.runSome(maxSteps)
		if err != nil {
			c.RestoreContext(saved)
			return 0, err
		}
		if reason == stopAtMaxSteps {
			c.RestoreContext(saved)
			return 0, wieerr.New(wieerr.KindStepLimitExceeded, "exceeded %d steps without returning", maxSteps)
		}
	}

	result, err := c.R(0)
	if err != nil {
		c.RestoreContext(saved)
		return 0, err
	}
	if err := c.RestoreContext(saved); err != nil {
		return 0, err
	}
	return result, nil
}

// runSome steps the engine until the code hook halts it, reporting why.
func (c *Core) runSome(maxSteps uint32) (stopReason, error) {
	c.mu.Lock()
	c.stopped = false
	c.stopReason = stopNone
	c.steps = 0
	c.maxSteps = maxSteps
	pc := uint64(0)
	if v, err := c.regRead(uc.ARM_REG_PC); err == nil {
		pc = uint64(v)
	}
	engine := c.engine
	c.mu.Unlock()

	if err := engine.Start(pc, 0); err != nil {
		return stopNone, wieerr.Wrap(wieerr.KindMemoryFault, err, "run from %#x", pc)
	}

	c.mu.Lock()
	reason := c.stopReason
	c.mu.Unlock()
	return reason, nil
}

// writeParams marshals call arguments into R0-R3 then consecutive stack
// slots below the current SP, per the AAPCS-derived convention spec.md
// describes for run_function.
func (c *Core) writeParams(params []uint32) error {
	n := len(params)
	for i := 0; i < n && i < 4; i++ {
		if err := c.SetR(i, params[i]); err != nil {
			return err
		}
	}
	if n <= 4 {
		return nil
	}

	extra := params[4:]
	sp := c.SP()
	sp -= uint32(len(extra)) * 4
	sp &^= 7 // keep the stack 8-byte aligned per AAPCS
	for i, v := range extra {
		if err := c.MemWriteU32(sp+uint32(i)*4, v); err != nil {
			return err
		}
	}
	return c.SetSP(sp)
}
