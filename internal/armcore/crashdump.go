package armcore

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// Dump renders a crash dump: the full register file, a disassembly of the
// faulting instruction if it can be decoded, a heuristic call-stack walk,
// and a small hexdump of the top of the guest stack. It is plain text —
// terminal colorization, if wanted, is applied by the caller.
func (c *Core) Dump() string {
	var b strings.Builder

	fmt.Fprintf(&b, "registers:\n")
	for i := 0; i < 13; i++ {
		v, _ := c.R(i)
		fmt.Fprintf(&b, "  r%-2d = %#010x\n", i, v)
	}
	fmt.Fprintf(&b, "  sp  = %#010x\n", c.SP())
	fmt.Fprintf(&b, "  lr  = %#010x\n", c.LR())
	fmt.Fprintf(&b, "  pc  = %#010x\n", c.PC())
	fmt.Fprintf(&b, "  cpsr= %#010x\n", c.CPSR())

	if insn, err := c.disassembleAt(c.PC()); err == nil {
		fmt.Fprintf(&b, "\nfaulting instruction:\n  %s\n", insn)
	}

	fmt.Fprintf(&b, "\ncall stack (heuristic):\n")
	for _, frame := range c.walkStack() {
		fmt.Fprintf(&b, "  %#010x\n", frame)
	}

	fmt.Fprintf(&b, "\nstack (top 16 words):\n")
	sp := c.SP()
	if words, err := c.MemRead(sp, 16*4); err == nil {
		for i := 0; i < 16; i++ {
			off := i * 4
			if off+4 > len(words) {
				break
			}
			v := uint32(words[off]) | uint32(words[off+1])<<8 | uint32(words[off+2])<<16 | uint32(words[off+3])<<24
			fmt.Fprintf(&b, "  [sp+%#03x] %#010x\n", off, v)
		}
	}

	return b.String()
}

func (c *Core) disassembleAt(addr uint32) (string, error) {
	data, err := c.MemRead(addr&^1, 4)
	if err != nil {
		return "", err
	}
	mode := armasm.ModeARM
	if addr&1 != 0 {
		mode = armasm.ModeThumb
	}
	insn, err := armasm.Decode(data, mode)
	if err != nil {
		return "", err
	}
	return insn.String(), nil
}

// walkStack scans the first 512 bytes above SP for values that look like
// return addresses: Thumb-tagged (odd) and inside the image's executable
// range. This is a heuristic, not a true unwinder — there is no frame
// pointer convention to rely on in arbitrary WIPI binaries.
func (c *Core) walkStack() []uint32 {
	sp := c.SP()
	data, err := c.MemRead(sp, 512)
	if err != nil {
		return nil
	}

	var frames []uint32
	for off := 0; off+4 <= len(data); off += 4 {
		v := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		if v&1 == 0 {
			continue
		}
		if c.isExecutableAddr(v &^ 1) {
			frames = append(frames, v)
		}
	}
	return frames
}

func (c *Core) isExecutableAddr(addr uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.regions {
		if r.perm&PermExec == 0 {
			continue
		}
		if addr >= r.base && addr < r.base+r.size {
			return true
		}
	}
	return false
}
