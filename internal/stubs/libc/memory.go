// Package libc provides stub implementations for libc functions linked by
// guest native libraries, registered with the default stub registry.
package libc

import (
	"fmt"

	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

func init() {
	stubs.Register(stubs.StubDef{Name: "malloc", Hook: stubMalloc, Category: "libc"})
	stubs.Register(stubs.StubDef{Name: "calloc", Hook: stubCalloc, Category: "libc"})
	stubs.Register(stubs.StubDef{Name: "realloc", Hook: stubRealloc, Category: "libc"})
	stubs.Register(stubs.StubDef{Name: "free", Hook: stubFree, Category: "libc"})

	stubs.Register(stubs.StubDef{Name: "getpagesize", Hook: stubGetPageSize, Category: "libc"})

	// C++ operator new/delete land here too: palmrunner has no separate
	// cxxabi allocator, since both ultimately just need a heap cell.
	stubs.Register(stubs.StubDef{
		Name:     "_Znwm",
		Aliases:  []string{"_Znam", "_ZnwmSt11align_val_t", "_ZnamSt11align_val_t"},
		Hook:     stubNew,
		Category: "libc",
	})
	stubs.Register(stubs.StubDef{
		Name:     "_ZdlPv",
		Aliases:  []string{"_ZdaPv", "_ZdlPvm", "_ZdaPvm"},
		Hook:     stubDelete,
		Category: "libc",
	})
}

func alignedSize(n uint32) uint32 {
	if n == 0 {
		n = 16
	}
	return (n + 15) &^ 15
}

func stubMalloc(core *armcore.Core) (uint32, error) {
	size, err := core.R(0)
	if err != nil {
		return 0, err
	}
	size = alignedSize(size)

	ptr, err := core.Alloc(size)
	if err != nil {
		return 0, err
	}

	stubs.DefaultRegistry.Log("libc", "malloc", fmt.Sprintf("size=%d -> %#x", size, ptr))
	return ptr, nil
}

func stubCalloc(core *armcore.Core) (uint32, error) {
	count, err := core.R(0)
	if err != nil {
		return 0, err
	}
	size, err := core.R(1)
	if err != nil {
		return 0, err
	}
	total := alignedSize(count * size)

	ptr, err := core.Alloc(total)
	if err != nil {
		return 0, err
	}
	if err := core.MemWrite(ptr, make([]byte, total)); err != nil {
		return 0, err
	}

	stubs.DefaultRegistry.Log("libc", "calloc", fmt.Sprintf("total=%d -> %#x", total, ptr))
	return ptr, nil
}

func stubRealloc(core *armcore.Core) (uint32, error) {
	// The old pointer is ignored: palmrunner's heap is bump-allocated and
	// never frees, so realloc degrades to a fresh allocation.
	size, err := core.R(1)
	if err != nil {
		return 0, err
	}
	size = alignedSize(size)

	ptr, err := core.Alloc(size)
	if err != nil {
		return 0, err
	}

	stubs.DefaultRegistry.Log("libc", "realloc", fmt.Sprintf("size=%d -> %#x", size, ptr))
	return ptr, nil
}

func stubFree(core *armcore.Core) (uint32, error) {
	stubs.DefaultRegistry.Log("libc", "free", "")
	return 0, nil
}

func stubNew(core *armcore.Core) (uint32, error) {
	size, err := core.R(0)
	if err != nil {
		return 0, err
	}
	size = alignedSize(size)

	ptr, err := core.Alloc(size)
	if err != nil {
		return 0, err
	}
	if err := core.MemWrite(ptr, make([]byte, size)); err != nil {
		return 0, err
	}

	stubs.DefaultRegistry.Log("libc", "new", fmt.Sprintf("size=%d -> %#x", size, ptr))
	return ptr, nil
}

func stubDelete(core *armcore.Core) (uint32, error) {
	stubs.DefaultRegistry.Log("libc", "delete", "")
	return 0, nil
}

func stubGetPageSize(core *armcore.Core) (uint32, error) {
	stubs.DefaultRegistry.Log("libc", "getpagesize", "-> 4096")
	return 4096, nil
}
