package libc

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

// None of these stubs actually format variadic arguments: the format
// string itself is the useful signal for tracing what a guest native
// library is trying to print, and any varargs walking would need ARM's
// AAPCS variadic-argument rules reimplemented for no real benefit here.
func init() {
	stubs.RegisterFunc("libc", "printf", stubPrintf)
	stubs.RegisterFunc("libc", "sprintf", stubSprintf)
	stubs.RegisterFunc("libc", "snprintf", stubSnprintf)
	stubs.RegisterFunc("libc", "puts", stubPuts)
	stubs.RegisterFunc("libc", "fputs", stubFputs)
	stubs.RegisterFunc("libc", "fwrite", stubFwrite)
	stubs.RegisterFunc("libc", "fopen", stubFopen)
	stubs.RegisterFunc("libc", "fclose", stubFclose)
	stubs.RegisterFunc("libc", "strerror", stubStrerror)
}

func stubPrintf(core *armcore.Core) (uint32, error) {
	fmtPtr, _ := core.R(0)
	format, err := core.MemReadString(fmtPtr, 256)
	if err != nil {
		return 0, err
	}
	stubs.DefaultRegistry.Log("libc", "printf", format)
	return uint32(len(format)), nil
}

func stubSprintf(core *armcore.Core) (uint32, error) {
	dest, _ := core.R(0)
	fmtPtr, _ := core.R(1)
	format, err := core.MemReadString(fmtPtr, 256)
	if err != nil {
		return 0, err
	}
	// No variadic substitution: the format string is written verbatim.
	if err := core.MemWriteString(dest, format); err != nil {
		return 0, err
	}
	return uint32(len(format)), nil
}

func stubSnprintf(core *armcore.Core) (uint32, error) {
	dest, _ := core.R(0)
	n, _ := core.R(1)
	fmtPtr, _ := core.R(2)
	format, err := core.MemReadString(fmtPtr, int(n))
	if err != nil {
		return 0, err
	}

	if n > 0 {
		if uint32(len(format)) >= n {
			format = format[:n-1]
		}
		if err := core.MemWriteString(dest, format); err != nil {
			return 0, err
		}
	}
	return uint32(len(format)), nil
}

func stubPuts(core *armcore.Core) (uint32, error) {
	strPtr, _ := core.R(0)
	str, err := core.MemReadString(strPtr, 256)
	if err != nil {
		return 0, err
	}
	stubs.DefaultRegistry.Log("libc", "puts", str)
	return 0, nil
}

func stubFputs(core *armcore.Core) (uint32, error) {
	strPtr, _ := core.R(0)
	str, err := core.MemReadString(strPtr, 256)
	if err != nil {
		return 0, err
	}
	stubs.DefaultRegistry.Log("libc", "fputs", str)
	return 0, nil
}

func stubFwrite(core *armcore.Core) (uint32, error) {
	nmemb, _ := core.R(2)
	return nmemb, nil
}

func stubFopen(core *armcore.Core) (uint32, error) {
	// No filesystem backing: every open fails, matching a sandboxed guest
	// that has no storage medium to read from.
	return 0, nil
}

func stubFclose(core *armcore.Core) (uint32, error) {
	return 0, nil
}

func stubStrerror(core *armcore.Core) (uint32, error) {
	const msg = "Unknown error"
	ptr, err := core.Alloc(alignedSize(uint32(len(msg) + 1)))
	if err != nil {
		return 0, err
	}
	if err := core.MemWriteString(ptr, msg); err != nil {
		return 0, err
	}
	return ptr, nil
}
