package libc

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

func init() {
	stubs.RegisterFunc("libc", "abort", stubAbort)
	stubs.RegisterFunc("libc", "exit", stubExit)
	stubs.RegisterFunc("libc", "_exit", stubExit)
	stubs.RegisterFunc("libc", "_Exit", stubExit)
	stubs.RegisterFunc("libc", "atexit", stubAtexit)
}

func stubAbort(core *armcore.Core) (uint32, error) {
	stubs.DefaultRegistry.Log("libc", "abort", "program aborted")
	return 0, wieerr.New(wieerr.KindHostBody, "guest called abort()")
}

func stubExit(core *armcore.Core) (uint32, error) {
	code, _ := core.R(0)
	stubs.DefaultRegistry.Log("libc", "exit", stubs.FormatHex(code))
	return 0, wieerr.New(wieerr.KindHostBody, "guest called exit(%d)", code)
}

func stubAtexit(core *armcore.Core) (uint32, error) {
	// No handler registry: palmrunner never unwinds the guest image on its
	// own, so a registered atexit handler would never be invoked anyway.
	return 0, nil
}
