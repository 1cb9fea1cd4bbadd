// Package cxxabi provides a minimal C++ ABI shim: the handful of
// __cxa_* symbols a native library links against for static-destructor
// bookkeeping, without the fuller RTTI/exception-unwinding machinery a
// real libstdc++ implements.
package cxxabi

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

func init() {
	stubs.RegisterFunc("cxxabi", "__cxa_atexit", stubAtexit)
	stubs.RegisterFunc("cxxabi", "__cxa_finalize", stubFinalize)
	stubs.RegisterFunc("cxxabi", "__cxa_pure_virtual", stubPureVirtual)
	stubs.RegisterFunc("cxxabi", "__cxa_guard_acquire", stubGuardAcquire)
	stubs.RegisterFunc("cxxabi", "__cxa_guard_release", stubGuardRelease)
}

// __cxa_atexit registers a static destructor. palmrunner never unwinds a
// guest image on its own, so the destructor would never run; the
// registration itself always succeeds.
func stubAtexit(core *armcore.Core) (uint32, error) {
	return 0, nil
}

func stubFinalize(core *armcore.Core) (uint32, error) {
	return 0, nil
}

// __cxa_pure_virtual is only ever reached through a vtable slot that was
// never filled in, which is always a guest bug; surface it as a host-body
// error rather than silently returning.
func stubPureVirtual(core *armcore.Core) (uint32, error) {
	stubs.DefaultRegistry.Log("cxxabi", "__cxa_pure_virtual", "called")
	return 0, wieerr.New(wieerr.KindHostBody, "guest called __cxa_pure_virtual")
}

// Guard variables protect function-local static initialization. Since the
// ARM Core runs one guest task at a time, there is no race to guard
// against; acquire always wins and release is a no-op.
func stubGuardAcquire(core *armcore.Core) (uint32, error) {
	return 1, nil
}

func stubGuardRelease(core *armcore.Core) (uint32, error) {
	return 0, nil
}
