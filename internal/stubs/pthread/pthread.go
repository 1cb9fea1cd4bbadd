// Package pthread provides stub implementations for the pthread symbols a
// guest native library links against. Since the ARM Core never actually
// runs more than one guest task concurrently, every stub here degrades to
// a cooperative no-op or a single-owner bookkeeping shim.
package pthread

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

func register(name string, hook stubs.HookFunc) {
	stubs.RegisterFunc("pthread", name, hook)
}

func stubOK(core *armcore.Core) (uint32, error) {
	return 0, nil
}
