package pthread

import (
	"sync"

	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

var (
	tlsData    = make(map[uint32]uint32)
	nextTLSKey uint32
	onceFlags  = make(map[uint32]bool)
	tlsMu      sync.Mutex
)

func init() {
	register("pthread_key_create", stubKeyCreate)
	register("pthread_key_delete", stubKeyDelete)
	register("pthread_setspecific", stubSetspecific)
	register("pthread_getspecific", stubGetspecific)
	register("pthread_once", stubOnce)
}

func stubKeyCreate(core *armcore.Core) (uint32, error) {
	keyPtr, _ := core.R(0)

	tlsMu.Lock()
	key := nextTLSKey
	nextTLSKey++
	tlsMu.Unlock()

	if keyPtr != 0 {
		if err := core.MemWriteU32(keyPtr, key); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func stubKeyDelete(core *armcore.Core) (uint32, error) {
	key, _ := core.R(0)
	tlsMu.Lock()
	delete(tlsData, key)
	tlsMu.Unlock()
	return 0, nil
}

func stubSetspecific(core *armcore.Core) (uint32, error) {
	key, _ := core.R(0)
	value, _ := core.R(1)
	tlsMu.Lock()
	tlsData[key] = value
	tlsMu.Unlock()
	return 0, nil
}

func stubGetspecific(core *armcore.Core) (uint32, error) {
	key, _ := core.R(0)
	tlsMu.Lock()
	value := tlsData[key]
	tlsMu.Unlock()
	return value, nil
}

// stubOnce never actually invokes the guest's init routine: doing so
// re-entrantly would need the same dispatch closure RunFunction's caller
// holds, which a registered HookFunc doesn't receive. Guests that rely on
// pthread_once for correctness rather than just guarding a cheap
// initializer are outside what this stub set can support.
func stubOnce(core *armcore.Core) (uint32, error) {
	onceControl, _ := core.R(0)
	initRoutine, _ := core.R(1)

	tlsMu.Lock()
	alreadyCalled := onceFlags[onceControl]
	if !alreadyCalled {
		onceFlags[onceControl] = true
	}
	tlsMu.Unlock()

	if !alreadyCalled && initRoutine != 0 {
		stubs.DefaultRegistry.Log("pthread", "pthread_once", stubs.FormatHex(initRoutine)+" (skipped)")
	}
	return 0, nil
}
