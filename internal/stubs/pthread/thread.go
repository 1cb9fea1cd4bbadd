package pthread

import (
	"sync"

	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

var (
	nextThreadID uint32 = 1
	threadMu     sync.Mutex
)

func init() {
	register("pthread_create", stubPthreadCreate)
	register("pthread_join", stubPthreadJoin)
	register("pthread_detach", stubOK)
	register("pthread_equal", stubPthreadEqual)
	register("pthread_self", stubPthreadSelf)
	register("pthread_setname_np", stubOK)
	register("pthread_getname_np", stubPthreadGetnameNp)
	register("pthread_exit", stubOK)
	register("pthread_cancel", stubOK)
	register("sched_yield", stubOK)
}

// stubPthreadCreate never actually spawns a second cooperative task: the
// executor's single-threading invariant (P1) means the guest library's
// "thread" only gets a fake handle written to *thread; its start routine
// is never run, and a guest caller of pthread_join gets back immediately.
func stubPthreadCreate(core *armcore.Core) (uint32, error) {
	threadPtr, _ := core.R(0)

	threadMu.Lock()
	tid := nextThreadID
	nextThreadID++
	threadMu.Unlock()

	if threadPtr != 0 {
		if err := core.MemWriteU32(threadPtr, tid); err != nil {
			return 0, err
		}
	}

	stubs.DefaultRegistry.Log("pthread", "pthread_create", "tid="+itoaHex(tid))
	return 0, nil
}

func stubPthreadJoin(core *armcore.Core) (uint32, error) {
	retvalPtr, _ := core.R(1)
	if retvalPtr != 0 {
		if err := core.MemWriteU32(retvalPtr, 0); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func stubPthreadEqual(core *armcore.Core) (uint32, error) {
	t1, _ := core.R(0)
	t2, _ := core.R(1)
	if t1 == t2 {
		return 1, nil
	}
	return 0, nil
}

func stubPthreadSelf(core *armcore.Core) (uint32, error) {
	return 1, nil
}

func stubPthreadGetnameNp(core *armcore.Core) (uint32, error) {
	buf, _ := core.R(1)
	if buf != 0 {
		if err := core.MemWriteString(buf, "main"); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

func itoaHex(v uint32) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	buf := make([]byte, 8)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return "0x" + string(buf[i:])
}
