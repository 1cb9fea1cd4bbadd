package libc

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/stubs"
)

// Mocked wall-clock time for deterministic execution: the guest's own
// notion of time is the executor's virtual clock (internal/executor), not
// this one, so a fixed value here never causes divergent scheduling.
var (
	MockTimeSec  = uint32(1704067200) // 2024-01-01 00:00:00 UTC
	MockTimeUSec = uint32(0)
	MockTimeNSec = uint32(0)
)

func init() {
	stubs.RegisterFunc("libc", "gettimeofday", stubGettimeofday)
	stubs.RegisterFunc("libc", "clock_gettime", stubClockGettime)
	stubs.RegisterFunc("libc", "time", stubTime)
	stubs.RegisterFunc("libc", "nanosleep", stubNanosleep)
	stubs.RegisterFunc("libc", "usleep", stubUsleep)
	stubs.RegisterFunc("libc", "sleep", stubSleep)
}

func stubGettimeofday(core *armcore.Core) (uint32, error) {
	tv, _ := core.R(0)
	if tv != 0 {
		// struct timeval { time_t tv_sec; suseconds_t tv_usec; } on a
		// 32-bit ARM target: two 4-byte words.
		if err := core.MemWriteU32(tv, MockTimeSec); err != nil {
			return 0, err
		}
		if err := core.MemWriteU32(tv+4, MockTimeUSec); err != nil {
			return 0, err
		}
	}
	stubs.DefaultRegistry.Log("libc", "gettimeofday", "sec="+itoa(int(MockTimeSec)))
	return 0, nil
}

func stubClockGettime(core *armcore.Core) (uint32, error) {
	tp, _ := core.R(1)
	if tp != 0 {
		if err := core.MemWriteU32(tp, MockTimeSec); err != nil {
			return 0, err
		}
		if err := core.MemWriteU32(tp+4, MockTimeNSec); err != nil {
			return 0, err
		}
	}
	stubs.DefaultRegistry.Log("libc", "clock_gettime", "sec="+itoa(int(MockTimeSec)))
	return 0, nil
}

func stubTime(core *armcore.Core) (uint32, error) {
	tloc, _ := core.R(0)
	if tloc != 0 {
		if err := core.MemWriteU32(tloc, MockTimeSec); err != nil {
			return 0, err
		}
	}
	stubs.DefaultRegistry.Log("libc", "time", "sec="+itoa(int(MockTimeSec)))
	return MockTimeSec, nil
}

func stubNanosleep(core *armcore.Core) (uint32, error) {
	// Cooperative sleeping happens at the executor level (Sleep/Yield), not
	// inside a native stub body, so this degrades to an immediate return.
	return 0, nil
}

func stubUsleep(core *armcore.Core) (uint32, error) {
	return 0, nil
}

func stubSleep(core *armcore.Core) (uint32, error) {
	return 0, nil
}
