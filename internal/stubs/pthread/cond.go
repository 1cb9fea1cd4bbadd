package pthread

func init() {
	register("pthread_cond_init", stubOK)
	register("pthread_cond_destroy", stubOK)
	// In single-threaded emulation, waiting on a condition variable would
	// deadlock a real implementation; returning immediately treats every
	// wait as already-signaled.
	register("pthread_cond_wait", stubOK)
	register("pthread_cond_timedwait", stubOK)
	register("pthread_cond_signal", stubOK)
	register("pthread_cond_broadcast", stubOK)
}
