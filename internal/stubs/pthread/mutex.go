package pthread

// Every lock/unlock here is an unconditional success: the ARM Core runs
// one guest task at a time (executor.Executor's single-threading
// invariant), so there is never real contention for a guest mutex to
// arbitrate.
func init() {
	register("pthread_mutex_init", stubOK)
	register("pthread_mutex_destroy", stubOK)
	register("pthread_mutex_lock", stubOK)
	register("pthread_mutex_trylock", stubOK)
	register("pthread_mutex_unlock", stubOK)

	register("pthread_rwlock_init", stubOK)
	register("pthread_rwlock_destroy", stubOK)
	register("pthread_rwlock_rdlock", stubOK)
	register("pthread_rwlock_wrlock", stubOK)
	register("pthread_rwlock_unlock", stubOK)
}
