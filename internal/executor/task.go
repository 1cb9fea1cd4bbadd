package executor

// Body is a unit of cooperative work. It runs on its own goroutine but is
// resumed by the Executor one at a time, through the handshake channels on
// Task — at no observable moment do two bodies execute concurrently (P1).
type Body func(ctx *TaskContext) (uint32, error)

// suspend is what a task goroutine sends the scheduler when it parks:
// either a new wake time, or a terminal outcome.
type suspend struct {
	done   bool
	result uint32
	err    error
	wake   uint64
}

// Task is a unit of cooperative work created by Spawn. Ordering and
// equality are by ID: monotonically increasing, assigned at spawn time.
type Task struct {
	ID   uint64
	wake uint64 // virtual ms; 0 = runnable now

	resume  chan struct{} // scheduler -> body: proceed
	yielded chan suspend  // body -> scheduler: parked or finished

	Done   bool
	Result uint32
	Err    error
}

// TaskContext is the capability a running task body uses to suspend
// itself. It is only valid while that body's goroutine holds the baton —
// passing it to another task or using it after the body returns is a
// programming error in the caller, not something the executor guards
// against (there is exactly one holder by construction).
type TaskContext struct {
	exec *Executor
	task *Task
}

// Now reads the virtual clock. Safe without synchronization: the scheduler
// goroutine is blocked receiving on task.yielded for the entire span in
// which this task's body runs, so exactly one goroutine ever touches
// Executor state at a time.
func (c *TaskContext) Now() uint64 { return c.exec.clock.Now() }

// TaskID returns the identifier of the task this context belongs to.
func (c *TaskContext) TaskID() uint64 { return c.task.ID }

// Sleep suspends the calling task until the virtual clock reaches or
// exceeds until. A until at or before Now returns immediately on the next
// poll, same tick semantics as Yield.
func (c *TaskContext) Sleep(until uint64) {
	c.task.yielded <- suspend{wake: until}
	<-c.task.resume
}

// Yield gives other runnable tasks a turn; equivalent to Sleep(Now()).
func (c *TaskContext) Yield() {
	c.Sleep(c.Now())
}
