// Package executor implements the single-threaded cooperative task
// scheduler that drives every suspendable computation in the core: ARM
// steps, JVM method bodies, native device-library stubs and timers all run
// as Tasks, each getting the illusion of blocking I/O through Sleep/Yield
// while only ever one task body actually executes at a time.
package executor

import (
	"sort"

	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Executor is a single-threaded cooperative scheduler. It must never be
// ticked from more than one goroutine concurrently, and must never be
// shared between host threads — ownership is exclusive, per the
// concurrency model.
type Executor struct {
	clock    Clock
	nextID   uint64
	tasks    []*Task
	current  *Task
	poisoned error
}

// New creates an empty Executor with its virtual clock at 0.
func New() *Executor {
	return &Executor{}
}

// Now returns the current virtual clock reading.
func (e *Executor) Now() uint64 { return e.clock.Now() }

// CurrentTaskID returns the id of the task whose body is currently
// executing, and true. If called outside of a task body it returns
// (0, false) — spec leaves this undefined, this implementation reports it
// rather than panicking.
func (e *Executor) CurrentTaskID() (uint64, bool) {
	if e.current == nil {
		return 0, false
	}
	return e.current.ID, true
}

// Spawn enqueues a new task and returns its freshly assigned, monotonically
// increasing id. The body does not start running until the Executor first
// polls it on a subsequent Tick.
func (e *Executor) Spawn(body Body) uint64 {
	e.nextID++
	t := &Task{
		ID:      e.nextID,
		resume:  make(chan struct{}),
		yielded: make(chan suspend),
	}
	ctx := &TaskContext{exec: e, task: t}

	go func() {
		<-t.resume
		result, err := body(ctx)
		t.yielded <- suspend{done: true, result: result, err: err}
	}()

	e.tasks = append(e.tasks, t)
	return t.ID
}

// Tick advances one scheduling round per the algorithm in spec §4.B:
// resolve sleeps, poll every runnable task exactly once in FIFO-by-wake
// order (tie-break by id). If nothing was runnable but something is
// sleeping, the virtual clock first jumps to the earliest wake-time and the
// tasks that wake at it are polled in the same round. A task error poisons
// the Executor permanently.
func (e *Executor) Tick() error {
	if e.poisoned != nil {
		return e.poisoned
	}
	if len(e.tasks) == 0 {
		return nil
	}

	runnable := make([]*Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if t.wake <= e.clock.Now() {
			runnable = append(runnable, t)
		}
	}

	if len(runnable) == 0 {
		earliest := e.tasks[0].wake
		for _, t := range e.tasks[1:] {
			if t.wake < earliest {
				earliest = t.wake
			}
		}
		e.clock.advanceTo(earliest)
		for _, t := range e.tasks {
			if t.wake <= e.clock.Now() {
				runnable = append(runnable, t)
			}
		}
	}

	sort.SliceStable(runnable, func(i, j int) bool {
		if runnable[i].wake != runnable[j].wake {
			return runnable[i].wake < runnable[j].wake
		}
		return runnable[i].ID < runnable[j].ID
	})

	for _, t := range runnable {
		e.current = t
		t.resume <- struct{}{}
		outcome := <-t.yielded
		e.current = nil

		if outcome.done {
			t.Done = true
			t.Result = outcome.result
			t.Err = outcome.err
			e.removeTask(t.ID)

			if outcome.err != nil {
				e.poisoned = wieerr.Wrap(wieerr.KindExecutorPoisoned, outcome.err, "task %d failed", t.ID)
				return outcome.err
			}
		} else {
			t.wake = outcome.wake
		}
	}

	return nil
}

func (e *Executor) removeTask(id uint64) {
	for i, t := range e.tasks {
		if t.ID == id {
			e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
			return
		}
	}
}

// Pending reports how many tasks remain queued (runnable or sleeping).
func (e *Executor) Pending() int { return len(e.tasks) }

// Poisoned reports the error that poisoned the Executor, if any. Once
// poisoned, Tick always returns this same error without doing further
// work (spec §4.B Failure semantics, §7 kind 7).
func (e *Executor) Poisoned() error { return e.poisoned }
