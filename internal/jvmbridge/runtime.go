package jvmbridge

import (
	"github.com/palmrunner/palmrunner/internal/eventqueue"
	"github.com/palmrunner/palmrunner/internal/executor"
	"github.com/palmrunner/palmrunner/internal/platform"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Runtime is the JVM's view of the host: the same executor every ARM task
// runs on (so a Java Thread and a native thread are both ordinary
// cooperative tasks), the active Platform, the resource table opened
// files are served from, and the input/redraw event queue the guest's
// EventQueue class polls. It mirrors the original's JvmRuntime<T>, with
// spawn/sleep/yield expressed as Executor/TaskContext calls instead of an
// async runtime's primitives.
type Runtime struct {
	Exec      *executor.Executor
	Plat      platform.Platform
	Resources *platform.Resource
	Events    *eventqueue.Queue
}

// Sleep suspends the calling task until durationMs virtual milliseconds
// have elapsed, matching JvmRuntime::sleep's until = now + duration.
func (r *Runtime) Sleep(ctx *executor.TaskContext, durationMs uint64) {
	ctx.Sleep(ctx.Now() + durationMs)
}

// Yield gives other runnable tasks a turn.
func (r *Runtime) Yield(ctx *executor.TaskContext) {
	ctx.Yield()
}

// Spawn starts body as a new cooperative task, returning its id — the
// Java-visible equivalent of starting a Thread.
func (r *Runtime) Spawn(body executor.Body) uint64 {
	return r.Exec.Spawn(body)
}

// Now returns the host's wall-clock milliseconds.
func (r *Runtime) Now() uint64 { return r.Plat.Now() }

// CurrentTaskID reports the id of the task currently running, if any.
func (r *Runtime) CurrentTaskID(ctx *executor.TaskContext) uint64 { return ctx.TaskID() }

// WriteStdout forwards guest output to the platform.
func (r *Runtime) WriteStdout(p []byte) (int, error) { return r.Plat.WriteStdout(p) }

// ReadStdin is unsupported: WIPI/KTF applications never read from
// standard input, matching the original's Runtime::stdin returning
// Unsupported unconditionally.
func (r *Runtime) ReadStdin([]byte) (int, error) {
	return 0, wieerr.IOErrorUnsupported
}

// WriteStderr is unsupported for the same reason as ReadStdin.
func (r *Runtime) WriteStderr([]byte) (int, error) {
	return 0, wieerr.IOErrorUnsupported
}

// Open resolves path against the bundled resource table.
func (r *Runtime) Open(path string) (uint32, error) {
	id, ok := r.Resources.ID(path)
	if !ok {
		return 0, wieerr.IOErrorNotFound
	}
	return id, nil
}

// Stat reports a resource's size.
func (r *Runtime) Stat(path string) (uint32, error) {
	id, err := r.Open(path)
	if err != nil {
		return 0, err
	}
	size, statErr := r.Resources.Size(id)
	if statErr != nil {
		return 0, wieerr.IOErrorNotFound
	}
	return size, nil
}
