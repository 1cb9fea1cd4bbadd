package classlib

import (
	"github.com/palmrunner/palmrunner/internal/eventqueue"
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// org/kwis/msp/lcdui/EventQueue drains internal/eventqueue's host-side
// FIFO into guest memory. getNextEvent blocks the calling task (by
// sleeping and retrying) until an event is available, matching the
// original's get_next_event loop rather than the polling non-blocking
// contract spec.md describes at the FIFO level — the blocking is pushed up
// into this class, same as the original pushes it into the Java method
// while keeping the FIFO itself a non-blocking pop.
func eventQueueProto() *jvmbridge.ClassProto {
	return &jvmbridge.ClassProto{
		Name:   "org/kwis/msp/lcdui/EventQueue",
		Parent: "java/lang/Object",
		Methods: []jvmbridge.MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: mustScript("0")},
			{Name: "getNextEvent", Descriptor: "([I)V", Body: eqGetNextEvent},
		},
	}
}

func eqGetNextEvent(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	if len(args) != 1 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "EventQueue.getNextEvent expects one int array argument")
	}
	handle, ok := args[0].(jvmbridge.InstanceHandle)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "EventQueue.getNextEvent expects an int array argument")
	}

	for {
		if ctx.Runtime != nil && ctx.Runtime.Events != nil {
			if ev, ok := ctx.Runtime.Events.Pop(); ok {
				return nil, storeWireEvent(ctx, handle, ev)
			}
		}
		if ctx.Task == nil {
			return nil, nil
		}
		ctx.Task.Sleep(ctx.Task.Now() + 16)
	}
}

func storeWireEvent(ctx *jvmbridge.Context, handle jvmbridge.InstanceHandle, ev eventqueue.Event) error {
	inst, err := ctx.Heap.Get(handle)
	if err != nil {
		return err
	}
	wire := ev.ToWire()
	for i, w := range wire {
		if i >= len(inst.Elements) {
			break
		}
		inst.Elements[i] = w
	}
	return nil
}
