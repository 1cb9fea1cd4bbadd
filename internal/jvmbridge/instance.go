package jvmbridge

import "github.com/palmrunner/palmrunner/internal/wieerr"

// Instance is a live object or array. Fields are stored by name as plain
// Go values (int32/int64 for primitives, InstanceHandle for object/array
// references) so that the class proto's field descriptors are what give
// them meaning, not a fixed-width encoding.
type Instance struct {
	Class  *ResolvedClass
	Fields map[string]any

	// Array payload; nil for ordinary objects.
	Elements []any

	// Native holds a host-side representation for classes it would be
	// needless indirection to model purely through Fields/Elements (e.g.
	// java/lang/String's backing text). Proto method bodies for such a
	// class agree privately on Native's concrete type.
	Native any
}

// Heap is the manual-lifetime object arena: every live Instance is keyed
// by an InstanceHandle minted at allocation and explicitly freed with
// Destroy, replacing the original's tracing-GC assumption with the
// capability-passing idiom used everywhere else in this codebase.
type Heap struct {
	instances map[InstanceHandle]*Instance
}

func NewHeap() *Heap {
	return &Heap{instances: make(map[InstanceHandle]*Instance)}
}

// NewInstance allocates a new object of the given resolved class.
func (h *Heap) NewInstance(class *ResolvedClass) InstanceHandle {
	handle := newHandle()
	h.instances[handle] = &Instance{Class: class, Fields: make(map[string]any)}
	return handle
}

// NewArray allocates a new array instance with length elements, all
// zero-initialized.
func (h *Heap) NewArray(length int) InstanceHandle {
	handle := newHandle()
	h.instances[handle] = &Instance{Elements: make([]any, length)}
	return handle
}

// Get looks up a live instance by handle.
func (h *Heap) Get(handle InstanceHandle) (*Instance, error) {
	if handle == Nil {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "dereferenced null reference")
	}
	inst, ok := h.instances[handle]
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "use of destroyed or unknown handle %s", handle)
	}
	return inst, nil
}

// Destroy releases an instance. Using its handle afterward is an error,
// not undefined behavior: Get reports it explicitly.
func (h *Heap) Destroy(handle InstanceHandle) {
	delete(h.instances, handle)
}

// Live reports how many instances are currently allocated, for tests that
// check a scenario doesn't leak handles.
func (h *Heap) Live() int { return len(h.instances) }
