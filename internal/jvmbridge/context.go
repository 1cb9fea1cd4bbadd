package jvmbridge

import (
	"github.com/palmrunner/palmrunner/internal/executor"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Context is what a MethodBody receives: the means to call other methods,
// allocate/inspect/destroy instances, and suspend through the owning
// task's capability, all without holding a reference to the Executor
// itself — only the TaskContext handed in for this particular call.
type Context struct {
	Registry *Registry
	Heap     *Heap
	Runtime  *Runtime
	Task     *executor.TaskContext
}

// NewClass allocates an instance of name and, if a constructor descriptor
// is given, runs it.
func (c *Context) NewClass(name string, ctorDescriptor string, args []any) (InstanceHandle, error) {
	rc, err := c.Registry.Resolve(name)
	if err != nil {
		return Nil, err
	}
	handle := c.Heap.NewInstance(rc)
	if ctorDescriptor != "" {
		if _, err := c.InvokeVirtual(handle, "<init>", ctorDescriptor, args); err != nil {
			c.Heap.Destroy(handle)
			return Nil, err
		}
	}
	return handle, nil
}

// InvokeVirtual dispatches a method call, walking the receiver's class
// and its ancestors until a declared method body is found.
func (c *Context) InvokeVirtual(handle InstanceHandle, name, descriptor string, args []any) (any, error) {
	inst, err := c.Heap.Get(handle)
	if err != nil {
		return nil, err
	}
	return c.dispatch(inst.Class, handle, name, descriptor, args)
}

// InvokeStatic dispatches a static method call against a named class,
// with no receiver.
func (c *Context) InvokeStatic(className, name, descriptor string, args []any) (any, error) {
	class, err := c.Registry.Resolve(className)
	if err != nil {
		return nil, err
	}
	return c.dispatch(class, Nil, name, descriptor, args)
}

func (c *Context) dispatch(class *ResolvedClass, this InstanceHandle, name, descriptor string, args []any) (any, error) {
	for class != nil {
		if class.Proto != nil {
			if m, ok := class.Proto.Method(name, descriptor); ok {
				if m.Body == nil {
					return nil, wieerr.New(wieerr.KindMethodNotFound, "%s.%s%s has no runnable body (bytecode-only classes do not execute methods)", class.Name, name, descriptor)
				}
				return m.Body(c, this, args)
			}
			if class.Proto.Parent == "" {
				return nil, wieerr.New(wieerr.KindMethodNotFound, "%s.%s%s not found", class.Name, name, descriptor)
			}
			parent, err := c.Registry.Resolve(class.Proto.Parent)
			if err != nil {
				return nil, err
			}
			class = parent
			continue
		}
		return nil, wieerr.New(wieerr.KindMethodNotFound, "%s.%s%s not found (class has no proto)", class.Name, name, descriptor)
	}
	return nil, wieerr.New(wieerr.KindMethodNotFound, "%s%s not found", name, descriptor)
}

// GetField reads a field from an instance. Every field, whichever class in
// the hierarchy declares it, lives in the instance's one Fields map, so no
// hierarchy walk is done.
// An unset field reads as nil, the zero value for every descriptor kind
// a caller will type-assert it to.
func (c *Context) GetField(handle InstanceHandle, name string) (any, error) {
	inst, err := c.Heap.Get(handle)
	if err != nil {
		return nil, err
	}
	return inst.Fields[name], nil
}

// PutField writes a field on an instance.
func (c *Context) PutField(handle InstanceHandle, name string, value any) error {
	inst, err := c.Heap.Get(handle)
	if err != nil {
		return err
	}
	inst.Fields[name] = value
	return nil
}
