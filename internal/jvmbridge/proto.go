// Package jvmbridge implements the minimal JVM surface guest WIPI/KTF
// applications run against: class registration, three-tier class
// resolution, instance/array lifetime, method dispatch between
// host-implemented and scripted bodies, and the runtime adapter that lets
// Java code sleep, yield, spawn, and do I/O through the same cooperative
// executor ARM code runs on.
package jvmbridge

import "github.com/google/uuid"

// MethodBody is a host-implemented method: it receives the interpreter
// context (for nested calls, field access, and object creation), the
// receiver handle (Nil for a static method), and its arguments as plain
// Go values — int32/int64 for the corresponding Java primitives,
// InstanceHandle for object/array references, string where a method's
// contract is defined in terms of one (matching how java/lang/String is
// modeled, see internal/classlib) — and returns a single result value
// plus an error. This is a deliberate departure from the original's
// uniform JavaWord argument convention: Go's interface{} makes a host
// method's intent legible at the call site, and nothing downstream needs
// raw integers reinterpreted as pointers the way the ARM calling
// convention does.
type MethodBody func(ctx *Context, this InstanceHandle, args []any) (any, error)

// MethodProto declares one method of a class: its name, descriptor, and
// either a host-implemented MethodBody or a nil Body. Dispatching to a
// method with a nil Body fails with KindMethodNotFound; no bytecode is
// interpreted in its place.
type MethodProto struct {
	Name       string
	Descriptor string
	Body       MethodBody
	Static     bool
}

// FieldProto declares one field of a class.
type FieldProto struct {
	Name       string
	Descriptor string
	Static     bool
}

// ClassProto is a host-declared class: everything the original expressed
// as a Rust `WieJavaClassProto` literal — name, optional parent, methods,
// fields — translated into data a Registry can install without any
// bytecode backing it at all.
type ClassProto struct {
	Name       string
	Parent     string
	Interfaces []string
	Methods    []MethodProto
	Fields     []FieldProto
}

// Method looks up a declared method by name and descriptor.
func (p *ClassProto) Method(name, descriptor string) (*MethodProto, bool) {
	for i := range p.Methods {
		if p.Methods[i].Name == name && p.Methods[i].Descriptor == descriptor {
			return &p.Methods[i], true
		}
	}
	return nil, false
}

// Field looks up a declared field by name.
func (p *ClassProto) Field(name string) (*FieldProto, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// InstanceHandle identifies one allocated object or array for as long as
// it remains reachable. Unlike a garbage-collected heap, lifetime here is
// explicit: a handle stays valid until Destroy is called on it.
type InstanceHandle uuid.UUID

func newHandle() InstanceHandle { return InstanceHandle(uuid.New()) }

func (h InstanceHandle) String() string { return uuid.UUID(h).String() }

// Nil is the null reference, matching Java's null for object/array fields
// that have never been assigned.
var Nil InstanceHandle
