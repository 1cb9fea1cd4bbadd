package jvmbridge

import (
	glog "github.com/palmrunner/palmrunner/internal/log"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Classpath tags where a class was declared, preserved from the original
// as guest-visible constants: KTF binaries reference these two literal
// classpath strings when asking the runtime to resolve a class.
const (
	RtRustjar  = "rt.rustjar"
	WieRustjar = "wie.rustjar"
)

// ClassFile is a raw .class bytecode blob, the third resolution tier.
// Running its methods is out of scope here (see DESIGN.md) — a class
// found only as bytecode resolves successfully and its fields/hierarchy
// are usable, but invoking a method with no host-declared body returns
// KindMethodNotFound rather than interpreting bytecode.
type ClassFile struct {
	Name string
	Data []byte
}

// Registry is the class loader: host-declared protos under their
// classpath tier, plus a flat bytecode classpath fallback. Resolution
// order is RT_RUSTJAR, then WIE_RUSTJAR, then bytecode. Within a tier the
// first registration of a given name wins and a second one is rejected;
// the same name may be registered in several tiers, and then tier order,
// not registration order, decides which one Resolve returns.
type Registry struct {
	rtProtos  map[string]*ClassProto
	wieProtos map[string]*ClassProto
	bytecode  map[string]*ClassFile

	resolved map[string]*ResolvedClass
}

// ResolvedClass is what Resolve hands back: a proto if one exists for
// this name at any tier, its tier, and/or the raw bytecode if that's all
// there was.
type ResolvedClass struct {
	Name     string
	Tier     string // RtRustjar, WieRustjar, or "bytecode"
	Proto    *ClassProto
	Bytecode *ClassFile
}

func NewRegistry() *Registry {
	return &Registry{
		rtProtos:  make(map[string]*ClassProto),
		wieProtos: make(map[string]*ClassProto),
		bytecode:  make(map[string]*ClassFile),
		resolved:  make(map[string]*ResolvedClass),
	}
}

// RegisterProto installs a host-declared class under the given tier
// (RtRustjar or WieRustjar). Registering the same name twice within a
// tier is an error: the first-registered definition remains in
// effect and the second call is rejected rather than silently ignored.
func (r *Registry) RegisterProto(tier string, proto *ClassProto) error {
	table, err := r.tierTable(tier)
	if err != nil {
		return err
	}
	if _, exists := table[proto.Name]; exists {
		return wieerr.New(wieerr.KindProtocolViolation, "class %s already registered in %s", proto.Name, tier)
	}
	table[proto.Name] = proto
	if glog.L != nil {
		glog.L.ClassRegister(tier, proto.Name)
	}
	return nil
}

// Count reports how many protos are registered under the given tier,
// for callers (cmd/palmrunner's info subcommand) reporting what a
// manifest pulled in without walking the Registry's internals directly.
func (r *Registry) Count(tier string) int {
	table, err := r.tierTable(tier)
	if err != nil {
		return 0
	}
	return len(table)
}

// RegisterBytecode installs a raw classfile on the bytecode classpath.
// Re-registering an already-loaded name is an error.
func (r *Registry) RegisterBytecode(cf *ClassFile) error {
	if _, exists := r.bytecode[cf.Name]; exists {
		return wieerr.New(wieerr.KindProtocolViolation, "class %s already registered on the bytecode classpath", cf.Name)
	}
	r.bytecode[cf.Name] = cf
	if glog.L != nil {
		glog.L.ClassRegister("bytecode", cf.Name)
	}
	return nil
}

func (r *Registry) tierTable(tier string) (map[string]*ClassProto, error) {
	switch tier {
	case RtRustjar:
		return r.rtProtos, nil
	case WieRustjar:
		return r.wieProtos, nil
	default:
		return nil, wieerr.New(wieerr.KindProtocolViolation, "unknown classpath tier %q", tier)
	}
}

// Resolve finds a class by binary name, trying RT_RUSTJAR, then
// WIE_RUSTJAR, then the bytecode classpath, in that order. Results are
// cached: a class that resolves once keeps resolving to the same
// ResolvedClass for the lifetime of the Registry.
func (r *Registry) Resolve(name string) (*ResolvedClass, error) {
	if rc, ok := r.resolved[name]; ok {
		return rc, nil
	}

	if proto, ok := r.rtProtos[name]; ok {
		rc := &ResolvedClass{Name: name, Tier: RtRustjar, Proto: proto}
		r.resolved[name] = rc
		return rc, nil
	}
	if proto, ok := r.wieProtos[name]; ok {
		rc := &ResolvedClass{Name: name, Tier: WieRustjar, Proto: proto}
		r.resolved[name] = rc
		return rc, nil
	}
	if cf, ok := r.bytecode[name]; ok {
		rc := &ResolvedClass{Name: name, Tier: "bytecode", Bytecode: cf}
		r.resolved[name] = rc
		return rc, nil
	}

	return nil, wieerr.New(wieerr.KindClassNotFound, "class %s not found in any classpath tier", name)
}
