// Package stubs provides a registry for self-registering native
// device-library stub implementations. Each stub package uses init() to
// register its hooks, enabling clean separation of concerns.
//
// This is the mechanism spec.md's "thousands of per-class library stubs"
// refers to: the registration and dispatch plumbing is in scope even
// though any individual stub's business logic is not. A stub is ultimately
// just a HostFunc registered with the ARM Core's trampoline table
// (internal/armcore); Install's job is only to find the guest import slot
// that should be patched to jump there, something a native-image loader
// (out of scope, per spec.md §1) would normally hand over as a symbol
// table.
package stubs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/palmrunner/palmrunner/internal/armcore"
	glog "github.com/palmrunner/palmrunner/internal/log"
)

// HookFunc is the signature for stub hook functions: it receives the ARM
// Core as its re-entrant context and returns the guest-visible result
// word, exactly like any other armcore.HostFunc.
type HookFunc = armcore.HostFunc

// StubDef defines a stub with its symbol name and hook function.
type StubDef struct {
	Name     string   // Symbol name (e.g., "malloc", "pthread_create")
	Aliases  []string // Alternative symbol names
	Hook     HookFunc
	Category string // For logging: "libc", "pthread", "cxxabi"
}

// DetectorFunc is called when a detector's pattern matches a discovered
// symbol name. It receives the Core and the full symbol table and
// returns the number of additional hooks it installed.
type DetectorFunc func(core *armcore.Core, symbols map[string]uint32) int

// Detector defines a pattern-based activation group: a set of additional
// stubs that only makes sense once a matching symbol shows the guest
// image actually needs them (e.g. a device-library flavour that only
// some native images link against).
type Detector struct {
	Name        string
	Patterns    []string
	Activate    DetectorFunc
	Description string
}

// Registry holds all registered stub definitions.
type Registry struct {
	mu    sync.RWMutex
	stubs map[string]*StubDef

	detectorsMu sync.RWMutex
	detectors   []*Detector
	activated   map[string]bool

	OnCall func(category, name, detail string)
}

// DefaultRegistry is the global registry used by init() functions.
var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		stubs:     make(map[string]*StubDef),
		detectors: make([]*Detector, 0),
		activated: make(map[string]bool),
	}
}

// Register adds a stub definition to the registry. Called from init()
// functions in stub packages.
func (r *Registry) Register(def StubDef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stubs[def.Name] = &def
	for _, alias := range def.Aliases {
		r.stubs[alias] = &def
	}
}

// RegisterFunc is a convenience method to register a simple stub.
func (r *Registry) RegisterFunc(category, name string, hook HookFunc, aliases ...string) {
	r.Register(StubDef{Name: name, Aliases: aliases, Hook: hook, Category: category})
}

// RegisterDetector adds a detector that activates on a symbol-name
// pattern match.
func (r *Registry) RegisterDetector(d Detector) {
	r.detectorsMu.Lock()
	defer r.detectorsMu.Unlock()
	r.detectors = append(r.detectors, &d)
}

func (r *Registry) checkDetectors(core *armcore.Core, symbols map[string]uint32) int {
	r.detectorsMu.Lock()
	defer r.detectorsMu.Unlock()

	installed := 0
	for _, det := range r.detectors {
		if r.activated[det.Name] {
			continue
		}
		matched := false
		for name := range symbols {
			for _, pattern := range det.Patterns {
				if matchPattern(name, pattern) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			r.activated[det.Name] = true
			if glog.L != nil {
				glog.L.DetectorActivate(det.Name, det.Description)
			}
			installed += det.Activate(core, symbols)
		}
	}
	return installed
}

// matchPattern checks if a symbol name matches a glob-ish pattern: a
// leading and/or trailing "*" means prefix/suffix/substring, otherwise
// it's an exact-or-substring match.
func matchPattern(name, pattern string) bool {
	if strings.Contains(pattern, "*") {
		switch {
		case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
			return strings.Contains(name, pattern[1:len(pattern)-1])
		case strings.HasPrefix(pattern, "*"):
			return strings.HasSuffix(name, pattern[1:])
		case strings.HasSuffix(pattern, "*"):
			return strings.HasPrefix(name, pattern[:len(pattern)-1])
		}
	}
	return name == pattern || strings.Contains(name, pattern)
}

// Install resolves every registered stub against symbols (the native
// image's unresolved-import table: name -> the guest address that should
// hold a callable pointer), registers each matching stub's hook with the
// ARM Core's trampoline table, and patches that address to the resulting
// trampoline pointer. Pattern detectors then run against the same symbol
// table to activate any stub groups that only apply to a given native
// image flavour. Returns how many trampolines were installed.
func (r *Registry) Install(core *armcore.Core, symbols map[string]uint32) (int, error) {
	installed := 0
	seen := make(map[uint32]bool)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, importAddr := range symbols {
		def, ok := r.stubs[name]
		if !ok || importAddr == 0 || seen[importAddr] {
			continue
		}
		seen[importAddr] = true

		stub := def
		trampoline, err := core.RegisterFunction(name, stub.Hook)
		if err != nil {
			return installed, fmt.Errorf("stubs: install %s: %w", name, err)
		}
		if err := core.MemWriteU32(importAddr, trampoline); err != nil {
			return installed, fmt.Errorf("stubs: patch import slot for %s: %w", name, err)
		}
		installed++

		if glog.L != nil {
			glog.L.TrampolineInstall(stub.Category, name, trampoline)
		}
	}

	installed += r.checkDetectors(core, symbols)
	return installed, nil
}

// Count returns the number of registered stub names (aliases included).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stubs)
}

// List returns the distinct registered stub (primary) names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stubs))
	seen := make(map[string]bool)
	for _, def := range r.stubs {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		names = append(names, def.Name)
	}
	return names
}

// Convenience functions for the default registry.

func Register(def StubDef) { DefaultRegistry.Register(def) }

func RegisterFunc(category, name string, hook HookFunc, aliases ...string) {
	DefaultRegistry.RegisterFunc(category, name, hook, aliases...)
}

func RegisterDetector(d Detector) { DefaultRegistry.RegisterDetector(d) }

func Install(core *armcore.Core, symbols map[string]uint32) (int, error) {
	return DefaultRegistry.Install(core, symbols)
}

// Log reports a stub's activity to the OnCall callback (for trace
// collection) and to the structured logger.
func (r *Registry) Log(category, name, detail string) {
	r.mu.RLock()
	cb := r.OnCall
	r.mu.RUnlock()

	if cb != nil {
		cb(category, name, detail)
	}
	if glog.L != nil {
		glog.L.Native(category, name, detail)
	}
}
