package main

import (
	"github.com/palmrunner/palmrunner/internal/armcore"
	"github.com/palmrunner/palmrunner/internal/classlib"
	"github.com/palmrunner/palmrunner/internal/eventqueue"
	"github.com/palmrunner/palmrunner/internal/executor"
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/manifest"
	"github.com/palmrunner/palmrunner/internal/platform"
	"github.com/palmrunner/palmrunner/internal/stubs"
	_ "github.com/palmrunner/palmrunner/internal/stubs/all"
)

// session is every component a manifest-driven invocation boots: the
// executor every cooperative body runs on, the ARM Core backing any
// declared native library, the JVM bridge's registry/heap/runtime, and
// the resource table the manifest populated. "run" and "info" both build
// one the same way; only "run" goes on to spawn the entry class and tick
// the executor.
type session struct {
	Manifest *manifest.Manifest
	Exec     *executor.Executor
	Core     *armcore.Core
	Registry *jvmbridge.Registry
	Heap     *jvmbridge.Heap
	Runtime  *jvmbridge.Runtime
	Plat     platform.Platform

	StubsInstalled int
}

func newSession(m *manifest.Manifest, plat platform.Platform, events *eventqueue.Queue) (*session, error) {
	resources, err := m.LoadResources()
	if err != nil {
		return nil, err
	}

	registry := jvmbridge.NewRegistry()
	if err := classlib.Register(registry); err != nil {
		return nil, err
	}

	core, err := armcore.New()
	if err != nil {
		return nil, err
	}

	exec := executor.New()
	rt := &jvmbridge.Runtime{Exec: exec, Plat: plat, Resources: resources, Events: events}

	s := &session{
		Manifest: m,
		Exec:     exec,
		Core:     core,
		Registry: registry,
		Heap:     jvmbridge.NewHeap(),
		Runtime:  rt,
		Plat:     plat,
	}

	if m.Native != nil {
		if err := s.loadNativeLibrary(); err != nil {
			core.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *session) loadNativeLibrary() error {
	image, err := s.Manifest.LoadNativeImage()
	if err != nil {
		return err
	}

	size := (uint32(len(image)) + 0xFFF) &^ 0xFFF
	if size == 0 {
		size = 0x1000
	}
	if err := s.Core.MapRegion(s.Manifest.Native.Base, size, armcore.PermRead|armcore.PermWrite|armcore.PermExec, "native-library"); err != nil {
		return err
	}
	if err := s.Core.MemWrite(s.Manifest.Native.Base, image); err != nil {
		return err
	}

	installed, err := stubs.Install(s.Core, s.Manifest.Native.Symbols)
	if err != nil {
		return err
	}
	s.StubsInstalled = installed
	return nil
}

// Context builds a fresh jvmbridge.Context sharing this session's
// Registry/Heap/Runtime, for use inside a single spawned task body — a
// Context's Task field is only ever valid for the one task body holding
// it, so it is never shared between tasks.
func (s *session) Context(task *executor.TaskContext) *jvmbridge.Context {
	return &jvmbridge.Context{Registry: s.Registry, Heap: s.Heap, Runtime: s.Runtime, Task: task}
}

// Close releases the ARM Core's underlying engine.
func (s *session) Close() {
	if s.Core != nil {
		s.Core.Close()
	}
}
