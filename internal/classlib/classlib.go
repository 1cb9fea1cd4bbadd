// Package classlib holds the host-declared class protos that back a WIPI
// application's only unavoidable dependencies: a couple of java.lang
// classes from the runtime jar (RT_RUSTJAR) and the org.kwis.msp.lcdui
// device-library classes (WIE_RUSTJAR) it calls into directly, as opposed
// to the thousands a full device jar would carry. Each proto is registered
// the same way any other class would be — see internal/jvmbridge's
// RegisterProto — so nothing about dispatch treats these specially.
package classlib

import (
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/scripting"
)

// mustScript compiles a scripted method body at init time, the same
// MustCompile idiom regexp uses: a fixed literal source failing to compile
// is a programming error in this package, not a runtime condition a caller
// could recover from.
func mustScript(source string) jvmbridge.MethodBody {
	body, err := scripting.Method(source)
	if err != nil {
		panic(err)
	}
	return body
}

// objectProto is the root of every class hierarchy this package declares.
// It carries no behavior of its own; it exists so method dispatch has
// somewhere to land (and fail with MethodNotFound, not ClassNotFound) when
// a lookup walks off the end of a proto's declared methods.
func objectProto() *jvmbridge.ClassProto {
	return &jvmbridge.ClassProto{
		Name:    "java/lang/Object",
		Methods: []jvmbridge.MethodProto{{Name: "<init>", Descriptor: "()V", Body: mustScript("0")}},
	}
}

// Register installs every class proto this package knows about: the
// java.lang classes onto the RT_RUSTJAR tier, the lcdui device classes
// onto WIE_RUSTJAR. Call it once during JVM bridge setup, before any guest
// code runs.
func Register(r *jvmbridge.Registry) error {
	rt := []*jvmbridge.ClassProto{
		objectProto(),
		stringBufferProto(),
	}
	for _, p := range rt {
		if err := r.RegisterProto(jvmbridge.RtRustjar, p); err != nil {
			return err
		}
	}

	wie := []*jvmbridge.ClassProto{
		eventQueueProto(),
		displayProto(),
		graphicsProto(),
	}
	for _, p := range wie {
		if err := r.RegisterProto(jvmbridge.WieRustjar, p); err != nil {
			return err
		}
	}
	return nil
}
