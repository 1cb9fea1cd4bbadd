package classlib

import (
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/platform"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// org/kwis/msp/lcdui/Display is the single handle a WIPI application holds
// onto the host screen. getDisplay/getDefaultDisplay both return a fresh
// instance per call, same as the original's display.rs — there is no
// shared Display singleton to keep in sync, since every instance forwards
// straight through to the one Platform the JVM bridge was built with.
func displayProto() *jvmbridge.ClassProto {
	return &jvmbridge.ClassProto{
		Name:   "org/kwis/msp/lcdui/Display",
		Parent: "java/lang/Object",
		Methods: []jvmbridge.MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: mustScript("0")},
			{Name: "getDisplay", Descriptor: "(Ljava/lang/String;)Lorg/kwis/msp/lcdui/Display;", Static: true, Body: dispGetDisplay},
			{Name: "getDefaultDisplay", Descriptor: "()Lorg/kwis/msp/lcdui/Display;", Static: true, Body: dispGetDisplay},
			{Name: "getDockedCard", Descriptor: "()Lorg/kwis/msp/lcdui/Card;", Body: dispGetDockedCard},
			{Name: "pushCard", Descriptor: "(Lorg/kwis/msp/lcdui/Card;)V", Body: dispNoop},
			{Name: "getWidth", Descriptor: "()I", Body: dispGetWidth},
			{Name: "getHeight", Descriptor: "()I", Body: dispGetHeight},
			{Name: "getGraphics", Descriptor: "()Lorg/kwis/msp/lcdui/Graphics;", Body: dispGetGraphics},
			{Name: "repaint", Descriptor: "(Lorg/kwis/msp/lcdui/Graphics;)V", Body: dispRepaint},
		},
	}
}

func dispGetDisplay(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	return ctx.NewClass("org/kwis/msp/lcdui/Display", "()V", nil)
}

func dispGetDockedCard(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	return jvmbridge.Nil, nil
}

func dispNoop(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	return nil, nil
}

func dispScreen(ctx *jvmbridge.Context) (platform.Screen, error) {
	if ctx.Runtime == nil || ctx.Runtime.Plat == nil {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Display called with no backing Platform")
	}
	return ctx.Runtime.Plat.Screen(), nil
}

func dispGetWidth(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	screen, err := dispScreen(ctx)
	if err != nil {
		return nil, err
	}
	return int32(screen.Width()), nil
}

func dispGetHeight(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	screen, err := dispScreen(ctx)
	if err != nil {
		return nil, err
	}
	return int32(screen.Height()), nil
}

func dispGetGraphics(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	screen, err := dispScreen(ctx)
	if err != nil {
		return nil, err
	}
	return ctx.NewClass("org/kwis/msp/lcdui/Graphics", "(II)V", []any{int32(screen.Width()), int32(screen.Height())})
}

func dispRepaint(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	if len(args) != 1 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Display.repaint expects a Graphics argument")
	}
	handle, ok := args[0].(jvmbridge.InstanceHandle)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Display.repaint expects a Graphics argument")
	}
	inst, err := ctx.Heap.Get(handle)
	if err != nil {
		return nil, err
	}
	buf, ok := inst.Native.([]uint32)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics instance has no pixel buffer")
	}
	if ctx.Runtime == nil || ctx.Runtime.Plat == nil {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Display called with no backing Platform")
	}
	return nil, ctx.Runtime.Plat.Screen().Paint(buf)
}
