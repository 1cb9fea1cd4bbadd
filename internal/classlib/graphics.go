package classlib

import (
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// org/kwis/msp/lcdui/Graphics is a standalone ARGB pixel buffer sized to
// whatever it was constructed with; Display.getGraphics hands out one
// sized to the current screen, and Display.repaint hands the same buffer
// to Platform.Screen.Paint. There is no clip stack or transform, only the
// handful of drawing primitives an application actually calls between
// those two points.
func graphicsProto() *jvmbridge.ClassProto {
	return &jvmbridge.ClassProto{
		Name:   "org/kwis/msp/lcdui/Graphics",
		Parent: "java/lang/Object",
		Fields: []jvmbridge.FieldProto{
			{Name: "width", Descriptor: "I"},
			{Name: "height", Descriptor: "I"},
			{Name: "color", Descriptor: "I"},
		},
		Methods: []jvmbridge.MethodProto{
			{Name: "<init>", Descriptor: "(II)V", Body: gfxInit},
			{Name: "setColor", Descriptor: "(I)V", Body: gfxSetColor},
			{Name: "fillRect", Descriptor: "(IIII)V", Body: gfxFillRect},
			{Name: "getWidth", Descriptor: "()I", Body: gfxGetWidth},
			{Name: "getHeight", Descriptor: "()I", Body: gfxGetHeight},
		},
	}
}

func gfxInit(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	if len(args) != 2 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics(int,int) expects two int arguments")
	}
	w, ok1 := args[0].(int32)
	h, ok2 := args[1].(int32)
	if !ok1 || !ok2 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics(int,int) expects two int arguments")
	}
	inst, err := ctx.Heap.Get(this)
	if err != nil {
		return nil, err
	}
	inst.Fields["width"] = w
	inst.Fields["height"] = h
	inst.Fields["color"] = int32(0)
	inst.Native = make([]uint32, int(w)*int(h))
	return nil, nil
}

func gfxSetColor(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	if len(args) != 1 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics.setColor expects one int argument")
	}
	c, ok := args[0].(int32)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics.setColor expects one int argument")
	}
	return nil, ctx.PutField(this, "color", c)
}

func gfxFillRect(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	if len(args) != 4 {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics.fillRect expects four int arguments")
	}
	x, xok := args[0].(int32)
	y, yok := args[1].(int32)
	w, wok := args[2].(int32)
	h, hok := args[3].(int32)
	if !xok || !yok || !wok || !hok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics.fillRect expects four int arguments")
	}

	inst, err := ctx.Heap.Get(this)
	if err != nil {
		return nil, err
	}
	buf, ok := inst.Native.([]uint32)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "Graphics instance has no pixel buffer")
	}
	width, _ := inst.Fields["width"].(int32)
	height, _ := inst.Fields["height"].(int32)
	color, _ := inst.Fields["color"].(int32)
	pixel := 0xFF000000 | (uint32(color) & 0x00FFFFFF)

	for row := y; row < y+h; row++ {
		if row < 0 || row >= height {
			continue
		}
		for col := x; col < x+w; col++ {
			if col < 0 || col >= width {
				continue
			}
			buf[int(row)*int(width)+int(col)] = pixel
		}
	}
	return nil, nil
}

func gfxGetWidth(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	v, err := ctx.GetField(this, "width")
	if err != nil {
		return nil, err
	}
	return v, nil
}

func gfxGetHeight(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	v, err := ctx.GetField(this, "height")
	if err != nil {
		return nil, err
	}
	return v, nil
}
