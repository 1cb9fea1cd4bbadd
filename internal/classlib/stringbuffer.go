package classlib

import (
	"strconv"

	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// stringBufferInitialCapacity is the backing array's size on a no-arg
// <init>, matching java/lang/string_buffer.rs's default allocation.
const stringBufferInitialCapacity = 16

// java/lang/StringBuffer backs its text the way the original does: a
// "value" char array ("[C") holding live characters plus slack capacity,
// and a separate "count" of how many of those characters are in use.
// Appending past capacity doubles it (sbEnsureCapacity below), so the
// array's length and count diverge exactly as they do in
// java/lang/string_buffer.rs's ensure_capacity.
func stringBufferProto() *jvmbridge.ClassProto {
	return &jvmbridge.ClassProto{
		Name:   "java/lang/StringBuffer",
		Parent: "java/lang/Object",
		Fields: []jvmbridge.FieldProto{
			{Name: "value", Descriptor: "[C"},
			{Name: "count", Descriptor: "I"},
		},
		Methods: []jvmbridge.MethodProto{
			{Name: "<init>", Descriptor: "()V", Body: sbInitEmpty},
			{Name: "<init>", Descriptor: "(Ljava/lang/String;)V", Body: sbInitWith},
			{Name: "append", Descriptor: "(Ljava/lang/String;)Ljava/lang/StringBuffer;", Body: sbAppendString},
			{Name: "append", Descriptor: "(I)Ljava/lang/StringBuffer;", Body: sbAppendInt},
			{Name: "toString", Descriptor: "()Ljava/lang/String;", Body: sbToString},
			{Name: "length", Descriptor: "()I", Body: sbLength},
		},
	}
}

func sbInitEmpty(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	arr := ctx.Heap.NewArray(stringBufferInitialCapacity)
	if err := ctx.PutField(this, "value", arr); err != nil {
		return nil, err
	}
	return nil, ctx.PutField(this, "count", int32(0))
}

func sbInitWith(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "StringBuffer(String) expects a string argument")
	}
	chars := stringToChars(s)
	arr := ctx.Heap.NewArray(len(chars))
	inst, err := ctx.Heap.Get(arr)
	if err != nil {
		return nil, err
	}
	copy(inst.Elements, chars)
	if err := ctx.PutField(this, "value", arr); err != nil {
		return nil, err
	}
	return nil, ctx.PutField(this, "count", int32(len(chars)))
}

func sbAppendString(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "StringBuffer.append(String) expects a string argument")
	}
	if err := sbAppendChars(ctx, this, stringToChars(s)); err != nil {
		return nil, err
	}
	return this, nil
}

func sbAppendInt(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	n, ok := args[0].(int32)
	if !ok {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "StringBuffer.append(int) expects an int32 argument")
	}
	if err := sbAppendChars(ctx, this, stringToChars(strconv.Itoa(int(n)))); err != nil {
		return nil, err
	}
	return this, nil
}

func sbToString(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	arr, count, err := sbValueAndCount(ctx, this)
	if err != nil {
		return nil, err
	}
	return charsToString(arr.Elements[:count]), nil
}

func sbLength(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
	n, err := ctx.GetField(this, "count")
	if err != nil {
		return nil, err
	}
	if n == nil {
		return int32(0), nil
	}
	return n, nil
}

// sbValueAndCount fetches the backing array instance and how many of its
// elements are live text, the pair every read/append path needs.
func sbValueAndCount(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle) (*jvmbridge.Instance, int, error) {
	v, err := ctx.GetField(this, "value")
	if err != nil {
		return nil, 0, err
	}
	handle, ok := v.(jvmbridge.InstanceHandle)
	if !ok {
		return nil, 0, wieerr.New(wieerr.KindProtocolViolation, "StringBuffer.value is not an array reference")
	}
	arr, err := ctx.Heap.Get(handle)
	if err != nil {
		return nil, 0, err
	}
	c, err := ctx.GetField(this, "count")
	if err != nil {
		return nil, 0, err
	}
	count, _ := c.(int32)
	return arr, int(count), nil
}

// sbEnsureCapacity grows the backing array to at least capacity
// elements, doubling it the same way ensure_capacity does in
// java/lang/string_buffer.rs, and replaces the "value" field with the
// grown array.
func sbEnsureCapacity(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, capacity int) error {
	arr, _, err := sbValueAndCount(ctx, this)
	if err != nil {
		return err
	}
	if len(arr.Elements) >= capacity {
		return nil
	}

	oldHandle, err := ctx.GetField(this, "value")
	if err != nil {
		return err
	}

	newCapacity := capacity * 2
	newHandle := ctx.Heap.NewArray(newCapacity)
	newArr, err := ctx.Heap.Get(newHandle)
	if err != nil {
		return err
	}
	copy(newArr.Elements, arr.Elements)

	if err := ctx.PutField(this, "value", newHandle); err != nil {
		return err
	}
	ctx.Heap.Destroy(oldHandle.(jvmbridge.InstanceHandle))
	return nil
}

// sbAppendChars grows the backing array if needed, writes chars starting
// at the current count, and advances count by len(chars).
func sbAppendChars(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, chars []any) error {
	_, count, err := sbValueAndCount(ctx, this)
	if err != nil {
		return err
	}
	if err := sbEnsureCapacity(ctx, this, count+len(chars)); err != nil {
		return err
	}

	arr, _, err := sbValueAndCount(ctx, this)
	if err != nil {
		return err
	}
	copy(arr.Elements[count:], chars)
	return ctx.PutField(this, "count", int32(count+len(chars)))
}

// stringToChars splits a Go string into one element per Unicode code
// point (rune). A character outside the Basic Multilingual Plane takes one
// element, not a UTF-16 surrogate pair.
func stringToChars(s string) []any {
	runes := []rune(s)
	chars := make([]any, len(runes))
	for i, r := range runes {
		chars[i] = int32(r)
	}
	return chars
}

func charsToString(chars []any) string {
	runes := make([]rune, len(chars))
	for i, c := range chars {
		n, _ := c.(int32)
		runes[i] = rune(n)
	}
	return string(runes)
}
