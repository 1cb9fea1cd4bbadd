// Package scripting provides scripted method bodies: class protos whose
// method implementations are authored as small JavaScript snippets rather
// than compiled Go closures, for quick prototyping of a class's behavior
// without a recompile. Each call of a scripted method gets its own goja
// runtime instance, since goja.Runtime is not safe for concurrent use and task
// bodies may themselves be re-entered recursively.
package scripting

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// Method compiles source once and returns a jvmbridge.MethodBody that runs
// it against a fresh goja runtime on every call. The script sees its
// arguments as a global array `args` (numbers and strings passed through,
// object/array handles widened to their string form) and five host
// bridges: `sleep(ms)`, `yield()`, `log(message)`, and `getField(name)`/
// `putField(name, value)` bound to the method's receiver; its completion
// value (the value of the last evaluated expression) becomes the
// method's return value, coerced to an int32 unless it is a string.
func Method(source string) (jvmbridge.MethodBody, error) {
	program, err := goja.Compile("<scripted-method>", source, false)
	if err != nil {
		return nil, wieerr.Wrap(wieerr.KindProtocolViolation, err, "compile scripted method")
	}

	return func(ctx *jvmbridge.Context, this jvmbridge.InstanceHandle, args []any) (any, error) {
		vm := goja.New()

		jsArgs := make([]interface{}, len(args))
		for i, a := range args {
			switch v := a.(type) {
			case jvmbridge.InstanceHandle:
				jsArgs[i] = v.String()
			default:
				jsArgs[i] = v
			}
		}
		if err := vm.Set("args", jsArgs); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted method args")
		}
		if err := vm.Set("getField", func(name string) any {
			v, _ := ctx.GetField(this, name)
			return v
		}); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted getField")
		}
		if err := vm.Set("putField", func(name string, value any) {
			_ = ctx.PutField(this, name, value)
		}); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted putField")
		}
		if err := vm.Set("sleep", func(ms int64) {
			if ctx.Task != nil {
				ctx.Task.Sleep(ctx.Task.Now() + uint64(ms))
			}
		}); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted sleep")
		}
		if err := vm.Set("yield", func() {
			if ctx.Task != nil {
				ctx.Task.Yield()
			}
		}); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted yield")
		}
		if err := vm.Set("log", func(msg string) {
			if ctx.Runtime != nil {
				_, _ = ctx.Runtime.WriteStdout([]byte(fmt.Sprintln(msg)))
			}
		}); err != nil {
			return 0, wieerr.Wrap(wieerr.KindProtocolViolation, err, "bind scripted log")
		}

		result, err := vm.RunProgram(program)
		if err != nil {
			return nil, wieerr.Wrap(wieerr.KindHostBody, err, "run scripted method")
		}
		if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
			return nil, nil
		}
		switch result.ExportType() {
		case nil:
			return nil, nil
		default:
			if _, ok := result.Export().(string); ok {
				return result.String(), nil
			}
			return int32(result.ToInteger()), nil
		}
	}, nil
}
