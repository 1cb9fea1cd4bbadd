package scripting

import (
	"testing"

	"github.com/palmrunner/palmrunner/internal/jvmbridge"
)

func TestMethodReturnsLastExpression(t *testing.T) {
	body, err := Method("args[0] + args[1]")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}

	ctx := &jvmbridge.Context{}
	result, err := body(ctx, jvmbridge.Nil, []any{int32(3), int32(4)})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	if result != int32(7) {
		t.Fatalf("result = %v, want 7", result)
	}
}

func TestMethodRejectsInvalidSyntax(t *testing.T) {
	if _, err := Method("this is not valid js {{{"); err == nil {
		t.Fatalf("expected compile error")
	}
}
