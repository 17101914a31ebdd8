package feather_test

import (
	"strings"
	"testing"

	"github.com/feather-lang/feather"
)

// This file covers the parts of the public API that api_test.go's
// subtest-organized walkthrough doesn't reach: the lower-level entry points
// (Command, EvalObj, EvalFlags, SetRecursionLimit) and a couple of
// regression cases worth pinning down on their own.

func TestCommand(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	interp.Register("double", func(x int) int { return x * 2 })

	result, err := interp.Command("double", interp.Int(21))
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if result.String() != "42" {
		t.Errorf("expected '42', got %q", result.String())
	}

	// Builtins are reachable the same way as registered commands.
	result, err = interp.Command("string", interp.String("length"), interp.String("hello"))
	if err != nil {
		t.Fatalf("Command(string length) failed: %v", err)
	}
	if result.String() != "5" {
		t.Errorf("expected '5', got %q", result.String())
	}

	if _, err := interp.Command("nosuchcommand"); err == nil {
		t.Error("expected error invoking an unknown command")
	}
}

func TestEvalObj(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	interp.SetVar("x", "10")
	script := interp.String("expr {$x * 4}")

	result, err := interp.EvalObj(script)
	if err != nil {
		t.Fatalf("EvalObj failed: %v", err)
	}
	if result.String() != "40" {
		t.Errorf("expected '40', got %q", result.String())
	}
}

func TestEvalFlags(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.EvalFlags("expr {6 * 7}", feather.EvalLocal)
	if err != nil {
		t.Fatalf("EvalFlags failed: %v", err)
	}
	if result.String() != "42" {
		t.Errorf("expected '42', got %q", result.String())
	}

	// Eval is just EvalFlags pinned to EvalLocal.
	want, err := interp.Eval("expr {6 * 7}")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != want.String() {
		t.Errorf("EvalFlags(EvalLocal) diverged from Eval: %q vs %q", result.String(), want.String())
	}
}

func TestSetRecursionLimit(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	if _, err := interp.Eval(`
		proc recurse {n} {
			if {$n <= 0} { return 0 }
			return [recurse [expr {$n - 1}]]
		}
	`); err != nil {
		t.Fatalf("defining recurse failed: %v", err)
	}

	interp.SetRecursionLimit(8)

	if _, err := interp.Eval("recurse 4"); err != nil {
		t.Errorf("recurse 4 under a limit of 8 should succeed, got: %v", err)
	}

	_, err := interp.Eval("recurse 1000")
	if err == nil {
		t.Fatal("expected recursion past the limit to fail")
	}
	if !strings.Contains(err.Error(), "nested") {
		t.Errorf("expected a nesting-depth error, got: %v", err)
	}

	// A non-positive limit resets to the default rather than disabling the
	// check outright.
	interp.SetRecursionLimit(0)
	if _, err := interp.Eval("recurse 50"); err != nil {
		t.Errorf("recurse 50 under the default limit should succeed, got: %v", err)
	}
}

func TestRegisterCommandPreservesObjectType(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	// RegisterCommand's adapter must hand back the *Obj a handler built
	// (via OK/Errorf's object-carrying form) rather than flattening it
	// through a string round-trip, so typed results stay typed.
	interp.RegisterCommand("makelist", func(i *feather.Interp, cmd *feather.Obj, args []*feather.Obj) feather.Result {
		return feather.OK(i.List(i.Int(1), i.Int(2), i.Int(3)))
	})

	result, err := interp.Eval("makelist")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.Type() != "list" {
		t.Errorf("expected type 'list', got %q", result.Type())
	}
	items, err := feather.AsList(result)
	if err != nil || len(items) != 3 {
		t.Errorf("AsList() = %v, %v; want 3 items", items, err)
	}
}
