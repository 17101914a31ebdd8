package feather_test

import (
	"strings"
	"testing"

	"github.com/feather-lang/feather"
)

// TestScenarioArithmeticAndVariables covers spec.md §8.4 S1.
func TestScenarioArithmeticAndVariables(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.Eval("set x 10; set y 5; expr {$x * $y + 2}")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "52" {
		t.Errorf("expected 52, got %q", result.String())
	}
}

// TestScenarioListIteration covers spec.md §8.4 S2.
func TestScenarioListIteration(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.Eval("set s 0; foreach n {1 2 3 4 5} { incr s $n }; set s")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "15" {
		t.Errorf("expected 15, got %q", result.String())
	}
}

// TestScenarioProcDefaultsAndRest covers spec.md §8.4 S3.
func TestScenarioProcDefaultsAndRest(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	script := `proc greet {name {prefix Hello} args} { return "$prefix, $name! extras=[llength $args]" }`
	if _, err := interp.Eval(script); err != nil {
		t.Fatalf("proc definition failed: %v", err)
	}

	result, err := interp.Eval("greet World")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "Hello, World! extras=0" {
		t.Errorf("expected default-arg result, got %q", result.String())
	}

	result, err = interp.Eval("greet World Hi a b c")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "Hi, World! extras=3" {
		t.Errorf("expected rest-args result, got %q", result.String())
	}
}

// TestScenarioCatchAndErrorPropagation covers spec.md §8.4 S4.
func TestScenarioCatchAndErrorPropagation(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	script := `proc safeDiv {a b} { if {$b == 0} { error "divzero" }; expr {$a / $b} }`
	if _, err := interp.Eval(script); err != nil {
		t.Fatalf("proc definition failed: %v", err)
	}

	result, err := interp.Eval(`catch {safeDiv 10 0} msg opts; list $msg [dict get $opts -code]`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "divzero 1" {
		t.Errorf("expected \"divzero 1\", got %q", result.String())
	}
}

// TestScenarioUpvarModifiesCaller covers spec.md §8.4 S5.
func TestScenarioUpvarModifiesCaller(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	script := `proc bump {varName} { upvar 1 $varName v; incr v }
set counter 41; bump counter; set counter`
	result, err := interp.Eval(script)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "42" {
		t.Errorf("expected 42, got %q", result.String())
	}
}

// TestScenarioStreamingParse covers spec.md §8.4 S6: feeding an incomplete
// command across two chunks, then evaluating it once complete.
func TestScenarioStreamingParse(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	first := interp.Parse("set x {")
	if first.Status != feather.ParseIncomplete {
		t.Fatalf("expected incomplete status after first chunk, got %v", first.Status)
	}

	second := interp.Parse("set x {" + "hello}")
	if second.Status != feather.ParseOK {
		t.Fatalf("expected complete status once brace is closed, got %v", second.Status)
	}

	result, err := interp.Eval("set x {hello}")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "hello" {
		t.Errorf("expected \"hello\", got %q", result.String())
	}
}

// TestDivisionByZeroErrorCode covers spec.md §8.3: division by integer zero
// is an error with errorcode ARITH DIVZERO.
func TestDivisionByZeroErrorCode(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.Eval(`catch {expr {1 / 0}} msg opts; dict get $opts -errorcode`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "ARITH DIVZERO" {
		t.Errorf("expected \"ARITH DIVZERO\", got %q", result.String())
	}
}

// TestInfoLevelZero covers spec.md §8.1: "info level 0" inside a proc body
// yields the command as invoked.
func TestInfoLevelZero(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	if _, err := interp.Eval(`proc p {args} { return [info level 0] }`); err != nil {
		t.Fatalf("proc definition failed: %v", err)
	}
	result, err := interp.Eval(`p a b c`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "p a b c" {
		t.Errorf("expected \"p a b c\", got %q", result.String())
	}
}

// TestLmapAccumulatesResults exercises the lmap builtin (spec.md §4.3).
func TestLmapAccumulatesResults(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.Eval(`lmap n {1 2 3 4} { expr {$n * $n} }`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "1 4 9 16" {
		t.Errorf("expected \"1 4 9 16\", got %q", result.String())
	}
}

// TestSwitchRegexpMode exercises switch's -regexp matching mode.
func TestSwitchRegexpMode(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	result, err := interp.Eval(`switch -regexp -- "hello123" {
		{^[0-9]+$} {return number}
		{^[a-z]+[0-9]+$} {return alnum}
		default {return none}
	}`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "alnum" {
		t.Errorf("expected \"alnum\", got %q", result.String())
	}
}

// TestInfoIntrospection exercises a handful of "info" subcommands.
func TestInfoIntrospection(t *testing.T) {
	interp := feather.New()
	defer interp.Close()

	if _, err := interp.Eval(`proc square {x} { expr {$x * $x} }`); err != nil {
		t.Fatalf("proc definition failed: %v", err)
	}

	result, err := interp.Eval(`info exists nonexistentVar`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "0" {
		t.Errorf("expected 0, got %q", result.String())
	}

	result, err = interp.Eval(`info args square`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if result.String() != "x" {
		t.Errorf("expected \"x\", got %q", result.String())
	}

	result, err = interp.Eval(`info procs squ*`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if !strings.Contains(result.String(), "square") {
		t.Errorf("expected \"square\" in procs list, got %q", result.String())
	}
}
