package feather_test

import (
	"fmt"
	"regexp"
	"time"

	"github.com/feather-lang/feather"
)

// RouteType caches a compiled regular expression used to match URL-style
// paths. This is the canonical use case for a custom ObjType: avoid
// recompiling the same pattern on every call.
type RouteType struct {
	pattern string
	re      *regexp.Regexp
}

func (r *RouteType) Name() string         { return "route" }
func (r *RouteType) UpdateString() string { return r.pattern }
func (r *RouteType) Dup() feather.ObjType { return r } // immutable, safe to share

// NewRouteObj compiles a path pattern and wraps it in an Obj.
func NewRouteObj(pattern string) (*feather.Obj, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return feather.NewObj(&RouteType{pattern: pattern, re: re}), nil
}

// AsRoute extracts the compiled pattern from an Obj, if it is one.
func AsRoute(obj *feather.Obj) (*regexp.Regexp, bool) {
	if rt, ok := obj.InternalRep().(*RouteType); ok {
		return rt.re, true
	}
	return nil, false
}

// registerRouteCommands adds "route" and "matches" commands to an
// interpreter; factored out so both examples below can share it.
func registerRouteCommands(interp *feather.Interp) {
	interp.RegisterCommand("route", func(i *feather.Interp, cmd *feather.Obj, args []*feather.Obj) feather.Result {
		if len(args) < 1 {
			return feather.Errorf("wrong # args: should be \"route pattern\"")
		}
		obj, err := NewRouteObj(args[0].String())
		if err != nil {
			// err.Error() rather than the error value itself, so regexp's
			// own "[" and "]" in the message don't get TCL-quoted.
			return feather.Error(err.Error())
		}
		return feather.OK(obj)
	})

	interp.RegisterCommand("matches", func(i *feather.Interp, cmd *feather.Obj, args []*feather.Obj) feather.Result {
		if len(args) < 2 {
			return feather.Errorf("wrong # args: should be \"matches route path\"")
		}
		re, ok := AsRoute(args[0])
		if !ok {
			// Not a cached route object; fall back to compiling the
			// string form directly.
			var err error
			re, err = regexp.Compile(args[0].String())
			if err != nil {
				return feather.Error(err.Error())
			}
		}
		if re.MatchString(args[1].String()) {
			return feather.OK(1)
		}
		return feather.OK(0)
	})
}

// Example_routeType shows a custom ObjType caching a compiled regular
// expression across repeated matches.
func Example_routeType() {
	interp := feather.New()
	defer interp.Close()
	registerRouteCommands(interp)

	result, _ := interp.Eval(`
		set r [route {^/users/\d+$}]
		matches $r "/users/12345"
	`)
	fmt.Println(result.String())
	// Output: 1
}

// Example_routeTypeError shows a compile error surfacing as a TCL error,
// both uncaught and caught with "catch".
func Example_routeTypeError() {
	interp := feather.New()
	defer interp.Close()
	registerRouteCommands(interp)

	_, err := interp.Eval(`route {*broken}`)
	fmt.Println("Direct error:", err)

	result, _ := interp.Eval(`
		if {[catch {route {+also-broken}} errmsg]} {
			set errmsg
		} else {
			set errmsg "no error"
		}
	`)
	fmt.Println("Caught error:", result.String())

	// Output:
	// Direct error: error parsing regexp: missing argument to repetition operator: `*`
	// Caught error: error parsing regexp: missing argument to repetition operator: `+`
}

// DurationType wraps time.Duration and implements the IntoInt/IntoDouble
// conversion interfaces, so an interpreter-level Obj carrying one
// participates directly in expr arithmetic without a string round-trip.
type DurationType struct {
	text string
	d    time.Duration
}

func (t *DurationType) Name() string         { return "duration" }
func (t *DurationType) UpdateString() string { return t.text }
func (t *DurationType) Dup() feather.ObjType { return t } // immutable

// IntoInt returns the duration truncated to whole seconds.
func (t *DurationType) IntoInt() (int64, bool) {
	return int64(t.d.Seconds()), true
}

// IntoDouble returns the duration as fractional seconds.
func (t *DurationType) IntoDouble() (float64, bool) {
	return t.d.Seconds(), true
}

// NewDurationObj parses a Go duration string (e.g. "90s", "1h30m") into an
// Obj carrying a DurationType internal representation.
func NewDurationObj(text string) (*feather.Obj, error) {
	d, err := time.ParseDuration(text)
	if err != nil {
		return nil, err
	}
	return feather.NewObj(&DurationType{text: text, d: d}), nil
}

// AsDuration extracts the time.Duration from an Obj, if it carries one.
func AsDuration(obj *feather.Obj) (time.Duration, bool) {
	if dt, ok := obj.InternalRep().(*DurationType); ok {
		return dt.d, true
	}
	return 0, false
}

// Example_durationType shows a type that keeps its original string form for
// display while also feeding numeric contexts through IntoInt/IntoDouble.
func Example_durationType() {
	interp := feather.New()
	defer interp.Close()

	d, err := NewDurationObj("1m30s")
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}

	fmt.Println("String:", d.String())

	seconds, _ := feather.AsInt(d)
	fmt.Println("Seconds:", seconds)

	half, _ := feather.AsDouble(d)
	fmt.Println("Half:", half/2)

	// Output:
	// String: 1m30s
	// Seconds: 90
	// Half: 45
}
