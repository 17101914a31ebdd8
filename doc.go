// Package feather provides an embeddable TCL interpreter for Go applications.
//
// # Architecture
//
// Feather is a single Go binary, not a host wrapping a foreign core: the
// engine that parses and evaluates scripts ([InternalInterp], the files
// named interp_*.go/eval.go/parser.go/expr.go/builtins_*.go) and the public
// façade you call ([*Interp], this file and feather.go) are statically
// linked into one package. There is no cgo, no C source tree, and no
// process boundary between "core" and "host"; the split described in the
// design notes is a logical one, kept so the engine could later be driven
// by a different host (e.g. a WASM embedder feeding it scripts through the
// same calls) without the engine itself changing.
//
// Because of that, the handle type that names values and commands inside
// the engine ([FeatherObj]) is simply a Go pointer ([*Obj]) rather than an
// opaque numeric index into a side table: [*Obj] already behaves like a
// handle (the engine never exposes raw field access, only the accessor
// methods), and a native pointer is the cheaper, GC-friendly choice when
// both ends of the handle live in the same address space. A Go pointer
// handle also sidesteps the classic handle-table bug of a stale numeric
// index outliving the value it once named.
//
// As a user of this package you work exclusively with [*Obj] values and the
// [*Interp] façade; the Internal-prefixed types and the [FeatherObj]/
// [FeatherResult] handle aliases exist so the engine's own files can share
// types across interp_core.go/eval.go/builtins_*.go and are not meant to be
// constructed directly from application code.
//
// # Quick Start
//
//	interp := feather.New()
//	defer interp.Close()
//
//	// Evaluate TCL scripts
//	result, err := interp.Eval("expr {2 + 2}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.String()) // "4"
//
//	// Register Go functions as TCL commands
//	interp.Register("env", func(name string) string {
//	    return os.Getenv(name)
//	})
//
//	result, _ = interp.Eval(`env HOME`)
//	fmt.Println(result.String()) // "/home/user"
//
// # Thread Safety
//
// An [*Interp] is NOT safe for concurrent use from multiple goroutines.
// Each goroutine that needs to evaluate TCL must have its own interpreter:
//
//	// WRONG: sharing interpreter between goroutines
//	interp := feather.New()
//	go func() { interp.Eval("...") }() // data race!
//	go func() { interp.Eval("...") }() // data race!
//
//	// CORRECT: one interpreter per goroutine
//	go func() {
//	    interp := feather.New()
//	    defer interp.Close()
//	    interp.Eval("...")
//	}()
//
// For server applications, use a pool of interpreters or create one per request.
// [*Obj] values are also tied to their interpreter and must not be shared.
//
// # Supported TCL Commands
//
// feather implements a substantial subset of TCL 8.6. Available commands:
//
// Control flow:
//
//	if, while, for, foreach, switch, break, continue, return, tailcall
//
// Procedures and evaluation:
//
//	proc, apply, eval, uplevel, upvar, catch, try, throw, error
//
// Variables and namespaces:
//
//	set, unset, incr, append, global, variable, namespace, rename, trace
//
// Lists:
//
//	list, llength, lindex, lrange, lappend, lset, linsert, lreplace,
//	lreverse, lrepeat, lsort, lsearch, lmap, lassign, split, join, concat
//
// Dictionaries:
//
//	dict (with subcommands: create, get, set, exists, keys, values, etc.)
//
// Strings:
//
//	string (with subcommands: length, index, range, equal, compare,
//	        match, map, tolower, toupper, trim, replace, first, last, etc.)
//	format, scan, subst
//
// Introspection:
//
//	info (with subcommands: exists, commands, procs, vars, body, args,
//	      level, frame, script, etc.)
//
// Math functions (via expr):
//
//	sqrt, exp, log, log10, sin, cos, tan, asin, acos, atan, atan2,
//	sinh, cosh, tanh, floor, ceil, round, abs, pow, fmod, hypot,
//	double, int, wide, isnan, isinf
//
// NOT implemented: file I/O, sockets, regex pattern matching beyond switch
// -regexp and lsearch -regexp, clock, encoding, interp (safe sub-interpreters), and most
// Tk-related commands; these belong to a host, per the package's I/O-free
// design. Use [Interp.Register] or [RegisterType] to add them if your
// embedding needs them.
//
// # Error Handling
//
// Errors from [Interp.Eval] are returned as a Go error whose message is the
// interpreter's result string at the point of failure:
//
//	result, err := interp.Eval("expr {1/0}")
//	if err != nil {
//	    fmt.Println("Error:", err)
//	}
//
// To return errors from Go commands, use [Error] or [Errorf]:
//
//	interp.RegisterCommand("fail", func(i *feather.Interp, cmd *feather.Obj, args []*feather.Obj) feather.Result {
//	    _, err := os.Open("/nonexistent")
//	    if err != nil {
//	        return feather.Error(err.Error())
//	    }
//	    return feather.OK("success")
//	})
//
// For functions registered with [Interp.Register], return an error as the last value:
//
//	interp.Register("openfile", func(path string) (string, error) {
//	    data, err := os.ReadFile(path)
//	    return string(data), err  // error automatically becomes TCL error
//	})
//
// In TCL, use catch or try to handle errors:
//
//	if {[catch {openfile /nonexistent} errmsg]} {
//	    puts "Error: $errmsg"
//	}
//
// Uncaught errors also populate the return-options dict inspectable via
// catch/try: -code, -errorcode (a list, e.g. {ARITH DIVZERO}), and
// -errorinfo (a one-line trace of where the error was raised).
//
// # Working with Results
//
// [Interp.Eval] returns (*Obj, error). The result is the value of the last
// command executed. Extract values using methods on [*Obj] or the As* functions:
//
//	result, _ := interp.Eval("expr {2 + 2}")
//
//	// As string (always works)
//	s := result.String()  // "4"
//
//	// As typed values (may error if not convertible)
//	n, err := result.Int()       // 4, nil
//	f, err := result.Double()    // 4.0, nil
//	b, err := result.Bool()      // true, nil
//
//	// For lists, first check if it's already a list or parse it
//	result, _ = interp.Eval("list a b c")
//	items, err := result.List()  // []*Obj{"a", "b", "c"}
//	// Or parse a string as a list:
//	items, err = interp.ParseList("a b {c d}")
//
// The [Result] type is only used when implementing commands with [Interp.RegisterCommand].
// Create results with [OK], [Error], or [Errorf].
//
// # Memory and Lifetime
//
// [*Obj] values are managed by Go's garbage collector, not by the engine:
// there is no refcounting and nothing to explicitly free. However:
//
//   - After [Interp.Close], all [*Obj] values from that interpreter become invalid
//   - Don't store [*Obj] values beyond the interpreter's lifetime
//   - Don't share [*Obj] values between interpreters
//
// For long-lived applications, be aware that string representations are cached.
// An object that shimmers between int and string keeps both representations
// until garbage collected.
//
// # The Obj Type System
//
// TCL values are represented by [*Obj]. Each Obj has two representations:
//
//   - String representation: The TCL string form (always available)
//   - Internal representation: An efficient native form (optional)
//
// The internal representation is managed through the [ObjType] interface.
// Conversion between representations happens lazily through "shimmering":
// when you request a value as an integer, it parses the string and caches
// the int; when you later request the string, it's regenerated from the int.
//
// Use the As* functions to convert between types:
//
//	n, err := feather.AsInt(obj)      // Get as int64
//	f, err := feather.AsDouble(obj)   // Get as float64
//	b, err := feather.AsBool(obj)     // Get as bool
//	list, err := feather.AsList(obj)  // Get as []*Obj (requires list rep)
//	dict, err := feather.AsDict(obj)  // Get as *DictType (requires dict rep)
//
// Note: AsList and AsDict only work on objects that already have list/dict
// representations. To parse a string as a list or dict, use the interpreter:
//
//	list, err := interp.ParseList("a b {c d}")   // Parse string to list
//	dict, err := interp.ParseDict("name Alice")  // Parse string to dict
//
// # Custom Object Types
//
// Implement [ObjType] to create types that participate in shimmering.
// This is useful when you have a Go type that's expensive to create from
// its string form, so you want to cache the parsed representation.
//
// The interface has three methods:
//
//	type ObjType interface {
//	    Name() string           // Type name for debugging (e.g., "regex")
//	    UpdateString() string   // Convert internal rep back to string
//	    Dup() ObjType           // Clone the internal rep (for Copy)
//	}
//
// Example: a duration type that caches a parsed [time.Duration]:
//
//	type DurationType struct {
//	    text string
//	    d    time.Duration
//	}
//
//	func (d *DurationType) Name() string         { return "duration" }
//	func (d *DurationType) UpdateString() string { return d.text }
//	func (d *DurationType) Dup() feather.ObjType  { return d } // immutable, share it
//
//	func NewDuration(text string) (*feather.Obj, error) {
//	    d, err := time.ParseDuration(text)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return feather.NewObj(&DurationType{text: text, d: d}), nil
//	}
//
//	// Extract the parsed duration from any Obj
//	func GetDuration(obj *feather.Obj) (time.Duration, bool) {
//	    if dt, ok := obj.InternalRep().(*DurationType); ok {
//	        return dt.d, true
//	    }
//	    return 0, false
//	}
//
// # Conversion Interfaces
//
// Custom types can implement conversion interfaces to participate in
// automatic type coercion. When [AsInt] is called on an Obj, it first
// checks if the internal representation implements [IntoInt]:
//
//	type IntoInt interface {
//	    IntoInt() (int64, bool)
//	}
//
// If implemented and returns (value, true), that value is used directly
// without parsing the string representation. This enables efficient
// conversions between related types.
//
// Available conversion interfaces:
//
//	IntoInt    - Convert to int64
//	IntoDouble - Convert to float64
//	IntoBool   - Convert to bool
//	IntoList   - Convert to []*Obj
//	IntoDict   - Convert to (map[string]*Obj, []string)
//
// Example: the duration type above also converting to a number of seconds:
//
//	// Implement IntoDouble to support "expr {$d / 1e9}"-style arithmetic
//	func (d *DurationType) IntoDouble() (float64, bool) {
//	    return d.d.Seconds(), true
//	}
//
//	// Implement IntoInt for whole-second truncation
//	func (d *DurationType) IntoInt() (int64, bool) {
//	    return int64(d.d.Seconds()), true
//	}
//
// # Foreign Objects
//
// For exposing Go structs with methods to TCL, use [RegisterType].
// Unlike [ObjType] (which is about caching parsed representations),
// foreign types create objects that act as TCL commands with methods:
//
//	type DB struct {
//	    conn *sql.DB
//	}
//
//	feather.RegisterType[*DB](interp, "DB", feather.TypeDef[*DB]{
//	    New: func() *DB {
//	        conn, _ := sql.Open("sqlite3", ":memory:")
//	        return &DB{conn: conn}
//	    },
//	    Methods: map[string]any{
//	        "exec":  func(db *DB, sql string) error { _, err := db.conn.Exec(sql); return err },
//	        "query": func(db *DB, sql string) ([]string, error) { /* ... */ },
//	    },
//	    Destroy: func(db *DB) { db.conn.Close() },
//	})
//
//	// In TCL:
//	// set db [DB new]
//	// $db exec "CREATE TABLE users (name TEXT)"
//	// $db destroy
//
// # Registering Commands
//
// For simple functions, use [Interp.Register] with automatic type conversion:
//
//	// String arguments
//	interp.Register("upper", strings.ToUpper)
//
//	// Multiple parameters with error return
//	interp.Register("readfile", func(path string) (string, error) {
//	    data, err := os.ReadFile(path)
//	    return string(data), err
//	})
//
//	// Variadic functions
//	interp.Register("sum", func(nums ...int) int {
//	    total := 0
//	    for _, n := range nums {
//	        total += n
//	    }
//	    return total
//	})
//
// For full control over argument handling, use [Interp.RegisterCommand]:
//
//	interp.RegisterCommand("mycommand", func(i *feather.Interp, cmd *feather.Obj, args []*feather.Obj) feather.Result {
//	    if len(args) < 1 {
//	        return feather.Errorf("usage: %s value", cmd.String())
//	    }
//	    n, err := feather.AsInt(args[0])
//	    if err != nil {
//	        return feather.Error(err.Error())
//	    }
//	    return feather.OK(n * 2)
//	})
//
// # Configuration
//
// Set the recursion limit to prevent stack overflow from deeply nested calls:
//
//	interp.SetRecursionLimit(500)  // Default is 1000
//
// # Parsing Without Evaluation, and Pre-Built Commands
//
// Use [Interp.Parse] to check if a script is syntactically complete without
// evaluating it. This is useful for implementing REPLs that feed a script in
// chunks and need to know when to stop accumulating input:
//
//	pr := interp.Parse("set x {")
//	switch pr.Status {
//	case feather.ParseOK:
//	    // Complete, ready to evaluate
//	case feather.ParseIncomplete:
//	    // Unclosed brace/bracket/quote, prompt for more input
//	case feather.ParseError:
//	    // Syntax error, pr.Message has details
//	}
//
// [Interp.Command] dispatches a single already-tokenized command (a command
// name plus its argument objects) without going through the parser or
// substitution pass again — useful when the caller already holds a parsed
// argument vector (e.g. from [Interp.ParseList] or a saved [Interp.Eval]
// sub-step) and wants to invoke it directly.
//
// # Internal Types (Do Not Use)
//
// The following types back the engine's own source files (interp_core.go,
// eval.go, builtins_*.go). They're capitalized, and [Interp.Internal]
// hands one out, so nothing stops an embedder from reaching past the
// façade to use them directly; resist that urge. They are not part of the
// package's public contract and may change or be removed in any version:
//
//   - FeatherObj, FeatherResult - the handle and status-code aliases threaded
//     through every internal command function
//   - InternalInterp, InternalCommandFunc - the engine itself and its
//     built-in/procedure dispatch signature
//   - InternalParseStatus, ParseResultInternal - the raw parser status used
//     before it's adapted to the public [ParseStatus]/[ParseResult]
//   - CallFrame, Namespace, Procedure, Command - frame-stack and
//     namespace bookkeeping
//   - ForeignRegistry, ForeignType - the foreign-object type registry behind
//     [RegisterType]
package feather
