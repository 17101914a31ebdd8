package feather

import (
	"fmt"
	"strings"
)

// FeatherResult is a TCL completion code: the value every command, every
// evaluated script and every control-flow construct returns.
type FeatherResult uint

// Result codes. Numbering matches the conventional TCL completion codes.
const (
	ResultOK       FeatherResult = 0
	ResultError    FeatherResult = 1
	ResultReturn   FeatherResult = 2
	ResultBreak    FeatherResult = 3
	ResultContinue FeatherResult = 4
)

// Eval flags control variable resolution scope during script evaluation.
const (
	// EvalLocal evaluates the script in the current call frame.
	EvalLocal = 0
	// EvalGlobal is accepted wherever EvalLocal is; the evaluator does not
	// switch frames for it, so the script still runs in the current call
	// frame, which is the global one only when no procedure is active.
	EvalGlobal = 1
)

// InternalParseStatus describes the outcome of parsing a script fragment.
type InternalParseStatus uint

const (
	InternalParseOK         InternalParseStatus = 0
	InternalParseIncomplete InternalParseStatus = 1
	InternalParseError      InternalParseStatus = 2
)

// ParseResultInternal holds the result of parsing a script.
type ParseResultInternal struct {
	Status       InternalParseStatus
	Result       string
	ErrorMessage string
}

// FeatherObj is a handle to an object. The engine is statically linked with
// its host (this package plays both roles), so the handle is realized as a
// direct pointer rather than an opaque integer; a nil FeatherObj is the
// "absent" handle.
type FeatherObj = *Obj

// InternalCommandFunc is the signature for host command implementations.
// Commands receive the interpreter, the command name and a list of argument
// objects. On error the command sets the interpreter's error information and
// returns ResultError; on success it sets the result and returns ResultOK.
type InternalCommandFunc func(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult

// varLink represents a link to a variable in another frame (for upvar)
// or a link to a namespace variable (for the variable/global commands).
type varLink struct {
	targetLevel int    // frame level where the target variable lives (-1 for namespace links)
	targetName  string // name of the variable in the target frame

	nsPath string // absolute namespace path, e.g. "::foo", set when targetLevel == -1
	nsName string // variable name within that namespace
}

// Namespace represents a namespace in the hierarchy rooted at "::".
type Namespace struct {
	fullPath       string
	parent         *Namespace
	children       map[string]*Namespace
	vars           map[string]*Obj
	commands       map[string]*Command
	exportPatterns []string
}

// CallFrame represents an execution frame on the call stack. Each frame has
// its own variable environment (locals) and may redirect names to other
// frames/namespaces via links (upvar, variable, global).
type CallFrame struct {
	cmd    *Obj
	args   *Obj
	locals *Namespace
	links  map[string]varLink
	level  int
	ns     *Namespace
	line   int
	proc   *Procedure // the procedure this frame belongs to, nil for non-proc frames
	lambda *Obj       // lambda expression for apply frames, nil otherwise
	tail   *tailcallRequest
}

// tailcallRequest records a pending tailcall(...) invocation to be performed
// once the current proc frame unwinds.
type tailcallRequest struct {
	cmd  string
	args []*Obj
}

// Procedure represents a user-defined procedure.
type Procedure struct {
	name   string
	params []procParam
	body   string
	ns     *Namespace
}

type procParam struct {
	name    string
	hasDef  bool
	def     string
	isArgs  bool // true for the trailing "args" parameter
}

// InternalCommandType indicates the kind of entry stored for a command name.
type InternalCommandType int

const (
	CmdNone    InternalCommandType = 0
	CmdBuiltin InternalCommandType = 1
	CmdProc    InternalCommandType = 2
)

// Command represents an entry in a namespace's command table.
type Command struct {
	cmdType InternalCommandType
	builtin InternalCommandFunc // non-nil for CmdBuiltin commands dispatched in Go
	proc    *Procedure          // non-nil for CmdProc
}

// InternalInterp is the engine: parser, evaluator, expression engine,
// built-in commands, and the variable/namespace/frame storage that backs
// them. feather.Interp is the thin public façade wrapped around it.
type InternalInterp struct {
	result        *Obj
	returnOptions *Obj

	frames []*CallFrame
	active int

	globalNamespace *Namespace
	namespaces      map[string]*Namespace

	Commands       map[string]InternalCommandFunc // Go-registered commands (feather.Register/RegisterCommand)
	unknownHandler InternalCommandFunc

	recursionLimit int

	ForeignRegistry *ForeignRegistry

	varTraces map[string][]varTraceEntry
	cmdTraces map[string][]cmdTraceEntry
	firingVar map[string]bool

	// errorCode/errorInfo mirror TCL's magic globals of the same name: the
	// machine-readable cause of the most recent error and its human-readable
	// description, set where the error is raised (not extended per frame).
	errorCode string
	errorInfo string

	// scriptPath backs interp.set_script/get_script (spec.md §4.6): the
	// current script path, set by a host driving feather_script_eval_obj
	// from a named source and visible to scripts via "info script".
	scriptPath string

	builders map[int]*strings.Builder
	nextBuilderID int
}

// NewInternalInterp creates an engine with all built-in commands registered.
func NewInternalInterp() *InternalInterp {
	global := &Namespace{
		fullPath: "::",
		vars:     make(map[string]*Obj),
		commands: make(map[string]*Command),
	}
	i := &InternalInterp{
		globalNamespace: global,
		namespaces:      map[string]*Namespace{"::": global},
		Commands:        make(map[string]InternalCommandFunc),
		recursionLimit:  DefaultRecursionLimit,
		varTraces:       make(map[string][]varTraceEntry),
		cmdTraces:       make(map[string][]cmdTraceEntry),
		firingVar:       make(map[string]bool),
		builders:        make(map[int]*strings.Builder),
	}
	rootFrame := &CallFrame{
		locals: global,
		links:  make(map[string]varLink),
		level:  0,
		ns:     global,
	}
	i.frames = []*CallFrame{rootFrame}
	i.active = 0
	i.result = NewStringObj("")
	registerBuiltins(i)
	return i
}

// Close releases resources held by the interpreter. The pure-Go engine has
// no external resources to release; Close exists so callers can rely on the
// defer-Close pattern regardless of host backend.
func (i *InternalInterp) Close() {}

// register adds a Go command to the global command table.
func (i *InternalInterp) register(name string, fn InternalCommandFunc) {
	i.Commands[name] = fn
	i.globalNamespace.commands[name] = &Command{cmdType: CmdBuiltin, builtin: fn}
}

// Register is the exported form used by the public API and foreign-type glue.
func (i *InternalInterp) Register(name string, fn InternalCommandFunc) {
	i.register(name, fn)
}

// SetUnknownHandler installs the fallback invoked when a command name does
// not resolve to any builtin, procedure, or Go-registered command.
func (i *InternalInterp) SetUnknownHandler(fn InternalCommandFunc) {
	i.unknownHandler = fn
}

// DefaultRecursionLimit is the default maximum call stack depth.
const DefaultRecursionLimit = 1000

// SetRecursionLimit sets the maximum call stack depth. A non-positive limit
// resets to DefaultRecursionLimit.
func (i *InternalInterp) SetRecursionLimit(limit int) {
	if limit <= 0 {
		i.recursionLimit = DefaultRecursionLimit
	} else {
		i.recursionLimit = limit
	}
}

func (i *InternalInterp) getRecursionLimit() int {
	if i.recursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return i.recursionLimit
}

// activeFrame returns the currently executing call frame.
func (i *InternalInterp) activeFrame() *CallFrame {
	return i.frames[i.active]
}

// pushFrame pushes a new call frame, enforcing the recursion limit.
func (i *InternalInterp) pushFrame(cmd, args *Obj) (*CallFrame, error) {
	if len(i.frames) > i.getRecursionLimit() {
		return nil, fmt.Errorf("too many nested evaluations")
	}
	cur := i.activeFrame()
	f := &CallFrame{
		cmd:    cmd,
		args:   args,
		locals: &Namespace{vars: make(map[string]*Obj)},
		links:  make(map[string]varLink),
		level:  len(i.frames),
		ns:     cur.ns,
	}
	i.frames = append(i.frames, f)
	i.active = len(i.frames) - 1
	return f, nil
}

// popFrame pops the top-most call frame. Frame 0 (the global frame) can
// never be popped.
func (i *InternalInterp) popFrame() {
	if len(i.frames) <= 1 {
		return
	}
	i.frames = i.frames[:len(i.frames)-1]
	i.active = len(i.frames) - 1
}

// resolveVarFrame follows links (upvar/variable/global) starting at frame,
// returning the ultimate storage namespace and variable name.
func (i *InternalInterp) resolveVarFrame(frame *CallFrame, name string) (*Namespace, string) {
	for {
		link, ok := frame.links[name]
		if !ok {
			return frame.locals, name
		}
		if link.targetLevel == -1 {
			ns := i.namespaces[link.nsPath]
			if ns == nil {
				ns = i.ensureNamespace(link.nsPath)
			}
			return ns, link.nsName
		}
		frame = i.frames[link.targetLevel]
		name = link.targetName
	}
}

// ensureNamespace creates (if needed) and returns the namespace at path,
// creating any missing ancestors along the way.
func (i *InternalInterp) ensureNamespace(path string) *Namespace {
	path = normalizeNsPath(path)
	if ns, ok := i.namespaces[path]; ok {
		return ns
	}
	if path == "::" {
		return i.globalNamespace
	}
	parentPath, leaf := splitNsPath(path)
	parent := i.ensureNamespace(parentPath)
	ns := &Namespace{
		fullPath: path,
		parent:   parent,
		vars:     make(map[string]*Obj),
		commands: make(map[string]*Command),
	}
	if parent.children == nil {
		parent.children = make(map[string]*Namespace)
	}
	parent.children[leaf] = ns
	i.namespaces[path] = ns
	return ns
}

func normalizeNsPath(p string) string {
	if p == "" {
		return "::"
	}
	if !strings.HasPrefix(p, "::") {
		p = "::" + p
	}
	for strings.Contains(p, ":::") {
		p = strings.ReplaceAll(p, ":::", "::")
	}
	if len(p) > 2 && strings.HasSuffix(p, "::") {
		p = p[:len(p)-2]
	}
	return p
}

// splitNsPath splits an absolute namespace path into its parent path and
// trailing component.
func splitNsPath(path string) (parent, leaf string) {
	path = normalizeNsPath(path)
	idx := strings.LastIndex(path, "::")
	if idx <= 0 {
		return "::", path[idx+2:]
	}
	parent = path[:idx]
	if parent == "" {
		parent = "::"
	}
	leaf = path[idx+2:]
	return parent, leaf
}

// dispatch looks up and invokes a command by name: first the name exactly as
// given, then (for an unqualified name) the active namespace and each of its
// ancestors, or (for a relative qualified name) the name qualified into the
// active namespace and then into the global one, finally the unknown handler.
func (i *InternalInterp) dispatch(cmdName string, args []*Obj) FeatherResult {
	cmdObj := NewStringObj(cmdName)
	if fn, ok := i.Commands[cmdName]; ok {
		return fn(i, cmdObj, args)
	}
	if !strings.Contains(cmdName, "::") {
		ns := i.activeFrame().ns
		for ns != nil && ns != i.globalNamespace {
			qualified := ns.fullPath + "::" + cmdName
			if fn, ok := i.Commands[qualified]; ok {
				return fn(i, cmdObj, args)
			}
			ns = ns.parent
		}
	} else if !strings.HasPrefix(cmdName, "::") {
		if fn, ok := i.Commands[qualifyCommandName(i.activeFrame().ns, cmdName)]; ok {
			return fn(i, cmdObj, args)
		}
		if fn, ok := i.Commands[normalizeNsPath(cmdName)]; ok {
			return fn(i, cmdObj, args)
		}
	}
	if i.unknownHandler != nil {
		return i.unknownHandler(i, cmdObj, args)
	}
	i.SetErrorString("invalid command name \"" + cmdName + "\"")
	return ResultError
}

// Handle returns the interpreter's own identity value. Kept for API parity
// with handle-oriented hosts; the pure-Go engine has no separate handle.
func (i *InternalInterp) Handle() *InternalInterp { return i }

// Result returns the current result string.
func (i *InternalInterp) Result() string {
	if i.result == nil {
		return ""
	}
	return i.result.String()
}

// ResultHandle returns the current result object.
func (i *InternalInterp) ResultHandle() FeatherObj {
	return i.result
}

// EvalError represents an evaluation error.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string { return e.Message }

// InternString creates a string object. Naming follows the teacher's
// handle-oriented vocabulary; under direct-pointer handles this is simply
// object construction.
func (i *InternalInterp) InternString(s string) FeatherObj {
	return &Obj{bytes: s, interp: i}
}

func (i *InternalInterp) internString(s string) FeatherObj {
	return NewStringObj(s)
}

// registerObj / objForHandle / handleForObj are identity operations under
// the direct-pointer handle representation; kept as named methods so the
// public API (feather.go) keeps the same call shape as a handle-arena host.
func (i *InternalInterp) registerObj(obj *Obj) FeatherObj   { return obj }
func (i *InternalInterp) objForHandle(h FeatherObj) *Obj    { return h }
func (i *InternalInterp) handleForObj(o *Obj) FeatherObj    { return o }
func (i *InternalInterp) getObject(h FeatherObj) *Obj       { return h }

// GetString returns the string representation of an object.
func (i *InternalInterp) GetString(h FeatherObj) string {
	if h == nil {
		return ""
	}
	return h.String()
}

// GetInt returns the integer representation of an object, shimmering as needed.
func (i *InternalInterp) GetInt(h FeatherObj) (int64, error) { return asInt(h) }

// GetDouble returns the float64 representation of an object, shimmering as needed.
func (i *InternalInterp) GetDouble(h FeatherObj) (float64, error) { return asDouble(h) }

// GetList returns the list elements of an object, shimmering as needed.
func (i *InternalInterp) GetList(h FeatherObj) ([]FeatherObj, error) {
	if h == nil {
		return nil, nil
	}
	return h.List()
}

// GetDict returns the dict contents of an object as (values, key order, err).
func (i *InternalInterp) GetDict(h FeatherObj) (map[string]FeatherObj, []string, error) {
	if h == nil {
		return nil, nil, fmt.Errorf("nil object")
	}
	d, err := h.Dict()
	if err != nil {
		return nil, nil, err
	}
	return d.Items, d.Order, nil
}

// SetResult sets the interpreter's result to the given object.
func (i *InternalInterp) SetResult(obj FeatherObj) {
	if obj == nil {
		obj = NewStringObj("")
	}
	i.result = obj
}

// SetResultString sets the interpreter's result to a string value.
func (i *InternalInterp) SetResultString(s string) { i.result = NewStringObj(s) }

// SetErrorString sets the interpreter's result to an error message.
func (i *InternalInterp) SetErrorString(s string) { i.result = NewStringObj(s) }

// SetError sets the interpreter's result to the given object (error form).
func (i *InternalInterp) SetError(obj FeatherObj) { i.SetResult(obj) }

// GetVarHandle returns the object for a variable in the active frame,
// following upvar/variable/global links. Returns nil if unset.
func (i *InternalInterp) GetVarHandle(name string) FeatherObj {
	v, _ := i.getVar(i.activeFrame(), name)
	return v
}

// SetVar sets a variable by name to a string value in the active frame.
func (i *InternalInterp) SetVar(name, value string) {
	i.setVar(i.activeFrame(), name, NewStringObj(value))
}

// getVar resolves and reads a variable, firing read traces.
func (i *InternalInterp) getVar(frame *CallFrame, name string) (*Obj, bool) {
	ns, key := i.resolveVarFrame(frame, name)
	v, ok := ns.vars[key]
	i.fireVarTrace(ns, key, "read")
	return v, ok
}

// setVar resolves and writes a variable, firing write traces.
func (i *InternalInterp) setVar(frame *CallFrame, name string, val *Obj) {
	ns, key := i.resolveVarFrame(frame, name)
	ns.vars[key] = val
	i.fireVarTrace(ns, key, "write")
}

// unsetVar resolves and removes a variable, firing unset traces.
func (i *InternalInterp) unsetVar(frame *CallFrame, name string) bool {
	ns, key := i.resolveVarFrame(frame, name)
	_, ok := ns.vars[key]
	if ok {
		delete(ns.vars, key)
		i.fireVarTrace(ns, key, "unset")
	}
	return ok
}

// SetScript records the current script path, returned by "info script" and
// GetScript. Mirrors the host ABI's interp.set_script/get_script pair.
func (i *InternalInterp) SetScript(path string) { i.scriptPath = path }

// GetScript returns the most recently set script path, or "" if none.
func (i *InternalInterp) GetScript() string { return i.scriptPath }

func (i *InternalInterp) varExists(frame *CallFrame, name string) bool {
	ns, key := i.resolveVarFrame(frame, name)
	_, ok := ns.vars[key]
	return ok
}
