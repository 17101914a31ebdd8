package feather

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// registerBuiltins installs every built-in command on a freshly constructed
// interpreter. Individual commands live in builtins_*.go, grouped the way a
// TCL core's command table is usually grouped: control flow, variables and
// procedures, collections, strings, and introspection.
func registerBuiltins(i *InternalInterp) {
	registerControlBuiltins(i)
	registerVarBuiltins(i)
	registerListBuiltins(i)
	registerDictBuiltins(i)
	registerStringBuiltins(i)
	registerInfoBuiltins(i)
}

// wrongArgs builds the standard "wrong # args" error result.
func wrongArgs(i *InternalInterp, usage string) FeatherResult {
	i.SetErrorString(fmt.Sprintf("wrong # args: should be %q", usage))
	return ResultError
}

func argErrorf(i *InternalInterp, format string, a ...any) FeatherResult {
	i.SetErrorString(fmt.Sprintf(format, a...))
	return ResultError
}

// qualifyCommandName resolves name to the fully-qualified command name it
// should be stored/looked-up under, relative to the given namespace: an
// absolute name (leading "::") is normalized as-is; a relative name already
// containing "::" is prefixed with ns's path; a bare name is qualified into
// ns unless ns is the global namespace.
func qualifyCommandName(ns *Namespace, name string) string {
	if strings.HasPrefix(name, "::") {
		return normalizeNsPath(strings.TrimSuffix(name, "::"))
	}
	if strings.Contains(name, "::") {
		return normalizeNsPath(ns.fullPath + "::" + name)
	}
	if ns.fullPath == "::" {
		return name
	}
	return ns.fullPath + "::" + name
}

// registerProc records a user-defined procedure under qualifiedName, wiring
// it into both the flat dispatch table and the namespace command registry
// that backs "info procs"/"info body"/"rename".
func (i *InternalInterp) registerProc(qualifiedName string, proc *Procedure) {
	i.Commands[qualifiedName] = func(ii *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
		return ii.callProcedure(proc, args)
	}
	i.globalNamespace.commands[qualifiedName] = &Command{cmdType: CmdProc, proc: proc}
}

// deleteCommand removes a command (builtin or proc) from both tables.
func (i *InternalInterp) deleteCommand(name string) {
	delete(i.Commands, name)
	delete(i.globalNamespace.commands, name)
}

// renameCommand moves a command entry from oldName to newName.
func (i *InternalInterp) renameCommand(oldName, newName string) bool {
	fn, ok := i.Commands[oldName]
	if !ok {
		return false
	}
	entry := i.globalNamespace.commands[oldName]
	i.deleteCommand(oldName)
	i.Commands[newName] = fn
	if entry != nil {
		i.globalNamespace.commands[newName] = entry
	}
	i.fireCmdTrace(oldName, "rename", newName)
	return true
}

// callProcedure pushes a call frame, binds parameters, evaluates the body,
// and translates ResultReturn/tailcall completion into the caller's result.
func (i *InternalInterp) callProcedure(proc *Procedure, args []*Obj) FeatherResult {
	frame, err := i.pushFrame(NewStringObj(proc.name), NewListObj(args...))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	frame.proc = proc
	frame.ns = proc.ns

	if err := bindParams(frame, proc.params, args); err != nil {
		i.popFrame()
		i.SetErrorString(err.Error())
		return ResultError
	}

	code := i.evalScriptResult(proc.body)
	tail := frame.tail
	i.popFrame()

	switch code {
	case ResultReturn, ResultOK:
		if tail != nil {
			return i.dispatch(tail.cmd, tail.args)
		}
		return ResultOK
	case ResultError, ResultBreak, ResultContinue:
		return code
	default:
		return ResultOK
	}
}

// parseParams parses a proc/apply parameter list into procParam entries.
func parseParams(i *InternalInterp, spec string) ([]procParam, error) {
	words, err := i.parseList(spec)
	if err != nil {
		return nil, err
	}
	params := make([]procParam, 0, len(words))
	for idx, w := range words {
		sub, err := w.List()
		if err == nil && len(sub) >= 1 {
			// Only treat as a {name default} pair when it actually came from
			// a multi-element list word; a bare name also parses as a
			// one-element list, which is handled by the len(sub)==1 branch.
			switch len(sub) {
			case 1:
				params = append(params, procParam{name: sub[0].String(), isArgs: sub[0].String() == "args" && idx == len(words)-1})
			case 2:
				params = append(params, procParam{name: sub[0].String(), hasDef: true, def: sub[1].String()})
			default:
				return nil, fmt.Errorf("too many fields in argument specifier %q", w.String())
			}
			continue
		}
		params = append(params, procParam{name: w.String(), isArgs: w.String() == "args" && idx == len(words)-1})
	}
	return params, nil
}

// bindParams binds call arguments to a procedure's formal parameters,
// following TCL's positional/default/"args" matching rules.
func bindParams(frame *CallFrame, params []procParam, args []*Obj) error {
	fixed := params
	hasTrailingArgs := len(params) > 0 && params[len(params)-1].isArgs
	if hasTrailingArgs {
		fixed = params[:len(params)-1]
	}

	if len(args) < countRequired(fixed) || (!hasTrailingArgs && len(args) > len(fixed)) {
		return fmt.Errorf("wrong # args: should be \"%s\"", procUsage(frame.cmd.String(), params))
	}

	idx := 0
	for _, p := range fixed {
		if idx < len(args) {
			frame.locals.vars[p.name] = args[idx]
			idx++
		} else if p.hasDef {
			frame.locals.vars[p.name] = NewStringObj(p.def)
		} else {
			return fmt.Errorf("wrong # args: should be \"%s\"", procUsage(frame.cmd.String(), params))
		}
	}
	if hasTrailingArgs {
		rest := args[idx:]
		frame.locals.vars["args"] = NewListObj(rest...)
	}
	return nil
}

func countRequired(params []procParam) int {
	n := 0
	for _, p := range params {
		if !p.hasDef {
			n++
		}
	}
	return n
}

func procUsage(name string, params []procParam) string {
	var b strings.Builder
	b.WriteString(name)
	for _, p := range params {
		b.WriteByte(' ')
		switch {
		case p.isArgs:
			b.WriteString("?arg ...?")
		case p.hasDef:
			b.WriteString("?" + p.name + "?")
		default:
			b.WriteString(p.name)
		}
	}
	return b.String()
}

// resolveLevel interprets a TCL call-level specifier ("1", "#0", "-1", ...)
// relative to the currently active frame, returning an absolute frame index.
func resolveLevel(i *InternalInterp, spec string) (int, string, error) {
	if strings.HasPrefix(spec, "#") {
		n, err := strconv.Atoi(spec[1:])
		if err != nil {
			return 0, "", fmt.Errorf("bad level %q", spec)
		}
		if n < 0 || n >= len(i.frames) {
			return 0, "", fmt.Errorf("bad level %q", spec)
		}
		return n, spec, nil
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return 0, "", fmt.Errorf("bad level %q", spec)
	}
	target := i.active - n
	if target < 0 || target >= len(i.frames) {
		return 0, "", fmt.Errorf("bad level %q", spec)
	}
	return target, spec, nil
}

// tclIndex resolves a list/string index expression ("end", "end-N",
// "end+N", or a plain integer) against a collection of the given length.
// The result may be negative or >= length; callers clamp as appropriate.
func tclIndex(spec string, length int) (int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "end" {
		return length - 1, nil
	}
	if strings.HasPrefix(spec, "end-") {
		n, err := strconv.Atoi(spec[4:])
		if err != nil {
			return 0, fmt.Errorf("bad index %q: must be end?[+-]integer?", spec)
		}
		return length - 1 - n, nil
	}
	if strings.HasPrefix(spec, "end+") {
		n, err := strconv.Atoi(spec[4:])
		if err != nil {
			return 0, fmt.Errorf("bad index %q: must be end?[+-]integer?", spec)
		}
		return length - 1 + n, nil
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: must be integer?[+-]integer? or end?[+-]integer?", spec)
	}
	return n, nil
}

// tclGlobMatch implements TCL's "string match" glob syntax: '*' (any run of
// characters), '?' (any one character), "[...]" (character class, with
// optional leading '^' negation and "a-z" ranges), and backslash escapes.
func tclGlobMatch(pattern, s string) bool {
	return globMatch(pattern, s)
}

func globMatch(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for pos := 0; pos <= len(s); pos++ {
				if globMatch(pattern[1:], s[pos:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			end := strings.IndexByte(pattern, ']')
			if end < 0 {
				return pattern[0] == s[0] && globMatch(pattern[1:], s[1:])
			}
			class := pattern[1:end]
			if !matchClass(class, s[0]) {
				return false
			}
			s = s[1:]
			pattern = pattern[end+1:]
		case '\\':
			if len(pattern) < 2 {
				return len(s) > 0 && s[0] == '\\' && globMatch(pattern[1:], s[1:])
			}
			if len(s) == 0 || s[0] != pattern[1] {
				return false
			}
			s = s[1:]
			pattern = pattern[2:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]
		}
	}
	return len(s) == 0
}

func matchClass(class string, c byte) bool {
	negate := false
	if strings.HasPrefix(class, "^") {
		negate = true
		class = class[1:]
	}
	matched := false
	for idx := 0; idx < len(class); idx++ {
		if idx+2 < len(class) && class[idx+1] == '-' {
			if class[idx] <= c && c <= class[idx+2] {
				matched = true
			}
			idx += 2
			continue
		}
		if class[idx] == c {
			matched = true
		}
	}
	return matched != negate
}

// sortedKeys returns m's keys in ascending order, used by introspection
// commands that report command/variable names.
func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// filterGlob returns the subset of names matching pattern (or all of names
// if pattern is empty).
func filterGlob(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if globMatch(pattern, n) {
			out = append(out, n)
		}
	}
	return out
}
