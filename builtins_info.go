package feather

import (
	"fmt"
	"strings"
)

// registerInfoBuiltins installs the "info" introspection command and its
// subcommands: exists, commands, procs, args, body, vars, globals, locals,
// level, frame, script, errorstack.
func registerInfoBuiltins(i *InternalInterp) {
	i.register("info", cmdInfo)
}

func cmdInfo(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "info subcommand ?arg ...?")
	}
	sub := args[0].String()
	rest := args[1:]
	switch sub {
	case "exists":
		return infoExists(i, rest)
	case "commands":
		return infoCommands(i, rest)
	case "procs":
		return infoProcs(i, rest)
	case "args":
		return infoArgs(i, rest)
	case "body":
		return infoBody(i, rest)
	case "default":
		return infoDefault(i, rest)
	case "vars":
		return infoVars(i, rest)
	case "globals":
		return infoGlobals(i, rest)
	case "locals":
		return infoLocals(i, rest)
	case "level":
		return infoLevel(i, rest)
	case "frame":
		return infoFrame(i, rest)
	case "script":
		return infoScript(i, rest)
	case "errorstack":
		return infoErrorstack(i, rest)
	case "patchlevel", "tclversion", "nameofexecutable":
		i.SetResultString("")
		return ResultOK
	}
	return argErrorf(i, "unknown or ambiguous subcommand %q: must be args, body, commands, default, errorstack, exists, frame, globals, level, locals, procs, script, or vars", sub)
}

func infoExists(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) != 1 {
		return wrongArgs(i, "info exists varName")
	}
	i.SetResultString(boolStr(i.varExists(i.activeFrame(), rest[0].String())))
	return ResultOK
}

// resolveCmdEntry looks up a command entry by name, trying the exact name
// first and then qualifying it against the active frame's namespace chain
// the same way dispatch resolves a bare command name.
func resolveCmdEntry(i *InternalInterp, name string) (*Command, string, bool) {
	if c, ok := i.globalNamespace.commands[name]; ok {
		return c, name, true
	}
	if !strings.Contains(name, "::") {
		ns := i.activeFrame().ns
		for ns != nil && ns != i.globalNamespace {
			qualified := ns.fullPath + "::" + name
			if c, ok := i.globalNamespace.commands[qualified]; ok {
				return c, qualified, true
			}
			ns = ns.parent
		}
	}
	return nil, "", false
}

func infoCommands(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info commands ?pattern?")
	}
	pattern := ""
	if len(rest) == 1 {
		pattern = rest[0].String()
	}
	names := sortedKeys(i.globalNamespace.commands)
	filtered := filterGlob(names, pattern)
	out := make([]*Obj, len(filtered))
	for idx, n := range filtered {
		out[idx] = NewStringObj(n)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func infoProcs(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info procs ?pattern?")
	}
	pattern := ""
	if len(rest) == 1 {
		pattern = rest[0].String()
	}
	var names []string
	for name, c := range i.globalNamespace.commands {
		if c.cmdType == CmdProc {
			names = append(names, name)
		}
	}
	names = sortStrings(names)
	filtered := filterGlob(names, pattern)
	out := make([]*Obj, len(filtered))
	for idx, n := range filtered {
		out[idx] = NewStringObj(n)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func infoArgs(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) != 1 {
		return wrongArgs(i, "info args procname")
	}
	c, _, ok := resolveCmdEntry(i, rest[0].String())
	if !ok || c.cmdType != CmdProc {
		return argErrorf(i, "%q isn't a procedure", rest[0].String())
	}
	out := make([]*Obj, len(c.proc.params))
	for idx, p := range c.proc.params {
		out[idx] = NewStringObj(p.name)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func infoBody(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) != 1 {
		return wrongArgs(i, "info body procname")
	}
	c, _, ok := resolveCmdEntry(i, rest[0].String())
	if !ok || c.cmdType != CmdProc {
		return argErrorf(i, "%q isn't a procedure", rest[0].String())
	}
	i.SetResultString(c.proc.body)
	return ResultOK
}

func infoDefault(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) != 3 {
		return wrongArgs(i, "info default procname arg varname")
	}
	c, _, ok := resolveCmdEntry(i, rest[0].String())
	if !ok || c.cmdType != CmdProc {
		return argErrorf(i, "%q isn't a procedure", rest[0].String())
	}
	argName := rest[1].String()
	for _, p := range c.proc.params {
		if p.name == argName {
			if p.hasDef {
				i.setVar(i.activeFrame(), rest[2].String(), NewStringObj(p.def))
				i.SetResultString("1")
			} else {
				i.SetResultString("0")
			}
			return ResultOK
		}
	}
	return argErrorf(i, "procedure %q doesn't have an argument %q", rest[0].String(), argName)
}

func infoVars(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info vars ?pattern?")
	}
	frame := i.activeFrame()
	names := sortedKeys(frame.locals.vars)
	for name := range frame.links {
		names = append(names, name)
	}
	names = sortStrings(names)
	pattern := ""
	if len(rest) == 1 {
		pattern = rest[0].String()
	}
	filtered := filterGlob(names, pattern)
	out := make([]*Obj, len(filtered))
	for idx, n := range filtered {
		out[idx] = NewStringObj(n)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func infoLocals(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info locals ?pattern?")
	}
	frame := i.activeFrame()
	var names []string
	for name := range frame.locals.vars {
		if _, linked := frame.links[name]; !linked {
			names = append(names, name)
		}
	}
	names = sortStrings(names)
	pattern := ""
	if len(rest) == 1 {
		pattern = rest[0].String()
	}
	filtered := filterGlob(names, pattern)
	out := make([]*Obj, len(filtered))
	for idx, n := range filtered {
		out[idx] = NewStringObj(n)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func infoGlobals(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info globals ?pattern?")
	}
	names := sortedKeys(i.globalNamespace.vars)
	pattern := ""
	if len(rest) == 1 {
		pattern = rest[0].String()
	}
	filtered := filterGlob(names, pattern)
	out := make([]*Obj, len(filtered))
	for idx, n := range filtered {
		out[idx] = NewStringObj(n)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

// infoLevel implements both "info level" (current depth) and
// "info level N" (the command+args vector of the frame N levels up from
// the current one, or of absolute level #N),
// satisfying spec.md §8.1's "info level 0" invariant inside a proc body.
func infoLevel(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) == 0 {
		i.SetResultString(itoa(i.active))
		return ResultOK
	}
	if len(rest) != 1 {
		return wrongArgs(i, "info level ?number?")
	}
	target, _, err := resolveLevel(i, rest[0].String())
	if err != nil {
		i.SetErrorString(fmt.Sprintf("bad level %q", rest[0].String()))
		return ResultError
	}
	frame := i.frames[target]
	if frame.cmd == nil {
		i.SetResult(NewListObj())
		return ResultOK
	}
	argObjs, _ := frame.args.List()
	words := append([]*Obj{frame.cmd}, argObjs...)
	i.SetResult(NewListObj(words...))
	return ResultOK
}

// infoFrame reports a small descriptive dict for a call level: its level
// number, type (proc, apply or source), proc name when it has one, and
// namespace.
func infoFrame(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info frame ?number?")
	}
	target := i.active
	if len(rest) == 1 {
		t, _, err := resolveLevel(i, rest[0].String())
		if err != nil {
			i.SetErrorString(fmt.Sprintf("bad level %q", rest[0].String()))
			return ResultError
		}
		target = t
	}
	frame := i.frames[target]
	d := NewDictObj()
	ObjDictSet(d, "level", NewIntObj(int64(target)))
	if frame.proc != nil {
		ObjDictSet(d, "type", NewStringObj("proc"))
		ObjDictSet(d, "proc", NewStringObj(frame.proc.name))
	} else if frame.lambda != nil {
		ObjDictSet(d, "type", NewStringObj("apply"))
	} else {
		ObjDictSet(d, "type", NewStringObj("source"))
	}
	ObjDictSet(d, "namespace", NewStringObj(frame.ns.fullPath))
	i.SetResult(d)
	return ResultOK
}

func infoScript(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 1 {
		return wrongArgs(i, "info script ?filename?")
	}
	if len(rest) == 1 {
		i.SetScript(rest[0].String())
	}
	i.SetResultString(i.GetScript())
	return ResultOK
}

// infoErrorstack exposes the errorInfo trace accumulated by the most recent
// error as a list of lines, for scripts that want machine-readable access
// to the same data "set errorInfo" exposes as a blob.
func infoErrorstack(i *InternalInterp, rest []FeatherObj) FeatherResult {
	if len(rest) > 0 {
		return wrongArgs(i, "info errorstack")
	}
	lines := strings.Split(i.errorInfo, "\n")
	out := make([]*Obj, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, NewStringObj(l))
		}
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

// sortStrings returns the unique elements of s in ascending order.
func sortStrings(s []string) []string {
	m := make(map[string]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return sortedKeys(m)
}
