package feather

import (
	"fmt"
	"regexp"
	"strings"
)

// registerControlBuiltins installs the control-flow and procedure-management
// commands: the commands every other builtin and every proc body depends on.
func registerControlBuiltins(i *InternalInterp) {
	i.register("if", cmdIf)
	i.register("while", cmdWhile)
	i.register("for", cmdFor)
	i.register("foreach", cmdForeach)
	i.register("break", cmdBreak)
	i.register("continue", cmdContinue)
	i.register("return", cmdReturn)
	i.register("catch", cmdCatch)
	i.register("try", cmdTry)
	i.register("error", cmdError)
	i.register("throw", cmdThrow)
	i.register("switch", cmdSwitch)
	i.register("proc", cmdProc)
	i.register("apply", cmdApply)
	i.register("rename", cmdRename)
	i.register("tailcall", cmdTailcall)
	i.register("uplevel", cmdUplevel)
	i.register("upvar", cmdUpvar)
	i.register("global", cmdGlobal)
	i.register("variable", cmdVariable)
	i.register("expr", cmdExpr)
}

func cmdIf(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "if expr ?then? body ?elseif expr ?then? body ...? ?else? ?body?")
	}
	pos := 0
	for {
		if pos >= len(args) {
			return argErrorf(i, "wrong # args: no expression after \"if\" / \"elseif\"")
		}
		cond := args[pos].String()
		pos++
		if pos < len(args) && args[pos].String() == "then" {
			pos++
		}
		if pos >= len(args) {
			return argErrorf(i, "wrong # args: no script following \"then\" argument")
		}
		body := args[pos].String()
		pos++

		ok, err := i.evalExprBool(cond)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		if ok {
			return i.evalScriptResult(body)
		}

		if pos >= len(args) {
			i.SetResultString("")
			return ResultOK
		}
		switch args[pos].String() {
		case "elseif":
			pos++
			continue
		case "else":
			pos++
			if pos >= len(args) {
				return argErrorf(i, "wrong # args: no script following \"else\" argument")
			}
			body := args[pos].String()
			return i.evalScriptResult(body)
		default:
			// Final bare body with no "else" keyword.
			body := args[pos].String()
			if pos != len(args)-1 {
				return wrongArgs(i, "if expr ?then? body ?elseif expr ?then? body ...? ?else? ?body?")
			}
			return i.evalScriptResult(body)
		}
	}
}

func cmdWhile(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 2 {
		return wrongArgs(i, "while test body")
	}
	cond, body := args[0].String(), args[1].String()
	for {
		ok, err := i.evalExprBool(cond)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		if !ok {
			i.SetResultString("")
			return ResultOK
		}
		code := i.evalScriptResult(body)
		switch code {
		case ResultBreak:
			i.SetResultString("")
			return ResultOK
		case ResultContinue, ResultOK:
			continue
		default:
			return code
		}
	}
}

func cmdFor(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 4 {
		return wrongArgs(i, "for start test next command")
	}
	start, test, next, body := args[0].String(), args[1].String(), args[2].String(), args[3].String()

	if code := i.evalScriptResult(start); code != ResultOK {
		return code
	}
	for {
		ok, err := i.evalExprBool(test)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		if !ok {
			i.SetResultString("")
			return ResultOK
		}
		code := i.evalScriptResult(body)
		switch code {
		case ResultBreak:
			i.SetResultString("")
			return ResultOK
		case ResultError:
			return ResultError
		case ResultReturn:
			return ResultReturn
		}
		if code := i.evalScriptResult(next); code != ResultOK {
			return code
		}
	}
}

func cmdForeach(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArgs(i, "foreach varList list ?varList list ...? command")
	}
	body := args[len(args)-1].String()
	pairs := args[:len(args)-1]

	var varNames [][]string
	var lists [][]*Obj
	maxLen := 0
	for idx := 0; idx < len(pairs); idx += 2 {
		names, err := i.parseList(pairs[idx].String())
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		nameStrs := make([]string, len(names))
		for j, n := range names {
			nameStrs[j] = n.String()
		}
		items, err := pairs[idx+1].List()
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		varNames = append(varNames, nameStrs)
		lists = append(lists, items)
		need := (len(items) + len(nameStrs) - 1) / max1(len(nameStrs))
		if need > maxLen {
			maxLen = need
		}
	}

	frame := i.activeFrame()
	for iter := 0; iter < maxLen; iter++ {
		for g := range varNames {
			names := varNames[g]
			items := lists[g]
			for vi, name := range names {
				pos := iter*len(names) + vi
				if pos < len(items) {
					i.setVar(frame, name, items[pos])
				} else {
					i.setVar(frame, name, NewStringObj(""))
				}
			}
		}
		code := i.evalScriptResult(body)
		switch code {
		case ResultBreak:
			i.SetResultString("")
			return ResultOK
		case ResultError, ResultReturn:
			return code
		}
	}
	i.SetResultString("")
	return ResultOK
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func cmdBreak(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 0 {
		return wrongArgs(i, "break")
	}
	i.SetResultString("")
	return ResultBreak
}

func cmdContinue(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 0 {
		return wrongArgs(i, "continue")
	}
	i.SetResultString("")
	return ResultContinue
}

func cmdReturn(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	code := ResultReturn
	var result FeatherObj
	idx := 0
	for idx+1 < len(args) {
		isOption := true
		switch args[idx].String() {
		case "-code":
			switch args[idx+1].String() {
			case "ok":
				code = ResultReturn
			case "error":
				code = ResultError
			case "return":
				code = ResultReturn
			case "break":
				code = ResultBreak
			case "continue":
				code = ResultContinue
			default:
				if n, err := AsInt(args[idx+1]); err == nil {
					code = FeatherResult(n)
				}
			}
		case "-errorinfo":
			i.errorInfo = args[idx+1].String()
		case "-errorcode":
			i.errorCode = args[idx+1].String()
		case "-level":
			// Accepted and its value ignored: the completion code is the
			// same as for the default level.
		default:
			isOption = false
		}
		if !isOption {
			break
		}
		idx += 2
	}
	if idx < len(args) {
		result = args[idx]
	}
	if result == nil {
		result = NewStringObj("")
	}
	i.SetResult(result)
	return code
}

func cmdCatch(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 3 {
		return wrongArgs(i, "catch script ?resultVarName? ?optionsVarName?")
	}
	i.errorCode, i.errorInfo = "", ""
	code := i.evalScriptResult(args[0].String())
	resultObj := i.result
	if len(args) >= 2 {
		i.setVar(i.activeFrame(), args[1].String(), resultObj)
	}
	if len(args) == 3 {
		opts := NewDictObj()
		ObjDictSet(opts, "-code", NewIntObj(int64(code)))
		if code == ResultError {
			errCode := i.errorCode
			if errCode == "" {
				errCode = "NONE"
			}
			ObjDictSet(opts, "-errorcode", NewStringObj(errCode))
			ObjDictSet(opts, "-errorinfo", NewStringObj(i.errorInfo))
		}
		i.setVar(i.activeFrame(), args[2].String(), opts)
	}
	i.SetResultString(fmt.Sprintf("%d", int(code)))
	return ResultOK
}

// cmdError implements the classic "error message ?errorInfo? ?errorCode?"
// command: it sets the interpreter's result to message and raises ResultError,
// optionally seeding the errorInfo/errorCode machinery the same way a
// propagating error accumulates them.
func cmdError(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 3 {
		return wrongArgs(i, "error message ?errorInfo? ?errorCode?")
	}
	msg := args[0].String()
	i.SetErrorString(msg)
	i.errorInfo = msg
	if len(args) >= 2 {
		i.errorInfo = args[1].String()
	}
	i.errorCode = "NONE"
	if len(args) == 3 {
		i.errorCode = args[2].String()
	}
	return ResultError
}

// cmdThrow is shorthand for "return -code error -errorcode code message".
func cmdThrow(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 2 {
		return wrongArgs(i, "throw type message")
	}
	msg := args[1].String()
	i.SetErrorString(msg)
	i.errorInfo = msg
	code, err := args[0].List()
	if err == nil && len(code) > 0 {
		parts := make([]string, len(code))
		for idx, c := range code {
			parts[idx] = c.String()
		}
		i.errorCode = strings.Join(parts, " ")
	} else {
		i.errorCode = args[0].String()
	}
	return ResultError
}

// cmdTry implements a practical subset of TCL 8.6's try: a body, any number
// of "on code varList script" / "trap pattern varList script" handlers, and
// an optional trailing "finally script". Each handler clause is exactly
// three operands (selector, varList, script) after its keyword; a trap
// pattern is glob-matched against the error's errorCode.
func cmdTry(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "try body ?handler ...? ?finally script?")
	}
	body := args[0].String()
	rest := args[1:]

	var finally string
	haveFinally := false
	if len(rest) >= 2 && rest[len(rest)-2].String() == "finally" {
		finally = rest[len(rest)-1].String()
		haveFinally = true
		rest = rest[:len(rest)-2]
	}
	if len(rest)%4 != 0 {
		return argErrorf(i, "wrong # args to try: should be \"try body ?on code varList script? ... ?finally script?\"")
	}

	i.errorCode, i.errorInfo = "", ""
	code := i.evalScriptResult(body)
	result := i.result

	finalCode := code
	handled := false
	for idx := 0; idx+3 < len(rest); idx += 4 {
		kind, selector, script := rest[idx].String(), rest[idx+1].String(), rest[idx+3].String()
		if kind != "on" && kind != "trap" {
			return argErrorf(i, "bad handler kind %q: must be on or trap", kind)
		}
		matches := !handled && ((kind == "on" && onCodeMatches(selector, code)) || (kind == "trap" && code == ResultError && globMatch(selector, i.errorCode)))
		if matches {
			handled = true
			finalCode = i.runTryHandler(rest[idx+2], result, script)
		}
	}

	if !handled {
		i.SetResult(result)
	}

	if haveFinally {
		fcode := i.evalScriptResult(finally)
		if fcode == ResultError {
			return ResultError
		}
	}
	return finalCode
}

func onCodeMatches(selector string, code FeatherResult) bool {
	switch selector {
	case "ok":
		return code == ResultOK
	case "error":
		return code == ResultError
	case "return":
		return code == ResultReturn
	case "break":
		return code == ResultBreak
	case "continue":
		return code == ResultContinue
	}
	return false
}

// runTryHandler binds the handler's message/options varList (if any) and
// evaluates its script. varListObj itself is the literal varList argument
// (not the handler's selector) so its name here mirrors the clause shape.
func (i *InternalInterp) runTryHandler(varListObj FeatherObj, result FeatherObj, script string) FeatherResult {
	names, err := varListObj.List()
	if err == nil && len(names) >= 1 {
		i.setVar(i.activeFrame(), names[0].String(), result)
	}
	if err == nil && len(names) >= 2 {
		opts := NewDictObj()
		ObjDictSet(opts, "-code", NewIntObj(1))
		i.setVar(i.activeFrame(), names[1].String(), opts)
	}
	return i.evalScriptResult(script)
}

// cmdSwitch implements switch ?options? string pattern body ?pattern body ...?
// and the "string {pattern body ...}" single-list form, supporting -exact
// (default), -glob, -regexp and fallthrough via "-".
func cmdSwitch(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	mode := "exact"
	idx := 0
	for idx < len(args) {
		switch args[idx].String() {
		case "-exact":
			mode = "exact"
			idx++
		case "-glob":
			mode = "glob"
			idx++
		case "-regexp":
			mode = "regexp"
			idx++
		case "--":
			idx++
		default:
			goto argsParsed
		}
	}
argsParsed:
	if idx >= len(args) {
		return wrongArgs(i, "switch ?options? string pattern body ... ?default body?")
	}
	subject := args[idx].String()
	idx++
	rest := args[idx:]

	var pairs []FeatherObj
	if len(rest) == 1 {
		list, err := rest[0].List()
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		pairs = list
	} else {
		pairs = rest
	}
	if len(pairs)%2 != 0 {
		return argErrorf(i, "extra switch pattern with no body")
	}

	for pidx := 0; pidx < len(pairs); pidx += 2 {
		pat := pairs[pidx].String()
		matched := pat == "default" && pidx == len(pairs)-2
		if !matched {
			switch mode {
			case "glob":
				matched = globMatch(pat, subject)
			case "regexp":
				re, err := regexp.Compile(pat)
				if err != nil {
					i.SetErrorString(err.Error())
					return ResultError
				}
				matched = re.MatchString(subject)
			default:
				matched = pat == subject
			}
		}
		if !matched {
			continue
		}
		body := pairs[pidx+1].String()
		for body == "-" {
			pidx += 2
			if pidx+1 >= len(pairs) {
				return argErrorf(i, "no body specified for pattern %q", pat)
			}
			body = pairs[pidx+1].String()
		}
		return i.evalScriptResult(body)
	}
	i.SetResultString("")
	return ResultOK
}

func cmdProc(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 3 {
		return wrongArgs(i, "proc name args body")
	}
	name := args[0].String()
	ns := i.activeFrame().ns
	qualified := qualifyCommandName(ns, name)
	targetNs := ns
	if strings.Contains(qualified, "::") {
		parent, _ := splitNsPath(qualified)
		targetNs = i.ensureNamespace(parent)
	}

	params, err := parseParams(i, args[1].String())
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	proc := &Procedure{name: name, params: params, body: args[2].String(), ns: targetNs}
	i.registerProc(qualified, proc)
	i.SetResultString("")
	return ResultOK
}

func cmdApply(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "apply lambdaExpr ?arg ...?")
	}
	lambda, err := args[0].List()
	if err != nil || len(lambda) < 2 {
		return argErrorf(i, "can't interpret %q as a lambda expression", args[0].String())
	}
	params, err := parseParams(i, lambda[0].String())
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	ns := i.activeFrame().ns
	if len(lambda) >= 3 {
		ns = i.ensureNamespace(lambda[2].String())
	}
	proc := &Procedure{name: "apply", params: params, body: lambda[1].String(), ns: ns}
	return i.callProcedure(proc, args[1:])
}

func cmdRename(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 2 {
		return wrongArgs(i, "rename oldName newName")
	}
	oldName, newName := args[0].String(), args[1].String()
	if newName == "" {
		i.deleteCommand(oldName)
		i.fireCmdTrace(oldName, "delete", "")
		i.SetResultString("")
		return ResultOK
	}
	if !i.renameCommand(oldName, newName) {
		return argErrorf(i, "can't rename %q: command doesn't exist", oldName)
	}
	i.SetResultString("")
	return ResultOK
}

func cmdTailcall(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "tailcall command ?arg ...?")
	}
	frame := i.activeFrame()
	if frame.proc == nil && frame.lambda == nil {
		i.SetErrorString("tailcall can only be called from a proc, lambda expression, or method")
		return ResultError
	}
	frame.tail = &tailcallRequest{cmd: args[0].String(), args: args[1:]}
	return ResultReturn
}

func cmdUplevel(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "uplevel ?level? command ?arg ...?")
	}
	levelSpec := "1"
	rest := args
	if len(args) > 1 {
		if looksLikeLevel(args[0].String()) {
			levelSpec = args[0].String()
			rest = args[1:]
		}
	}
	target, _, err := resolveLevel(i, levelSpec)
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}

	parts := make([]string, len(rest))
	for idx, a := range rest {
		parts[idx] = a.String()
	}
	script := strings.Join(parts, " ")

	saved := i.active
	i.active = target
	code := i.evalScriptResult(script)
	i.active = saved
	return code
}

func looksLikeLevel(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "#") {
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func cmdUpvar(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "upvar ?level? otherVar localVar ?otherVar localVar ...?")
	}
	levelSpec := "1"
	rest := args
	if len(args)%2 == 1 {
		levelSpec = args[0].String()
		rest = args[1:]
	}
	target, _, err := resolveLevel(i, levelSpec)
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	if len(rest)%2 != 0 {
		return wrongArgs(i, "upvar ?level? otherVar localVar ?otherVar localVar ...?")
	}
	frame := i.activeFrame()
	for idx := 0; idx < len(rest); idx += 2 {
		other, local := rest[idx].String(), rest[idx+1].String()
		frame.links[local] = varLink{targetLevel: target, targetName: other}
	}
	i.SetResultString("")
	return ResultOK
}

func cmdGlobal(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) == 0 {
		return wrongArgs(i, "global name ?name ...?")
	}
	frame := i.activeFrame()
	for _, a := range args {
		name := a.String()
		frame.links[name] = varLink{targetLevel: -1, nsPath: "::", nsName: name}
	}
	i.SetResultString("")
	return ResultOK
}

func cmdVariable(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) == 0 {
		return wrongArgs(i, "variable ?name value ...? name ?value?")
	}
	frame := i.activeFrame()
	ns := frame.ns
	idx := 0
	for idx < len(args) {
		name := args[idx].String()
		frame.links[name] = varLink{targetLevel: -1, nsPath: ns.fullPath, nsName: name}
		if idx+1 < len(args) {
			if _, exists := ns.vars[name]; !exists {
				i.setVar(frame, name, args[idx+1])
			}
			idx += 2
		} else {
			idx++
		}
	}
	i.SetResultString("")
	return ResultOK
}

func cmdExpr(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) == 0 {
		return wrongArgs(i, "expr arg ?arg ...?")
	}
	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = a.String()
	}
	obj, err := i.evalExprString(strings.Join(parts, " "))
	if err != nil {
		i.SetErrorString(err.Error())
		i.errorInfo = err.Error()
		if err == errDivZero {
			i.errorCode = "ARITH DIVZERO"
		} else {
			i.errorCode = "NONE"
		}
		return ResultError
	}
	i.SetResult(obj)
	return ResultOK
}
