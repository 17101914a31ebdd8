package feather

// registerVarBuiltins installs the plain variable-manipulation commands
// that don't need the frame/namespace machinery proc/upvar/global use.
func registerVarBuiltins(i *InternalInterp) {
	i.register("set", cmdSet)
	i.register("unset", cmdUnset)
	i.register("incr", cmdIncr)
	i.register("subst", cmdSubst)
}

func cmdSet(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "set varName ?newValue?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	if len(args) == 2 {
		i.setVar(frame, name, args[1])
		i.SetResult(args[1])
		return ResultOK
	}
	v, ok := i.getVar(frame, name)
	if !ok {
		return argErrorf(i, "can't read \"%s\": no such variable", name)
	}
	i.SetResult(v)
	return ResultOK
}

func cmdUnset(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	frame := i.activeFrame()
	nocomplain := false
	start := 0
	if len(args) > 0 && args[0].String() == "-nocomplain" {
		nocomplain = true
		start = 1
	}
	for _, a := range args[start:] {
		name := a.String()
		if !i.unsetVar(frame, name) && !nocomplain {
			return argErrorf(i, "can't unset \"%s\": no such variable", name)
		}
		delete(frame.links, name)
	}
	i.SetResultString("")
	return ResultOK
}

func cmdIncr(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "incr varName ?increment?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	delta := int64(1)
	if len(args) == 2 {
		d, err := AsInt(args[1])
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		delta = d
	}
	cur := int64(0)
	if v, ok := i.getVar(frame, name); ok {
		n, err := AsInt(v)
		if err != nil {
			return argErrorf(i, "expected integer but got %q", v.String())
		}
		cur = n
	}
	newVal := NewIntObj(cur + delta)
	i.setVar(frame, name, newVal)
	i.SetResult(newVal)
	return ResultOK
}

// cmdSubst performs substitution on its last argument. -nobackslashes leaves
// backslash sequences as written; -nocommands and -novariables are accepted
// but have no effect: command and variable substitution always take place.
func cmdSubst(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "subst ?-nobackslashes? ?-nocommands? ?-novariables? string")
	}
	doBackslash := true
	for _, a := range args[:len(args)-1] {
		if a.String() == "-nobackslashes" {
			doBackslash = false
		}
	}
	text := args[len(args)-1].String()
	s, err := i.substituteText(text, doBackslash)
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	i.SetResultString(s)
	return ResultOK
}
