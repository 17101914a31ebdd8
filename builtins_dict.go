package feather

// registerDictBuiltins installs "dict" and its subcommands.
func registerDictBuiltins(i *InternalInterp) {
	i.register("dict", cmdDict)
}

func cmdDict(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "dict subcommand ?arg ...?")
	}
	sub := args[0].String()
	rest := args[1:]
	switch sub {
	case "create":
		return dictCreate(i, rest)
	case "get":
		return dictGet(i, rest)
	case "set":
		return dictSet(i, rest)
	case "unset":
		return dictUnset(i, rest)
	case "exists":
		return dictExists(i, rest)
	case "keys":
		return dictKeys(i, rest)
	case "values":
		return dictValues(i, rest)
	case "size":
		return dictSize(i, rest)
	case "for":
		return dictFor(i, rest)
	case "merge":
		return dictMerge(i, rest)
	case "incr":
		return dictIncr(i, rest)
	case "append":
		return dictAppend(i, rest)
	case "lappend":
		return dictLappend(i, rest)
	case "with":
		return dictWith(i, rest)
	case "remove":
		return dictUnset(i, rest)
	}
	return argErrorf(i, "unknown or ambiguous subcommand %q: must be append, create, exists, for, get, incr, keys, lappend, merge, remove, set, size, unset, values, or with", sub)
}

func dictCreate(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args)%2 != 0 {
		return argErrorf(i, "wrong # args: should be \"dict create ?key value ...?\"")
	}
	d := NewDictObj()
	for idx := 0; idx < len(args); idx += 2 {
		ObjDictSet(d, args[idx].String(), args[idx+1])
	}
	i.SetResult(d)
	return ResultOK
}

func dictGet(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "dict get dictionary ?key ...?")
	}
	cur := args[0]
	for _, k := range args[1:] {
		v, ok := ObjDictGet(cur, k.String())
		if !ok {
			return argErrorf(i, "key %q not known in dictionary", k.String())
		}
		cur = v
	}
	if len(args) == 1 {
		// No keys: the result is the dict itself stringified.
		i.SetResult(cur)
		return ResultOK
	}
	i.SetResult(cur)
	return ResultOK
}

func dictSet(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 3 {
		return wrongArgs(i, "dict set varName key ?key ...? value")
	}
	frame := i.activeFrame()
	name := args[0].String()
	d, ok := i.getVar(frame, name)
	if !ok {
		d = NewDictObj()
	}
	keys := args[1 : len(args)-1]
	val := args[len(args)-1]
	updated, err := dictSetRecurse(d, keys, val)
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	i.setVar(frame, name, updated)
	i.SetResult(updated)
	return ResultOK
}

func dictSetRecurse(d *Obj, keys []FeatherObj, val *Obj) (*Obj, error) {
	dd, err := d.Dict()
	if err != nil {
		dd = &DictType{Items: make(map[string]*Obj)}
	}
	clone := dd.Dup().(*DictType)
	key := keys[0].String()
	if len(keys) == 1 {
		if _, exists := clone.Items[key]; !exists {
			clone.Order = append(clone.Order, key)
		}
		clone.Items[key] = val
		return &Obj{intrep: clone}, nil
	}
	nested, ok := clone.Items[key]
	if !ok {
		nested = NewDictObj()
		clone.Order = append(clone.Order, key)
	}
	updatedNested, err := dictSetRecurse(nested, keys[1:], val)
	if err != nil {
		return nil, err
	}
	clone.Items[key] = updatedNested
	return &Obj{intrep: clone}, nil
}

func dictUnset(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict unset varName key ?key ...?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	d, ok := i.getVar(frame, name)
	if !ok {
		return argErrorf(i, "can't read \"%s\": no such variable", name)
	}
	dd, err := d.Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	clone := dd.Dup().(*DictType)
	key := args[1].String()
	delete(clone.Items, key)
	for idx, k := range clone.Order {
		if k == key {
			clone.Order = append(clone.Order[:idx], clone.Order[idx+1:]...)
			break
		}
	}
	updated := &Obj{intrep: clone}
	i.setVar(frame, name, updated)
	i.SetResult(updated)
	return ResultOK
}

func dictExists(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict exists dictionary key ?key ...?")
	}
	cur := args[0]
	for _, k := range args[1:] {
		v, ok := ObjDictGet(cur, k.String())
		if !ok {
			i.SetResultString("0")
			return ResultOK
		}
		cur = v
	}
	i.SetResultString("1")
	return ResultOK
}

func dictKeys(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "dict keys dictionary ?pattern?")
	}
	d, err := args[0].Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	pattern := ""
	if len(args) == 2 {
		pattern = args[1].String()
	}
	keys := filterGlob(append([]string(nil), d.Order...), pattern)
	out := make([]*Obj, len(keys))
	for idx, k := range keys {
		out[idx] = NewStringObj(k)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func dictValues(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "dict values dictionary ?pattern?")
	}
	d, err := args[0].Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	pattern := ""
	if len(args) == 2 {
		pattern = args[1].String()
	}
	out := make([]*Obj, 0, len(d.Order))
	for _, k := range d.Order {
		if pattern != "" && !globMatch(pattern, k) {
			continue
		}
		out = append(out, d.Items[k])
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func dictSize(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) != 1 {
		return wrongArgs(i, "dict size dictionary")
	}
	d, err := args[0].Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	i.SetResultString(itoa(len(d.Order)))
	return ResultOK
}

func dictFor(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) != 3 {
		return wrongArgs(i, "dict for {keyVar valueVar} dictionary body")
	}
	vars, err := args[0].List()
	if err != nil || len(vars) != 2 {
		return argErrorf(i, "must have exactly two variable names")
	}
	d, err := args[1].Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	body := args[2].String()
	frame := i.activeFrame()
	for _, k := range d.Order {
		i.setVar(frame, vars[0].String(), NewStringObj(k))
		i.setVar(frame, vars[1].String(), d.Items[k])
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

func dictMerge(i *InternalInterp, args []FeatherObj) FeatherResult {
	out := NewDictObj()
	for _, a := range args {
		d, err := a.Dict()
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		for _, k := range d.Order {
			ObjDictSet(out, k, d.Items[k])
		}
	}
	i.SetResult(out)
	return ResultOK
}

func dictIncr(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict incr dictVarName key ?increment?")
	}
	delta := int64(1)
	if len(args) == 3 {
		n, err := AsInt(args[2])
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		delta = n
	}
	frame := i.activeFrame()
	name := args[0].String()
	d, ok := i.getVar(frame, name)
	if !ok {
		d = NewDictObj()
	}
	key := args[1].String()
	cur := int64(0)
	if v, ok := ObjDictGet(d, key); ok {
		n, err := AsInt(v)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		cur = n
	}
	ObjDictSet(d, key, NewIntObj(cur+delta))
	i.setVar(frame, name, d)
	i.SetResult(d)
	return ResultOK
}

func dictAppend(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict append dictVarName key ?value ...?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	d, ok := i.getVar(frame, name)
	if !ok {
		d = NewDictObj()
	}
	key := args[1].String()
	cur := ""
	if v, ok := ObjDictGet(d, key); ok {
		cur = v.String()
	}
	for _, a := range args[2:] {
		cur += a.String()
	}
	ObjDictSet(d, key, NewStringObj(cur))
	i.setVar(frame, name, d)
	i.SetResult(d)
	return ResultOK
}

func dictLappend(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict lappend dictVarName key ?value ...?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	d, ok := i.getVar(frame, name)
	if !ok {
		d = NewDictObj()
	}
	key := args[1].String()
	list, ok := ObjDictGet(d, key)
	if !ok {
		list = NewListObj()
	}
	for _, v := range args[2:] {
		ObjListAppend(list, v)
	}
	ObjDictSet(d, key, list)
	i.setVar(frame, name, d)
	i.SetResult(d)
	return ResultOK
}

func dictWith(i *InternalInterp, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "dict with dictVarName ?key ...? body")
	}
	frame := i.activeFrame()
	name := args[0].String()
	body := args[len(args)-1].String()
	keys := args[1 : len(args)-1]

	d, ok := i.getVar(frame, name)
	if !ok {
		d = NewDictObj()
	}
	cur := d
	for _, k := range keys {
		v, ok := ObjDictGet(cur, k.String())
		if !ok {
			v = NewDictObj()
		}
		cur = v
	}
	dd, err := cur.Dict()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	for _, k := range dd.Order {
		i.setVar(frame, k, dd.Items[k])
	}

	code := i.evalScriptResult(body)
	if code == ResultError {
		return code
	}

	updated := NewDictObj()
	for _, k := range dd.Order {
		if v, ok := i.getVar(frame, k); ok {
			ObjDictSet(updated, k, v)
		}
	}
	if len(keys) == 0 {
		i.setVar(frame, name, updated)
	} else {
		full, err := dictSetRecurse(d, keys, updated)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		i.setVar(frame, name, full)
	}
	i.SetResultString("")
	return ResultOK
}
