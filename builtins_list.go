package feather

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// registerListBuiltins installs the list-manipulation command family.
func registerListBuiltins(i *InternalInterp) {
	i.register("list", cmdList)
	i.register("llength", cmdLlength)
	i.register("lindex", cmdLindex)
	i.register("lrange", cmdLrange)
	i.register("lappend", cmdLappend)
	i.register("lset", cmdLset)
	i.register("linsert", cmdLinsert)
	i.register("lreplace", cmdLreplace)
	i.register("lrepeat", cmdLrepeat)
	i.register("lreverse", cmdLreverse)
	i.register("lsort", cmdLsort)
	i.register("lsearch", cmdLsearch)
	i.register("lassign", cmdLassign)
	i.register("split", cmdSplit)
	i.register("join", cmdJoin)
	i.register("concat", cmdConcat)
	i.register("lmap", cmdLmap)
}

// cmdLmap mirrors cmdForeach's lockstep iteration over one or more variable
// lists but accumulates the body's per-iteration result into a list instead
// of discarding it; "continue" contributes nothing, "break" stops early.
func cmdLmap(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArgs(i, "lmap varList list ?varList list ...? command")
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
	var acc []*Obj
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
			i.SetResult(NewListObj(acc...))
			return ResultOK
		case ResultContinue:
			continue
		case ResultError, ResultReturn:
			return code
		}
		acc = append(acc, i.result)
	}
	i.SetResult(NewListObj(acc...))
	return ResultOK
}

func cmdList(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	cp := make([]*Obj, len(args))
	for idx, a := range args {
		cp[idx] = a.Copy()
	}
	i.SetResult(NewListObj(cp...))
	return ResultOK
}

func cmdLlength(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 1 {
		return wrongArgs(i, "llength list")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	i.SetResultString(itoa(len(items)))
	return ResultOK
}

func cmdLindex(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "lindex list ?index ...?")
	}
	cur := args[0]
	for _, idxArg := range args[1:] {
		items, err := cur.List()
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		idx, err := tclIndex(idxArg.String(), len(items))
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		if idx < 0 || idx >= len(items) {
			i.SetResultString("")
			return ResultOK
		}
		cur = items[idx]
	}
	i.SetResult(cur)
	return ResultOK
}

func cmdLrange(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 3 {
		return wrongArgs(i, "lrange list first last")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	first, err := tclIndex(args[1].String(), len(items))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	last, err := tclIndex(args[2].String(), len(items))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	if first < 0 {
		first = 0
	}
	if last >= len(items) {
		last = len(items) - 1
	}
	if first > last || first >= len(items) {
		i.SetResult(NewListObj())
		return ResultOK
	}
	i.SetResult(NewListObj(items[first : last+1]...))
	return ResultOK
}

func cmdLappend(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "lappend varName ?value value ...?")
	}
	frame := i.activeFrame()
	name := args[0].String()
	list, ok := i.getVar(frame, name)
	if !ok {
		list = NewListObj()
	}
	for _, v := range args[1:] {
		ObjListAppend(list, v)
	}
	i.setVar(frame, name, list)
	i.SetResult(list)
	return ResultOK
}

func cmdLset(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "lset varName ?index ...? value")
	}
	frame := i.activeFrame()
	name := args[0].String()
	list, ok := i.getVar(frame, name)
	if !ok {
		return argErrorf(i, "can't read \"%s\": no such variable", name)
	}
	newVal := args[len(args)-1]
	indices := args[1 : len(args)-1]

	if len(indices) == 0 {
		i.setVar(frame, name, newVal)
		i.SetResult(newVal)
		return ResultOK
	}

	items, err := list.List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	items = append([]*Obj(nil), items...)
	result, err := lsetRecurse(items, indices, newVal)
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	updated := NewListObj(result...)
	i.setVar(frame, name, updated)
	i.SetResult(updated)
	return ResultOK
}

func lsetRecurse(items []*Obj, indices []FeatherObj, newVal *Obj) ([]*Obj, error) {
	idx, err := tclIndex(indices[0].String(), len(items))
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(items) {
		return nil, &EvalError{Message: "list index out of range"}
	}
	if len(indices) == 1 {
		items[idx] = newVal
		return items, nil
	}
	nested, err := items[idx].List()
	if err != nil {
		return nil, err
	}
	nested = append([]*Obj(nil), nested...)
	updated, err := lsetRecurse(nested, indices[1:], newVal)
	if err != nil {
		return nil, err
	}
	items[idx] = NewListObj(updated...)
	return items, nil
}

func cmdLinsert(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "linsert list index ?element ...?")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	idx, err := tclIndex(args[1].String(), len(items))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(items) {
		idx = len(items)
	}
	out := make([]*Obj, 0, len(items)+len(args)-2)
	out = append(out, items[:idx]...)
	out = append(out, args[2:]...)
	out = append(out, items[idx:]...)
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func cmdLreplace(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 3 {
		return wrongArgs(i, "lreplace list first last ?element ...?")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	first, err := tclIndex(args[1].String(), len(items))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	last, err := tclIndex(args[2].String(), len(items))
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	if first < 0 {
		first = 0
	}
	if last >= len(items) {
		last = len(items) - 1
	}
	if first > len(items) {
		first = len(items)
	}
	if first > last+1 {
		last = first - 1
	}
	out := make([]*Obj, 0, len(items)+len(args))
	out = append(out, items[:first]...)
	out = append(out, args[3:]...)
	if last+1 <= len(items) {
		out = append(out, items[last+1:]...)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func cmdLrepeat(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "lrepeat count ?element ...?")
	}
	n, err := AsInt(args[0])
	if err != nil || n < 0 {
		return argErrorf(i, "bad count %q: must be a non-negative integer", args[0].String())
	}
	elems := args[1:]
	out := make([]*Obj, 0, int(n)*len(elems))
	for c := int64(0); c < n; c++ {
		for _, e := range elems {
			out = append(out, e.Copy())
		}
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func cmdLreverse(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) != 1 {
		return wrongArgs(i, "lreverse list")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	out := make([]*Obj, len(items))
	for idx, v := range items {
		out[len(items)-1-idx] = v
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func cmdLsort(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "lsort ?options? list")
	}
	mode := "ascii"
	decreasing := false
	unique := false
	for _, a := range args[:len(args)-1] {
		switch a.String() {
		case "-integer":
			mode = "integer"
		case "-real":
			mode = "real"
		case "-ascii":
			mode = "ascii"
		case "-dictionary":
			mode = "dictionary"
		case "-increasing":
			decreasing = false
		case "-decreasing":
			decreasing = true
		case "-unique":
			unique = true
		}
	}
	items, err := args[len(args)-1].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	out := append([]*Obj(nil), items...)
	sort.SliceStable(out, func(a, b int) bool {
		less := lsortLess(out[a], out[b], mode)
		if decreasing {
			return !less && out[a].String() != out[b].String()
		}
		return less
	})
	if unique {
		out = dedupAdjacent(out)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func lsortLess(a, b *Obj, mode string) bool {
	switch mode {
	case "integer":
		av, aerr := AsInt(a)
		bv, berr := AsInt(b)
		if aerr == nil && berr == nil {
			return av < bv
		}
	case "real":
		av, aerr := AsDouble(a)
		bv, berr := AsDouble(b)
		if aerr == nil && berr == nil {
			return av < bv
		}
	}
	return a.String() < b.String()
}

func dedupAdjacent(items []*Obj) []*Obj {
	out := make([]*Obj, 0, len(items))
	for idx, v := range items {
		if idx == 0 || v.String() != items[idx-1].String() {
			out = append(out, v)
		}
	}
	return out
}

func cmdLsearch(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 2 {
		return wrongArgs(i, "lsearch ?options? list pattern")
	}
	mode := "glob"
	all := false
	inline := false
	for _, a := range args[:len(args)-2] {
		switch a.String() {
		case "-exact":
			mode = "exact"
		case "-glob":
			mode = "glob"
		case "-regexp":
			mode = "regexp"
		case "-all":
			all = true
		case "-inline":
			inline = true
		}
	}
	items, err := args[len(args)-2].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	pattern := args[len(args)-1].String()

	var matchesIdx []int
	for idx, v := range items {
		s := v.String()
		matched := false
		switch mode {
		case "exact":
			matched = s == pattern
		case "glob":
			matched = globMatch(pattern, s)
		case "regexp":
			matched = regexpMatch(pattern, s)
		}
		if matched {
			matchesIdx = append(matchesIdx, idx)
			if !all {
				break
			}
		}
	}

	if inline {
		out := make([]*Obj, len(matchesIdx))
		for j, idx := range matchesIdx {
			out[j] = items[idx]
		}
		if all {
			i.SetResult(NewListObj(out...))
		} else if len(out) > 0 {
			i.SetResult(out[0])
		} else {
			i.SetResultString("")
		}
		return ResultOK
	}

	if all {
		out := make([]*Obj, len(matchesIdx))
		for j, idx := range matchesIdx {
			out[j] = NewIntObj(int64(idx))
		}
		i.SetResult(NewListObj(out...))
		return ResultOK
	}
	if len(matchesIdx) == 0 {
		i.SetResultString("-1")
		return ResultOK
	}
	i.SetResultString(itoa(matchesIdx[0]))
	return ResultOK
}

func cmdLassign(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 {
		return wrongArgs(i, "lassign list ?varName ...?")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	frame := i.activeFrame()
	names := args[1:]
	for idx, n := range names {
		if idx < len(items) {
			i.setVar(frame, n.String(), items[idx])
		} else {
			i.setVar(frame, n.String(), NewStringObj(""))
		}
	}
	var rest []*Obj
	if len(names) < len(items) {
		rest = items[len(names):]
	}
	i.SetResult(NewListObj(rest...))
	return ResultOK
}

func cmdSplit(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "split string ?splitChars?")
	}
	s := args[0].String()
	splitChars := " \t\n\r"
	if len(args) == 2 {
		splitChars = args[1].String()
	}
	var parts []string
	if splitChars == "" {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = splitKeepEmpty(s, splitChars)
	}
	out := make([]*Obj, len(parts))
	for idx, p := range parts {
		out[idx] = NewStringObj(p)
	}
	i.SetResult(NewListObj(out...))
	return ResultOK
}

func splitKeepEmpty(s, chars string) []string {
	var out []string
	cur := strings.Builder{}
	for _, r := range s {
		if strings.ContainsRune(chars, r) {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	out = append(out, cur.String())
	return out
}

func cmdJoin(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(i, "join list ?joinString?")
	}
	items, err := args[0].List()
	if err != nil {
		i.SetErrorString(err.Error())
		return ResultError
	}
	sep := " "
	if len(args) == 2 {
		sep = args[1].String()
	}
	parts := make([]string, len(items))
	for idx, v := range items {
		parts[idx] = v.String()
	}
	i.SetResultString(strings.Join(parts, sep))
	return ResultOK
}

func cmdConcat(i *InternalInterp, cmd FeatherObj, args []FeatherObj) FeatherResult {
	var parts []string
	for _, a := range args {
		s := strings.TrimSpace(a.String())
		if s != "" {
			parts = append(parts, s)
		}
	}
	i.SetResultString(strings.Join(parts, " "))
	return ResultOK
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// regexpMatch matches s against an ARE pattern, falling back to substring
// containment if the pattern fails to compile as a Go regexp (ARE and RE2
// overlap on almost every pattern that actually appears in practice).
func regexpMatch(pattern, s string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return strings.Contains(s, pattern)
	}
	return re.MatchString(s)
}
