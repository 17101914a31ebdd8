package feather

import (
	"fmt"
	"strings"
)

// Eval evaluates script as a sequence of commands in the active frame,
// returning the string form of the final result.
func (i *InternalInterp) Eval(script string) (string, error) {
	return i.evalFlags(script, EvalLocal)
}

// evalFlags runs evalScriptResult and translates its completion code into
// the (string, error) shape the public API expects. flags is reserved for
// EvalGlobal/EvalLocal callers that need to swap the active frame before
// evaluating; the frame swap itself is handled by the caller (see the
// uplevel builtin), not here.
func (i *InternalInterp) evalFlags(script string, flags int) (string, error) {
	code := i.evalScriptResult(script)
	switch code {
	case ResultOK, ResultReturn:
		return i.Result(), nil
	case ResultBreak:
		i.SetErrorString("invoked \"break\" outside of a loop")
		return i.Result(), &EvalError{Message: i.Result()}
	case ResultContinue:
		i.SetErrorString("invoked \"continue\" outside of a loop")
		return i.Result(), &EvalError{Message: i.Result()}
	case ResultError:
		info := i.errorInfo
		if info == "" {
			info = i.Result()
		}
		code := i.errorCode
		if code == "" {
			code = "NONE"
		}
		i.globalNamespace.vars["errorInfo"] = NewStringObj(info)
		i.globalNamespace.vars["errorCode"] = NewStringObj(code)
		return i.Result(), &EvalError{Message: i.Result()}
	default:
		return i.Result(), &EvalError{Message: i.Result()}
	}
}

// evalScriptResult runs every command in script in order, stopping at the
// first non-OK completion code (error, return, break, continue) and
// propagating it to the caller, exactly as a nested Tcl script does.
func (i *InternalInterp) evalScriptResult(script string) FeatherResult {
	pos := 0
	code := ResultOK
	for pos < len(script) {
		raw, next, status, err := scanCommand(script, pos)
		if err != nil {
			i.SetErrorString(err.Error())
			return ResultError
		}
		if status == InternalParseIncomplete {
			i.SetErrorString("incomplete command")
			return ResultError
		}
		pos = next

		words, werr := splitCommandWords(raw)
		if werr != nil {
			i.SetErrorString(werr.Error())
			return ResultError
		}
		if len(words) == 0 {
			continue
		}

		argObjs, serr := i.substituteWords(words)
		if serr != nil {
			i.SetErrorString(serr.Error())
			return ResultError
		}
		if len(argObjs) == 0 {
			continue
		}

		cmdName := argObjs[0].String()
		code = i.dispatch(cmdName, argObjs[1:])
		if code != ResultOK {
			return code
		}
	}
	return code
}

// substituteWords substitutes every word in a command, splicing {*}-expanded
// list words into the resulting argument slice.
func (i *InternalInterp) substituteWords(words []word) ([]*Obj, error) {
	args := make([]*Obj, 0, len(words))
	for _, w := range words {
		val, err := i.substituteWord(w)
		if err != nil {
			return nil, err
		}
		if w.expand {
			items, err := val.List()
			if err != nil {
				return nil, fmt.Errorf("{*} requires a valid list: %v", err)
			}
			args = append(args, items...)
			continue
		}
		args = append(args, val)
	}
	return args, nil
}

// substituteWord computes the substituted value of a single word according
// to its kind.
func (i *InternalInterp) substituteWord(w word) (*Obj, error) {
	switch w.kind {
	case wordBraced:
		return &Obj{bytes: w.text, interp: i}, nil
	case wordQuoted:
		s, err := i.substituteText(w.text, true)
		if err != nil {
			return nil, err
		}
		return &Obj{bytes: s, interp: i}, nil
	default: // wordBare: compound of literal/$var/[cmd]/backslash pieces
		// A lone braced word with nothing around it still parses as braced
		// via splitCommandWords; a bare word beginning with '{' only reaches
		// here if splitCommandWords treated it otherwise, which cannot
		// happen, so bare words always use the general substitution pass.
		s, err := i.substituteText(w.text, true)
		if err != nil {
			return nil, err
		}
		// A word that is a lone command substitution whose result is a
		// foreign object yields that object itself, so its type survives.
		if r := i.result; len(w.text) > 1 && w.text[0] == '[' && w.text[len(w.text)-1] == ']' && r != nil && r.String() == s {
			if _, ok := r.intrep.(*ForeignType); ok {
				return r, nil
			}
		}
		return &Obj{bytes: s, interp: i}, nil
	}
}

// substituteText performs TCL's variable/command/backslash substitution
// pass over s, as used for bare words, quoted words and `subst`.
func (i *InternalInterp) substituteText(s string, doBackslash bool) (string, error) {
	var b strings.Builder
	pos := 0
	for pos < len(s) {
		c := s[pos]
		switch {
		case c == '\\' && doBackslash:
			piece, n := unescapeOne(s[pos:])
			b.WriteString(piece)
			pos += n

		case c == '$':
			val, n, err := i.substituteVarRef(s[pos:])
			if err != nil {
				return "", err
			}
			if n == 0 {
				b.WriteByte('$')
				pos++
			} else {
				b.WriteString(val)
				pos += n
			}

		case c == '[':
			end, err := matchBracket(s, pos)
			if err != nil {
				return "", err
			}
			inner := s[pos+1 : end]
			res, err := i.evalNested(inner)
			if err != nil {
				return "", err
			}
			b.WriteString(res)
			pos = end + 1

		default:
			b.WriteByte(c)
			pos++
		}
	}
	return b.String(), nil
}

// evalNested evaluates inner as a full script (command substitution),
// returning its result string or propagating any error.
func (i *InternalInterp) evalNested(inner string) (string, error) {
	code := i.evalScriptResult(inner)
	if code == ResultError {
		return "", &EvalError{Message: i.Result()}
	}
	return i.Result(), nil
}

// matchBracket finds the index of the ']' matching the '[' at s[start],
// honoring nested brackets, braces, quotes and backslash escapes.
func matchBracket(s string, start int) (int, error) {
	depth := 0
	var stack []byte
	for idx := start; idx < len(s); idx++ {
		c := s[idx]
		if c == '\\' {
			idx++
			continue
		}
		if len(stack) > 0 && stack[len(stack)-1] == '{' {
			switch c {
			case '{':
				stack = append(stack, '{')
			case '}':
				stack = stack[:len(stack)-1]
			}
			continue
		}
		switch c {
		case '{':
			stack = append(stack, '{')
		case '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return idx, nil
			}
		}
	}
	return 0, fmt.Errorf("missing close-bracket")
}

// substituteVarRef parses and resolves a $name / ${name} / $name(key)
// reference starting at s[0] == '$'. Returns the substituted string, the
// number of bytes consumed (0 if '$' is not followed by a valid name, in
// which case it is literal), and any error.
func (i *InternalInterp) substituteVarRef(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 0, nil
	}
	if s[1] == '{' {
		end := strings.IndexByte(s[2:], '}')
		if end < 0 {
			return "", 0, fmt.Errorf("missing close-brace for variable name")
		}
		name := s[2 : 2+end]
		val, err := i.lookupVarString(name)
		if err != nil {
			return "", 0, err
		}
		return val, 2 + end + 1, nil
	}

	pos := 1
	for pos < len(s) && isNameByte(s[pos]) {
		pos++
	}
	if pos == 1 {
		return "", 0, nil
	}
	name := s[1:pos]

	// Array-style reference: $name(index), index itself may contain
	// substitutions. Feather has no array storage; the parenthesized form
	// resolves against a variable literally named "name(index)".
	if pos < len(s) && s[pos] == '(' {
		closeIdx := strings.IndexByte(s[pos:], ')')
		if closeIdx < 0 {
			return "", 0, fmt.Errorf("missing close-paren for array reference")
		}
		idxText := s[pos+1 : pos+closeIdx]
		idxVal, err := i.substituteText(idxText, true)
		if err != nil {
			return "", 0, err
		}
		fullName := name + "(" + idxVal + ")"
		val, err := i.lookupVarString(fullName)
		if err != nil {
			return "", 0, err
		}
		return val, pos + closeIdx + 1, nil
	}

	val, err := i.lookupVarString(name)
	if err != nil {
		return "", 0, err
	}
	return val, pos, nil
}

func (i *InternalInterp) lookupVarString(name string) (string, error) {
	v, ok := i.getVar(i.activeFrame(), name)
	if !ok {
		return "", fmt.Errorf("can't read \"%s\": no such variable", name)
	}
	return v.String(), nil
}

func isNameByte(c byte) bool {
	return c == '_' || c == ':' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// unescapeOne decodes a single backslash escape at the start of s (s[0]
// must be '\\'), returning the replacement text and the number of bytes of
// s it consumed.
func unescapeOne(s string) (string, int) {
	if len(s) < 2 {
		return "\\", 1
	}
	switch s[1] {
	case 'n':
		return "\n", 2
	case 't':
		return "\t", 2
	case 'r':
		return "\r", 2
	case 'a':
		return "\a", 2
	case 'b':
		return "\b", 2
	case 'f':
		return "\f", 2
	case 'v':
		return "\v", 2
	case '\\':
		return "\\", 2
	case '$':
		return "$", 2
	case '[':
		return "[", 2
	case ']':
		return "]", 2
	case '{':
		return "{", 2
	case '}':
		return "}", 2
	case '"':
		return "\"", 2
	case ';':
		return ";", 2
	case '\n':
		// Line continuation: backslash-newline (plus any following
		// indentation) collapses to a single space.
		n := 2
		for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
			n++
		}
		return " ", n
	default:
		return string(s[1]), 2
	}
}
