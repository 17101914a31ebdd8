package feather

import "strings"

// ListType is the internal representation for list values: an ordered
// sequence of elements, each itself an *Obj (so nested lists shimmer too).
type ListType []*Obj

func (t ListType) Name() string { return "list" }

func (t ListType) Dup() ObjType {
	out := make(ListType, len(t))
	copy(out, t)
	return out
}

func (t ListType) UpdateString() string {
	var b strings.Builder
	for idx, item := range t {
		if idx > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatListElement(item))
	}
	return b.String()
}

func (t ListType) IntoList() ([]*Obj, bool) { return []*Obj(t), true }

// formatListElement renders item the way it must appear as one word inside
// a TCL list: braced if it is empty, contains whitespace/braces, or would
// otherwise be re-split by the list parser.
func formatListElement(item *Obj) string {
	if item == nil {
		return "{}"
	}
	if nested, ok := item.intrep.(ListType); ok && len(nested) > 0 {
		return "{" + nested.UpdateString() + "}"
	}
	s := item.String()
	if needsBraces(s) {
		return "{" + s + "}"
	}
	return s
}
