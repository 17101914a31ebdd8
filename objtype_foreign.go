package feather

// ForeignType is the internal representation for host-registered Go values
// exposed to TCL scripts (see RegisterType). The string representation is
// the object's handle name (e.g. "counter1"), never the Go value itself.
type ForeignType struct {
	TypeName string
	Value    any
}

func (t *ForeignType) Name() string         { return t.TypeName }
func (t *ForeignType) Dup() ObjType         { return &ForeignType{TypeName: t.TypeName, Value: t.Value} }
func (t *ForeignType) UpdateString() string { return t.TypeName }

// NewForeignObj creates a foreign object wrapping value under typeName. The
// string representation defaults to the type name; callers that need a
// stable handle name (see interp_foreign.go) override bytes afterward.
func NewForeignObj(typeName string, value any) *Obj {
	return &Obj{intrep: &ForeignType{TypeName: typeName, Value: value}}
}
