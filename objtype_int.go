package feather

import "strconv"

// IntType is the internal representation for TCL integer values. It is a
// value type (not a pointer) since integers are small and immutable; Dup
// is therefore a no-op copy.
type IntType int64

func (t IntType) Name() string         { return "int" }
func (t IntType) Dup() ObjType         { return t }
func (t IntType) UpdateString() string { return strconv.FormatInt(int64(t), 10) }

// IntoInt/IntoDouble/IntoBool let AsInt/AsDouble/AsBool shimmer an int
// object without round-tripping through its string form.
func (t IntType) IntoInt() (int64, bool)      { return int64(t), true }
func (t IntType) IntoDouble() (float64, bool) { return float64(t), true }

// IntoBool implements the expr boolean protocol's numeric case: any
// nonzero integer is true.
func (t IntType) IntoBool() (bool, bool) { return t != 0, true }
