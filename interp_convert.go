package feather

import (
	"fmt"
	"strconv"
	"strings"
)

// This file implements the shimmering conversions spec.md §3.4 requires:
// every value carries an always-available string form, and the typed
// (int/double/bool/list/dict) forms are derived from it on demand and then
// cached on the Obj's intrep field. A type that already implements one of
// the Into* interfaces (see obj.go) supplies its typed value directly,
// skipping the string round-trip entirely — that's the fast path a custom
// ObjType (§"Custom Object Types" in doc.go) exists to take advantage of.
//
// List/dict conversion from a bare string additionally requires splitting
// TCL list syntax, which needs the owning interpreter (for nested object
// identity); AsList/AsDict below only cover the representation-already-
// present case; *Obj.List()/*Obj.Dict() in obj.go cover the full fallback.

// AsBool converts o to a boolean using the expr boolean protocol (spec.md
// §4.5): numeric zero/nonzero, or one of true/yes/on/false/no/off
// case-insensitively. Any other string is an error.
func AsBool(o *Obj) (bool, error) {
	if o == nil {
		return false, nil
	}
	if c, ok := o.intrep.(IntoBool); ok {
		if v, ok := c.IntoBool(); ok {
			return v, nil
		}
	}
	if v, err := AsInt(o); err == nil {
		return v != 0, nil
	}
	switch strings.ToLower(o.String()) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean but got %q", o.String())
}

// AsInt converts o to int64, shimmering (and caching) an integer
// representation from the string form if none is present yet.
func AsInt(o *Obj) (int64, error) {
	if o == nil {
		return 0, nil
	}
	if c, ok := o.intrep.(IntoInt); ok {
		if v, ok := c.IntoInt(); ok {
			return v, nil
		}
	}
	v, err := strconv.ParseInt(o.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected integer but got %q", o.String())
	}
	o.intrep = IntType(v)
	return v, nil
}

// AsDouble converts o to float64, shimmering as needed.
func AsDouble(o *Obj) (float64, error) {
	if o == nil {
		return 0, nil
	}
	if c, ok := o.intrep.(IntoDouble); ok {
		if v, ok := c.IntoDouble(); ok {
			return v, nil
		}
	}
	v, err := strconv.ParseFloat(o.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("expected floating-point number but got %q", o.String())
	}
	o.intrep = DoubleType(v)
	return v, nil
}

// AsList converts o to a list if it already carries a list-compatible
// internal representation. A pure string Obj returns an error here — parse
// it through [Interp.ParseList] or [*Obj.List] instead, which have access
// to the owning interpreter's list-splitting logic.
func AsList(o *Obj) ([]*Obj, error) {
	if o == nil {
		return nil, nil
	}
	if c, ok := o.intrep.(IntoList); ok {
		if v, ok := c.IntoList(); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %q to list without interpreter", o.String())
}

// AsDict converts o to a dictionary if it already carries a dict-compatible
// internal representation; see the [AsList] note on the string fallback.
func AsDict(o *Obj) (*DictType, error) {
	if o == nil {
		return &DictType{Items: make(map[string]*Obj)}, nil
	}
	if c, ok := o.intrep.(IntoDict); ok {
		if items, order, ok := c.IntoDict(); ok {
			d := &DictType{Items: items, Order: order}
			o.intrep = d
			return d, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %q to dict without interpreter", o.String())
}
