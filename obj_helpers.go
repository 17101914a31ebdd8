package feather

import "fmt"

// NewStringObj creates a pure string object (no internal representation).
func NewStringObj(s string) *Obj {
	return &Obj{bytes: s}
}

// NewIntObj creates an integer object.
func NewIntObj(v int64) *Obj {
	return &Obj{intrep: IntType(v)}
}

// NewDoubleObj creates a floating-point object.
func NewDoubleObj(v float64) *Obj {
	return &Obj{intrep: DoubleType(v)}
}

// NewListObj creates a list object from the given elements.
func NewListObj(items ...*Obj) *Obj {
	l := make(ListType, len(items))
	copy(l, items)
	return &Obj{intrep: l}
}

// NewDictObj creates an empty dict object.
func NewDictObj() *Obj {
	return &Obj{intrep: &DictType{Items: make(map[string]*Obj)}}
}

// NewObj wraps a custom [ObjType] implementation in an Obj, deriving the
// initial string representation from UpdateString. Use this to construct
// objects for types implementing ObjType/IntoInt/IntoDouble/etc. directly,
// as opposed to the built-in NewStringObj/NewIntObj/NewListObj/NewDictObj
// family above which cover the primitive representations.
func NewObj(rep ObjType) *Obj {
	return &Obj{bytes: rep.UpdateString(), intrep: rep}
}

// ObjListAppend appends item to list's internal representation in place.
// If list does not already have a list representation, it is converted
// (shimmered) first via its owning interpreter, or treated as empty if it
// has none.
func ObjListAppend(list *Obj, item *Obj) {
	if list == nil {
		return
	}
	existing, _ := list.List()
	existing = append(existing, item)
	list.intrep = ListType(existing)
	list.invalidate()
}

// ObjDictSet sets key to val in dict's internal representation in place.
func ObjDictSet(dict *Obj, key string, val *Obj) {
	if dict == nil {
		return
	}
	d, err := dict.Dict()
	if err != nil {
		d = &DictType{Items: make(map[string]*Obj)}
	}
	if _, exists := d.Items[key]; !exists {
		d.Order = append(d.Order, key)
	}
	d.Items[key] = val
	dict.intrep = d
	dict.invalidate()
}

// ObjDictGet retrieves the value for key in dict, shimmering as needed.
func ObjDictGet(dict *Obj, key string) (*Obj, bool) {
	if dict == nil {
		return nil, false
	}
	d, err := dict.Dict()
	if err != nil {
		return nil, false
	}
	v, ok := d.Items[key]
	return v, ok
}

// asInt, asDouble, asBool, asList, asDict perform direct (non-parsing)
// shimmering: they succeed if the object already carries a compatible
// internal representation, or (for scalars) if its string form parses
// cleanly. List/dict conversion from a bare string requires an owning
// interpreter and goes through InternalInterp.parseList/parseDict instead
// (see obj.go's List()/Dict() methods).
func asInt(o *Obj) (int64, error)      { return AsInt(o) }
func asDouble(o *Obj) (float64, error) { return AsDouble(o) }
func asBool(o *Obj) (bool, error)      { return AsBool(o) }
func asList(o *Obj) ([]*Obj, error)    { return AsList(o) }
func asDict(o *Obj) (*DictType, error) { return AsDict(o) }

// parseList parses s as a TCL list, producing *Obj elements owned by i so
// that nested shimmering (e.g. a list element that is itself a list) keeps
// working.
func (i *InternalInterp) parseList(s string) ([]*Obj, error) {
	words, err := splitListWords(s)
	if err != nil {
		return nil, err
	}
	out := make([]*Obj, len(words))
	for idx, w := range words {
		out[idx] = &Obj{bytes: w, interp: i}
	}
	return out, nil
}

// parseDict parses s as a TCL dict (a list with an even element count).
func (i *InternalInterp) parseDict(s string) (*DictType, error) {
	items, err := i.parseList(s)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("missing value to go with key")
	}
	d := &DictType{Items: make(map[string]*Obj, len(items)/2)}
	for idx := 0; idx < len(items); idx += 2 {
		key := items[idx].String()
		if _, exists := d.Items[key]; !exists {
			d.Order = append(d.Order, key)
		}
		d.Items[key] = items[idx+1]
	}
	return d, nil
}
