// Package configdiff implements the generic Partial/Diff machinery the
// registry (pkg/registry) and sync engine (pkg/sync) need for every resource
// kind: Config -> PartialConfig merge, Config/PartialConfig -> ConfigDiff,
// and the reverse narrowing. Rather than hand (or macro) deriving three
// shapes per kind, this operates by reflection over any pair of structs where
// the "partial" type mirrors the "full" config type field-for-field, each
// field wrapped in a pointer.
//
// A PartialConfig field of nil means "unset"; a non-nil pointer means
// "present with this value".
package configdiff

import (
	"fmt"
	"reflect"
)

// FieldDiff is one changed field in a ConfigDiff: {from, to}.
type FieldDiff struct {
	From any
	To   any
}

// Diff is the field-name-keyed representation of a ConfigDiff. Iterating it
// in a stable field order (as returned by Fields) is what the sync engine's
// human-readable plan log needs.
type Diff map[string]FieldDiff

// IsEmpty reports whether no field changed.
func (d Diff) IsEmpty() bool { return len(d) == 0 }

// Merge applies every non-nil pointer field of partial onto a copy of cfg and
// returns the merged value. Field matching is by identical field name; a
// partial field must be a pointer to the same type as the corresponding cfg
// field (or to a slice/map of the same element type).
//
// This is the PartialConfig -> Config merge used when applying an update or
// a sync CREATE/UPDATE: "round-tripping through Config so fields
// absent from TOML are explicitly reset to default" is handled by the caller
// building a zero-value Config first, then merging the full declared Partial
// on top of it.
func Merge[C any](cfg C, partial any) (C, error) {
	out := cfg
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(partial)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	if src.Kind() != reflect.Struct {
		return out, fmt.Errorf("configdiff: partial must be a struct or pointer to struct, got %s", src.Kind())
	}
	st := src.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := src.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		df := dst.FieldByName(sf.Name)
		if !df.IsValid() || !df.CanSet() {
			continue
		}
		elem := fv.Elem()
		if df.Type() != elem.Type() {
			continue
		}
		df.Set(elem)
	}
	return out, nil
}

// ToPartial builds a pointer-filled partial of type P from a fully populated
// cfg, used for Config -> PartialConfig round trips (e.g. translating a
// persisted resource's config into the same shape a declared TOML resource
// has, "replace ids with names on the orig.config copy").
func ToPartial[P any](cfg any) P {
	var out P
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(cfg)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	dt := dst.Type()
	for i := 0; i < dt.NumField(); i++ {
		df := dst.Field(i)
		fname := dt.Field(i).Name
		if df.Kind() != reflect.Ptr {
			continue
		}
		sf := src.FieldByName(fname)
		if !sf.IsValid() {
			continue
		}
		if df.Type().Elem() != sf.Type() {
			continue
		}
		ptr := reflect.New(sf.Type())
		ptr.Elem().Set(sf)
		df.Set(ptr)
	}
	return out
}

// IsEmptyPartial reports whether every field of a partial is nil/unset.
func IsEmptyPartial(partial any) bool {
	v := reflect.ValueOf(partial)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Ptr && !f.IsNil() {
			return false
		}
	}
	return true
}

// Compute builds a Diff between orig (the currently persisted Config) and
// partial (the declared PartialConfig): every non-nil partial field whose
// value differs from orig's same-named field becomes a FieldDiff{From, To}.
// Fields absent from partial (nil pointers) are never part of the diff.
func Compute(orig any, partial any) Diff {
	d := make(Diff)
	o := reflect.ValueOf(orig)
	if o.Kind() == reflect.Ptr {
		o = o.Elem()
	}
	p := reflect.ValueOf(partial)
	if p.Kind() == reflect.Ptr {
		p = p.Elem()
	}
	pt := p.Type()
	for i := 0; i < pt.NumField(); i++ {
		pf := p.Field(i)
		name := pt.Field(i).Name
		if pf.Kind() != reflect.Ptr || pf.IsNil() {
			continue
		}
		of := o.FieldByName(name)
		if !of.IsValid() {
			continue
		}
		toVal := pf.Elem().Interface()
		fromVal := of.Interface()
		if !reflect.DeepEqual(fromVal, toVal) {
			d[name] = FieldDiff{From: fromVal, To: toVal}
		}
	}
	return d
}

// Narrow builds a partial of type P containing only the "To" side of each
// entry in d, so an UPDATE plan entry carries the minimal
// PartialConfig rather than the whole declared config.
func Narrow[P any](d Diff) P {
	var out P
	dst := reflect.ValueOf(&out).Elem()
	dt := dst.Type()
	for i := 0; i < dt.NumField(); i++ {
		name := dt.Field(i).Name
		fd, ok := d[name]
		if !ok {
			continue
		}
		df := dst.Field(i)
		if df.Kind() != reflect.Ptr {
			continue
		}
		val := reflect.ValueOf(fd.To)
		if !val.IsValid() || df.Type().Elem() != val.Type() {
			continue
		}
		ptr := reflect.New(val.Type())
		ptr.Elem().Set(val)
		df.Set(ptr)
	}
	return out
}

// Fields returns the changed field names in declaration order of pt (the
// partial struct type), for deterministic rendering of a diff log line.
func Fields[P any](d Diff) []string {
	var zero P
	t := reflect.TypeOf(zero)
	names := make([]string, 0, len(d))
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Name
		if _, ok := d[name]; ok {
			names = append(names, name)
		}
	}
	return names
}
