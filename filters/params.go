package filters

import (
	"reflect"
	"strconv"
	"strings"
)

// Tunable holds the parameter struct of a filter. All updates go through SetParameters.
type Tunable[P any] struct {
	params  P
	changed func(next, prev P)
}

func newTunable[P any](defaults P) Tunable[P] {
	return Tunable[P]{params: defaults}
}

func (t *Tunable[P]) Parameters() P {
	return t.params
}

// SetParameters applies update and returns the values from before it.
func (t *Tunable[P]) SetParameters(update func(p *P)) P {
	prev := t.params
	update(&t.params)
	if t.changed != nil {
		t.changed(t.params, prev)
	}
	return prev
}

// Tune decodes a partial document over the current values.
func (t *Tunable[P]) Tune(decode func(v any) error) error {
	next := t.params
	if err := decode(&next); err != nil {
		return err
	}
	t.SetParameters(func(p *P) { *p = next })
	return nil
}

// CheckTune decodes over a copy and reports the error Tune would return.
func (t *Tunable[P]) CheckTune(decode func(v any) error) error {
	next := t.params
	return decode(&next)
}

// EditParameters hands the parameter struct to edit as a pointer.
func (t *Tunable[P]) EditParameters(edit func(params any)) {
	t.SetParameters(func(p *P) { edit(p) })
}

// ParameterValues returns a copy of the parameter struct.
func (t *Tunable[P]) ParameterValues() any {
	return t.params
}

// Editor is implemented by every filter with parameters.
type Editor interface {
	EditParameters(edit func(params any))
	ParameterValues() any
}

// CopyParameters returns a pointer to a copy of a value from ParameterValues, for
// editing without touching the filter.
func CopyParameters(values any) any {
	v := reflect.New(reflect.TypeOf(values))
	v.Elem().Set(reflect.ValueOf(values))
	return v.Interface()
}

// Field describes one tunable field of a parameter struct.
type Field struct {
	Name     string
	Key      string
	Min, Max float32
	Value    reflect.Value
}

// Fields lists the fields of the struct params points to that carry a range tag.
func Fields(params any) []Field {
	v := reflect.ValueOf(params)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	v = v.Elem()
	t := v.Type()
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("range")
		if !ok || !sf.IsExported() {
			continue
		}
		lo, hi, _ := strings.Cut(tag, ",")
		f := Field{Name: sf.Name, Key: sf.Name, Value: v.Field(i)}
		if key, _, _ := strings.Cut(sf.Tag.Get("toml"), ","); key != "" {
			f.Key = key
		}
		if x, err := strconv.ParseFloat(lo, 32); err == nil {
			f.Min = float32(x)
		}
		if x, err := strconv.ParseFloat(hi, 32); err == nil {
			f.Max = float32(x)
		}
		fields = append(fields, f)
	}
	return fields
}
