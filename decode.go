package formdata

import (
	"reflect"
	"strconv"

	"github.com/juju/errors"
)

// InvalidUnmarshalError describes an invalid argument passed to
// [Dataset.Unmarshal]. (The argument must be a non-nil pointer.)
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "formdata: Unmarshal(nil)"
	}

	if e.Type.Kind() != reflect.Pointer {
		return "formdata: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "formdata: Unmarshal(nil " + e.Type.String() + ")"
}

// Unmarshaler is the interface implemented by types that can decode a param
// value into themselves.
type Unmarshaler interface {
	UnmarshalForm(string) error
}

var (
	fileEntryType    = reflect.TypeOf(FileEntry{})
	fileEntryPtrType = reflect.TypeOf(&FileEntry{})
)

// formValue is a single leaf: a param's text or an uploaded file.
type formValue struct {
	text string
	file *FileEntry
}

// Unmarshal binds the dataset's params and files into the struct or map
// pointed to by v. Keys are matched against `form:"..."` tags and may use
// bracket paths such as "user[name]". Files bind to fields of type
// *FileEntry, FileEntry or interface{}.
func (d *Dataset) Unmarshal(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{reflect.TypeOf(v)}
	}

	rv = rv.Elem()
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return errors.New("formdata: top-level value must be struct or map")
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
		return errors.New("formdata: map keys must be strings")
	}

	var err error
	d.Params.Each(func(key, text string) {
		if err == nil {
			err = bind(rv, key, formValue{text: text})
		}
	})
	d.Files.Each(func(key string, f *FileEntry) {
		if err == nil {
			err = bind(rv, key, formValue{file: f})
		}
	})
	return err
}

func bind(v reflect.Value, key string, val formValue) error {
	path, err := parseKey(key)
	if err != nil {
		return errors.Trace(err)
	}
	if err := assign(v, path, val); err != nil {
		return errors.Annotatef(err, "formdata: binding %q", key)
	}
	return nil
}

func assign(v reflect.Value, path []pathSegment, val formValue) error {
	v = deref(v)

	if len(path) == 0 {
		return assignLeaf(v, val)
	}

	seg := path[0]
	switch v.Kind() {
	case reflect.Struct:
		return assignStructField(v, seg.Key, path[1:], val)
	case reflect.Map:
		return assignMapValue(v, seg, path[1:], val)
	case reflect.Slice:
		return assignSliceValue(v, seg, path[1:], val)
	case reflect.Interface:
		newVal, err := inferInterfaceValue(v, path, val)
		if err != nil {
			return err
		}
		v.Set(newVal)
		return nil
	default:
		return errors.Errorf("cannot assign to %v", v.Kind())
	}
}

// deref dereferences a pointer, allocating when nil. A *FileEntry is a leaf
// and is left alone.
func deref(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer && v.Type() != fileEntryPtrType {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return v.Elem()
	}
	return v
}

func assignLeaf(v reflect.Value, val formValue) error {
	if val.file != nil {
		return setFile(v, val.file)
	}
	if u, ok := asUnmarshaler(v); ok {
		return u.UnmarshalForm(val.text)
	}
	return setScalar(v, val.text)
}

func assignStructField(v reflect.Value, key string, path []pathSegment, val formValue) error {
	field := findStructField(v, key)
	if !field.IsValid() || !field.CanSet() {
		return errors.NotFoundf("field %q in struct %v", key, v.Type())
	}
	return assign(field, path, val)
}

func assignMapValue(v reflect.Value, seg pathSegment, path []pathSegment, val formValue) error {
	if v.IsNil() {
		v.Set(reflect.MakeMap(v.Type()))
	}

	key := reflect.ValueOf(seg.Key)
	elem := v.MapIndex(key)
	elemType := v.Type().Elem()

	switch elemType.Kind() {
	case reflect.Interface:
		newVal, err := inferInterfaceValue(elem, path, val)
		if err != nil {
			return err
		}
		v.SetMapIndex(key, newVal)
		return nil

	case reflect.Slice:
		slice := elem
		if !slice.IsValid() {
			slice = reflect.MakeSlice(elemType, 0, 1)
		}
		newElem := reflect.New(elemType.Elem()).Elem()
		if err := assignLeaf(newElem, val); err != nil {
			return err
		}
		v.SetMapIndex(key, reflect.Append(slice, newElem))
		return nil

	default:
		// Map elements are not addressable, so work on a copy.
		newElem := reflect.New(elemType).Elem()
		if elem.IsValid() {
			newElem.Set(elem)
		}
		if err := assign(newElem, path, val); err != nil {
			return err
		}
		v.SetMapIndex(key, newElem)
		return nil
	}
}

func assignSliceValue(v reflect.Value, seg pathSegment, path []pathSegment, val formValue) error {
	if !seg.Index {
		return errors.New("expected slice index")
	}

	newElem := reflect.New(v.Type().Elem()).Elem()
	if err := assign(newElem, path, val); err != nil {
		return err
	}
	v.Set(reflect.Append(v, newElem))
	return nil
}

// inferInterfaceValue builds map[string]interface{} and []interface{} values
// for untyped targets. Leaves are strings or *FileEntry.
func inferInterfaceValue(v reflect.Value, path []pathSegment, val formValue) (reflect.Value, error) {
	if v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	if len(path) == 0 {
		if val.file != nil {
			return reflect.ValueOf(val.file), nil
		}
		return reflect.ValueOf(val.text), nil
	}

	seg := path[0]
	if seg.Index {
		var slice []interface{}
		if v.IsValid() {
			if s, ok := v.Interface().([]interface{}); ok {
				slice = s
			}
		}
		elem, err := inferInterfaceValue(reflect.Value{}, path[1:], val)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(append(slice, elem.Interface())), nil
	}

	m := map[string]interface{}{}
	if v.IsValid() {
		if existing, ok := v.Interface().(map[string]interface{}); ok {
			m = existing
		}
	}
	var prev reflect.Value
	if existing, ok := m[seg.Key]; ok {
		prev = reflect.ValueOf(existing)
	}
	elem, err := inferInterfaceValue(prev, path[1:], val)
	if err != nil {
		return reflect.Value{}, err
	}
	m[seg.Key] = elem.Interface()
	return reflect.ValueOf(m), nil
}

func asUnmarshaler(v reflect.Value) (Unmarshaler, bool) {
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(Unmarshaler); ok {
			return u, true
		}
	}
	if u, ok := v.Interface().(Unmarshaler); ok {
		return u, true
	}
	return nil, false
}

func findStructField(v reflect.Value, key string) reflect.Value {
	tags := tags(v)
	for i := 0; i < v.NumField(); i++ {
		if tags[i].Ignore {
			continue
		}
		if tags[i].Name == key {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func setFile(v reflect.Value, f *FileEntry) error {
	switch {
	case v.Type() == fileEntryPtrType:
		v.Set(reflect.ValueOf(f))
	case v.Type() == fileEntryType:
		v.Set(reflect.ValueOf(f).Elem())
	case v.Kind() == reflect.Interface && v.NumMethod() == 0:
		v.Set(reflect.ValueOf(f))
	default:
		return errors.Errorf("cannot bind file %q to %v", f.Name, v.Type())
	}
	return nil
}

func setScalar(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			v.SetInt(0)
			return nil
		}
		i, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return errors.Trace(err)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			v.SetUint(0)
			return nil
		}
		u, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return errors.Trace(err)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		if s == "" {
			v.SetFloat(0)
			return nil
		}
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return errors.Trace(err)
		}
		v.SetFloat(f)
	case reflect.Bool:
		if s == "" {
			v.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return errors.Trace(err)
		}
		v.SetBool(b)
	case reflect.Interface:
		if v.NumMethod() != 0 {
			return errors.Errorf("unsupported type: %v", v.Type())
		}
		v.Set(reflect.ValueOf(s))
	default:
		return errors.Errorf("unsupported type: %v", v.Type())
	}
	return nil
}
