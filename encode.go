package formdata

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Marshaler is the interface implemented by types that can encode themselves
// as a single param value.
type Marshaler interface {
	MarshalForm() (string, error)
}

// Upload is a file written as a file part by the [Encoder].
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

var uploadType = reflect.TypeOf(Upload{})

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encoder writes Go values as multipart/form-data bodies.
type Encoder struct {
	mw *multipart.Writer
}

// NewEncoder returns an Encoder writing to w with a random boundary.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{mw: multipart.NewWriter(w)}
}

// SetBoundary overrides the random boundary. It must be called before
// Encode.
func (e *Encoder) SetBoundary(boundary string) error {
	return errors.Trace(e.mw.SetBoundary(boundary))
}

// FormDataContentType returns the Content-Type header for the body.
func (e *Encoder) FormDataContentType() string {
	return e.mw.FormDataContentType()
}

// Encode writes every field of v, a struct or a map with string keys, and
// closes the body. Nested values use bracket paths ("address[city]") and
// slices use "[]". Map keys are written in sorted order.
func (e *Encoder) Encode(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.Trace(e.mw.Close())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return errors.New("formdata: top-level value must be struct or map")
	}
	// Uploads and marshalers need a field name to be written under.
	if _, ok := asMarshaler(rv); ok || rv.Type() == uploadType {
		return errors.New("formdata: top-level value must be struct or map")
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
		return errors.New("formdata: map keys must be strings")
	}

	if err := e.marshalValue(nil, rv); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(e.mw.Close())
}

func (e *Encoder) marshalValue(path []string, v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Type() == uploadType {
		return e.writeUpload(renderPath(path), v.Interface().(Upload))
	}
	if m, ok := asMarshaler(v); ok {
		s, err := m.MarshalForm()
		if err != nil {
			return err
		}
		return e.mw.WriteField(renderPath(path), s)
	}

	switch v.Kind() {
	case reflect.Struct:
		return e.marshalStruct(path, v)
	case reflect.Map:
		return e.marshalMap(path, v)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := e.marshalValue(append(path, ""), v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return e.marshalValue(path, v.Elem())
	default:
		s, err := scalarString(v)
		if err != nil {
			return err
		}
		return e.mw.WriteField(renderPath(path), s)
	}
}

func (e *Encoder) marshalStruct(path []string, v reflect.Value) error {
	tags := tags(v)
	for i := 0; i < v.NumField(); i++ {
		tag := tags[i]
		if tag.Ignore || tag.Name == "" {
			continue
		}
		fv := v.Field(i)
		if tag.Omit && fv.IsZero() {
			continue
		}
		if err := e.marshalValue(append(path, tag.Name), fv); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) marshalMap(path []string, v reflect.Value) error {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		if err := e.marshalValue(append(path, k.String()), v.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeUpload(name string, u Upload) error {
	contentType := u.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(u.Filename)))
	h.Set("Content-Type", contentType)

	w, err := e.mw.CreatePart(h)
	if err != nil {
		return err
	}
	if u.Content == nil {
		return nil
	}
	_, err = io.Copy(w, u.Content)
	return err
}

func asMarshaler(v reflect.Value) (Marshaler, bool) {
	if v.CanAddr() {
		if m, ok := v.Addr().Interface().(Marshaler); ok {
			return m, true
		}
	}
	if m, ok := v.Interface().(Marshaler); ok {
		return m, true
	}
	return nil, false
}

func renderPath(path []string) string {
	var b strings.Builder
	b.WriteString(path[0])
	for _, p := range path[1:] {
		b.WriteString("[")
		b.WriteString(p)
		b.WriteString("]")
	}
	return b.String()
}

func scalarString(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	default:
		return "", errors.Errorf("unsupported type: %v", v.Type())
	}
}
