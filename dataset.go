package formdata

import (
	"bytes"
	"encoding/json"
	"os"
)

// UploadError is the outcome of materialising one uploaded file. The values
// match the conventional upload error codes.
type UploadError int

const (
	// UploadOK means the file was written to its temporary path.
	UploadOK UploadError = 0
	// UploadExceedsLimit means the payload was larger than the configured
	// maximum upload size and nothing was written.
	UploadExceedsLimit UploadError = 1
	// UploadCannotWrite means the temporary file could not be created or
	// written.
	UploadCannotWrite UploadError = 7
)

func (e UploadError) String() string {
	switch e {
	case UploadOK:
		return "ok"
	case UploadExceedsLimit:
		return "exceeds size limit"
	case UploadCannotWrite:
		return "cannot write"
	default:
		return "unknown"
	}
}

// FileEntry describes one uploaded file.
type FileEntry struct {
	// Name is the filename supplied by the client. It is not sanitised and
	// must not be used as a filesystem path.
	Name string `json:"name"`
	// Type is the part's declared content type.
	Type string `json:"type"`
	// Size is the formatted byte length of the payload, see [FormatSize].
	Size string `json:"size"`
	// Error is UploadOK when TmpName holds the payload.
	Error UploadError `json:"error"`
	// TmpName is the path of the temporary file, empty unless Error is
	// UploadOK.
	TmpName string `json:"tmp_name,omitempty"`

	file *os.File
}

// File returns the open temporary file, positioned at its start, or nil when
// nothing was written. The caller owns the handle.
func (f *FileEntry) File() *os.File {
	return f.file
}

// Close closes the temporary file handle, leaving the file on disk.
func (f *FileEntry) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Remove closes the handle and deletes the temporary file.
func (f *FileEntry) Remove() error {
	if err := f.Close(); err != nil {
		return err
	}
	if f.TmpName == "" {
		return nil
	}
	if err := os.Remove(f.TmpName); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Fields is a string keyed map which remembers insertion order. Setting an
// existing key replaces its value but keeps its position.
type Fields[V any] struct {
	keys   []string
	values map[string]V
}

// Set stores v under key.
func (f *Fields[V]) Set(key string, v V) {
	if f.values == nil {
		f.values = make(map[string]V)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Get returns the value stored under key.
func (f *Fields[V]) Get(key string) (V, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (f *Fields[V]) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Fields[V]) Len() int {
	return len(f.keys)
}

// Each calls fn for every entry in insertion order.
func (f *Fields[V]) Each(fn func(key string, v V)) {
	for _, k := range f.keys {
		fn(k, f.values[k])
	}
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dataset is the decoded form of one request.
type Dataset struct {
	Files   Fields[*FileEntry] `json:"files"`
	Params  Fields[string]     `json:"params"`
	Cookies map[string]string  `json:"cookies"`
	Headers map[string]string  `json:"headers"`
}

func newDataset() *Dataset {
	return &Dataset{
		Cookies: map[string]string{},
		Headers: map[string]string{},
	}
}

// Close closes every temporary file handle and returns the first error.
func (d *Dataset) Close() error {
	var first error
	d.Files.Each(func(_ string, f *FileEntry) {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	})
	return first
}

// RemoveAll closes and deletes every temporary file and returns the first
// error.
func (d *Dataset) RemoveAll() error {
	var first error
	d.Files.Each(func(_ string, f *FileEntry) {
		if err := f.Remove(); err != nil && first == nil {
			first = err
		}
	})
	return first
}
