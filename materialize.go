package formdata

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
)

const defaultContentType = "application/octet-stream"

// materializer writes uploaded payloads to temporary files.
type materializer struct {
	maxSize int64
	dir     string
	pattern string
}

func newMaterializer(cfg Config) materializer {
	pattern := cfg.TempPattern
	if pattern == "" {
		pattern = DefaultTempPattern
	}
	return materializer{
		maxSize: cfg.MaxUploadSize,
		dir:     cfg.TempDir,
		pattern: pattern,
	}
}

// materialize copies size bytes from r into a new temporary file. Failures
// are recorded on the entry rather than returned.
func (m materializer) materialize(filename, contentType string, size int64, r io.Reader) *FileEntry {
	if contentType == "" {
		contentType = defaultContentType
	}
	entry := &FileEntry{
		Name:  filename,
		Type:  contentType,
		Size:  FormatSize(size),
		Error: UploadOK,
	}

	if size > m.maxSize {
		logger.Warningf("upload %q is %s, over the %s limit", filename,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(m.maxSize)))
		entry.Error = UploadExceedsLimit
		return entry
	}

	f, err := os.CreateTemp(m.dir, m.pattern)
	if err != nil {
		logger.Warningf("cannot create temporary file for %q: %v", filename, err)
		entry.Error = UploadCannotWrite
		return entry
	}

	if err := fill(f, size, r); err != nil {
		logger.Warningf("cannot write %q to %s: %v", filename, f.Name(), err)
		_ = f.Close()
		_ = os.Remove(f.Name())
		entry.Error = UploadCannotWrite
		return entry
	}

	entry.TmpName = f.Name()
	entry.file = f
	return entry
}

// fill writes exactly size bytes and rewinds so the handle can be read.
func fill(f *os.File, size int64, r io.Reader) error {
	n, err := io.Copy(f, r)
	if err != nil {
		return err
	}
	if n != size {
		return io.ErrShortWrite
	}
	_, err = f.Seek(0, io.SeekStart)
	return err
}
