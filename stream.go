package formdata

import (
	"io"

	"github.com/juju/errors"
)

// Decoder reads a multipart or urlencoded body from an [io.Reader] and binds
// it into a Go value.
type Decoder struct {
	r           io.Reader
	contentType string
	parser      *Parser
}

// NewDecoder creates a [Decoder] for a body of the given content type.
func NewDecoder(r io.Reader, contentType string, cfg Config) *Decoder {
	return &Decoder{r: r, contentType: contentType, parser: NewParser(cfg)}
}

// Decode reads the whole body, parses it and binds the result into v. The
// dataset is returned so the caller can dispose of uploaded files, and is
// non-nil whenever parsing succeeded, even if binding failed.
func (d *Decoder) Decode(v interface{}) (*Dataset, error) {
	body, err := io.ReadAll(d.r)
	if err != nil {
		return nil, errors.Annotate(err, "formdata: failed to read body")
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	ds, err := d.parser.ParseBody(body, d.contentType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ds, ds.Unmarshal(v)
}
