package formdata

import (
	"bytes"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("formdata")

const (
	// ErrEmptyBody is returned when a body had to be decoded but was empty
	// and no framework form was available.
	ErrEmptyBody = errors.ConstError("empty request body")

	// ErrNoBoundary is returned when the content type carries no boundary.
	ErrNoBoundary = errors.ConstError("no multipart boundary in content type")
)

var boundaryParam = regexp.MustCompile(`(?is)boundary=(.*)$`)

// Parser decodes request bodies into datasets. A Parser holds no state
// between calls and is safe for concurrent use.
type Parser struct {
	cfg Config
	m   materializer
}

// NewParser returns a Parser using cfg.
func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg, m: newMaterializer(cfg)}
}

// Parse decodes req with [DefaultConfig].
func Parse(req Request) (*Dataset, error) {
	return NewParser(DefaultConfig()).Parse(req)
}

// Parse decodes req according to its method:
//
//   - GET takes params from the query string and ignores the body.
//   - POST uses the host's own decoding when req implements [Native] and not
//     [Framework].
//   - Everything else decodes the raw body. An empty body falls back to the
//     [Framework] form if there is one, otherwise ErrEmptyBody is returned.
//
// Uploaded files are left on disk; the caller is responsible for them.
func (p *Parser) Parse(req Request) (*Dataset, error) {
	method := strings.ToUpper(req.Method())
	logger.Debugf("parsing %s request", method)

	ds, err := p.dispatch(method, req)
	if err != nil {
		return nil, errors.Trace(err)
	}

	for name, values := range req.Header() {
		if len(values) > 0 {
			ds.Headers[strings.ToLower(name)] = values[0]
		}
	}
	for _, c := range req.Cookies() {
		ds.Cookies[strings.ToLower(c.Name)] = c.Value
	}
	return ds, nil
}

func (p *Parser) dispatch(method string, req Request) (*Dataset, error) {
	framework, isFramework := req.(Framework)

	if method == http.MethodGet {
		ds := newDataset()
		setValues(&ds.Params, req.Query())
		return ds, nil
	}

	if native, ok := req.(Native); ok && method == http.MethodPost && !isFramework {
		form, err := native.NativeForm()
		if err != nil {
			return nil, errors.Trace(err)
		}
		return p.fromForm(form)
	}

	body, err := req.Body()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(body) == 0 || string(body) == "{}" {
		if !isFramework {
			return nil, ErrEmptyBody
		}
		logger.Debugf("empty body, using framework form")
		form, err := framework.FrameworkForm()
		if err != nil {
			return nil, errors.Trace(err)
		}
		return p.fromForm(form)
	}

	return p.ParseBody(body, req.Header().Get("Content-Type"))
}

// ParseHTTP decodes a net/http request, see [FromHTTP].
func (p *Parser) ParseHTTP(r *http.Request) (*Dataset, error) {
	maxMemory := p.cfg.MaxMemory
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	return p.Parse(FromHTTP(r, maxMemory))
}

// ParseBody decodes a raw body given its content type. URL encoded bodies
// become params; anything else must carry a multipart boundary.
func (p *Parser) ParseBody(body []byte, contentType string) (*Dataset, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errors.Annotate(err, "decoding urlencoded body")
		}
		ds := newDataset()
		setValues(&ds.Params, values)
		return ds, nil
	}

	match := boundaryParam.FindStringSubmatch(contentType)
	if match == nil {
		return nil, errors.Annotatef(ErrNoBoundary, "%q", contentType)
	}
	boundary := unquote(match[1])

	ds := newDataset()
	for _, part := range SplitBody(body, boundary) {
		if len(part) == 0 {
			continue
		}
		p.addPart(ds, part)
	}
	return ds, nil
}

func (p *Parser) addPart(ds *Dataset, part []byte) {
	block, payload, ok := splitPart(part)
	if !ok {
		logger.Debugf("skipping part without header separator")
		return
	}

	headers := ParseHeaderBlock(block)
	name, ok := headers.Directive("content-disposition", "name")
	if !ok {
		logger.Debugf("skipping part without a content-disposition name")
		return
	}

	filename, isFile := headers.Directive("content-disposition", "filename")
	if !isFile {
		ds.Params.Set(name, string(payload))
		return
	}

	var contentType string
	if ct, ok := headers.Get("content-type"); ok {
		contentType = ct.String()
	}
	size := int64(len(payload))
	ds.Files.Set(name, p.m.materialize(filename, contentType, size, bytes.NewReader(payload)))
}

// fromForm converts a form decoded elsewhere. File contents are copied into
// temporary files of their own so every entry has the same lifecycle.
func (p *Parser) fromForm(form *multipart.Form) (*Dataset, error) {
	ds := newDataset()
	if form == nil {
		return ds, nil
	}
	setValues(&ds.Params, form.Value)

	for _, name := range sortedKeys(form.File) {
		headers := form.File[name]
		if len(headers) == 0 {
			continue
		}
		fh := headers[len(headers)-1]
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Annotatef(err, "opening upload %q", fh.Filename)
		}
		entry := p.m.materialize(fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
		_ = f.Close()
		ds.Files.Set(name, entry)
	}
	return ds, nil
}

// setValues copies the last value of each key, in sorted key order.
func setValues(fields *Fields[string], values map[string][]string) {
	for _, k := range sortedKeys(values) {
		if vs := values[k]; len(vs) > 0 {
			fields.Set(k, vs[len(vs)-1])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
