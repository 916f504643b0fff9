package formdata

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"
)

// Request is what the parser needs from a host request.
type Request interface {
	Method() string
	Header() http.Header
	Cookies() []*http.Cookie
	Query() url.Values
	// Body returns the raw, undecoded request body.
	Body() ([]byte, error)
}

// Native is implemented by requests whose host decodes POST bodies itself.
// The parser trusts that result instead of decoding the body again.
type Native interface {
	NativeForm() (*multipart.Form, error)
}

// Framework is implemented by requests that come from a higher-level request
// abstraction. Such hosts may have consumed the body already, so when the
// raw body is empty the parser falls back to the framework's own form.
type Framework interface {
	FrameworkForm() (*multipart.Form, error)
}

// RawRequest is a Request assembled from plain data.
type RawRequest struct {
	Verb    string
	URL     *url.URL
	Headers http.Header
	Payload []byte
}

var _ Request = (*RawRequest)(nil)

// Method implements Request.
func (r *RawRequest) Method() string {
	return r.Verb
}

// Header implements Request.
func (r *RawRequest) Header() http.Header {
	if r.Headers == nil {
		return http.Header{}
	}
	return r.Headers
}

// Cookies implements Request by parsing the Cookie header.
func (r *RawRequest) Cookies() []*http.Cookie {
	return (&http.Request{Header: r.Header()}).Cookies()
}

// Query implements Request.
func (r *RawRequest) Query() url.Values {
	if r.URL == nil {
		return url.Values{}
	}
	return r.URL.Query()
}

// Body implements Request.
func (r *RawRequest) Body() ([]byte, error) {
	return r.Payload, nil
}

type httpRequest struct {
	r         *http.Request
	maxMemory int64
}

// FromHTTP adapts a net/http request. The result implements [Native]: a POST
// body is decoded by net/http, keeping at most maxMemory bytes of it in
// memory.
func FromHTTP(r *http.Request, maxMemory int64) Request {
	return &httpRequest{r: r, maxMemory: maxMemory}
}

func (h *httpRequest) Method() string          { return h.r.Method }
func (h *httpRequest) Header() http.Header     { return h.r.Header }
func (h *httpRequest) Cookies() []*http.Cookie { return h.r.Cookies() }
func (h *httpRequest) Query() url.Values {
	if h.r.URL == nil {
		return url.Values{}
	}
	return h.r.URL.Query()
}

func (h *httpRequest) Body() ([]byte, error) {
	if h.r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(h.r.Body)
	if err != nil {
		return nil, errors.Annotate(err, "reading request body")
	}
	// Leave the body readable for whoever comes next.
	h.r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// NativeForm implements Native.
func (h *httpRequest) NativeForm() (*multipart.Form, error) {
	if strings.HasPrefix(strings.ToLower(h.r.Header.Get("Content-Type")), "multipart/") {
		if err := h.r.ParseMultipartForm(h.maxMemory); err != nil {
			return nil, errors.Annotate(err, "decoding multipart form")
		}
		return h.r.MultipartForm, nil
	}
	if err := h.r.ParseForm(); err != nil {
		return nil, errors.Annotate(err, "decoding form")
	}
	return &multipart.Form{Value: h.r.PostForm}, nil
}
