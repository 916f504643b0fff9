package formdata

import (
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// Directive is a name=value component of a structured header value.
type Directive struct {
	Name  string
	Value string
}

// HeaderValue holds one parsed header. A value without ';' is a scalar.
// Otherwise it is structured: its ';' separated segments are split into
// directives (name=value, name lower-cased, value unquoted) and flags
// (segments without '=').
type HeaderValue struct {
	raw        string
	structured bool
	directives []Directive
	flags      []string
}

// String returns the trimmed value as it appeared on the wire.
func (v HeaderValue) String() string {
	return v.raw
}

// IsStructured reports whether the value carried ';' separated segments.
func (v HeaderValue) IsStructured() bool {
	return v.structured
}

// Directive returns the value of the named directive.
func (v HeaderValue) Directive(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, d := range v.directives {
		if d.Name == name {
			return d.Value, true
		}
	}
	return "", false
}

// Directives returns the directives in order of discovery.
func (v HeaderValue) Directives() []Directive {
	return append([]Directive(nil), v.directives...)
}

// Flags returns the segments that had no '=', e.g. "form-data".
func (v HeaderValue) Flags() []string {
	return append([]string(nil), v.flags...)
}

func (v *HeaderValue) setDirective(name, value string) {
	for i := range v.directives {
		if v.directives[i].Name == name {
			v.directives[i].Value = value
			return
		}
	}
	v.directives = append(v.directives, Directive{Name: name, Value: value})
}

// HeaderTable maps lower-cased header names to their parsed values.
type HeaderTable map[string]HeaderValue

// Get returns the header with the given name, matched case-insensitively.
func (t HeaderTable) Get(name string) (HeaderValue, bool) {
	v, ok := t[strings.ToLower(name)]
	return v, ok
}

// Directive looks up a directive of a structured header, for example the
// "name" directive of "content-disposition".
func (t HeaderTable) Directive(header, name string) (string, bool) {
	v, ok := t.Get(header)
	if !ok {
		return "", false
	}
	return v.Directive(name)
}

// ParseHeaderBlock parses the header lines of a single part. Lines without a
// ':' are dropped and folded continuation lines are not supported.
func ParseHeaderBlock(block string) HeaderTable {
	table := HeaderTable{}
	for _, line := range lineBreak.Split(block, -1) {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		table[name] = parseHeaderValue(strings.TrimSpace(value))
	}
	return table
}

func parseHeaderValue(value string) HeaderValue {
	hv := HeaderValue{raw: value}
	if !strings.Contains(value, ";") {
		return hv
	}

	hv.structured = true
	for _, segment := range strings.Split(value, ";") {
		segment = strings.TrimSpace(segment)
		name, val, ok := strings.Cut(segment, "=")
		if !ok {
			hv.flags = append(hv.flags, segment)
			continue
		}
		hv.setDirective(strings.ToLower(strings.TrimSpace(name)), unquote(strings.TrimSpace(val)))
	}
	return hv
}

// unquote strips one leading and one trailing double quote. The quotes need
// not be paired.
func unquote(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
}
