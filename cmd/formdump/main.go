// Command formdump decodes a raw multipart/form-data request body and prints
// the resulting dataset as JSON.
//
//	formdump --method PATCH --content-type 'multipart/form-data; boundary=XYZ' body.txt
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"

	"github.com/tomasbasham/formdata"
)

var logger = loggo.GetLogger("formdata.cmd.formdump")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// headerFlags collects repeated --header "Name: value" flags.
type headerFlags struct {
	h http.Header
}

func (f *headerFlags) String() string {
	var lines []string
	for name, values := range f.h {
		for _, v := range values {
			lines = append(lines, name+": "+v)
		}
	}
	return strings.Join(lines, ", ")
}

func (f *headerFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, ":")
	if !ok {
		return errors.NotValidf("header %q", s)
	}
	if f.h == nil {
		f.h = http.Header{}
	}
	f.h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	return nil
}

type command struct {
	method      string
	contentType string
	rawURL      string
	configPath  string
	logSpec     string
	keep        bool
	headers     headerFlags
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := command{headers: headerFlags{h: http.Header{}}}

	fs := gnuflag.NewFlagSet("formdump", gnuflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.method, "method", http.MethodPut, "request method")
	fs.StringVar(&c.contentType, "content-type", "", "request Content-Type header")
	fs.StringVar(&c.rawURL, "url", "/", "request URL, used for the query string")
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.logSpec, "log", "<root>=WARNING", "logging configuration")
	fs.BoolVar(&c.keep, "keep", false, "keep uploaded temporary files")
	fs.Var(&c.headers, "header", "extra request header, may be repeated")
	if err := fs.Parse(true, args); err != nil {
		return 2
	}

	if err := c.run(fs.Args(), stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "formdump: %v\n", err)
		return 1
	}
	return 0
}

func (c *command) run(args []string, stdin io.Reader, stdout io.Writer) error {
	if err := loggo.ConfigureLoggers(c.logSpec); err != nil {
		return errors.Annotate(err, "configuring logging")
	}

	cfg, err := c.config()
	if err != nil {
		return errors.Trace(err)
	}

	body, err := readBody(args, stdin)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Debugf("read %s body", humanize.IBytes(uint64(len(body))))

	u, err := url.Parse(c.rawURL)
	if err != nil {
		return errors.Annotatef(err, "parsing url %q", c.rawURL)
	}
	if c.contentType != "" {
		c.headers.h.Set("Content-Type", c.contentType)
	}

	ds, err := formdata.NewParser(cfg).Parse(&formdata.RawRequest{
		Verb:    c.method,
		URL:     u,
		Headers: c.headers.h,
		Payload: body,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if c.keep {
			_ = ds.Close()
			return
		}
		if err := ds.RemoveAll(); err != nil {
			logger.Warningf("removing temporary files: %v", err)
		}
	}()

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return errors.Trace(enc.Encode(ds))
}

func (c *command) config() (formdata.Config, error) {
	cfg, err := formdata.ConfigFromEnv()
	if err != nil {
		return formdata.Config{}, errors.Trace(err)
	}
	if c.configPath == "" {
		return cfg, nil
	}

	f, err := os.Open(c.configPath)
	if err != nil {
		return formdata.Config{}, errors.Trace(err)
	}
	defer f.Close()
	return formdata.LoadConfig(f, cfg)
}

func readBody(args []string, stdin io.Reader) ([]byte, error) {
	switch len(args) {
	case 0:
		return io.ReadAll(stdin)
	case 1:
		body, err := os.ReadFile(args[0])
		return body, errors.Trace(err)
	default:
		return nil, errors.Errorf("expected at most one body file, got %d", len(args))
	}
}
