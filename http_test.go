package formdata_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasbasham/formdata"
)

// echoHandler responds with the decoded dataset, as an application would.
func echoHandler(t *testing.T, p *formdata.Parser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds, err := p.ParseHTTP(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer ds.RemoveAll()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ds); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	})
}

type echoResponse struct {
	Files   map[string]formdata.FileEntry `json:"files"`
	Params  map[string]string             `json:"params"`
	Cookies map[string]string             `json:"cookies"`
	Headers map[string]string             `json:"headers"`
}

func TestParseHTTP(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		method    string
		target    string
		wantParam map[string]string
		wantFile  formdata.FileEntry
	}{
		"post is decoded natively": {
			method:    http.MethodPost,
			target:    "/upload",
			wantParam: map[string]string{"username": "pchchv"},
			wantFile:  formdata.FileEntry{Name: "test.txt", Type: "application/octet-stream", Size: "14", Error: formdata.UploadOK},
		},
		"put is decoded from the raw body": {
			method:    http.MethodPut,
			target:    "/upload",
			wantParam: map[string]string{"username": "pchchv"},
			wantFile:  formdata.FileEntry{Name: "test.txt", Type: "application/octet-stream", Size: "14", Error: formdata.UploadOK},
		},
		"patch is decoded from the raw body": {
			method:    http.MethodPatch,
			target:    "/upload",
			wantParam: map[string]string{"username": "pchchv"},
			wantFile:  formdata.FileEntry{Name: "test.txt", Type: "application/octet-stream", Size: "14", Error: formdata.UploadOK},
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, _ := testParser(t)

			srv := httptest.NewServer(echoHandler(t, p))
			defer srv.Close()

			var body bytes.Buffer
			enc := formdata.NewEncoder(&body)
			err := enc.Encode(map[string]interface{}{
				"file":     formdata.Upload{Filename: "test.txt", Content: strings.NewReader("FILE TEST DATA")},
				"username": "pchchv",
			})
			if err != nil {
				t.Fatal(err)
			}

			req, err := http.NewRequest(tt.method, srv.URL+tt.target, &body)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Content-Type", enc.FormDataContentType())
			req.AddCookie(&http.Cookie{Name: "Session", Value: "abc"})

			res, err := srv.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(res.Body)
				t.Fatalf("status %d: %s", res.StatusCode, b)
			}

			var got echoResponse
			if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantParam, got.Params); diff != "" {
				t.Errorf("params (-want +got):\n%s", diff)
			}
			f := got.Files["file"]
			if f.TmpName == "" {
				t.Error("expected a temporary file name")
			}
			f.TmpName = ""
			if diff := cmp.Diff(tt.wantFile, f, cmp.AllowUnexported(formdata.FileEntry{})); diff != "" {
				t.Errorf("file (-want +got):\n%s", diff)
			}
			if got.Cookies["session"] != "abc" {
				t.Errorf("cookies = %v", got.Cookies)
			}
			if !strings.HasPrefix(got.Headers["content-type"], "multipart/form-data; boundary=") {
				t.Errorf("headers = %v", got.Headers)
			}
		})
	}
}

func TestParseHTTPGet(t *testing.T) {
	t.Parallel()
	p, _ := testParser(t)

	r := httptest.NewRequest(http.MethodGet, "/?param=1&param2=2", nil)
	ds, err := p.ParseHTTP(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"param", "param2"}, ds.Params.Keys()); diff != "" {
		t.Errorf("params (-want +got):\n%s", diff)
	}
}

func TestParseHTTPGetWithoutURL(t *testing.T) {
	t.Parallel()
	p, _ := testParser(t)

	ds, err := p.ParseHTTP(&http.Request{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Params.Len() != 0 {
		t.Errorf("expected no params, got %v", ds.Params.Keys())
	}
}

func TestFromHTTPBodyIsRestored(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader("payload"))
	req := formdata.FromHTTP(r, formdata.DefaultMaxMemory)

	body, err := req.Body()
	if err != nil {
		t.Fatal(err)
	}
	again, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "payload" || string(again) != "payload" {
		t.Errorf("got %q then %q", body, again)
	}
}
