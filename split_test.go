package formdata_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasbasham/formdata"
)

func TestSplitBody(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body     string
		boundary string
		want     []string
	}{
		"field and file": {
			body: "--XYZ\r\n" +
				"Content-Disposition: form-data; name=\"f\"\r\n\r\nvalue\r\n" +
				"--XYZ\r\n" +
				"Content-Disposition: form-data; name=\"g\"; filename=\"a.txt\"\r\n\r\nfile\r\n" +
				"--XYZ--\r\n",
			boundary: "XYZ",
			want: []string{
				"",
				"\r\nContent-Disposition: form-data; name=\"f\"\r\n\r\nvalue",
				"\r\nContent-Disposition: form-data; name=\"g\"; filename=\"a.txt\"\r\n\r\nfile",
			},
		},
		"epilogue is dropped": {
			body:     "--b\nContent-Disposition: form-data; name=\"f\"\n\nv\n--b--\nthis is an epilogue",
			boundary: "b",
			want: []string{
				"",
				"\nContent-Disposition: form-data; name=\"f\"\n\nv",
			},
		},
		"boundary is literal text": {
			body:     "--a.b\r\nx\r\n--aXb\r\n--a.b--",
			boundary: "a.b",
			want: []string{
				"",
				"\r\nx\r\n--aXb",
			},
		},
		"any number of dashes": {
			body:     "------XYZ\r\none\r\n-XYZ\r\ntwo\r\n---XYZ--",
			boundary: "XYZ",
			want:     []string{"", "\r\none", "\r\ntwo"},
		},
		"no boundary at all": {
			body:     "just some text",
			boundary: "XYZ",
			want:     []string{},
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := []string{}
			for _, part := range formdata.SplitBody([]byte(tt.body), tt.boundary) {
				got = append(got, string(part))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
