package formdata_test

import (
	"testing"

	"github.com/juju/errors"

	"github.com/tomasbasham/formdata"
)

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input int64
		want  string
	}{
		"zero":              {input: 0, want: "0"},
		"negative":          {input: -5, want: "0"},
		"single byte":       {input: 1, want: "1"},
		"bytes":             {input: 1023, want: "1023"},
		"exactly one kilo":  {input: 1024, want: "1K"},
		"fractional kilo":   {input: 1536, want: "1.5K"},
		"rounded kilo":      {input: 12345, want: "12.06K"},
		"exactly one mega":  {input: 1 << 20, want: "1M"},
		"exactly one giga":  {input: 1 << 30, want: "1G"},
		"exactly one tera":  {input: 1 << 40, want: "1T"},
		"beyond tera stays": {input: 1 << 50, want: "1024T"},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := formdata.FormatSize(tt.input); got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    int64
		wantErr error
	}{
		"bare number":        {input: "1024", want: 1024},
		"bytes suffix":       {input: "10B", want: 10},
		"kilo":               {input: "2K", want: 2048},
		"kilo long form":     {input: "2KB", want: 2048},
		"mega":               {input: "2M", want: 2 << 20},
		"lower case":         {input: "8m", want: 8 << 20},
		"giga long form":     {input: "1GB", want: 1 << 30},
		"peta":               {input: "1P", want: 1 << 50},
		"fraction truncated": {input: "1.5K", want: 1024},
		"surrounding space":  {input: " 3K ", want: 3072},
		"unknown unit":       {input: "5X", wantErr: formdata.ErrUnknownUnit},
		"no digits":          {input: "K", wantErr: formdata.ErrInvalidSize},
		"empty":              {input: "", wantErr: formdata.ErrInvalidSize},
		"giga overflow":      {input: "17179869184G", wantErr: formdata.ErrInvalidSize},
		"tera overflow":      {input: "16777216T", wantErr: formdata.ErrInvalidSize},
		"peta overflow":      {input: "9999999999999P", wantErr: formdata.ErrInvalidSize},
		"digits overflow":    {input: "99999999999999999999", wantErr: formdata.ErrInvalidSize},
		"largest peta":       {input: "8191P", want: 8191 << 50},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := formdata.ParseSize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// Formatting is lossy: the parsed value is within one unit of the suffix.
func TestFormatSizeParseSize(t *testing.T) {
	t.Parallel()

	for _, n := range []int64{0, 1, 999, 1024, 1500, 12345, 1048576, 5000000, 3 << 30} {
		formatted := formdata.FormatSize(n)
		got, err := formdata.ParseSize(formatted)
		if err != nil {
			t.Fatalf("ParseSize(%q): %v", formatted, err)
		}

		unit := int64(1)
		for unit*1024 <= n && unit < 1<<40 {
			unit *= 1024
		}
		diff := n - got
		if diff < 0 {
			diff = -diff
		}
		if diff >= unit {
			t.Errorf("ParseSize(FormatSize(%d)) = %d (via %q), outside one unit of %d", n, got, formatted, unit)
		}
	}
}
