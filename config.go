package formdata

import (
	"io"
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxUploadSize is the conventional 2M upload ceiling.
	DefaultMaxUploadSize = 2 << 20

	// DefaultMaxMemory bounds how much of a natively decoded multipart body
	// is held in memory, see [FromHTTP].
	DefaultMaxMemory = 32 << 20

	// DefaultTempPattern names temporary upload files.
	DefaultTempPattern = "formdata-*"

	envMaxUploadSize = "FORMDATA_UPLOAD_MAX_FILESIZE"
	envTempDir       = "FORMDATA_TMP_DIR"
)

// Config holds the parser's tunables.
type Config struct {
	// MaxUploadSize is the largest file payload, in bytes, that is written
	// to disk.
	MaxUploadSize int64
	// TempDir is where uploads are written. Empty means os.TempDir().
	TempDir string
	// TempPattern is passed to os.CreateTemp.
	TempPattern string
	// MaxMemory is handed to net/http when it decodes a body natively.
	MaxMemory int64
}

// DefaultConfig returns the configuration used by the package level [Parse].
func DefaultConfig() Config {
	return Config{
		MaxUploadSize: DefaultMaxUploadSize,
		TempPattern:   DefaultTempPattern,
		MaxMemory:     DefaultMaxMemory,
	}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	if c.MaxUploadSize < 0 {
		return errors.NotValidf("negative max upload size %d", c.MaxUploadSize)
	}
	if c.MaxMemory < 0 {
		return errors.NotValidf("negative max memory %d", c.MaxMemory)
	}
	return nil
}

// ConfigFromEnv starts from [DefaultConfig] and applies
// FORMDATA_UPLOAD_MAX_FILESIZE (a formatted size such as "8M") and
// FORMDATA_TMP_DIR.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv(envMaxUploadSize); ok {
		size, err := ParseSize(v)
		if err != nil {
			return Config{}, errors.Annotatef(err, "parsing %s", envMaxUploadSize)
		}
		cfg.MaxUploadSize = size
	}
	if v, ok := os.LookupEnv(envTempDir); ok {
		cfg.TempDir = v
	}
	return cfg, cfg.Validate()
}

type yamlConfig struct {
	MaxUploadSize sizeText `yaml:"upload-max-filesize"`
	TempDir       string   `yaml:"tmp-dir"`
	TempPattern   string   `yaml:"tmp-pattern"`
	MaxMemory     sizeText `yaml:"max-memory"`
}

// sizeText accepts both "8M" and a bare 1000 from YAML.
type sizeText string

func (s *sizeText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.NotValidf("size at line %d", node.Line)
	}
	*s = sizeText(node.Value)
	return nil
}

// LoadConfig reads a YAML document on top of base. Sizes are written in
// formatted form:
//
//	upload-max-filesize: 8M
//	tmp-dir: /var/tmp/uploads
func LoadConfig(r io.Reader, base Config) (Config, error) {
	var raw yamlConfig
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return Config{}, errors.Annotate(err, "decoding config")
	}

	cfg := base
	if raw.MaxUploadSize != "" {
		size, err := ParseSize(string(raw.MaxUploadSize))
		if err != nil {
			return Config{}, errors.Annotate(err, "upload-max-filesize")
		}
		cfg.MaxUploadSize = size
	}
	if raw.MaxMemory != "" {
		size, err := ParseSize(string(raw.MaxMemory))
		if err != nil {
			return Config{}, errors.Annotate(err, "max-memory")
		}
		cfg.MaxMemory = size
	}
	if raw.TempDir != "" {
		cfg.TempDir = raw.TempDir
	}
	if raw.TempPattern != "" {
		cfg.TempPattern = raw.TempPattern
	}
	return cfg, cfg.Validate()
}
