// Package config defines the run configuration for orderetl.
//
// A Pipeline is assembled in layers: Default, then an optional JSON or YAML
// file (Load), then ETL_* environment variables (ApplyEnv), then whatever
// CLI flags were set explicitly. The result is passed by value into etl.Run;
// nothing here is global.
//
// Example (YAML):
//
//	sources:
//	  order:      { path: data/order.csv }
//	  order_item: { url: https://example.com/order_item.csv }
//	filter:
//	  status: Complete
//	output:
//	  kind: sqlite
//	  monthly: true
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. ETL_OUTPUT_KIND.
const EnvPrefix = "ETL"

// Pipeline is the top-level configuration object.
type Pipeline struct {
	Sources Sources `json:"sources" yaml:"sources"`
	Filter  Filter  `json:"filter" yaml:"filter"`
	Output  Output  `json:"output" yaml:"output"`
	HTTP    HTTP    `json:"http" yaml:"http"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
	Log     Log     `json:"log" yaml:"log"`
}

// Sources names the two input tables.
type Sources struct {
	Order     Source `json:"order" yaml:"order"`
	OrderItem Source `json:"order_item" yaml:"order_item" split_words:"true"`
}

// Source is one input table. When URL is set it wins over Path and the
// table is downloaded to a temporary file first.
type Source struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`

	// Comma is the single-character field delimiter. Empty means ",".
	Comma string `json:"comma,omitempty" yaml:"comma,omitempty"`
}

// Remote reports whether the source is fetched over HTTP.
func (s Source) Remote() bool { return strings.TrimSpace(s.URL) != "" }

// Location is the URL for remote sources and the path otherwise.
func (s Source) Location() string {
	if s.Remote() {
		return s.URL
	}
	return s.Path
}

// CommaRune returns the delimiter rune, defaulting to ','.
func (s Source) CommaRune() rune {
	if s.Comma == "" {
		return ','
	}
	return []rune(s.Comma)[0]
}

// Filter holds the order criteria. A nil field matches every order; a
// non-nil field must equal the status or origin name exactly.
type Filter struct {
	Status *string `json:"status,omitempty" yaml:"status,omitempty"`
	Origin *string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Output selects the sink.
type Output struct {
	// Kind is a registered storage kind: csv, sqlite, postgres, mysql, mssql.
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the connection string for relational kinds. For sqlite an empty
	// DSN means <Dir>/orders.db.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Dir receives csv files and the default sqlite database.
	Dir string `json:"dir" yaml:"dir"`

	// Monthly additionally writes the monthly_averages table.
	Monthly bool `json:"monthly" yaml:"monthly"`

	BatchSize int `json:"batch_size" yaml:"batch_size" split_words:"true"`
}

// StorageDSN returns the DSN handed to the storage backend.
func (o Output) StorageDSN() string {
	if o.DSN == "" && o.Kind == "sqlite" {
		return filepath.Join(o.Dir, "orders.db")
	}
	return o.DSN
}

// HTTP configures the client used for remote sources.
type HTTP struct {
	// Timeout bounds each request; zero means no timeout.
	Timeout            Duration `json:"timeout" yaml:"timeout"`
	MaxRetries         int      `json:"max_retries" yaml:"max_retries" split_words:"true"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty" split_words:"true"`
}

// Metrics selects where run metrics go.
type Metrics struct {
	// Backend is "none", "prometheus" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty" split_words:"true"`
	StatsdAddr     string `json:"statsd_addr,omitempty" yaml:"statsd_addr,omitempty" split_words:"true"`
	Job            string `json:"job" yaml:"job"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the configuration used when nothing else is given.
func Default() Pipeline {
	return Pipeline{
		Sources: Sources{
			Order:     Source{Path: "data/order.csv"},
			OrderItem: Source{Path: "data/order_item.csv"},
		},
		Output: Output{
			Kind:      "csv",
			Dir:       "output",
			BatchSize: 500,
		},
		Metrics: Metrics{
			Backend: "none",
			Job:     "orderetl",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .json, or .yaml / .yml. Unknown fields are rejected.
func Load(path string) (Pipeline, error) {
	p := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, fmt.Errorf("config: decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		// An empty document leaves the defaults in place.
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return p, fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		return p, fmt.Errorf("config: unsupported file extension %q (want .json, .yaml or .yml)", ext)
	}
	return p, nil
}

// ApplyEnv overlays ETL_* environment variables onto p. Only variables that
// are set change p. Names follow the field path, e.g. ETL_OUTPUT_KIND,
// ETL_SOURCES_ORDER_ITEM_URL, ETL_HTTP_MAX_RETRIES.
//
// Fields must not carry envconfig tags: a tag makes envconfig also read the
// unprefixed name, which would pull in $PATH or $URL.
func ApplyEnv(p *Pipeline) error {
	if err := envconfig.Process(EnvPrefix, p); err != nil {
		return fmt.Errorf("config: env: %w", err)
	}
	return nil
}

// Duration is a time.Duration that reads and writes as "30s" in JSON, YAML
// and environment variables.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}
