// Package config defines the configuration model for a conversion run. A
// Conversion can be decoded from a JSON or YAML file; every field has a
// default, so a run without a config file converts data/words.xlsx (or
// data/words.csv) under the working root into words.json.
//
// Example (YAML):
//
//	job: vocab
//	root: ./lesson-3
//	source:
//	  xlsx_path: data/words.xlsx
//	  csv_path: data/words.csv
//	  options:
//	    sheet: Sheet1
//	    encoding: gbk
//	    header_offsets: [0, 1, 2]
//	output:
//	  path: words.json
//	  indent: "  "
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values used when a field is not set.
const (
	DefaultJob      = "wordconv"
	DefaultRoot     = "."
	DefaultXLSXPath = "data/words.xlsx"
	DefaultCSVPath  = "data/words.csv"
	DefaultOutput   = "words.json"
	DefaultIndent   = "  "
)

// Conversion is the top-level object decoded from a config file.
type Conversion struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job" yaml:"job"`

	// Root is the directory relative paths are resolved against.
	Root string `json:"root" yaml:"root"`

	Source Source `json:"source" yaml:"source"`
	Output Output `json:"output" yaml:"output"`
}

// Source names the candidate input files, checked in order: spreadsheet
// first, delimited text second.
type Source struct {
	XLSXPath string `json:"xlsx_path" yaml:"xlsx_path"`
	CSVPath  string `json:"csv_path" yaml:"csv_path"`

	// Options is a free-form bag read by the loaders. Recognized keys:
	//   sheet (string), comma (string), encoding (string),
	//   lazy_quotes (bool), header_offsets ([]int)
	Options Options `json:"options" yaml:"options"`
}

// Output configures the JSON document written at the end of a run.
type Output struct {
	Path   string `json:"path" yaml:"path"`
	Indent string `json:"indent" yaml:"indent"`
}

// Defaults returns a Conversion reproducing the fixed input and output paths.
func Defaults() Conversion {
	return Conversion{
		Job:  DefaultJob,
		Root: DefaultRoot,
		Source: Source{
			XLSXPath: DefaultXLSXPath,
			CSVPath:  DefaultCSVPath,
			Options:  Options{},
		},
		Output: Output{
			Path:   DefaultOutput,
			Indent: DefaultIndent,
		},
	}
}

// Load reads path and decodes it over Defaults. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func Load(path string) (Conversion, error) {
	c := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Decode(b, formatOf(path), &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// Decode unmarshals b into c using the given format ("json" or "yaml").
// Fields absent from b keep their current values.
func Decode(b []byte, format string, c *Conversion) error {
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(b, c); err != nil {
			return err
		}
	case "json":
		if err := json.Unmarshal(b, c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if c.Source.Options == nil {
		c.Source.Options = Options{}
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Resolve joins a relative path onto Root. Absolute paths are returned as is.
func (c Conversion) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	root := c.Root
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, p)
}

// XLSXPath returns the resolved spreadsheet path.
func (c Conversion) XLSXPath() string { return c.Resolve(c.Source.XLSXPath) }

// CSVPath returns the resolved delimited-text path.
func (c Conversion) CSVPath() string { return c.Resolve(c.Source.CSVPath) }

// OutputPath returns the resolved output path.
func (c Conversion) OutputPath() string { return c.Resolve(c.Output.Path) }

// Options is a small helper to fetch typed values from a decoded map. It
// performs only minimal type coercion and returns the provided default when a
// key is absent or of an unexpected type. ValidateConversion reports the
// latter.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64 and yaml.v3 as int, so both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		if n, ok := toInt(v); ok {
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// IntSlice returns the integers stored under key. Non-integer elements are
// skipped. Returns nil when the key is missing or the value is not an array.
func (o Options) IntSlice(key string) []int {
	v, ok := o[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []int:
		return vv
	case []any:
		out := make([]int, 0, len(vv))
		for _, x := range vv {
			if n, ok := toInt(x); ok {
				out = append(out, n)
			}
		}
		return out
	}
	return nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// toInt accepts whole-number float64 values and the integer kinds the
// decoders produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
