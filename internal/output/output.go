// Package output serializes the final word list and replaces the output file
// in a single step.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"wordconv/internal/record"
)

// DefaultIndent is the per-level indentation of the JSON document.
const DefaultIndent = "  "

// Encode renders records as a JSON array. Non-ASCII text is kept literally,
// HTML-sensitive characters are not escaped and no trailing newline is
// written. A nil or empty slice encodes as [].
func Encode(records []record.Word, indent string) ([]byte, error) {
	if records == nil {
		records = []record.Word{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("output: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Digest returns the xxh3 hash of an encoded document as 16 hex digits.
func Digest(doc []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(doc))
}

// WriteFile atomically replaces path with data: the bytes go to a temporary
// file in the same directory, which is then renamed over path. On failure
// the previous file, if any, is left untouched.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(path), ".")+".tmp-*")
	if err != nil {
		return fmt.Errorf("output: create temp in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("output: write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("output: sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("output: close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("output: chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("output: rename to %s: %w", path, err)
	}
	return nil
}

// Write encodes records and atomically writes them to path. It returns the
// number of bytes written and the document digest.
func Write(path string, records []record.Word, indent string) (int, string, error) {
	doc, err := Encode(records, indent)
	if err != nil {
		return 0, "", err
	}
	if err := WriteFile(path, doc); err != nil {
		return 0, "", err
	}
	return len(doc), Digest(doc), nil
}
