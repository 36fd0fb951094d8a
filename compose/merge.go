package compose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Merger combines the contents of two files emitted for the same path.
type Merger interface {
	Merge(existing, incoming []byte) ([]byte, error)
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(existing, incoming []byte) ([]byte, error)

// Merge calls f(existing, incoming).
func (f MergerFunc) Merge(existing, incoming []byte) ([]byte, error) {
	return f(existing, incoming)
}

type mergerRule struct {
	pattern string
	merger  Merger
}

// match tests the rule against a slash-separated relative path. Patterns
// without a separator match the base name, patterns with one match the
// whole path.
func (r mergerRule) match(p string) bool {
	target := p
	if !strings.Contains(r.pattern, "/") {
		target = path.Base(p)
	}
	ok, err := doublestar.Match(r.pattern, target)
	return err == nil && ok
}

// MergeJSON deep-merges two JSON documents. Objects merge key by key
// with the incoming side winning on type mismatches; arrays and scalars
// are replaced by the incoming value. The result is re-encoded with
// two-space indentation and sorted keys, so equal inputs always produce
// equal bytes.
func MergeJSON(existing, incoming []byte) ([]byte, error) {
	base, err := decodeJSON(existing)
	if err != nil {
		return nil, fmt.Errorf("existing content: %w", err)
	}
	over, err := decodeJSON(incoming)
	if err != nil {
		return nil, fmt.Errorf("incoming content: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(deepMerge(base, over)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}

func deepMerge(base, over any) any {
	baseObj, ok := base.(map[string]any)
	if !ok {
		return over
	}
	overObj, ok := over.(map[string]any)
	if !ok {
		return over
	}
	out := make(map[string]any, len(baseObj)+len(overObj))
	for k, v := range baseObj {
		out[k] = v
	}
	for k, v := range overObj {
		if cur, exists := out[k]; exists {
			out[k] = deepMerge(cur, v)
			continue
		}
		out[k] = v
	}
	return out
}

// MergeLines appends the incoming lines that the existing content does
// not already contain, keeping the existing lines untouched. Blank
// incoming lines are dropped. Suits dotfiles such as .gitignore or .env
// where each line stands on its own.
func MergeLines(existing, incoming []byte) ([]byte, error) {
	lines := splitLines(existing)
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		seen[l] = true
	}
	for _, l := range splitLines(incoming) {
		if strings.TrimSpace(l) == "" || seen[l] {
			continue
		}
		seen[l] = true
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func splitLines(b []byte) []string {
	s := strings.TrimRight(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
