// Package relations loads the static entity relation tables the linker
// consults on every query: the redirect table and the disambiguation set.
//
// Both come from N-Triples style dumps, one relation per line:
//
//	<http://dbpedia.org/resource/Trump> <http://dbpedia.org/ontology/wikiPageRedirects> <http://dbpedia.org/resource/Donald_Trump> .
//
// The subject (token 1) becomes the key and the object (token 3) the value,
// each with its enclosing delimiter characters removed.
package relations

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/loader"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
)

// ErrMalformedLine is returned for a non-comment line that does not hold
// three strippable tokens.
var ErrMalformedLine = errors.New("malformed relation line")

const maxLineBytes = 1 << 20

// Table is an immutable key to value mapping built once at startup.
type Table struct {
	entries map[string]string
}

// Lookup returns the value stored for key.
func (t Table) Lookup(key string) (string, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Contains reports whether key is present. This is all a disambiguation
// set needs.
func (t Table) Contains(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Len returns the number of distinct keys.
func (t Table) Len() int {
	return len(t.entries)
}

// Keys returns the keys in no particular order.
func (t Table) Keys() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	return out
}

// FromMap copies m into a Table. Intended for tests and callers that
// already hold the relation in memory.
func FromMap(m map[string]string) Table {
	entries := make(map[string]string, len(m))
	for k, v := range m {
		entries[k] = v
	}
	return Table{entries: entries}
}

// Load reads relations from r. Blank lines and lines starting with '#'
// (after trimming) are skipped. When a key repeats, the first value read
// is kept and later ones are dropped silently.
func Load(r io.Reader) (Table, error) {
	entries := make(map[string]string)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	duplicates := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, err := parseLine(line)
		if err != nil {
			return Table{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, exists := entries[key]; exists {
			duplicates++
			continue
		}
		entries[key] = value
	}
	if err := scanner.Err(); err != nil {
		return Table{}, err
	}

	if duplicates > 0 {
		logger.Debug("[Relations] Dropped duplicate keys", "count", duplicates)
	}
	return Table{entries: entries}, nil
}

func parseLine(line string) (string, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", fmt.Errorf("%w: expected at least 3 tokens, got %d", ErrMalformedLine, len(fields))
	}
	key, ok := stripDelimiters(fields[0])
	if !ok {
		return "", "", fmt.Errorf("%w: subject %q too short", ErrMalformedLine, fields[0])
	}
	value, ok := stripDelimiters(fields[2])
	if !ok {
		return "", "", fmt.Errorf("%w: object %q too short", ErrMalformedLine, fields[2])
	}
	return key, value, nil
}

func stripDelimiters(tok string) (string, bool) {
	if len(tok) < 2 {
		return "", false
	}
	return tok[1 : len(tok)-1], true
}

// LoadFile opens path through src and loads it. Open and read failures are
// returned wrapped with the path; parse failures wrap ErrMalformedLine.
func LoadFile(ctx context.Context, src loader.SourceLoader, path string) (Table, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	t, err := Load(rc)
	if err != nil {
		return Table{}, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}
