// Package dir opens pre-built indexes stored as JSON-lines files.
//
// Layout:
//
//	<root>/uriindex/*.jsonl
//	<root>/typeindex/*.jsonl
//	<root>/pathindex/*.jsonl
//
// Each line is one document: an object whose values are strings, numbers or
// arrays of those. Files are read in lexical order and lines in file order,
// which fixes the result order of every search.
package dir

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/index/memory"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
)

const maxLineBytes = 16 << 20

// OpenSet loads the three conventional indexes below root.
func OpenSet(root string) (index.Set, error) {
	uri, err := Open(filepath.Join(root, index.URIIndex))
	if err != nil {
		return index.Set{}, err
	}
	typ, err := Open(filepath.Join(root, index.TypeIndex))
	if err != nil {
		return index.Set{}, err
	}
	path, err := Open(filepath.Join(root, index.PathIndex))
	if err != nil {
		return index.Set{}, err
	}
	return index.Set{URI: uri, Type: typ, Path: path}, nil
}

// Open loads every *.jsonl file in dir into a memory index.
func Open(dir string) (*memory.MemoryIndex, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", index.ErrIndexUnavailable, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	idx := memory.NewMemoryIndex()
	for _, name := range names {
		if err := loadFile(idx, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}
	logger.Debug("[Index] Loaded directory index", "dir", dir, "files", len(names), "documents", idx.Len())
	return idx, nil
}

func loadFile(idx *memory.MemoryIndex, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", index.ErrIndexUnavailable, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		doc, err := ParseDocument(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		idx.Add(doc)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", index.ErrIndexUnavailable, path, err)
	}
	return nil
}

// ParseDocument decodes a single JSON object into a Document.
func ParseDocument(raw []byte) (index.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	doc := make(index.Document, len(fields))
	for name, val := range fields {
		values, err := decodeValues(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		doc[name] = values
	}
	return doc, nil
}

func decodeValues(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	s, err := decodeScalar(raw)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil
}

func decodeScalar(raw json.RawMessage) (string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}
