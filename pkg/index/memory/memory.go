package memory

import (
	"context"
	"sync"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
)

type postingKey struct {
	field string
	value string
}

// MemoryIndex is an in-process exact-match index. Search returns documents
// in the order they were added.
type MemoryIndex struct {
	mu       sync.RWMutex
	docs     []index.Document
	postings map[postingKey][]int
}

// NewMemoryIndex creates an empty index, optionally seeded with docs.
func NewMemoryIndex(docs ...index.Document) *MemoryIndex {
	m := &MemoryIndex{
		postings: make(map[postingKey][]int),
	}
	for _, d := range docs {
		m.Add(d)
	}
	return m
}

// Add appends a document and indexes every value of every field.
func (m *MemoryIndex) Add(doc index.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := len(m.docs)
	m.docs = append(m.docs, doc)
	for field, values := range doc {
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			k := postingKey{field: field, value: v}
			m.postings[k] = append(m.postings[k], id)
		}
	}
}

// Len returns the number of stored documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryIndex) Search(ctx context.Context, field, value string, maxHits int) ([]index.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxHits <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.postings[postingKey{field: field, value: value}]
	if len(ids) > maxHits {
		ids = ids[:maxHits]
	}
	out := make([]index.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.docs[id])
	}
	return out, nil
}
