package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
)

func TestMemoryIndex_PreservesInsertionOrder(t *testing.T) {
	m := NewMemoryIndex(
		index.Document{"labelex": {"paris"}, "uri": {"Paris"}},
		index.Document{"labelex": {"paris"}, "uri": {"Paris_Hilton"}},
		index.Document{"labelex": {"london"}, "uri": {"London"}},
	)

	docs, err := m.Search(context.Background(), "labelex", "paris", 100)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(docs))
	}
	if docs[0].Get("uri") != "Paris" || docs[1].Get("uri") != "Paris_Hilton" {
		t.Fatalf("unexpected order: %v", docs)
	}
}

func TestMemoryIndex_MaxHits(t *testing.T) {
	m := NewMemoryIndex()
	for i := 0; i < 5; i++ {
		m.Add(index.Document{"uri": {"X"}})
	}
	docs, _ := m.Search(context.Background(), "uri", "X", 1)
	if len(docs) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(docs))
	}
	docs, _ = m.Search(context.Background(), "uri", "X", 0)
	if len(docs) != 0 {
		t.Fatalf("expected no hits for maxHits=0, got %d", len(docs))
	}
}

func TestMemoryIndex_MultiValuedField(t *testing.T) {
	m := NewMemoryIndex(index.Document{"uri": {"E"}, "type": {"A", "B", "A"}})
	docs, _ := m.Search(context.Background(), "type", "A", 10)
	if len(docs) != 1 {
		t.Fatalf("expected a repeated value to index the document once, got %d", len(docs))
	}
	if got := docs[0].Values("type"); len(got) != 3 {
		t.Fatalf("expected stored values untouched, got %v", got)
	}
}

func TestMemoryIndex_ExactMatchOnly(t *testing.T) {
	m := NewMemoryIndex(index.Document{"labelex": {"donald trump"}})
	docs, _ := m.Search(context.Background(), "labelex", "Donald Trump", 10)
	if len(docs) != 0 {
		t.Fatalf("expected case-sensitive exact match, got %v", docs)
	}
}

func TestMemoryIndex_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryIndex().Search(ctx, "uri", "x", 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
