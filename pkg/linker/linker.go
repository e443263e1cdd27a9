// Package linker maps surface forms to knowledge-base entities and picks the
// most specific type of an entity.
//
// Linking is precision first: the surface-form index is scanned in its own
// order, each hit is canonicalised through the redirect table, hits that
// land on an ambiguous entity are dropped, and the first survivor wins.
// No ranking happens beyond that.
package linker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/relations"
)

// MaxCandidates caps the surface-form hits considered per mention.
const MaxCandidates = 100

// missingDepth stands in for a type without a hierarchy entry. Real depths
// are >= 0, so such a type only wins when no type has a depth at all.
const missingDepth = -1

// ErrInvalidDepth is returned when a hierarchy document carries a level that
// is not an integer.
var ErrInvalidDepth = errors.New("invalid type depth")

// Linker is safe for concurrent use as long as its indexes are. The
// relation tables are never written after New returns.
type Linker struct {
	uriIndex  index.Index
	typeIndex index.Index
	pathIndex index.Index

	redirects       relations.Table
	disambiguations relations.Table
}

// New assembles a linker from already opened indexes and loaded tables.
func New(indexes index.Set, redirects, disambiguations relations.Table) (*Linker, error) {
	if indexes.URI == nil || indexes.Type == nil || indexes.Path == nil {
		return nil, fmt.Errorf("%w: uri, type and path indexes are all required", index.ErrIndexUnavailable)
	}
	return &Linker{
		uriIndex:        indexes.URI,
		typeIndex:       indexes.Type,
		pathIndex:       indexes.Path,
		redirects:       redirects,
		disambiguations: disambiguations,
	}, nil
}

// Canonicalize follows at most one redirect. The table is expected to be
// transitively closed already, so chains are not chased.
func (l *Linker) Canonicalize(entity string) string {
	if target, ok := l.redirects.Lookup(entity); ok {
		return target
	}
	return entity
}

// IsAmbiguous reports whether entity is in the disambiguation set.
func (l *Linker) IsAmbiguous(entity string) bool {
	return l.disambiguations.Contains(entity)
}

// Candidates returns every canonical, unambiguous entity for mention in
// index order, including duplicates. LinkMention returns its first element.
func (l *Linker) Candidates(ctx context.Context, mention string) ([]string, error) {
	docs, err := l.uriIndex.Search(ctx, index.FieldLabel, strings.ToLower(mention), MaxCandidates)
	if err != nil {
		return nil, err
	}

	cands := make([]string, 0, len(docs))
	for _, doc := range docs {
		if !doc.Has(index.FieldURI) {
			continue
		}
		entity := l.Canonicalize(doc.Get(index.FieldURI))
		if l.IsAmbiguous(entity) {
			continue
		}
		cands = append(cands, entity)
	}
	return cands, nil
}

// LinkMention returns the entity mention refers to. found is false when the
// index has no hit for the mention or every hit resolves to an ambiguous
// entity; the two cases are not distinguished.
func (l *Linker) LinkMention(ctx context.Context, mention string) (entity string, found bool, err error) {
	cands, err := l.Candidates(ctx, mention)
	if err != nil {
		return "", false, err
	}
	if len(cands) == 0 {
		logger.Debug("[Linker] No candidate", "mention", mention)
		return "", false, nil
	}
	return cands[0], true, nil
}

// GetTypes returns every type asserted for entity. found is false when the
// type index holds no document for it.
func (l *Linker) GetTypes(ctx context.Context, entity string) (types []string, found bool, err error) {
	docs, err := l.typeIndex.Search(ctx, index.FieldURI, entity, 1)
	if err != nil {
		return nil, false, err
	}
	if len(docs) == 0 {
		return nil, false, nil
	}

	values := docs[0].Values(index.FieldType)
	types = make([]string, len(values))
	copy(types, values)
	return types, true, nil
}

// GetTypeDepth returns the hierarchy depth of typ. A hierarchy document
// whose level is missing or not an integer yields ErrInvalidDepth.
func (l *Linker) GetTypeDepth(ctx context.Context, typ string) (depth int, found bool, err error) {
	docs, err := l.pathIndex.Search(ctx, index.FieldURI, typ, 1)
	if err != nil {
		return 0, false, err
	}
	if len(docs) == 0 {
		return 0, false, nil
	}

	raw := docs[0].Get(index.FieldLevel)
	depth, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: type %s has level %q", ErrInvalidDepth, typ, raw)
	}
	return depth, true, nil
}

// GetDeepestType returns the type of entity with the greatest hierarchy
// depth. Ties keep the type seen first. If no type has a depth entry the
// first type is returned.
func (l *Linker) GetDeepestType(ctx context.Context, entity string) (string, bool, error) {
	types, found, err := l.GetTypes(ctx, entity)
	if err != nil {
		return "", false, err
	}
	if !found || len(types) == 0 {
		return "", false, nil
	}

	best := types[0]
	maxDepth := missingDepth
	for _, typ := range types {
		depth, ok, err := l.GetTypeDepth(ctx, typ)
		if err != nil {
			return "", false, err
		}
		if !ok {
			depth = missingDepth
		}
		logger.Debug("[Linker] Type depth", "entity", entity, "type", typ, "depth", depth, "found", ok)
		if depth > maxDepth {
			maxDepth = depth
			best = typ
		}
	}
	return best, true, nil
}
