// Package annotate attaches entity links and deepest types to the mentions
// of a document, ready to be handed to a coreference engine.
package annotate

import (
	"context"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const nullColumn = "null"

// EntityLinker is the part of linker.Linker the annotator needs.
type EntityLinker interface {
	LinkMention(ctx context.Context, mention string) (string, bool, error)
	GetDeepestType(ctx context.Context, entity string) (string, bool, error)
}

// Annotation is the link result for one mention.
type Annotation struct {
	Mention   Mention `json:"mention"`
	EntityURI string  `json:"entity_uri,omitempty"`
	Type      string  `json:"type,omitempty"`
	ShortType string  `json:"short_type,omitempty"`
	Linked    bool    `json:"linked"`
}

// HasSemantics reports whether the mention carries an entity link or a
// named-entity tag.
func (a Annotation) HasSemantics() bool {
	return a.Linked || a.Mention.NERTag() != ""
}

// Annotator links batches of mentions.
type Annotator struct {
	linker   EntityLinker
	parallel int
}

// NewAnnotator creates an annotator running at most parallel lookups at a
// time. parallel <= 0 means one at a time.
func NewAnnotator(l EntityLinker, parallel int) *Annotator {
	if parallel <= 0 {
		parallel = 1
	}
	return &Annotator{linker: l, parallel: parallel}
}

// AnnotateOne links a single mention and resolves the deepest type of the
// linked entity. Unlinkable mentions come back unlinked without a lookup.
func (a *Annotator) AnnotateOne(ctx context.Context, m Mention) (Annotation, error) {
	out := Annotation{Mention: m}
	if !m.Linkable() {
		return out, nil
	}

	entity, found, err := a.linker.LinkMention(ctx, m.Text)
	if err != nil {
		return out, fmt.Errorf("link %q: %w", m.Text, err)
	}
	if !found {
		return out, nil
	}
	out.EntityURI = entity
	out.Linked = true

	typ, found, err := a.linker.GetDeepestType(ctx, entity)
	if err != nil {
		return out, fmt.Errorf("deepest type of %s: %w", entity, err)
	}
	if found {
		out.Type = typ
		out.ShortType = ShortType(typ)
	}
	return out, nil
}

// Annotate processes mentions concurrently and returns results in input
// order. The first error cancels the remaining lookups.
func (a *Annotator) Annotate(ctx context.Context, mentions []Mention) ([]Annotation, error) {
	out := make([]Annotation, len(mentions))
	if len(mentions) == 0 {
		return out, nil
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(a.parallel)
	for i := range mentions {
		eg.Go(func() error {
			ann, err := a.AnnotateOne(ectx, mentions[i])
			if err != nil {
				return err
			}
			out[i] = ann
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	linked := 0
	for _, ann := range out {
		if ann.Linked {
			linked++
		}
	}
	logger.Debug("[Annotate] Batch done", "mentions", len(mentions), "linked", linked)
	return out, nil
}

// WriteColumns writes one "entity<TAB>type" row per annotation, using
// "null" for missing values. The rows line up with the mention rows of a
// coreference dump and can be pasted on as extra columns.
func WriteColumns(w io.Writer, annotations []Annotation) error {
	for _, ann := range annotations {
		entity, typ := nullColumn, nullColumn
		if ann.Linked {
			entity = ann.EntityURI
		}
		if ann.Type != "" {
			typ = ann.Type
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", entity, typ); err != nil {
			return err
		}
	}
	return nil
}
