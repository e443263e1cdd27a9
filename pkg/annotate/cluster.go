package annotate

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
)

// ClusterMention is an annotated mention together with its position in a
// document's coreference output.
type ClusterMention struct {
	ID        int    `json:"id"`
	ClusterID int    `json:"cluster_id"`
	Sentence  int    `json:"sentence"`
	Start     int    `json:"start"`
	NEREntity string `json:"ner_entity,omitempty"`
	Annotation
}

// Cluster is one coreference chain. Mentions are kept in document order.
type Cluster struct {
	ID       int              `json:"id"`
	Mentions []ClusterMention `json:"mentions"`
}

// articles never count against word compatibility
var articles = map[string]struct{}{"the": {}, "a": {}}

func (m ClusterMention) nominal() bool {
	if !m.Mention.Linkable() {
		return false
	}
	if m.Mention.Head == nil {
		return true
	}
	lemma := m.Mention.Head.Lemma
	return strings.ToUpper(lemma) != lemma || strings.ToLower(lemma) == lemma
}

func entityWords(s string, into map[string]struct{}) {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, ok := articles[w]; ok {
			continue
		}
		into[w] = struct{}{}
	}
}

func sortMentions(mentions []ClusterMention) {
	slices.SortStableFunc(mentions, func(a, b ClusterMention) int {
		if a.Sentence != b.Sentence {
			return a.Sentence - b.Sentence
		}
		return a.Start - b.Start
	})
}

// GroupClusters collects mentions by cluster id. Clusters come back ordered
// by id.
func GroupClusters(mentions []ClusterMention) []Cluster {
	byID := make(map[int]*Cluster)
	var ids []int
	for _, m := range mentions {
		c, ok := byID[m.ClusterID]
		if !ok {
			c = &Cluster{ID: m.ClusterID}
			byID[m.ClusterID] = c
			ids = append(ids, m.ClusterID)
		}
		c.Mentions = append(c.Mentions, m)
	}
	slices.Sort(ids)

	out := make([]Cluster, 0, len(ids))
	for _, id := range ids {
		c := byID[id]
		sortMentions(c.Mentions)
		out = append(out, *c)
	}
	return out
}

// IsConjunction reports whether a nominal mention of the cluster is a
// coordination such as "Tom and Jerry". Such clusters name several
// entities and are never merged on a shared link.
func (c Cluster) IsConjunction() bool {
	for _, m := range c.Mentions {
		if m.nominal() && strings.Contains(m.Mention.Text, " and ") {
			return true
		}
	}
	return false
}

func (c Cluster) hasNonNominal() bool {
	for _, m := range c.Mentions {
		if !m.nominal() {
			return true
		}
	}
	return false
}

type part struct {
	nerTag   string
	entity   string
	mentions []ClusterMention
}

func (p *part) add(m ClusterMention) {
	p.mentions = append(p.mentions, m)
	if m.Linked {
		p.entity = m.EntityURI
	}
	if tag := m.Mention.NERTag(); tag != "" {
		p.nerTag = tag
	}
}

// urlCompatible reports whether m names the same words as the part, not
// counting articles. On success the part takes over m's entity.
func (p *part) urlCompatible(m ClusterMention) bool {
	own := make(map[string]struct{})
	for _, pm := range p.mentions {
		entityWords(pm.NEREntity, own)
	}
	cur := make(map[string]struct{})
	entityWords(m.NEREntity, cur)
	if len(cur) == 0 || len(cur) != len(own) {
		return false
	}
	for w := range cur {
		if _, ok := own[w]; !ok {
			return false
		}
	}
	p.entity = m.EntityURI
	return true
}

func (p *part) accepts(m ClusterMention) bool {
	if tag := m.Mention.NERTag(); tag != "" && p.nerTag == tag {
		return true
	}
	if !m.Linked || p.entity == "" {
		return false
	}
	return p.entity == m.EntityURI || p.urlCompatible(m)
}

// Split breaks a cluster whose mentions carry conflicting named-entity tags
// or entity links. Mentions are walked in document order; a mention with
// semantics joins the most recent part that shares its tag, its entity or
// the words of its entity, and otherwise opens a new part. The first part
// keeps the cluster id, every other part is numbered by its smallest
// mention id. Clusters holding a pronoun or another non-nominal mention are
// returned unchanged.
func Split(c Cluster) []Cluster {
	if len(c.Mentions) == 0 || c.hasNonNominal() {
		return []Cluster{c}
	}

	parts := []*part{{}}
	last := parts[0]
	for _, m := range c.Mentions {
		if !m.HasSemantics() || last.nerTag == "" {
			last.add(m)
			continue
		}
		added := false
		for i := len(parts) - 1; i >= 0; i-- {
			if parts[i].accepts(m) {
				parts[i].add(m)
				added = true
				break
			}
		}
		if !added {
			last = &part{}
			last.add(m)
			parts = append(parts, last)
		}
	}
	if len(parts) == 1 {
		return []Cluster{c}
	}

	out := make([]Cluster, 0, len(parts))
	for i, p := range parts {
		id := c.ID
		if i > 0 {
			id = p.mentions[0].ID
			for _, m := range p.mentions {
				id = min(id, m.ID)
			}
		}
		out = append(out, relabel(id, p.mentions))
	}
	logger.Debug("[Cluster] Split", "cluster", c.ID, "parts", len(out))
	return out
}

func relabel(id int, mentions []ClusterMention) Cluster {
	c := Cluster{ID: id, Mentions: make([]ClusterMention, len(mentions))}
	for i, m := range mentions {
		m.ClusterID = id
		c.Mentions[i] = m
	}
	sortMentions(c.Mentions)
	return c
}

// Merge joins clusters whose nominal mentions link to the same entity.
// Merging is transitive and every group lands in its smallest cluster id.
// Conjunction clusters take no part in merging.
func Merge(clusters []Cluster) []Cluster {
	parent := make(map[int]int, len(clusters))
	var find func(int) int
	find = func(id int) int {
		p, ok := parent[id]
		if !ok || p == id {
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}

	owner := make(map[string]int)
	for _, c := range clusters {
		if c.IsConjunction() {
			continue
		}
		for _, m := range c.Mentions {
			if !m.Linked || !m.nominal() {
				continue
			}
			other, ok := owner[m.EntityURI]
			if !ok {
				owner[m.EntityURI] = c.ID
				continue
			}
			a, b := find(other), find(c.ID)
			if a == b {
				continue
			}
			parent[max(a, b)] = min(a, b)
		}
	}

	grouped := make(map[int][]ClusterMention)
	var ids []int
	for _, c := range clusters {
		root := find(c.ID)
		if _, ok := grouped[root]; !ok {
			ids = append(ids, root)
		}
		grouped[root] = append(grouped[root], c.Mentions...)
	}
	slices.Sort(ids)

	out := make([]Cluster, 0, len(ids))
	for _, id := range ids {
		out = append(out, relabel(id, grouped[id]))
	}
	if merged := len(clusters) - len(out); merged > 0 {
		logger.Debug("[Cluster] Merged", "clusters", len(clusters), "merged", merged)
	}
	return out
}

// Regroup splits every cluster of a document and then merges the parts
// that share an entity. A split part whose derived id is already taken is
// numbered after the largest id in use.
func Regroup(clusters []Cluster) []Cluster {
	used := make(map[int]struct{}, len(clusters))
	next := 0
	for _, c := range clusters {
		used[c.ID] = struct{}{}
		next = max(next, c.ID)
	}

	var parts []Cluster
	for _, c := range clusters {
		split := Split(c)
		parts = append(parts, split[0])
		for _, p := range split[1:] {
			if _, taken := used[p.ID]; taken {
				next++
				p = relabel(next, p.Mentions)
			}
			used[p.ID] = struct{}{}
			next = max(next, p.ID)
			parts = append(parts, p)
		}
	}
	return Merge(parts)
}

// AnnotateClusters links every mention of a document and regroups its
// coreference clusters with the results.
func (a *Annotator) AnnotateClusters(ctx context.Context, mentions []ClusterMention) ([]Cluster, error) {
	in := make([]Mention, len(mentions))
	for i, m := range mentions {
		in[i] = m.Mention
	}
	annotations, err := a.Annotate(ctx, in)
	if err != nil {
		return nil, err
	}

	linked := make([]ClusterMention, len(mentions))
	for i, m := range mentions {
		m.Annotation = annotations[i]
		linked[i] = m
	}
	return Regroup(GroupClusters(linked)), nil
}

// WriteClusters writes one "cluster<TAB>mention<TAB>text<TAB>entity" row
// per mention, clusters in order, using "null" for unlinked mentions.
func WriteClusters(w io.Writer, clusters []Cluster) error {
	for _, c := range clusters {
		for _, m := range c.Mentions {
			entity := nullColumn
			if m.Linked {
				entity = m.EntityURI
			}
			if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", c.ID, m.ID, m.Mention.Text, entity); err != nil {
				return err
			}
		}
	}
	return nil
}
