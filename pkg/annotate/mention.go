package annotate

import (
	"strings"
)

// Head is the syntactic head of a mention as produced by the coreference
// engine's mention finder.
type Head struct {
	Lemma  string `json:"lemma"`
	POS    string `json:"pos"`
	NERTag string `json:"ner_tag,omitempty"`
}

// Mention is a text span to be linked. Head is nil when the upstream
// pipeline supplied no head-word data.
type Mention struct {
	Text string `json:"text" validate:"required"`
	Head *Head  `json:"head,omitempty"`
}

var nounTags = map[string]struct{}{
	"NN":  {},
	"NNS": {},
	"NNP": {},
}

var personalForms = map[string]struct{}{
	"my":     {},
	"mine":   {},
	"i":      {},
	"he":     {},
	"theirs": {},
	"you":    {},
	"itself": {},
}

// Linkable reports whether the mention should be sent to the linker.
// Pronouns and mentions whose head is not a noun never name an entity.
// Without head data only the pronoun check applies.
func (m Mention) Linkable() bool {
	if strings.TrimSpace(m.Text) == "" {
		return false
	}
	if _, ok := personalForms[strings.ToLower(m.Text)]; ok {
		return false
	}
	if m.Head == nil {
		return true
	}
	_, noun := nounTags[m.Head.POS]
	return noun
}

// NERTag returns the head's named-entity tag, or "" when there is none.
// The CoNLL outside tag "O" counts as none.
func (m Mention) NERTag() string {
	if m.Head == nil || m.Head.NERTag == "O" {
		return ""
	}
	return m.Head.NERTag
}

// ShortType renders a type URI as a prefixed DBpedia label, e.g.
// http://dbpedia.org/ontology/Person becomes dbpedia:Person.
func ShortType(typeURI string) string {
	if typeURI == "" {
		return ""
	}
	i := strings.LastIndex(typeURI, "/")
	return "dbpedia:" + typeURI[i+1:]
}
