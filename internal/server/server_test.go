package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/kiwi-linker/internal/metrics"
	mid "github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/index/memory"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/linker"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/relations"
)

const (
	obama     = "http://dbpedia.org/resource/Barack_Obama"
	obamaDab  = "http://dbpedia.org/resource/Obama_(disambiguation)"
	person    = "http://dbpedia.org/ontology/Person"
	president = "http://dbpedia.org/ontology/President"
)

type brokenIndex struct{}

func (brokenIndex) Search(ctx context.Context, field, value string, maxHits int) ([]index.Document, error) {
	return nil, errors.New("connection reset")
}

func newTestApp(t *testing.T) *mid.App {
	t.Helper()
	uri := memory.NewMemoryIndex(
		index.Document{"labelex": {"obama"}, "uri": {obamaDab}},
		index.Document{"labelex": {"obama"}, "uri": {"http://dbpedia.org/resource/Obama_Barack"}},
	)
	types := memory.NewMemoryIndex(
		index.Document{"uri": {obama}, "type": {person, president}},
	)
	path := memory.NewMemoryIndex(
		index.Document{"uri": {person}, "level": {"2"}},
		index.Document{"uri": {president}, "level": {"4"}},
	)
	redirects := relations.FromMap(map[string]string{"http://dbpedia.org/resource/Obama_Barack": obama})
	disambiguations := relations.FromMap(map[string]string{obamaDab: obama})

	l, err := linker.New(index.Set{URI: uri, Type: types, Path: path}, redirects, disambiguations)
	if err != nil {
		t.Fatal(err)
	}
	return &mid.App{
		Linker:    l,
		Annotator: annotate.NewAnnotator(l, 2),
		Metrics:   metrics.New(),
	}
}

func do(t *testing.T, app *mid.App, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	NewEcho(app).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestLink_RedirectAndDisambiguation(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/link", `{"mention":"Obama"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	if out["entity"] != obama || out["found"] != true {
		t.Fatalf("expected %s found, got %v", obama, out)
	}
}

func TestLink_NotFound(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/link", `{"mention":"Atlantis"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	if out["found"] != false {
		t.Fatalf("expected not found, got %v", out)
	}
	if _, ok := out["entity"]; ok {
		t.Fatalf("expected no entity, got %v", out["entity"])
	}
}

func TestLink_MissingMention(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/link", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLink_IndexFailure(t *testing.T) {
	l, err := linker.New(index.Set{URI: brokenIndex{}, Type: brokenIndex{}, Path: brokenIndex{}}, relations.Table{}, relations.Table{})
	if err != nil {
		t.Fatal(err)
	}
	app := &mid.App{Linker: l, Annotator: annotate.NewAnnotator(l, 1)}

	rec := do(t, app, http.MethodPost, "/api/link", `{"mention":"Obama"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestTypes(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodGet, "/api/entities/types?uri="+url.QueryEscape(obama), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	types, _ := out["types"].([]any)
	if len(types) != 2 || types[0] != person || types[1] != president {
		t.Fatalf("expected [Person President], got %v", out["types"])
	}
}

func TestTypes_UnknownEntity(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodGet, "/api/entities/types?uri=E9", "")
	out := decode(t, rec)
	if out["found"] != false {
		t.Fatalf("expected not found, got %v", out)
	}
	if types, ok := out["types"].([]any); !ok || len(types) != 0 {
		t.Fatalf("expected empty types array, got %v", out["types"])
	}
}

func TestTypes_MissingURI(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodGet, "/api/entities/types", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeepestType(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodGet, "/api/entities/deepest-type?uri="+url.QueryEscape(obama), "")
	out := decode(t, rec)
	if out["type"] != president || out["found"] != true {
		t.Fatalf("expected %s, got %v", president, out)
	}
}

func TestAnnotate(t *testing.T) {
	body := `{"mentions":[{"text":"Obama","head":{"lemma":"obama","pos":"NNP","ner_tag":"PERSON"}},{"text":"he"}]}`
	rec := do(t, newTestApp(t), http.MethodPost, "/api/annotate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Annotations []annotate.Annotation `json:"annotations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(out.Annotations))
	}
	if out.Annotations[0].EntityURI != obama || out.Annotations[0].ShortType != "dbpedia:President" {
		t.Fatalf("unexpected first annotation: %+v", out.Annotations[0])
	}
	if out.Annotations[1].Linked {
		t.Fatalf("expected pronoun unlinked, got %+v", out.Annotations[1])
	}
}

func TestAnnotate_EmptyBatch(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/annotate", `{"mentions":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnnotate_MentionWithoutText(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/annotate", `{"mentions":[{"text":""}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestClusters_MergesOnSharedEntity(t *testing.T) {
	body := `{"mentions":[
		{"id":1,"cluster_id":1,"sentence":0,"start":0,"mention":{"text":"Obama","head":{"lemma":"obama","pos":"NNP","ner_tag":"PERSON"}}},
		{"id":6,"cluster_id":6,"sentence":2,"start":0,"mention":{"text":"Obama","head":{"lemma":"obama","pos":"NNP"}}},
		{"id":8,"cluster_id":8,"sentence":3,"start":2,"mention":{"text":"Atlantis","head":{"lemma":"atlantis","pos":"NNP"}}}
	]}`
	rec := do(t, newTestApp(t), http.MethodPost, "/api/clusters", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Clusters []annotate.Cluster `json:"clusters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %+v", out.Clusters)
	}
	first := out.Clusters[0]
	if first.ID != 1 || len(first.Mentions) != 2 || first.Mentions[1].ID != 6 || first.Mentions[1].ClusterID != 1 {
		t.Fatalf("expected mention 6 merged into cluster 1, got %+v", first)
	}
	if first.Mentions[0].EntityURI != obama {
		t.Fatalf("expected %s, got %+v", obama, first.Mentions[0])
	}
	if out.Clusters[1].ID != 8 {
		t.Fatalf("expected cluster 8 untouched, got %+v", out.Clusters[1])
	}
}

func TestClusters_MentionWithoutText(t *testing.T) {
	rec := do(t, newTestApp(t), http.MethodPost, "/api/clusters", `{"mentions":[{"id":1,"cluster_id":1,"mention":{"text":""}}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuth_RequiredWhenMasterKeySet(t *testing.T) {
	app := newTestApp(t)
	app.MasterAPIKey = "secret"

	rec := do(t, app, http.MethodPost, "/api/link", `{"mention":"Obama"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/link", strings.NewReader(`{"mention":"Obama"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	NewEcho(app).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	do(t, app, http.MethodPost, "/api/link", `{"mention":"Obama"}`)

	rec := do(t, app, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `linker_lookups_total{operation="link",outcome="found"} 1`) {
		t.Fatalf("expected link counter in metrics, got:\n%s", rec.Body.String())
	}
}
