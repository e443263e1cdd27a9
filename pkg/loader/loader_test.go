package loader

import (
	"context"
	"io"
	"strings"
	"testing"
)

type stubLoader struct {
	name string
	got  string
}

func (s *stubLoader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.got = path
	return io.NopCloser(strings.NewReader(s.name)), nil
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantParsed bool
	}{
		{"s3://dbpedia/redirects_transitive_en.nt", "dbpedia", "redirects_transitive_en.nt", true},
		{"s3://dbpedia/en/2016/disambiguations_en.nt", "dbpedia", "en/2016/disambiguations_en.nt", true},
		{"s3://dbpedia", "", "", false},
		{"s3://dbpedia/", "", "", false},
		{"/data/redirects.nt", "", "", false},
	}
	for _, tc := range tests {
		bucket, key, ok := ParseS3Path(tc.in)
		if ok != tc.wantParsed || bucket != tc.bucket || key != tc.key {
			t.Fatalf("ParseS3Path(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, bucket, key, ok, tc.bucket, tc.key, tc.wantParsed)
		}
	}
}

func TestRoutingLoader_DispatchesByScheme(t *testing.T) {
	local := &stubLoader{name: "local"}
	remote := &stubLoader{name: "remote"}
	r := RoutingLoader{Local: local, S3: remote}

	rc, err := r.Open(context.Background(), "s3://bucket/key.nt")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "remote" || remote.got != "s3://bucket/key.nt" {
		t.Fatalf("expected s3 loader to serve s3 path, got %q", body)
	}

	rc, err = r.Open(context.Background(), "/tmp/key.nt")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(rc)
	if string(body) != "local" {
		t.Fatalf("expected local loader to serve plain path, got %q", body)
	}
}

func TestRoutingLoader_MissingS3(t *testing.T) {
	r := RoutingLoader{Local: &stubLoader{}}
	if _, err := r.Open(context.Background(), "s3://bucket/key"); err == nil {
		t.Fatal("expected error without s3 loader, got nil")
	}
}
