package pgx

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	docID int64
	field string
	value string
}

type fakeRows struct {
	rows   []fakeRow
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgxv5.Conn                            { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != 3 {
		return fmt.Errorf("expected 3 destinations, got %d", len(dest))
	}
	row := r.rows[r.pos-1]
	*dest[0].(*int64) = row.docID
	*dest[1].(*string) = row.field
	*dest[2].(*string) = row.value
	return nil
}

type fakeConn struct {
	rows    *fakeRows
	err     error
	gotArgs []any
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgxv5.Rows, error) {
	c.gotArgs = args
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func TestLookupDBIndex_GroupsRowsIntoDocuments(t *testing.T) {
	rows := &fakeRows{rows: []fakeRow{
		{1, "labelex", "donald trump"},
		{1, "uri", "E1"},
		{4, "labelex", "donald trump"},
		{4, "uri", "E2"},
	}}
	conn := &fakeConn{rows: rows}

	docs, err := NewLookupDBIndex(conn, "uriindex").Search(context.Background(), "labelex", "donald trump", 100)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Get("uri") != "E1" || docs[1].Get("uri") != "E2" {
		t.Fatalf("unexpected documents: %v", docs)
	}
	if !reflect.DeepEqual(conn.gotArgs, []any{"uriindex", "labelex", "donald trump", 100}) {
		t.Fatalf("unexpected query args: %v", conn.gotArgs)
	}
	if !rows.closed {
		t.Fatal("expected rows to be closed")
	}
}

func TestLookupDBIndex_MultiValuedField(t *testing.T) {
	rows := &fakeRows{rows: []fakeRow{
		{7, "type", "A"},
		{7, "type", "B"},
		{7, "uri", "E"},
	}}
	docs, err := NewLookupDBIndex(&fakeConn{rows: rows}, "typeindex").Search(context.Background(), "uri", "E", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || !reflect.DeepEqual(docs[0].Values("type"), []string{"A", "B"}) {
		t.Fatalf("unexpected documents: %v", docs)
	}
}

func TestLookupDBIndex_PropagatesQueryError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewLookupDBIndex(&fakeConn{err: boom}, "pathindex").Search(context.Background(), "uri", "T", 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error unchanged, got %v", err)
	}
}

func TestLookupDBIndex_PropagatesRowsError(t *testing.T) {
	boom := errors.New("read failed")
	rows := &fakeRows{err: boom}
	_, err := NewLookupDBIndex(&fakeConn{rows: rows}, "pathindex").Search(context.Background(), "uri", "T", 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected rows error, got %v", err)
	}
}

func TestLookupDBIndex_NoHits(t *testing.T) {
	docs, err := NewLookupDBIndex(&fakeConn{rows: &fakeRows{}}, "uriindex").Search(context.Background(), "labelex", "nobody", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %v", docs)
	}
}

func TestNewLookupDBSet_Names(t *testing.T) {
	set := NewLookupDBSet(&fakeConn{})
	if set.URI.(*LookupDBIndex).name != "uriindex" ||
		set.Type.(*LookupDBIndex).name != "typeindex" ||
		set.Path.(*LookupDBIndex).name != "pathindex" {
		t.Fatalf("unexpected index names: %+v", set)
	}
}
