// Package pgx serves lookup indexes from PostgreSQL.
//
// All indexes share the lookup_documents table created by the migrations in
// /migrations. One row holds one value of one field of one document; a
// multi-valued field is several rows ordered by ord. Result order is doc_id
// order, which the loader assigns in the order documents were produced.
package pgx

import (
	"context"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"

	pgxv5 "github.com/jackc/pgx/v5"
)

const searchSQL = `
SELECT d.doc_id, d.field, d.value
FROM lookup_documents d
WHERE d.index_name = $1
  AND d.doc_id IN (
    SELECT m.doc_id
    FROM lookup_documents m
    WHERE m.index_name = $1 AND m.field = $2 AND m.value = $3
    GROUP BY m.doc_id
    ORDER BY m.doc_id
    LIMIT $4
  )
ORDER BY d.doc_id, d.field, d.ord`

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
}

// LookupDBIndex is one named index inside lookup_documents.
type LookupDBIndex struct {
	conn pgxIConn
	name string
}

// NewLookupDBIndex binds name (e.g. "uriindex") to conn. conn is usually a
// *pgxpool.Pool, which is safe for concurrent searches.
func NewLookupDBIndex(conn pgxIConn, name string) *LookupDBIndex {
	return &LookupDBIndex{conn: conn, name: name}
}

// NewLookupDBSet binds the three conventional index names to conn.
func NewLookupDBSet(conn pgxIConn) index.Set {
	return index.Set{
		URI:  NewLookupDBIndex(conn, index.URIIndex),
		Type: NewLookupDBIndex(conn, index.TypeIndex),
		Path: NewLookupDBIndex(conn, index.PathIndex),
	}
}

func (s *LookupDBIndex) Search(ctx context.Context, field, value string, maxHits int) ([]index.Document, error) {
	if maxHits <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, searchSQL, s.name, field, value, maxHits)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		docs    []index.Document
		current index.Document
		lastID  int64 = -1
	)
	for rows.Next() {
		var (
			docID int64
			name  string
			val   string
		)
		if err := rows.Scan(&docID, &name, &val); err != nil {
			return nil, err
		}
		if docID != lastID {
			current = make(index.Document)
			docs = append(docs, current)
			lastID = docID
		}
		current[name] = append(current[name], val)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
