package database

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/caovinh/manual-rag-be/types"
)

// Store is the SQLite-backed chunk store. Two tables hold all durable state:
// documents and chunks, plus an FTS5 index over chunk text for keyword
// search. WAL mode lets query-path readers proceed while a batch ingest
// writes.
type Store struct {
	db   *sql.DB
	path string
}

var _ ChunkStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL UNIQUE,
	ingested_at INTEGER NOT NULL,
	page_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL,
	page INTEGER NOT NULL,
	ordinal INTEGER NOT NULL,
	text TEXT NOT NULL,
	image_text TEXT NOT NULL DEFAULT '',
	embedding BLOB,
	FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE,
	UNIQUE(document_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	text,
	content='',
	contentless_delete=1
);
`

// NewStore opens (or creates) the manuals database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "manuals.db")

	// WAL mode for concurrent readers during ingestion writes. Pragmas go in
	// the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PutDocument replaces any prior document with the same filename and writes
// the new document plus all of its chunks in one transaction. Either every
// row lands or none do. Returns the new document id.
func (s *Store) PutDocument(ctx context.Context, doc *types.Document, chunks []types.Chunk) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Delete-then-insert keeps re-ingestion idempotent.
	var priorID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE filename = ?", doc.Filename).Scan(&priorID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return 0, fmt.Errorf("looking up prior document: %w", err)
	default:
		if err := deleteDocumentTx(ctx, tx, priorID); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO documents (filename, ingested_at, page_count) VALUES (?, ?, ?)",
		doc.Filename, doc.IngestedAt, doc.PageCount)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, page, ordinal, text, image_text, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks_fts (rowid, text) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, chunk := range chunks {
		res, err := stmt.ExecContext(ctx, docID, chunk.Page, chunk.Ordinal,
			chunk.Text, chunk.ImageText, float32SliceToBytes(chunk.Embedding))
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", chunk.Ordinal, err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading chunk id: %w", err)
		}

		indexed := chunk.Text
		if chunk.ImageText != "" {
			indexed += "\n" + chunk.ImageText
		}
		if _, err := ftsStmt.ExecContext(ctx, chunkID, indexed); err != nil {
			return 0, fmt.Errorf("indexing chunk %d: %w", chunk.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	doc.ID = docID
	return docID, nil
}

// GetChunksByDocument returns a document's chunks in ordinal order.
func (s *Store) GetChunksByDocument(ctx context.Context, documentID int64) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, page, ordinal, text, image_text, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*types.Document, error) {
	var doc types.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, ingested_at, page_count FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Filename, &doc.IngestedAt, &doc.PageCount)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// AllDocuments lists every ingested document.
func (s *Store) AllDocuments(ctx context.Context) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, ingested_at, page_count FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.IngestedAt, &doc.PageCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document, its chunks and their index entries.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteDocumentTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// deleteDocumentTx removes a document inside an open transaction. The FTS
// index has no foreign key to cascade through, so its rows go first.
func deleteDocumentTx(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE document_id = ?)", id)
	if err != nil {
		return fmt.Errorf("deleting fts rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// OrphanChunks returns ids of chunks whose document row is missing. Foreign
// keys make this unreachable through PutDocument, but the integrity checker
// still verifies it against databases written by other tools.
func (s *Store) OrphanChunks(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id FROM chunks c
		LEFT JOIN documents d ON d.id = c.document_id
		WHERE d.id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("querying orphan chunks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning orphan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orphan chunks: %w", err)
	}
	return ids, nil
}

// SearchByEmbedding ranks all embedded chunks by cosine similarity against
// the query vector. The corpus is a handful of manuals, so a brute-force
// scan is adequate.
func (s *Store) SearchByEmbedding(ctx context.Context, query []float32, limit int) ([]types.ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.page, c.ordinal, c.text, c.image_text, c.embedding, d.filename
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL AND length(c.embedding) > 0
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	var scored []types.ScoredChunk
	for rows.Next() {
		var chunk types.Chunk
		var blob []byte
		var filename string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Page, &chunk.Ordinal,
			&chunk.Text, &chunk.ImageText, &blob, &filename); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(blob)
		scored = append(scored, types.ScoredChunk{
			Chunk:    chunk,
			Document: filename,
			Score:    cosineSimilarity(query, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func scanChunk(rows *sql.Rows) (types.Chunk, error) {
	var chunk types.Chunk
	var blob []byte
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Page, &chunk.Ordinal,
		&chunk.Text, &chunk.ImageText, &blob); err != nil {
		return types.Chunk{}, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(blob)
	return chunk, nil
}

// float32SliceToBytes encodes a vector as little-endian float32 bytes.
// A nil or empty vector encodes as nil so the column stays NULL.
func float32SliceToBytes(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func bytesToFloat32Slice(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
