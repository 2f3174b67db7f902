package retrieval

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"skyscope/internal/embedding"
	"skyscope/internal/logging"
)

// EmbeddedStore is a single-file SQLite retrieval store. Documents are
// deduplicated per collection by SHA-256 content digest. When an embedding
// engine is attached chunks carry vectors and search ranks by cosine
// similarity; otherwise search falls back to keyword scoring in SQL.
type EmbeddedStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
	engine embedding.Engine
}

// NewEmbeddedStore opens (or creates) the database at path. engine may be nil.
func NewEmbeddedStore(path string, engine embedding.Engine) (*EmbeddedStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	s := &EmbeddedStore{db: db, dbPath: path, engine: engine}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *EmbeddedStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL REFERENCES collections(name),
		source TEXT NOT NULL,
		digest TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(collection, digest)
	);
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id INTEGER NOT NULL REFERENCES documents(id),
		ordinal INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create retrieval tables: %w", err)
	}
	return nil
}

// Name returns the backend id.
func (s *EmbeddedStore) Name() string { return "embedded" }

// DeduplicatesUploads is true: identical content is stored once per collection.
func (s *EmbeddedStore) DeduplicatesUploads() bool { return true }

// Close releases the database handle.
func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// EnsureCollection creates the collection if it does not exist.
func (s *EmbeddedStore) EnsureCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO collections(name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// Upload ingests path unless a document with the same digest is already
// stored in the collection.
func (s *EmbeddedStore) Upload(ctx context.Context, collection, path string) (bool, error) {
	raw, text, err := readDocument(path)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM collections WHERE name = ?)`, collection).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup collection %q: %w", collection, err)
	}
	if !exists {
		return false, fmt.Errorf("collection %q does not exist", collection)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE collection = ? AND digest = ?`, collection, digest).Scan(&id)
	if err == nil {
		logging.RetrievalDebug("skipping %s: already stored", filepath.Base(path))
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup digest: %w", err)
	}

	chunks := chunkText(text, defaultChunkRunes)
	vectors := s.embedChunks(ctx, chunks)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO documents(collection, source, digest) VALUES (?, ?, ?)`,
		collection, filepath.Base(path), digest)
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}

	for i, chunk := range chunks {
		var vec any
		if vectors != nil {
			data, _ := json.Marshal(vectors[i])
			vec = string(data)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks(document_id, ordinal, content, embedding) VALUES (?, ?, ?, ?)`,
			docID, i, chunk, vec); err != nil {
			return false, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit ingest: %w", err)
	}

	logging.Retrieval("ingested %s into %q (%d chunks, vectors=%v)", filepath.Base(path), collection, len(chunks), vectors != nil)
	return true, nil
}

// embedChunks returns one vector per chunk, or nil when no engine is
// attached or embedding fails. Chunks without vectors remain keyword
// searchable.
func (s *EmbeddedStore) embedChunks(ctx context.Context, chunks []string) [][]float32 {
	if s.engine == nil || len(chunks) == 0 {
		return nil
	}
	vectors, err := s.engine.EmbedBatch(ctx, chunks)
	if err != nil {
		logging.RetrievalWarn("embedding failed, storing chunks without vectors: %v", err)
		return nil
	}
	if len(vectors) != len(chunks) {
		logging.RetrievalWarn("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
		return nil
	}
	return vectors
}

// Search ranks stored chunks against query.
func (s *EmbeddedStore) Search(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	if s.engine != nil {
		hits, err := s.vectorSearch(ctx, collection, query, limit)
		if err == nil && len(hits) > 0 {
			return hits, nil
		}
		if err != nil {
			logging.RetrievalWarn("vector search failed, using keyword scoring: %v", err)
		}
	}
	return s.keywordSearch(ctx, collection, query, limit)
}

func (s *EmbeddedStore) vectorSearch(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	qvec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.content, d.source, c.embedding
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE d.collection = ? AND c.embedding IS NOT NULL
		ORDER BY c.id`, collection)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	var (
		texts   []string
		sources []string
		corpus  [][]float32
	)
	for rows.Next() {
		var content, source, raw string
		if err := rows.Scan(&content, &source, &raw); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			continue
		}
		texts = append(texts, content)
		sources = append(sources, source)
		corpus = append(corpus, vec)
	}
	err = rows.Err()
	rows.Close()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	ranked := embedding.FindTopK(qvec, corpus, limit)
	hits := make([]Hit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, Hit{Text: texts[r.Index], Source: sources[r.Index], Score: r.Similarity})
	}
	return hits, nil
}

func (s *EmbeddedStore) keywordSearch(ctx context.Context, collection, query string, limit int) ([]Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, source, score FROM (
			SELECT c.content AS content, d.source AS source, c.id AS id,
			       keyword_score(c.content, ?) AS score
			FROM chunks c JOIN documents d ON d.id = c.document_id
			WHERE d.collection = ?
		)
		WHERE score > 0
		ORDER BY score DESC, id ASC
		LIMIT ?`, query, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Text, &h.Source, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}
