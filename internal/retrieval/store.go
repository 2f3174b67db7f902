// Package retrieval ingests local documents into a vector store and runs
// similarity search over them. Two backends exist: a LocalRecall server
// reached over HTTP, and an embedded SQLite store.
package retrieval

import (
	"context"
	"path/filepath"
	"strings"
)

// Hit is one search result, already adapted from the backend's shape.
type Hit struct {
	Text   string
	Source string // originating file
	Score  float64
}

// Store is the retrieval collaborator contract.
type Store interface {
	Name() string
	// EnsureCollection creates a collection; an existing collection is
	// not an error.
	EnsureCollection(ctx context.Context, name string) error
	// Upload ingests one file. uploaded is false when the store recognised
	// the content and skipped it.
	Upload(ctx context.Context, collection, path string) (uploaded bool, err error)
	Search(ctx context.Context, collection, query string, limit int) ([]Hit, error)
	// DeduplicatesUploads reports whether re-uploading an unchanged file
	// is a no-op. Callers that re-ingest on every run should warn when it
	// is false.
	DeduplicatesUploads() bool
}

// supported document extensions, compared lower-cased
var supportedExt = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// IsSupportedDocument reports whether path has an ingestible extension.
func IsSupportedDocument(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}
