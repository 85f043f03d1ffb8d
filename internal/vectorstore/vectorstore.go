// Package vectorstore implements the Vector Store (C3): a persisted set of
// (symbol-id, vector, metadata) records with a top-k similarity query. The
// only backend is a single JSON file guarded by an advisory lock so a single
// writer holds the store at a time; there is no Qdrant-backed implementation.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/embedding"
)

// Match is a single similarity query hit.
type Match struct {
	SymbolID string
	Score    float64
	Metadata map[string]string
}

// Filter narrows a QueryTopK call. ExcludeFile is used by the cross-repo
// Duplicate Detector to avoid matching a PR symbol against itself when the
// index also contains the PR's own (pre-PR) version of the file.
type Filter struct {
	Scope       string // repository/branch scope key
	ExcludeFile string
}

// Store is the contract every backend implements (§4.3).
//go:generate mockgen -destination=../../mocks/mock_vectorstore.go -package=mocks github.com/sevigo/pr-warden/internal/vectorstore Store

type Store interface {
	Upsert(ctx context.Context, scope string, embeddings []core.Embedding) error
	QueryTopK(ctx context.Context, scope string, vector []float64, k int, filter Filter) ([]Match, error)
	GetByFile(ctx context.Context, scope, file string) ([]core.Embedding, error)
	Clear(ctx context.Context, scope string) error
}

// record is the on-disk representation of a single embedding within a scope.
type record struct {
	SymbolID string            `json:"symbolId"`
	Vector   []float64         `json:"vector"`
	Metadata map[string]string `json:"metadata"`
}

// fileDoc is the whole JSON file contract: a map of scope ("repo/branch") to
// its embedding records, so multiple repositories/branches can share one
// store file without colliding.
type fileDoc struct {
	Dim    int                 `json:"dim"`
	Scopes map[string][]record `json:"scopes"`
}

// FileStore is the primary backend: a JSON file at a configured path,
// read once per run (snapshot semantics for readers) and written back under
// an exclusive advisory lock file so concurrent invocations don't corrupt
// it. A missing or corrupt file is treated as empty rather than fatal (§3,
// §7 "provider-degraded").
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (without yet reading) the JSON vector store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// lockWaitLimit bounds how long withLock waits for another writer's lock.
const lockWaitLimit = 10 * time.Second

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// withLock takes the advisory file lock for the duration of fn, creating the
// lock file with O_EXCL so a concurrent writer blocks rather than racing.
// This is host-local cooperative locking (mirrors the donor's single-writer
// expectation); it is not a distributed lock.
func (s *FileStore) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(lockWaitLimit)
	for {
		f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			defer func() {
				f.Close()
				os.Remove(s.lockPath())
			}()
			break
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to acquire vector store lock: %w", err)
		}
		// Another writer is mid-write: wait for it. A stale lock from a
		// crashed prior run is possible but the spec treats a corrupt store
		// as recoverable, so after lockWaitLimit we proceed without the lock.
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fn()
}

func (s *FileStore) load() (*fileDoc, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDoc{Scopes: map[string][]record{}}, nil
		}
		return &fileDoc{Scopes: map[string][]record{}}, fmt.Errorf("vector store unreadable, treating as empty: %w", err)
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return &fileDoc{Scopes: map[string][]record{}}, fmt.Errorf("vector store corrupt, treating as empty: %w", err)
	}
	if doc.Scopes == nil {
		doc.Scopes = map[string][]record{}
	}
	return &doc, nil
}

func (s *FileStore) save(doc *fileDoc) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil && filepath.Dir(s.path) != "." {
		return fmt.Errorf("failed to create vector store directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vector store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write vector store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Upsert replaces prior entries for the given scope with the supplied
// embeddings, enforcing the fixed-dimension-per-run contract (§4.2) before
// committing anything.
func (s *FileStore) Upsert(_ context.Context, scope string, embs []core.Embedding) error {
	if len(embs) == 0 {
		return nil
	}
	dim := len(embs[0].Vector)
	for _, e := range embs {
		if len(e.Vector) != dim {
			return fmt.Errorf("mixed embedding dimensions in upsert batch: %d vs %d", len(e.Vector), dim)
		}
	}

	return s.withLock(func() error {
		doc, err := s.load()
		if err != nil {
			// Corrupt store: start clean rather than abort the indexing run.
			doc = &fileDoc{Scopes: map[string][]record{}}
		}
		if doc.Dim != 0 && doc.Dim != dim {
			return fmt.Errorf("vector store dimension %d does not match incoming batch dimension %d", doc.Dim, dim)
		}
		doc.Dim = dim

		recs := make([]record, 0, len(embs))
		for _, e := range embs {
			recs = append(recs, record{SymbolID: e.SymbolID, Vector: e.Vector, Metadata: e.Metadata})
		}
		doc.Scopes[scope] = recs
		return s.save(doc)
	})
}

// QueryTopK loads a fresh snapshot and does a brute-force cosine scan, which
// is adequate for the symbol counts a single-repo index realistically holds
// and keeps the file contract dependency-free.
func (s *FileStore) QueryTopK(_ context.Context, scope string, vector []float64, k int, filter Filter) ([]Match, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	recs := doc.Scopes[scope]

	matches := make([]Match, 0, len(recs))
	for _, r := range recs {
		if filter.ExcludeFile != "" && r.Metadata["file"] == filter.ExcludeFile {
			continue
		}
		score := embedding.Cosine(vector, r.Vector)
		matches = append(matches, Match{SymbolID: r.SymbolID, Score: score, Metadata: r.Metadata})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Metadata["file"] < matches[j].Metadata["file"]
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// GetByFile returns every embedding currently stored for a file, used by the
// Indexer to decide whether a file's symbols changed since the last index.
func (s *FileStore) GetByFile(_ context.Context, scope, file string) ([]core.Embedding, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []core.Embedding
	for _, r := range doc.Scopes[scope] {
		if r.Metadata["file"] == file {
			out = append(out, core.Embedding{SymbolID: r.SymbolID, Vector: r.Vector, Metadata: r.Metadata})
		}
	}
	return out, nil
}

// Clear removes every record for a scope, used before a full re-index so
// re-indexing the same (repo, branch) is idempotent rather than additive.
func (s *FileStore) Clear(_ context.Context, scope string) error {
	return s.withLock(func() error {
		doc, err := s.load()
		if err != nil {
			doc = &fileDoc{Scopes: map[string][]record{}}
		}
		delete(doc.Scopes, scope)
		return s.save(doc)
	})
}

// ScopeKey derives the (repository, branch) scope key the store is keyed by.
func ScopeKey(repo, branch string) string {
	return strings.ToLower(repo) + "@" + branch
}
