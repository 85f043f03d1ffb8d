// Package indexer implements the Codebase Indexer (C6): walking a branch via
// the Platform Client's tree listing, extracting symbols, embedding them,
// and upserting into the Vector Store. Re-indexing the same (repo, branch) is
// idempotent: a full Clear precedes the Upsert so stale entries never linger.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/embedding"
	"github.com/sevigo/pr-warden/internal/extractor"
	"github.com/sevigo/pr-warden/internal/platform"
	"github.com/sevigo/pr-warden/internal/vectorstore"
)

// supportedExt mirrors extractor's language table; only files extractor can
// produce symbols for are worth fetching and embedding.
var supportedExt = map[string]struct{}{
	".go": {}, ".js": {}, ".jsx": {}, ".mjs": {}, ".cjs": {}, ".ts": {}, ".tsx": {},
	".py": {}, ".rs": {}, ".java": {}, ".c": {}, ".h": {}, ".cpp": {}, ".cc": {}, ".hpp": {},
	".rb": {}, ".php": {}, ".cs": {}, ".swift": {}, ".kt": {}, ".kts": {}, ".scala": {},
}

// Stats summarizes a single index run; IndexBranch logs it when the run
// completes and the `index` CLI command prints it.
type Stats struct {
	FilesScanned  int
	FilesIndexed  int
	SymbolsStored int
	FilesFailed   int
}

// Indexer is the C6 contract: enumerate, extract, embed, store.
type Indexer interface {
	IndexBranch(ctx context.Context, repo, branch string) (Stats, error)
}

type indexer struct {
	platform    platform.Client
	extractor   extractor.Extractor
	embedder    embedding.Client
	store       vectorstore.Store
	logger      *slog.Logger
	concurrency int
}

// New builds the Codebase Indexer. concurrency bounds how many files are
// fetched+extracted+embedded at once (default 4 per §4.6/§5, since the
// platform tree/file endpoints tolerate concurrency unlike the LLM Reviewer).
func New(p platform.Client, ex extractor.Extractor, emb embedding.Client, store vectorstore.Store, logger *slog.Logger, concurrency int) Indexer {
	if concurrency < 1 {
		concurrency = 4
	}
	return &indexer{platform: p, extractor: ex, embedder: emb, store: store, logger: logger, concurrency: concurrency}
}

func (idx *indexer) IndexBranch(ctx context.Context, repo, branch string) (Stats, error) {
	paths, err := idx.platform.GetTree(ctx, repo, branch)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list tree for %s@%s: %w", repo, branch, err)
	}

	var files []string
	for _, p := range paths {
		if _, ok := supportedExt[strings.ToLower(filepath.Ext(p))]; ok {
			files = append(files, p)
		}
	}

	stats := Stats{FilesScanned: len(files)}
	scope := vectorstore.ScopeKey(repo, branch)

	if err := idx.store.Clear(ctx, scope); err != nil {
		idx.logger.Warn("failed to clear prior index entries, proceeding anyway", "scope", scope, "error", err)
	}

	var (
		mu      sync.Mutex
		allEmbs []core.Embedding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	processed := 0
	for _, path := range files {
		path := path
		g.Go(func() error {
			embs, ferr := idx.indexFile(gctx, repo, branch, path)
			mu.Lock()
			defer mu.Unlock()
			processed++
			if ferr != nil {
				idx.logger.Warn("failed to index file, skipping", "file", path, "error", ferr)
				stats.FilesFailed++
				return nil // per-file failure is non-fatal to the index run
			}
			allEmbs = append(allEmbs, embs...)
			stats.FilesIndexed++
			stats.SymbolsStored += len(embs)
			if processed%25 == 0 || processed == len(files) {
				idx.logger.Info("indexing progress", "repo", repo, "branch", branch, "processed", processed, "total", len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("index run for %s@%s aborted: %w", repo, branch, err)
	}

	if len(allEmbs) > 0 {
		if err := idx.store.Upsert(ctx, scope, allEmbs); err != nil {
			return stats, fmt.Errorf("failed to persist index for %s@%s: %w", repo, branch, err)
		}
	}

	idx.logger.Info("index run complete", "repo", repo, "branch", branch,
		"files_scanned", stats.FilesScanned, "files_indexed", stats.FilesIndexed,
		"symbols_stored", stats.SymbolsStored, "files_failed", stats.FilesFailed)
	return stats, nil
}

func (idx *indexer) indexFile(ctx context.Context, repo, branch, path string) ([]core.Embedding, error) {
	content, err := idx.platform.GetFile(ctx, repo, branch, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file content: %w", err)
	}

	parsed, err := idx.extractor.Extract(repo, branch, path, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract symbols: %w", err)
	}

	embs := make([]core.Embedding, 0, len(parsed.Symbols))
	for _, sym := range parsed.Symbols {
		vec, eerr := idx.embedder.Embed(ctx, sym.Body)
		if eerr != nil {
			return nil, fmt.Errorf("failed to embed symbol %s: %w", sym.Name, eerr)
		}
		embs = append(embs, core.Embedding{
			SymbolID: sym.ID(),
			Vector:   vec,
			Metadata: map[string]string{
				"file": sym.FilePath,
				"name": sym.Name,
				"kind": string(sym.Kind),
				"line": fmt.Sprintf("%d", sym.StartLine),
			},
		})
	}
	return embs, nil
}
