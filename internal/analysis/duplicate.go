package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/embedding"
	"github.com/sevigo/pr-warden/internal/vectorstore"
)

// DuplicateDetector is the Duplicate Detector (C7): within-PR pairwise
// similarity over PR symbols, and PR-vs-index cross-repo similarity search.
type DuplicateDetector interface {
	WithinPR(ctx context.Context, prSymbols []core.Symbol) ([]core.DuplicateMatch, error)
	CrossRepo(ctx context.Context, prSymbols []core.Symbol, scope string) ([]core.DuplicateMatch, error)
}

type duplicateDetector struct {
	embedder  embedding.Client
	store     vectorstore.Store
	threshold float64
}

// NewDuplicateDetector builds the detector. threshold is SIMILARITY_THRESHOLD
// (default 0.82, §6); store may be nil, in which case CrossRepo is a no-op
// (the caller disables cross-repo analysis rather than aborting, per §4.3's
// "missing/corrupt store is treated as empty").
func NewDuplicateDetector(embedder embedding.Client, store vectorstore.Store, threshold float64) DuplicateDetector {
	if threshold <= 0 {
		threshold = 0.82
	}
	return &duplicateDetector{embedder: embedder, store: store, threshold: threshold}
}

// skipPair applies the hard filtering rules shared by both modes: both
// symbols in test files, either name "unknown" (already excluded upstream by
// the extractor, checked again defensively), either file non-source
// documentation, or the symbol matched against itself.
func skipPair(a, b core.Symbol) bool {
	if a.FilePath == b.FilePath && a.Name == b.Name && a.StartLine == b.StartLine {
		return true
	}
	if core.IsTestFile(a.FilePath) && core.IsTestFile(b.FilePath) {
		return true
	}
	if a.Name == "unknown" || b.Name == "unknown" {
		return true
	}
	if isDocFile(a.FilePath) || isDocFile(b.FilePath) {
		return true
	}
	return false
}

// WithinPR compares every pair of PR symbols whose kind aligns, embedding
// both bodies when an embedder is available and falling back to token
// Jaccard otherwise (§4.7).
func (d *duplicateDetector) WithinPR(ctx context.Context, prSymbols []core.Symbol) ([]core.DuplicateMatch, error) {
	var matches []core.DuplicateMatch

	vectors := make(map[string][]float64)
	if d.embedder != nil {
		for _, s := range prSymbols {
			vec, err := d.embedder.Embed(ctx, s.Body)
			if err != nil {
				continue // embedding failure degrades this symbol to the Jaccard path, not the whole run
			}
			vectors[s.ID()] = vec
		}
	}

	for i := 0; i < len(prSymbols); i++ {
		for j := i + 1; j < len(prSymbols); j++ {
			a, b := prSymbols[i], prSymbols[j]
			if !categoryAlign(a.Kind, b.Kind) || skipPair(a, b) {
				continue
			}

			sim, viaEmbedding := d.similarity(a, b, vectors)
			if sim < d.threshold {
				continue
			}

			matches = append(matches, core.DuplicateMatch{
				SymbolA:    toRef(a),
				SymbolB:    toRef(b),
				Similarity: sim,
				Scope:      core.ScopeWithinPR,
			})
			_ = viaEmbedding
		}
	}

	sortMatches(matches)
	return matches, nil
}

func (d *duplicateDetector) similarity(a, b core.Symbol, vectors map[string][]float64) (float64, bool) {
	va, aok := vectors[a.ID()]
	vb, bok := vectors[b.ID()]
	if aok && bok {
		return embedding.Cosine(va, vb), true
	}
	return jaccard(tokenize(a.Body), tokenize(b.Body)), false
}

// CrossRepo embeds each PR symbol and queries the Vector Store's top-5
// nearest neighbors within scope, excluding the symbol's own file so a
// symbol never matches its own pre-PR version sitting in the index.
func (d *duplicateDetector) CrossRepo(ctx context.Context, prSymbols []core.Symbol, scope string) ([]core.DuplicateMatch, error) {
	if d.store == nil || d.embedder == nil {
		return nil, nil
	}

	var matches []core.DuplicateMatch
	for _, s := range prSymbols {
		if core.IsTestFile(s.FilePath) || isDocFile(s.FilePath) || s.Name == "unknown" {
			continue
		}

		vec, err := d.embedder.Embed(ctx, s.Body)
		if err != nil {
			continue
		}

		hits, err := d.store.QueryTopK(ctx, scope, vec, 5, vectorstore.Filter{Scope: scope, ExcludeFile: s.FilePath})
		if err != nil {
			return matches, fmt.Errorf("cross-repo duplicate query failed for %s: %w", s.Name, err)
		}

		for _, h := range hits {
			if h.Score < d.threshold {
				continue
			}
			other := core.SymbolRef{FilePath: h.Metadata["file"], Name: h.Metadata["name"]}
			if other.Name == "unknown" || other.Name == "" {
				continue
			}
			if core.IsTestFile(other.FilePath) && core.IsTestFile(s.FilePath) {
				continue
			}
			if isDocFile(other.FilePath) {
				continue
			}

			sim := h.Score
			if d.embedder.Fallback() {
				// Per §9's Open Question, fallback-embedding matches are
				// advisory: the multiplier is applied to the reported
				// Similarity itself, which FindingsFromDuplicates carries into
				// the Finding's confidence, rather than kept in a separate field.
				sim = sim * 0.9
				if sim < d.threshold {
					continue
				}
			}

			matches = append(matches, core.DuplicateMatch{
				SymbolA:    toRef(s),
				SymbolB:    other,
				Similarity: sim,
				Scope:      core.ScopeCrossRepo,
			})
		}
	}

	sortMatches(matches)
	return matches, nil
}

// sortMatches orders by descending similarity, ties broken by lexicographic
// file path of SymbolA, per §4.7's ordering rule.
func sortMatches(matches []core.DuplicateMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].SymbolA.FilePath < matches[j].SymbolA.FilePath
	})
}
