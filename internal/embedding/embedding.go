// Package embedding provides the deterministic text-to-vector mapping the
// spec calls the Embedding Client (C2): a remote model-backed provider for
// production use, and a local deterministic hash projection chosen at
// startup when no remote embedder can be built (for example, no credential
// is configured). A remote client does not switch to the hash projection
// mid-run: a failed call returns its error to the caller.
package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/sevigo/goframe/embeddings"
)

// Client embeds text into a fixed-dimension vector. Implementations must be
// deterministic for a given input within a single run (§4.2); mixing vectors
// of different dimensions in the same Vector Store is an error the store
// itself rejects (§3).
type Client interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dim() int
	// Fallback reports whether this client is the deterministic hash
	// projection rather than a real model, so callers can tag results
	// (e.g. duplicate matches) with the lower-confidence multiplier the
	// spec's Open Questions call for.
	Fallback() bool
}

// Cosine computes cosine similarity in [-1, 1]. Vectors of different length
// are treated as maximally dissimilar rather than panicking, since a mixed-
// dimension comparison is itself a contract violation the caller should
// have already rejected.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// remoteClient wraps the goframe embeddings.Embedder (Gemini or Ollama,
// selected the same way the donor's app.go createEmbedder did) behind the
// Client interface.
type remoteClient struct {
	embedder embeddings.Embedder
	dim      int
}

// NewRemote adapts a goframe embeddings.Embedder. dim is the fixed dimension
// the configured model is expected to produce; it is used only to validate
// responses, not to request a specific size from the provider.
func NewRemote(embedder embeddings.Embedder, dim int) Client {
	return &remoteClient{embedder: embedder, dim: dim}
}

func (r *remoteClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := r.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("remote embedding call failed: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("remote embedder returned no vectors")
	}
	vec := toFloat64(vecs[0])
	if r.dim != 0 && len(vec) != r.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(vec), r.dim)
	}
	return vec, nil
}

func (r *remoteClient) Dim() int      { return r.dim }
func (r *remoteClient) Fallback() bool { return false }

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// hashClient is the local deterministic hash-projection fallback that app
// wiring selects at startup when no remote embedder can be built; it is not
// substituted for a remote client whose calls fail. Per the spec's Open Questions, its quality is unquantified
// and matches found through it are advisory — downstream components must
// tag results with the Fallback bit rather than trust them at full
// confidence.
type hashClient struct {
	dim int
}

// NewHash builds the deterministic fallback embedder at a fixed dimension.
func NewHash(dim int) Client {
	if dim <= 0 {
		dim = 64
	}
	return &hashClient{dim: dim}
}

// Embed projects text into dim buckets by repeatedly hashing the text with a
// bucket-indexed salt and folding the digest into a signed float in [-1, 1].
// This is deterministic for identical input within (and across) runs, which
// is all the fallback contract requires; it makes no claim to semantic
// similarity beyond incidental byte overlap.
func (h *hashClient) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	for i := 0; i < h.dim; i++ {
		sum := sha256.Sum256(append([]byte(text), byte(i), byte(i>>8)))
		var acc int64
		for _, b := range sum[:8] {
			acc = acc<<8 | int64(b)
		}
		vec[i] = (float64(acc%2000) - 1000) / 1000
	}
	return normalize(vec), nil
}

func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func (h *hashClient) Dim() int      { return h.dim }
func (h *hashClient) Fallback() bool { return true }
