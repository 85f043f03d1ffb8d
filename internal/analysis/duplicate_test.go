package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/embedding"
	"github.com/sevigo/pr-warden/internal/vectorstore"
)

func TestWithinPR_DetectsIdenticalBodies(t *testing.T) {
	detector := NewDuplicateDetector(embedding.NewHash(32), nil, 0.82)

	symbols := []core.Symbol{
		{FilePath: "a.go", Name: "Compute", Kind: core.KindFunction, Body: "return price * qty", StartLine: 1, EndLine: 3},
		{FilePath: "b.go", Name: "Calculate", Kind: core.KindFunction, Body: "return price * qty", StartLine: 10, EndLine: 12},
	}

	matches, err := detector.WithinPR(context.Background(), symbols)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ScopeWithinPR, matches[0].Scope)
	assert.GreaterOrEqual(t, matches[0].Similarity, 0.82)
}

func TestWithinPR_SkipsWhenBothFilesAreTests(t *testing.T) {
	detector := NewDuplicateDetector(embedding.NewHash(32), nil, 0.82)

	symbols := []core.Symbol{
		{FilePath: "a_test.go", Name: "TestX", Kind: core.KindFunction, Body: "assertEqual(1, 1)", StartLine: 1, EndLine: 3},
		{FilePath: "b_test.go", Name: "TestY", Kind: core.KindFunction, Body: "assertEqual(1, 1)", StartLine: 10, EndLine: 12},
	}

	matches, err := detector.WithinPR(context.Background(), symbols)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWithinPR_SkipsDifferentKinds(t *testing.T) {
	detector := NewDuplicateDetector(embedding.NewHash(32), nil, 0.5)

	symbols := []core.Symbol{
		{FilePath: "a.go", Name: "Widget", Kind: core.KindClass, Body: "struct body", StartLine: 1, EndLine: 3},
		{FilePath: "b.go", Name: "doWidget", Kind: core.KindMethod, Body: "struct body", StartLine: 10, EndLine: 12},
	}

	matches, err := detector.WithinPR(context.Background(), symbols)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// fakeStore implements vectorstore.Store with a single fixed hit so
// CrossRepo can be tested without a real file-backed store.
type fakeStore struct {
	hits []vectorstore.Match
}

func (f *fakeStore) Upsert(context.Context, string, []core.Embedding) error { return nil }
func (f *fakeStore) QueryTopK(context.Context, string, []float64, int, vectorstore.Filter) ([]vectorstore.Match, error) {
	return f.hits, nil
}
func (f *fakeStore) GetByFile(context.Context, string, string) ([]core.Embedding, error) {
	return nil, nil
}
func (f *fakeStore) Clear(context.Context, string) error { return nil }

func TestCrossRepo_EmitsSingleMatchAboveThreshold(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.Match{
		{SymbolID: "idx-1", Score: 0.95, Metadata: map[string]string{"file": "base/other.go", "name": "LegacyCompute"}},
	}}
	detector := NewDuplicateDetector(embedding.NewHash(32), store, 0.82)

	prSymbols := []core.Symbol{
		{FilePath: "new/compute.go", Name: "Compute", Kind: core.KindFunction, Body: "return price * qty", StartLine: 1, EndLine: 3},
	}

	matches, err := detector.CrossRepo(context.Background(), prSymbols, "acme/widgets@main")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ScopeCrossRepo, matches[0].Scope)
	assert.Equal(t, "LegacyCompute", matches[0].SymbolB.Name)
}

func TestCrossRepo_NilStoreIsNoop(t *testing.T) {
	detector := NewDuplicateDetector(embedding.NewHash(32), nil, 0.82)
	matches, err := detector.CrossRepo(context.Background(), []core.Symbol{{Name: "X"}}, "scope")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
