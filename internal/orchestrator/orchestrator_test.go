package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/llm"
	"github.com/sevigo/pr-warden/internal/platform"
	"github.com/sevigo/pr-warden/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExtractor returns one fixed symbol per non-empty source string,
// avoiding a dependency on the real tree-sitter/regex extractor backends for
// a test that only cares about Orchestrator control flow.
type fakeExtractor struct{}

func (fakeExtractor) Extract(_, _, path, source string) (core.ParsedFile, error) {
	if source == "" {
		return core.ParsedFile{FilePath: path}, nil
	}
	return core.ParsedFile{
		FilePath: path,
		Symbols: []core.Symbol{
			{FilePath: path, Name: "Widget", Kind: core.KindFunction, Body: source, StartLine: 1},
		},
	}, nil
}

// fakeFallback synthesizes one deterministic Finding per file, standing in
// for the real Fallback Generator so tests can assert exactly when it fires.
type fakeFallback struct {
	calls []string
}

func (f *fakeFallback) GenerateForFile(filePath string, _ []core.Symbol) []core.RawFinding {
	f.calls = append(f.calls, filePath)
	return []core.RawFinding{{File: filePath, Line: 1, Severity: "minor", Category: core.CategoryStyle, Message: "fallback finding", Source: "fallback"}}
}

func (f *fakeFallback) Summary(_ *core.Report) string { return "fallback summary" }

func newTestOrchestrator(t *testing.T, p platform.Client, reviewer llm.Reviewer, fb *fakeFallback) *Orchestrator {
	t.Helper()
	reportPath := filepath.Join(t.TempDir(), "report.json")
	return New(p, fakeExtractor{}, nil, nil, nil, nil, nil, nil, reviewer, fb, nil, nil, reportPath, discardLogger())
}

func samplePR() *platform.PullRequest {
	return &platform.PullRequest{
		Number:     42,
		HeadSHA:    "head-sha",
		BaseSHA:    "base-sha",
		BaseBranch: "main",
		Files: []platform.ChangedFile{
			{Path: "widget.go", Patch: "+func Widget() {}", Status: "modified"},
		},
	}
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(nil, errors.New("not found"))

	o := newTestOrchestrator(t, p, nil, &fakeFallback{})
	rep, err := o.Run(context.Background(), "acme/widgets", 42, false)

	require.Error(t, err)
	assert.Nil(t, rep)
}

func TestRun_NoReviewerConfiguredUsesFallbackGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	pr := samplePR()
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(pr, nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "head-sha", "widget.go").Return("func Widget() {}", nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "base-sha", "widget.go").Return("func Widget() {}", nil)

	fb := &fakeFallback{}
	o := newTestOrchestrator(t, p, nil, fb)

	rep, err := o.Run(context.Background(), "acme/widgets", 42, false)
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, []string{"widget.go"}, fb.calls)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "fallback summary", rep.Summary)
	assert.False(t, rep.Degraded)
	assert.False(t, rep.Cancelled)

	data, err := os.ReadFile(o.reportPath)
	require.NoError(t, err)
	var onDisk core.Report
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, rep.PR.Repository, onDisk.PR.Repository)
}

func TestRun_ReviewerFailureDegradesToFallbackAndRecordsDiagnostic(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	pr := samplePR()
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(pr, nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "head-sha", "widget.go").Return("func Widget() {}", nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "base-sha", "widget.go").Return("func Widget() {}", nil)

	reviewer := mocks.NewMockReviewer(ctrl)
	reviewer.EXPECT().ReviewFile(gomock.Any(), gomock.Any()).Return(nil, false, llm.ErrUnavailable)
	reviewer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("", llm.ErrUnavailable)
	reviewer.EXPECT().Recommend(gomock.Any(), gomock.Any()).Return("", llm.ErrUnavailable)

	fb := &fakeFallback{}
	o := newTestOrchestrator(t, p, reviewer, fb)

	rep, err := o.Run(context.Background(), "acme/widgets", 42, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"widget.go"}, fb.calls)
	assert.NotEmpty(t, rep.RunDiagnostics)
	assert.True(t, rep.Degraded)
	assert.Equal(t, "fallback summary", rep.Summary)
	assert.Empty(t, rep.Recommendations)
}

func TestRun_ReviewerSuccessSkipsFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	pr := samplePR()
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(pr, nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "head-sha", "widget.go").Return("func Widget() {}", nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "base-sha", "widget.go").Return("func Widget() {}", nil)

	reviewer := mocks.NewMockReviewer(ctrl)
	reviewer.EXPECT().ReviewFile(gomock.Any(), gomock.Any()).Return(
		[]core.RawFinding{{File: "widget.go", Line: 1, Severity: "major", Category: core.CategoryCorrectness, Message: "off by one", Source: "llm"}}, false, nil)
	reviewer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("llm summary", nil)
	reviewer.EXPECT().Recommend(gomock.Any(), gomock.Any()).Return("llm recommendations", nil)

	fb := &fakeFallback{}
	o := newTestOrchestrator(t, p, reviewer, fb)

	rep, err := o.Run(context.Background(), "acme/widgets", 42, false)
	require.NoError(t, err)

	assert.Empty(t, fb.calls)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "off by one", rep.Findings[0].Message)
	assert.Equal(t, "llm summary", rep.Summary)
	assert.Equal(t, "llm recommendations", rep.Recommendations)
	assert.False(t, rep.Degraded)
	assert.Empty(t, rep.RunDiagnostics)
}

// TestRun_ReviewerRetrySucceedsRecordsDiagnosticButStaysUndegraded covers §8
// scenario 4: a file whose first parse attempt fails but whose repair-prompt
// retry succeeds must show up as exactly one RunDiagnostic, without flipping
// Degraded (so the CLI's exit code stays 0, not the degraded-run 3).
func TestRun_ReviewerRetrySucceedsRecordsDiagnosticButStaysUndegraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	pr := samplePR()
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(pr, nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "head-sha", "widget.go").Return("func Widget() {}", nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "base-sha", "widget.go").Return("func Widget() {}", nil)

	reviewer := mocks.NewMockReviewer(ctrl)
	reviewer.EXPECT().ReviewFile(gomock.Any(), gomock.Any()).Return(
		[]core.RawFinding{{File: "widget.go", Line: 1, Severity: "minor", Category: core.CategoryStyle, Message: "recovered after repair", Source: "llm"}}, true, nil)
	reviewer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("llm summary", nil)
	reviewer.EXPECT().Recommend(gomock.Any(), gomock.Any()).Return("llm recommendations", nil)

	fb := &fakeFallback{}
	o := newTestOrchestrator(t, p, reviewer, fb)

	rep, err := o.Run(context.Background(), "acme/widgets", 42, false)
	require.NoError(t, err)

	assert.Empty(t, fb.calls)
	require.Len(t, rep.Findings, 1)
	require.Len(t, rep.RunDiagnostics, 1)
	assert.Equal(t, core.DiagnosticValidation, rep.RunDiagnostics[0].Kind)
	assert.Equal(t, "widget.go", rep.RunDiagnostics[0].File)
	assert.False(t, rep.Degraded)
}

func TestRun_CancelledContextStillWritesReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockClient(ctrl)
	pr := samplePR()
	p.EXPECT().GetPR(gomock.Any(), "acme/widgets", 42).Return(pr, nil)
	p.EXPECT().GetFile(gomock.Any(), "acme/widgets", "head-sha", "widget.go").Return("func Widget() {}", nil)

	o := newTestOrchestrator(t, p, nil, &fakeFallback{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := o.Run(ctx, "acme/widgets", 42, false)
	require.NoError(t, err)
	assert.True(t, rep.Cancelled)

	_, err = os.Stat(o.reportPath)
	assert.NoError(t, err)
}
