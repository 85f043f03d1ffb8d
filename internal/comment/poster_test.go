package comment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/platform"
)

type fakeClient struct {
	inlineCalls  [][]platform.InlineComment
	summaryCalls []string
}

func (f *fakeClient) GetPR(ctx context.Context, repo string, number int) (*platform.PullRequest, error) {
	return nil, nil
}
func (f *fakeClient) GetFile(ctx context.Context, repo, sha, path string) (string, error) {
	return "", nil
}
func (f *fakeClient) GetTree(ctx context.Context, repo, branch string) ([]string, error) {
	return nil, nil
}
func (f *fakeClient) PostInline(ctx context.Context, repo string, number int, comments []platform.InlineComment, summary string) error {
	f.inlineCalls = append(f.inlineCalls, comments)
	return nil
}
func (f *fakeClient) PostSummary(ctx context.Context, repo string, number int, body string) error {
	f.summaryCalls = append(f.summaryCalls, body)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const patch = "@@ -1,2 +1,3 @@\n line 1\n+line 2\n+line 3\n"

func TestPost_HighSeverityGoesInline(t *testing.T) {
	client := &fakeClient{}
	p := New(client, discardLogger())

	files := []platform.ChangedFile{{Path: "a.go", Patch: patch}}
	findings := []core.Finding{
		{File: "a.go", Line: 2, Severity: core.SeverityHigh, Category: core.CategorySecurity, Message: "sql injection"},
	}

	err := p.Post(context.Background(), "org/repo", 1, files, findings)
	require.NoError(t, err)
	require.Len(t, client.inlineCalls, 1)
	assert.Len(t, client.inlineCalls[0], 1)
	assert.Empty(t, client.summaryCalls)
}

func TestPost_LowSeverityGoesToSummary(t *testing.T) {
	client := &fakeClient{}
	p := New(client, discardLogger())

	files := []platform.ChangedFile{{Path: "a.go", Patch: patch}}
	findings := []core.Finding{
		{File: "a.go", Line: 2, Severity: core.SeverityLow, Category: core.CategoryStyle, Message: "nit"},
	}

	err := p.Post(context.Background(), "org/repo", 1, files, findings)
	require.NoError(t, err)
	assert.Empty(t, client.inlineCalls)
	require.Len(t, client.summaryCalls, 1)
	assert.Contains(t, client.summaryCalls[0], "nit")
}

func TestPost_MediumArchitectureCappedAtThreePerFile(t *testing.T) {
	client := &fakeClient{}
	p := New(client, discardLogger())

	files := []platform.ChangedFile{{Path: "a.go", Patch: patch}}
	var findings []core.Finding
	for i := 0; i < 5; i++ {
		findings = append(findings, core.Finding{
			File: "a.go", Line: 2, Severity: core.SeverityMedium, Category: core.CategoryArchitecture,
			Message: "layering violation",
		})
	}

	err := p.Post(context.Background(), "org/repo", 1, files, findings)
	require.NoError(t, err)
	require.Len(t, client.inlineCalls, 1)
	assert.Len(t, client.inlineCalls[0], 3)
	require.Len(t, client.summaryCalls, 1)
}

func TestPost_HighSeverityOutsideDiffDowngradesToSummary(t *testing.T) {
	client := &fakeClient{}
	p := New(client, discardLogger())

	files := []platform.ChangedFile{{Path: "a.go", Patch: patch}}
	findings := []core.Finding{
		{File: "a.go", Line: 99, Severity: core.SeverityHigh, Category: core.CategorySecurity, Message: "outside diff"},
	}

	err := p.Post(context.Background(), "org/repo", 1, files, findings)
	require.NoError(t, err)
	assert.Empty(t, client.inlineCalls)
	require.Len(t, client.summaryCalls, 1)
	assert.Contains(t, client.summaryCalls[0], "outside diff")
}

func TestPost_NoFindingsPostsNothing(t *testing.T) {
	client := &fakeClient{}
	p := New(client, discardLogger())

	err := p.Post(context.Background(), "org/repo", 1, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, client.inlineCalls)
	assert.Empty(t, client.summaryCalls)
}
