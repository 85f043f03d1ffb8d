// Package platform wraps the hosted source-control platform API (GitHub) in
// a narrow interface exposing only what the review pipeline needs: PR
// metadata and diffs, file/tree contents, and comment posting.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-warden/internal/retry"
)

// ChangedFile is a single file entry in a PR's diff.
type ChangedFile struct {
	Path   string
	Patch  string
	Status string
}

// PullRequest is the subset of PR metadata the pipeline consumes.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	HeadSHA    string
	BaseSHA    string
	BaseBranch string
	Files      []ChangedFile
}

// InlineComment targets a single (path, line) pair on a PR's diff.
type InlineComment struct {
	Path string
	Line int
	Body string
}

//go:generate mockgen -destination=../../mocks/mock_platform_client.go -package=mocks github.com/sevigo/pr-warden/internal/platform Client

// Client is the capability set consumed by the Orchestrator and its
// analyzers (§4.4 of the specification).
type Client interface {
	GetPR(ctx context.Context, repo string, number int) (*PullRequest, error)
	GetFile(ctx context.Context, repo, sha, path string) (string, error)
	GetTree(ctx context.Context, repo, branch string) ([]string, error)
	PostInline(ctx context.Context, repo string, number int, comments []InlineComment, summary string) error
	PostSummary(ctx context.Context, repo string, number int, body string) error
}

type client struct {
	gh     *github.Client
	logger *slog.Logger
	policy retry.Policy
}

// New wraps an authenticated *github.Client (constructed by NewPATClient or
// NewInstallationClient) with the retry-aware Client interface.
func New(gh *github.Client, logger *slog.Logger) Client {
	return &client{
		gh:     gh,
		logger: logger,
		policy: retry.Policy{MaxAttempts: 5, Classify: classifyGitHubError},
	}
}

// NewPATClient builds a Client authenticated with a personal access token,
// the lightweight path used by a one-shot CLI invocation (mirrors
// golang.org/x/oauth2's StaticTokenSource pattern shared across the pack).
func NewPATClient(ctx context.Context, token string, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return New(github.NewClient(tc), logger)
}

// NewPATEnterpriseClient is NewPATClient for a GitHub Enterprise Server
// instance, pointed at baseURL for both the API and upload endpoints via
// go-github's WithEnterpriseURLs.
func NewPATEnterpriseClient(ctx context.Context, token, baseURL string, logger *slog.Logger) (Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	gh, err := github.NewClient(tc).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build enterprise client for %s: %w", baseURL, err)
	}
	return New(gh, logger), nil
}

func splitRepo(repo string) (owner, name string, err error) {
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			return repo[:i], repo[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid repo format %q, expected owner/name", repo)
}

func (c *client) GetPR(ctx context.Context, repo string, number int) (*PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var pr *github.PullRequest
	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var innerErr error
		pr, _, innerErr = c.gh.PullRequests.Get(ctx, owner, name, number)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s#%d: %w", repo, number, err)
	}

	files, err := c.listFiles(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list files for PR %s#%d: %w", repo, number, err)
	}

	return &PullRequest{
		Number:     number,
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		HeadSHA:    pr.GetHead().GetSHA(),
		BaseSHA:    pr.GetBase().GetSHA(),
		BaseBranch: pr.GetBase().GetRef(),
		Files:      files,
	}, nil
}

func (c *client) listFiles(ctx context.Context, owner, name string, number int) ([]ChangedFile, error) {
	var allFiles []ChangedFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		var files []*github.CommitFile
		var resp *github.Response
		err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
			var innerErr error
			files, resp, innerErr = c.gh.PullRequests.ListFiles(ctx, owner, name, number, opts)
			return innerErr
		})
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			allFiles = append(allFiles, ChangedFile{
				Path:   f.GetFilename(),
				Patch:  f.GetPatch(),
				Status: f.GetStatus(),
			})
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

func (c *client) GetFile(ctx context.Context, repo, sha, path string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	var content string
	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		fileContent, _, _, innerErr := c.gh.Repositories.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{Ref: sha})
		if innerErr != nil {
			return innerErr
		}
		if fileContent == nil {
			return fmt.Errorf("path %q is not a file at %s", path, sha)
		}
		content, innerErr = fileContent.GetContent()
		return innerErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s@%s/%s: %w", repo, sha, path, err)
	}
	return content, nil
}

func (c *client) GetTree(ctx context.Context, repo, branch string) ([]string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var tree *github.Tree
	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var innerErr error
		tree, _, innerErr = c.gh.Git.GetTree(ctx, owner, name, branch, true)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree for %s@%s: %w", repo, branch, err)
	}

	paths := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() == "blob" {
			paths = append(paths, e.GetPath())
		}
	}
	return paths, nil
}

func (c *client) PostInline(ctx context.Context, repo string, number int, comments []InlineComment, summary string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	ghComments := make([]*github.DraftReviewComment, 0, len(comments))
	for _, cm := range comments {
		path, line, body := cm.Path, cm.Line, cm.Body
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path: &path,
			Line: &line,
			Body: &body,
		})
	}

	req := &github.PullRequestReviewRequest{
		Body:     &summary,
		Event:    github.Ptr("COMMENT"),
		Comments: ghComments,
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		_, _, innerErr := c.gh.PullRequests.CreateReview(ctx, owner, name, number, req)
		if innerErr != nil {
			c.logger.Error("failed to post inline review", "repo", repo, "pr", number, "error", innerErr)
		}
		return innerErr
	})
}

func (c *client) PostSummary(ctx context.Context, repo string, number int, body string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	comment := &github.IssueComment{Body: &body}
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		_, _, innerErr := c.gh.Issues.CreateComment(ctx, owner, name, number, comment)
		if innerErr != nil {
			c.logger.Error("failed to post summary comment", "repo", repo, "pr", number, "error", innerErr)
		}
		return innerErr
	})
}

// classifyGitHubError treats go-github's rate-limit and abuse-rate-limit
// errors as RateLimited (honoring the provider's Retry-After when present),
// authentication errors as Fatal, and everything else as Transient.
func classifyGitHubError(err error) (retry.Classification, time.Duration) {
	if err == nil {
		return retry.Transient, 0
	}
	if rlErr, ok := err.(*github.RateLimitError); ok {
		wait := time.Until(rlErr.Rate.Reset.Time)
		if wait < 0 {
			wait = 0
		}
		return retry.RateLimited, wait
	}
	if abuseErr, ok := err.(*github.AbuseRateLimitError); ok && abuseErr.RetryAfter != nil {
		return retry.RateLimited, *abuseErr.RetryAfter
	}
	if ghErr, ok := err.(*github.ErrorResponse); ok && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case 401, 403:
			return retry.Fatal, 0
		}
	}
	return retry.Transient, 0
}
