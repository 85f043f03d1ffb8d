package platform

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/retry"
)

func TestSplitRepo(t *testing.T) {
	owner, name, err := splitRepo("sevigo/pr-warden")
	require.NoError(t, err)
	assert.Equal(t, "sevigo", owner)
	assert.Equal(t, "pr-warden", name)

	_, _, err = splitRepo("not-a-valid-repo")
	require.Error(t, err)
}

func TestClassifyGitHubError(t *testing.T) {
	t.Run("nil error is transient", func(t *testing.T) {
		class, _ := classifyGitHubError(nil)
		assert.Equal(t, retry.Transient, class)
	})

	t.Run("rate limit error honors reset time", func(t *testing.T) {
		reset := time.Now().Add(2 * time.Minute)
		err := &github.RateLimitError{
			Rate: github.Rate{Reset: github.Timestamp{Time: reset}},
		}
		class, wait := classifyGitHubError(err)
		assert.Equal(t, retry.RateLimited, class)
		assert.Greater(t, wait, time.Duration(0))
	})

	t.Run("unauthorized response is fatal", func(t *testing.T) {
		err := &github.ErrorResponse{
			Response: &http.Response{StatusCode: http.StatusUnauthorized},
		}
		class, _ := classifyGitHubError(err)
		assert.Equal(t, retry.Fatal, class)
	})

	t.Run("generic error is transient", func(t *testing.T) {
		class, _ := classifyGitHubError(errors.New("network blip"))
		assert.Equal(t, retry.Transient, class)
	})
}
