package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	configPath string
	psi        *httptest.Server
}

func newFixture(t *testing.T, status int) *fixture {
	t.Helper()
	psi := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"lighthouseResult": map[string]any{
				"categories": map[string]any{"performance": map[string]any{"score": 0.42}},
				"audits": map[string]any{
					"largest-contentful-paint": map[string]any{"numericValue": 4500, "numericUnit": "millisecond"},
					"cumulative-layout-shift":  map[string]any{"numericValue": 0.05, "numericUnit": "unitless"},
				},
			},
		})
	}))
	t.Cleanup(psi.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`storage:
  driver: sqlite
  dsn: %s
pagespeed:
  baseurl: %s
  timeout: 5s
  requestsperminute: 0
batch:
  delay: 0s
targets:
  resolvehosts: false
`, filepath.Join(dir, "vitals.db"), psi.URL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return &fixture{configPath: path, psi: psi}
}

func (f *fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", f.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	_, _, err := f.run(t, "--format", "xml", "targets", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTargetsLifecycle(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	out, _, err := f.run(t, "targets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No targets tracked.")

	out, _, err = f.run(t, "--format", "json", "targets", "add", "example.com/", "-n", "Example")
	require.NoError(t, err)
	var added struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		DisplayName string `json:"displayName"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	assert.Equal(t, "https://example.com/", added.URL)
	assert.Equal(t, "Example", added.DisplayName)

	_, _, err = f.run(t, "targets", "add", "https://example.com")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), added.ID)

	out, _, err = f.run(t, "targets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, added.ID)
	assert.Contains(t, out, "never")

	_, _, err = f.run(t, "targets", "remove", added.ID)
	require.NoError(t, err)

	_, _, err = f.run(t, "targets", "remove", added.ID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTargetsAddInvalidURL(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	_, _, err := f.run(t, "targets", "add", "ftp://example.com")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRefreshReportAndHistory(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	_, _, err := f.run(t, "targets", "add", "https://www.example.com/a")
	require.NoError(t, err)
	_, _, err = f.run(t, "targets", "add", "https://example.com/b")
	require.NoError(t, err)

	out, progress, err := f.run(t, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "ok    https://www.example.com/a")
	assert.Contains(t, out, "ok    https://example.com/b")
	assert.Contains(t, progress, "[1/2] processing https://www.example.com/a")
	assert.Contains(t, progress, "[2/2] completed https://example.com/b")

	out, _, err = f.run(t, "--format", "json", "report")
	require.NoError(t, err)
	var groups []struct {
		Domain            string             `json:"domain"`
		TargetCount       int                `json:"targetCount"`
		AggregatedMetrics map[string]float64 `json:"aggregatedMetrics"`
		TotalIssues       int                `json:"totalIssues"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "example.com", groups[0].Domain)
	assert.Equal(t, 2, groups[0].TargetCount)
	assert.InDelta(t, 4.5, groups[0].AggregatedMetrics["lcp"], 0.001)
	assert.InDelta(t, 42, groups[0].AggregatedMetrics["performance"], 0.001)
	assert.Positive(t, groups[0].TotalIssues)

	out, _, err = f.run(t, "--format", "json", "targets", "list")
	require.NoError(t, err)
	var list []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)

	out, _, err = f.run(t, "history", list[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "4.50s")
	assert.Contains(t, out, "0.050")

	_, _, err = f.run(t, "history", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRefreshFailureExitCode(t *testing.T) {
	f := newFixture(t, http.StatusTooManyRequests)

	_, _, err := f.run(t, "targets", "add", "https://example.com")
	require.NoError(t, err)

	out, _, err := f.run(t, "refresh")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL  https://example.com")
	assert.Contains(t, out, "quota exceeded")
}

func TestCheckDoesNotStore(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	out, _, err := f.run(t, "check", "example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "poor")
	assert.Contains(t, out, "Issues:")

	out, _, err = f.run(t, "--format", "yaml", "check", "example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "url: https://example.com")
	assert.Contains(t, out, "lcp: poor")

	out, _, err = f.run(t, "targets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No targets tracked.")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrap: %w", NewExitError(ExitCommandError, "bad"))))

	wrapped := WrapExitError(ExitFailure, "fetch failed", errors.New("timeout"))
	assert.Equal(t, "fetch failed: timeout", wrapped.Error())
}
