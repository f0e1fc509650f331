package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/crmlite/internal/domain/strategy"
)

// setupEnv points the CLI at a fresh SQLite file and a fake LiteLLM proxy.
func setupEnv(t *testing.T) *atomic.Int32 {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test",
			"choices": []map[string]any{{
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"summary":"Pricing focus","sentiment":"Positive","next_step":"Call Friday","tactical_advice":"Offer annual discount"}`,
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("CRMLITE_STORE_DRIVER", "sqlite")
	t.Setenv("CRMLITE_SQLITE_PATH", filepath.Join(t.TempDir(), "crm.db"))
	t.Setenv("CRMLITE_LLM_PROVIDER", "litellm")
	t.Setenv("LITELLM_URL", srv.URL)
	t.Setenv("NATS_URL", "")
	t.Setenv("CRMLITE_LOG_LEVEL", "error")
	return &calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSeedIsSkippedOnSecondRun(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "seed", "--user", "rep-1", "--email", "rep@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 5 opportunities and 2 interactions")

	out, err = execute(t, "seed", "--user", "rep-1", "--email", "rep@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")
}

func TestSeedRequiresFlags(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "seed", "--user", "rep-1")
	require.Error(t, err)
}

func TestStrategyGenerateAndLatest(t *testing.T) {
	calls := setupEnv(t)

	_, err := execute(t, "seed", "--user", "rep-1", "--email", "rep@example.com")
	require.NoError(t, err)

	out, err := execute(t, "strategy", "generate", "--opportunity", "1", "--user", "rep-1")
	require.NoError(t, err)
	var generated strategy.Strategy
	require.NoError(t, json.Unmarshal([]byte(out), &generated))
	assert.Equal(t, "Call Friday", generated.NextStep)
	assert.Equal(t, int32(1), calls.Load())

	out, err = execute(t, "strategy", "latest", "--opportunity", "1", "--user", "rep-1")
	require.NoError(t, err)
	var latest strategy.Strategy
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Equal(t, generated.ID, latest.ID)

	_, err = execute(t, "strategy", "generate", "--opportunity", "1", "--user", "someone-else")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "foreign caller must not reach the generator")
}

func TestMigrateDownRequiresPostgres(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "migrate", "down")
	require.ErrorIs(t, err, errPostgresOnly)
}

func TestMigrateUpOnSQLite(t *testing.T) {
	setupEnv(t)
	_, err := execute(t, "migrate", "up")
	require.NoError(t, err)
}
