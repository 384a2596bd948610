package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipstream/internal/config"
	"github.com/roach88/slipstream/internal/store"
)

func TestServeLifecycle(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	dbPath := filepath.Join(t.TempDir(), "serve.db")

	ready := make(chan string, 1)
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		Listen:      "127.0.0.1:0",
		Database:    dbPath,
		Ready:       ready,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() {
		done <- runServe(opts, cmd)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post("http://"+addr+"/api/layout", "application/json",
		strings.NewReader(`{"path":"/test","left_width":400}`))
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a715faaf621aafed", rec["context_key"])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Contains(t, out.String(), "Listening on http://"+addr)

	// Bootstrap seeded the root record; the POST added one more.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestServeListenError(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")

	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text"},
		Listen:      "not-an-address",
		Database:    filepath.Join(t.TempDir(), "serve.db"),
	}
	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := runServe(opts, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestServeRejectsArgs(t *testing.T) {
	_, err := runCLI(t, "serve", "extra")
	require.Error(t, err)
}
