package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/recommendation-fn/config"
)

func TestCompleteCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer env-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"generations":[{"text":"  Drink water.  "}]}`)
	}))
	defer ts.Close()

	t.Setenv("RECOMMEND_COHERE_API_KEY", "")
	t.Setenv("COHERE_API_KEY", "env-key")
	t.Setenv("RECOMMEND_COHERE_BASE_URL", ts.URL)
	t.Setenv("RECOMMEND_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"complete", "--prompt", "I feel dizzy"})
	require.NoError(t, cmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]any{"result": map[string]any{"reply": "Drink water."}}, got)
}

func TestCompleteCommand_UpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	t.Setenv("RECOMMEND_COHERE_API_KEY", "k")
	t.Setenv("RECOMMEND_COHERE_BASE_URL", ts.URL)
	t.Setenv("RECOMMEND_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"complete", "--prompt", "hi"})
	require.Error(t, cmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]any{"error": map[string]any{"status": "INTERNAL", "message": "AI call failed"}}, got)
}

func setServeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RECOMMEND_COHERE_API_KEY", "k")
	t.Setenv("RECOMMEND_SERVER_ADDR", "127.0.0.1:0")
	t.Setenv("RECOMMEND_SERVER_SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("RECOMMEND_TRACING_ENDPOINT", "")
	t.Setenv("RECOMMEND_LOG_LEVEL", "error")
}

func waitServe(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	setServeEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- serve(ctx, "", func(addr net.Addr) { addrs <- addr }) }()

	var addr net.Addr
	select {
	case addr = <-addrs:
	case err := <-done:
		t.Fatalf("serve returned before listening: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not start listening")
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr.String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	waitServe(t, done)

	_, err := net.DialTimeout("tcp", addr.String(), time.Second)
	assert.Error(t, err, "listener should be closed after shutdown")
}

func TestServe_CancelledBeforeStart(t *testing.T) {
	setServeEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, "", nil) }()
	waitServe(t, done)
}

func TestServe_InvalidConfig(t *testing.T) {
	setServeEnv(t)
	t.Setenv("RECOMMEND_SERVER_SHUTDOWN_TIMEOUT", "0s")

	err := serve(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.shutdown_timeout")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	logger = newLogger(config.LogConfig{Level: "bogus"}, &buf)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
}
