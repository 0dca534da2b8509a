package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/bpmnauth/internal/config"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// clearEnv unsets the variables the config overlay reads.
// Tests calling it cannot run in parallel.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUTH_SERVER_URL", "AUTH_CLIENT_ID", "AUTH_CLIENT_SECRET", "AUTH_INTROSPECTION_TIMEOUT",
		"TRUST_STORE", "TRUST_STORE_PASSWORD", "BPMNAUTH_LISTEN_ADDRESS",
		"BPMNAUTH_LOG_LEVEL", "BPMNAUTH_LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

// stubExit replaces exitFunc for the test and returns the recorded exit code.
func stubExit(t *testing.T) *int32 {
	t.Helper()
	orig := exitFunc
	t.Cleanup(func() { exitFunc = orig })

	code := int32(-1)
	exitFunc = func(c int) {
		atomic.StoreInt32(&code, int32(c))
	}
	return &code
}

func newAuthServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpmnauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func executeRoot(args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := executeRoot("version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bpmnauth version dev")
	assert.Contains(t, stdout, "Git commit: unknown")
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "introspect", "version"}, names)

	for _, flag := range []string{"config", "log-level", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestIntrospectCmd(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		header     string
		wantErr    bool
		wantStdout string
		wantStderr string
	}{
		{
			name:       "active token",
			body:       `{"active":true,"username":"alice"}`,
			header:     "Bearer abc",
			wantStdout: "alice",
		},
		{
			name:       "inactive token",
			body:       `{"active":false}`,
			header:     "Bearer abc",
			wantErr:    true,
			wantStderr: "invalid_token",
		},
		{
			name:       "missing header",
			body:       `{"active":true,"username":"alice"}`,
			wantErr:    true,
			wantStderr: "missing_header",
		},
		{
			name:       "malformed header",
			body:       `{"active":true,"username":"alice"}`,
			header:     "Bearer a b",
			wantErr:    true,
			wantStderr: "invalid_header",
		},
		{
			name:       "active without username",
			body:       `{"active":true}`,
			header:     "Bearer abc",
			wantErr:    true,
			wantStderr: "missing_username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			authServer := newAuthServer(t, tt.body)
			path := writeConfig(t, "introspection:\n  url: "+authServer.URL+"\n")

			args := []string{"introspect", "--config", path, "--log-level", "error"}
			if tt.header != "" {
				args = append(args, "--header", tt.header)
			}

			stdout, stderr, err := executeRoot(args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, stdout)
				assert.True(t, strings.HasPrefix(stderr, tt.wantStderr), stderr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStdout, strings.TrimSpace(stdout))
		})
	}
}

func TestIntrospectCmd_LogsStayOffStdout(t *testing.T) {
	clearEnv(t)
	authServer := newAuthServer(t, `{"active":true,"username":"alice"}`)
	path := writeConfig(t, "introspection:\n  url: "+authServer.URL+"\n")

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = writer
	t.Cleanup(func() { os.Stdout = origStdout })

	stdout, _, execErr := executeRoot("introspect", "--config", path, "--log-level", "debug",
		"--header", "Bearer abc")

	os.Stdout = origStdout
	require.NoError(t, writer.Close())
	leaked, err := io.ReadAll(reader)
	require.NoError(t, err)

	require.NoError(t, execErr)
	assert.Equal(t, "alice", strings.TrimSpace(stdout))
	assert.Empty(t, string(leaked))
}

func TestIntrospectCmd_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	authServer := newAuthServer(t, `{"active":true,"username":"bob"}`)
	t.Setenv("AUTH_SERVER_URL", authServer.URL)
	path := writeConfig(t, "introspection:\n  url: http://127.0.0.1:1/unused\n")

	stdout, _, err := executeRoot("introspect", "--config", path, "--log-level", "error",
		"--header", "bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "bob", strings.TrimSpace(stdout))
}

func TestIntrospectCmd_MissingAuthServerURL(t *testing.T) {
	clearEnv(t)
	code := stubExit(t)

	_, _, err := executeRoot("introspect", "--log-level", "error", "--header", "Bearer abc")
	require.ErrorIs(t, err, errConfig)
	assert.Equal(t, int32(1), atomic.LoadInt32(code))
}

func TestServeCmd_MissingAuthServerURL(t *testing.T) {
	clearEnv(t)
	code := stubExit(t)

	err := runServe(context.Background(), &cliFlags{logLevel: "error"})
	require.ErrorIs(t, err, errConfig)
	assert.Equal(t, int32(1), atomic.LoadInt32(code))
}

func TestLoadConfig_FlagsOverrideLogging(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
introspection:
  url: https://auth.example.com/introspect
logging:
  level: debug
  format: console
`)

	cfg, logger := loadConfig(&cliFlags{configPath: path, logLevel: "warn"})
	require.NotNil(t, cfg)
	require.NotNil(t, logger)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	code := stubExit(t)

	logger := initLogger(&cliFlags{logLevel: "INVALID_LEVEL_XYZ"}, nil)
	assert.Nil(t, logger)
	assert.Equal(t, int32(1), atomic.LoadInt32(code))
}

func TestFatalWithSync(t *testing.T) {
	code := stubExit(t)

	fatalWithSync(observability.NopLogger(), "test fatal message", observability.String("key", "value"))
	assert.Equal(t, int32(1), atomic.LoadInt32(code))
}

func newTestConfig(t *testing.T, introspectionURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Introspection.URL = introspectionURL
	cfg.Introspection.CircuitBreaker.Enabled = true
	cfg.Server.Address = "127.0.0.1:0"
	cfg.ApplyDefaults()
	cfg.Server.ShutdownTimeout = config.Duration(2 * time.Second)
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestNewApplication(t *testing.T) {
	authServer := newAuthServer(t, `{"active":true,"username":"alice"}`)

	app, err := newApplication(newTestConfig(t, authServer.URL), observability.NopLogger())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/bpmn-rest/whoami", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	app.server.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w = httptest.NewRecorder()
	app.server.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "introspection")
	assert.Contains(t, w.Body.String(), "trust_store")

	families, err := app.registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["bpmnauth_auth_requests_total"])
	assert.True(t, names["bpmnauth_introspection_requests_total"])
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	authServer := newAuthServer(t, `{"active":true,"username":"alice"}`)

	app, err := newApplication(newTestConfig(t, authServer.URL), observability.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.run(ctx)
	}()

	require.Eventually(t, app.server.IsRunning, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.False(t, app.server.IsRunning())
}

func TestApplication_RunReportsListenError(t *testing.T) {
	authServer := newAuthServer(t, `{"active":true,"username":"alice"}`)

	cfg := newTestConfig(t, authServer.URL)
	cfg.Server.Address = "not-an-address"

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)

	err = app.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
