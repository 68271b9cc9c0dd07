package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qsmath/internal/clipboard"
	"qsmath/internal/config"
	"qsmath/internal/plugins"
	"qsmath/internal/render"
)

func newTestServer(t *testing.T) (*Server, *clipboard.Memory) {
	t.Helper()

	cb := &clipboard.Memory{}
	manager, err := plugins.NewWithBuiltins(cb)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Clipboard = "memory"

	s, err := New(cfg, manager, "test-version")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, cb
}

func searchJSON(t *testing.T, s *Server, query string) []render.Item {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/search?format=json&q="+query, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []render.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Items
}

func TestSearchJSON(t *testing.T) {
	s, _ := newTestServer(t)

	items := searchJSON(t, s, "1%2B2")
	require.Len(t, items, 1)
	assert.Equal(t, "1 + 2 = 3", items[0].Title)
	assert.Equal(t, "3", items[0].ExtraInfo)
	assert.Equal(t, "Math", items[0].Plugin)
}

func TestSearchMultipleAnswers(t *testing.T) {
	s, _ := newTestServer(t)

	items := searchJSON(t, s, "sqrt(4)")
	require.Len(t, items, 2)
	assert.Equal(t, "sqrt(4) = -2", items[0].Title)
	assert.Equal(t, "sqrt(4) = 2", items[1].Title)
}

func TestSearchNoResults(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Empty(t, searchJSON(t, s, "hello"))
	assert.Empty(t, searchJSON(t, s, "1%2F0"))
}

func TestSearchText(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/search?q=2*3", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "test-version", rec.Header().Get(versionHeader))
	assert.Equal(t, "0\t[Math] 2 * 3 = 6\n", rec.Body.String())
}

func TestSearchInvalidFormat(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/search?q=1&format=csv", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteCopiesToClipboard(t *testing.T) {
	s, cb := newTestServer(t)

	items := searchJSON(t, s, "sqrt(4)")
	require.Len(t, items, 2)

	body, err := json.Marshal(executeRequest{
		PluginID:  items[1].PluginID,
		Title:     items[1].Title,
		ExtraInfo: items[1].ExtraInfo,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2", cb.Contents())
	assert.Equal(t, 0, cb.OpenHandles())
}

func TestExecuteErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"missing plugin", `{"title":"x"}`, http.StatusBadRequest},
		{"unknown plugin", `{"plugin_id":"nope","title":"x","extra_info":"1"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/execute", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestListPlugins(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/plugins", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []pluginInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Math", infos[0].Name)
	assert.Equal(t, "builtin:math", infos[0].Source)
	assert.Equal(t, "#16be2fff", infos[0].Color)
	assert.NotEmpty(t, infos[0].ID)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	searchJSON(t, s, "1%2B1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qsmath_searches_total")
}

func TestUpdateConfigKeepsPluginIdentity(t *testing.T) {
	s, _ := newTestServer(t)

	before := searchJSON(t, s, "1%2B1")
	require.Len(t, before, 1)

	require.NoError(t, s.UpdateConfig(config.Default()))

	after := searchJSON(t, s, "1%2B1")
	require.Len(t, after, 1)
	assert.Equal(t, before[0].PluginID, after[0].PluginID)
}

func TestUpdateConfigFailureKeepsPreviousState(t *testing.T) {
	s, _ := newTestServer(t)
	original := s.config

	badPlugin := config.Default()
	badPlugin.Plugins = []config.PluginConfig{{Path: filepath.Join(t.TempDir(), "missing.so"), Symbol: "GetSearchable"}}
	assert.Error(t, s.UpdateConfig(badPlugin))
	assert.Same(t, original, s.config)
	assert.Nil(t, s.cache)

	unreachable := config.Default()
	unreachable.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}
	assert.Error(t, s.UpdateConfig(unreachable))
	assert.Same(t, original, s.config)
	assert.Nil(t, s.cache)

	require.Len(t, searchJSON(t, s, "1%2B1"), 1)
}
