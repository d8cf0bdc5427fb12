package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bodyview/internal/app"
	"github.com/Faultbox/bodyview/internal/config"
	"github.com/Faultbox/bodyview/internal/focus"
	"github.com/Faultbox/bodyview/internal/injury"
	"github.com/Faultbox/bodyview/internal/loader"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	cfg := config.Default()

	a := app.New(focus.NewViewer(cfg.Focus), loader.NewWithStrategies(0, loader.Builtin()), cfg.Loop)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	var store Injuries
	if withStore {
		st, err := injury.Open(context.Background(), filepath.Join(t.TempDir(), "injuries.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		store = st
	}
	return New(cfg.Server, a, store)
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func loadMannequin(t *testing.T, s *Server) {
	t.Helper()
	code, body := do(t, s, http.MethodPost, "/model/load", `{"url":"builtin:mannequin"}`)
	require.Equal(t, http.StatusOK, code, body)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)

	code, body := do(t, s, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])

	code, body = do(t, s, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
}

func TestLoadModel(t *testing.T) {
	s := newTestServer(t, false)

	code, body := do(t, s, http.MethodPost, "/model/load", `{"url":"builtin:mannequin"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "builtin", body["strategy"])
	assert.Equal(t, float64(22), body["meshes"])

	code, body = do(t, s, http.MethodPost, "/model/load", `{"url":"builtin:robot"}`)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, false, body["success"])
	attempts, ok := body["attempts"].([]any)
	require.True(t, ok)
	assert.Len(t, attempts, 1)

	code, _ = do(t, s, http.MethodPost, "/model/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// The failed load left the mannequin in place.
	_, body = do(t, s, http.MethodGet, "/state", "")
	assert.Equal(t, "builtin:mannequin", body["source"])
}

func TestFocusRoutes(t *testing.T) {
	s := newTestServer(t, false)
	loadMannequin(t, s)

	code, body := do(t, s, http.MethodPost, "/focus", `{"name":"LEFTARM","status":"active","severity":"mild"}`)
	require.Equal(t, http.StatusOK, code, body)
	focused := body["focused"].(map[string]any)
	assert.Equal(t, "leftArm", focused["name"])
	assert.Equal(t, "active", focused["status"])

	code, body = do(t, s, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "leftArm", body["focused"])
	assert.Equal(t, "active", body["status"])
	assert.Contains(t, body, "camera")

	code, _ = do(t, s, http.MethodPost, "/focus", `{"name":"wing","status":"past"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, http.MethodPost, "/focus", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodPost, "/view/reset", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, s, http.MethodDelete, "/focus", "")
	assert.Equal(t, http.StatusNoContent, code)

	_, body = do(t, s, http.MethodGet, "/state", "")
	assert.NotContains(t, body, "focused")

	code, body = do(t, s, http.MethodGet, "/meshes", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["meshes"], "rightFoot")
}

func TestInjuryRoutes(t *testing.T) {
	s := newTestServer(t, true)
	loadMannequin(t, s)

	code, body := do(t, s, http.MethodPost, "/injuries", `{"body_part":"rightKnee","status":"recovered","severity":"moderate"}`)
	require.Equal(t, http.StatusCreated, code, body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "past", body["status"])

	code, _ = do(t, s, http.MethodPost, "/injuries", `{"status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, s, http.MethodGet, "/injuries", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["injuries"], 1)

	code, body = do(t, s, http.MethodPost, "/injuries/"+id+"/focus", "")
	require.Equal(t, http.StatusOK, code, body)
	focused := body["focused"].(map[string]any)
	assert.Equal(t, "rightKnee", focused["name"])
	assert.Equal(t, "past", focused["status"])
	assert.Equal(t, "moderate", focused["severity"])

	code, _ = do(t, s, http.MethodDelete, "/injuries/"+id, "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, s, http.MethodGet, "/injuries/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, http.MethodGet, "/injuries/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestInjuryRoutesDisabledWithoutStore(t *testing.T) {
	s := newTestServer(t, false)

	code, _ := do(t, s, http.MethodGet, "/injuries", "")
	assert.Equal(t, http.StatusNotFound, code)
}
