package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/internal/providers/storage"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

type fixture struct {
	router  *gin.Engine
	windows *window.Manager
	bridge  *session.Bridge
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	apps := registry.NewManager()
	_, err := registry.NewSeeder(apps, "", nil).Seed()
	require.NoError(t, err)

	store, err := storage.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bridge := session.NewBridge(store, apps)
	windows := window.NewManager(apps, window.WithPersister(bridge))
	bridge.Attach(windows)
	t.Cleanup(bridge.Close)

	router := gin.New()
	NewHandlers(windows, apps, bridge, monitoring.NewMetrics()).Register(router)

	return &fixture{router: router, windows: windows, bridge: bridge}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (f *fixture) open(t *testing.T, appID string) string {
	t.Helper()
	code, body := f.do(t, http.MethodPost, "/windows", gin.H{"app_id": appID})
	require.Equal(t, http.StatusCreated, code)
	return body["window"].(map[string]interface{})["id"].(string)
}

func TestRootAndHealth(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])

	code, body = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "windows")
	assert.Contains(t, body, "session")
}

func TestOpenWindow(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodPost, "/windows", gin.H{"app_id": "notepad"})
	require.Equal(t, http.StatusCreated, code)

	win := body["window"].(map[string]interface{})
	assert.Equal(t, "notepad", win["app_id"])
	assert.Equal(t, float64(800), win["size"].(map[string]interface{})["width"])

	// Second open raises the same window
	code, body = f.do(t, http.MethodPost, "/windows", gin.H{"app_id": "notepad"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, win["id"], body["window"].(map[string]interface{})["id"])
	assert.Len(t, f.windows.List(), 1)
}

func TestOpenWindowErrors(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodPost, "/windows", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/windows", gin.H{"app_id": "../etc"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := f.do(t, http.MethodPost, "/windows", gin.H{"app_id": "doom"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "doom")
}

func TestWindowOperations(t *testing.T) {
	f := setup(t)
	id := f.open(t, "notepad")

	code, body := f.do(t, http.MethodPost, "/windows/"+id+"/move", gin.H{"x": 300, "y": 40})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = f.do(t, http.MethodPost, "/windows/"+id+"/resize", gin.H{"width": 50, "height": 50})
	require.Equal(t, http.StatusOK, code)

	inst, ok := f.windows.Get(id)
	require.True(t, ok)
	assert.Equal(t, types.Position{X: 300, Y: 40}, inst.Position)
	assert.Equal(t, types.Size{Width: 200, Height: 150}, inst.Size, "resize should clamp to the minimum")

	code, body = f.do(t, http.MethodPost, "/windows/"+id+"/minimize", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	// Focus raises without restoring; reopening through the launcher restores
	code, body = f.do(t, http.MethodPost, "/windows/"+id+"/focus", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["window"].(map[string]interface{})["is_minimized"])

	code, body = f.do(t, http.MethodPost, "/windows", gin.H{"app_id": "notepad"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["window"].(map[string]interface{})["is_minimized"])

	code, body = f.do(t, http.MethodPost, "/windows/"+id+"/maximize", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["window"].(map[string]interface{})["is_maximized"])

	code, _ = f.do(t, http.MethodDelete, "/windows/"+id, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodGet, "/windows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResizeWithOrigin(t *testing.T) {
	f := setup(t)
	id := f.open(t, "notepad")

	code, _ := f.do(t, http.MethodPost, "/windows/"+id+"/resize", gin.H{"width": 600, "height": 400, "x": 10, "y": 20})
	require.Equal(t, http.StatusOK, code)

	inst, _ := f.windows.Get(id)
	assert.Equal(t, types.Position{X: 10, Y: 20}, inst.Position)
	assert.Equal(t, types.Size{Width: 600, Height: 400}, inst.Size)

	code, _ = f.do(t, http.MethodPost, "/windows/"+id+"/resize", gin.H{"width": 600, "height": 400, "x": 10})
	assert.Equal(t, http.StatusBadRequest, code, "x without y is rejected")
}

func TestMoveValidation(t *testing.T) {
	f := setup(t)
	id := f.open(t, "notepad")

	code, _ := f.do(t, http.MethodPost, "/windows/"+id+"/move", gin.H{"x": 10})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/windows/win_missing/move", gin.H{"x": 10, "y": 10})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPost, "/windows/bad%20id/move", gin.H{"x": 10, "y": 10})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCosmeticOverrides(t *testing.T) {
	f := setup(t)
	id := f.open(t, "notepad")

	_, body := f.do(t, http.MethodPost, "/windows/"+id+"/title", gin.H{"title": "<b>todo.txt</b>"})
	assert.Equal(t, "todo.txt", body["window"].(map[string]interface{})["title"])

	_, body = f.do(t, http.MethodPost, "/windows/"+id+"/title", gin.H{"title": nil})
	assert.Equal(t, "Notepad", body["window"].(map[string]interface{})["title"])

	_, body = f.do(t, http.MethodPost, "/windows/"+id+"/badge", gin.H{"count": 3})
	assert.Equal(t, float64(3), body["window"].(map[string]interface{})["badge"])

	_, body = f.do(t, http.MethodPost, "/windows/"+id+"/icon", gin.H{"icon": "📝"})
	assert.Equal(t, "📝", body["window"].(map[string]interface{})["icon"])
}

func TestListApps(t *testing.T) {
	f := setup(t)

	code, body := f.do(t, http.MethodGet, "/apps", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["apps"], len(registry.DefaultApps()))

	code, body = f.do(t, http.MethodGet, "/apps/calculator", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "calculator", body["app"].(map[string]interface{})["id"])

	code, _ = f.do(t, http.MethodGet, "/apps/doom", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionEndpoints(t *testing.T) {
	f := setup(t)
	f.open(t, "terminal")

	code, body := f.do(t, http.MethodPost, "/session/save", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = f.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, code)
	stored := body["stored"].(map[string]interface{})
	assert.Equal(t, []interface{}{"terminal"}, stored["openWindows"])

	snap, found, err := f.bridge.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"terminal"}, snap.OpenWindows)

	code, body = f.do(t, http.MethodPost, "/session/restore", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
}

func TestMetricsSummary(t *testing.T) {
	f := setup(t)

	code, _ := f.do(t, http.MethodGet, "/metrics/json", nil)
	assert.Equal(t, http.StatusOK, code)
}
