package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blitzscan/internal/backend"
	"blitzscan/internal/history"
	"blitzscan/internal/services"
	"blitzscan/internal/store"
	"blitzscan/pkg/engine"
	"blitzscan/pkg/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testutil.StubBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := testutil.NewStubBackend(t)
	client := backend.NewClient(stub.URL, backend.WithSleep(func(context.Context, time.Duration) error { return nil }))
	queue := engine.NewScanQueue(2, nil)

	router := InitRouter(Dependencies{
		ScanService:   services.NewScanService(engine.NewScanEngine(client), history.New(store.NewMemoryStore()), services.WithQueue(queue)),
		ConfigService: services.NewConfigService(nil, nil),
		Queue:         queue,
	})
	return router, stub
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, "GET", "/healthz", "")
	require.Equal(t, 200, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["scans"].(map[string]interface{})["slots"])
}

func TestRouter_Config(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, "GET", "/api/config", "")
	require.Equal(t, 200, w.Code)

	var modules []services.ScanModule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &modules))
	assert.Len(t, modules, 3)
}

func TestRouter_ScanLifecycle(t *testing.T) {
	router, stub := newTestRouter(t)
	stub.Script(backend.EndpointPortScan, testutil.StubResponse{Result: "22/tcp open ssh OpenSSH_8.2\n80/tcp open http"})

	w := do(router, "POST", "/api/scans", `{"url":"https://example.com","scan_type":"nmap","owner":"ana@example.com","save":true}`)
	require.Equal(t, 200, w.Code, w.Body.String())

	var scan struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scan))
	assert.Equal(t, "completed", scan.Status)

	w = do(router, "GET", "/api/scans?owner=ana@example.com", "")
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), scan.ID)

	w = do(router, "GET", "/api/scans/"+scan.ID+"/report?owner=ana@example.com", "")
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "- 22/tcp ssh OpenSSH_8.2 (Riesgo: Alto, Categoría: Remote Access)")

	w = do(router, "DELETE", "/api/scans/"+scan.ID+"?owner=ana@example.com", "")
	assert.Equal(t, 204, w.Code)

	w = do(router, "GET", "/api/scans/"+scan.ID+"?owner=ana@example.com", "")
	assert.Equal(t, 404, w.Code)
}

func TestRouter_InvalidTargetNeverReachesBackend(t *testing.T) {
	router, stub := newTestRouter(t)

	w := do(router, "POST", "/api/scans", `{"url":"ftp://example.com","scan_type":"fuzzing"}`)
	assert.Equal(t, 400, w.Code)
	assert.Zero(t, stub.Calls(backend.EndpointDirectoryFuzz))
}
