package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"img-resizer-go/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *Server {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewServer(config.DefaultConfig(), log)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["running"])
}

func TestResizeRequiresInputPath(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/resize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "input_path")
}

func TestResizeRejectsMissingPath(t *testing.T) {
	s := testServer()

	body := `{"input_path": "/definitely/not/here"}`
	req := httptest.NewRequest(http.MethodPost, "/api/resize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResizeRejectsBadDimensions(t *testing.T) {
	s := testServer()

	body := `{"input_path": ".", "dimensions": "800x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/resize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Error, "dimensions")
}

func TestResizeRejectsInvalidBody(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/resize", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStopClearsRunningFlag(t *testing.T) {
	s := testServer()
	s.operationMutex.Lock()
	s.isRunning = true
	s.operationMutex.Unlock()

	req := httptest.NewRequest(http.MethodPost, "/api/stop", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	s.operationMutex.RLock()
	running := s.isRunning
	s.operationMutex.RUnlock()
	assert.False(t, running)
}

func TestConcurrentJobRejected(t *testing.T) {
	s := testServer()
	s.operationMutex.Lock()
	s.isRunning = true
	s.operationMutex.Unlock()

	body := `{"input_path": "."}`
	req := httptest.NewRequest(http.MethodPost, "/api/resize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
