package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/status"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

const testID = domain.SessionID(domain.CallsObjectPath + "/channel/abc")

func newRouter(t *testing.T) (*gin.Engine, *status.Exporter) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	exp := status.NewExporter()
	return SetupRouter(exp), exp
}

func TestListCalls(t *testing.T) {
	r, exp := newRouter(t)
	exp.Publish(testID, domain.CallInfo{ReceivingAudio: true, Channel: "/channel/abc"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp CallsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, testID, resp.Calls[0].ID)
	assert.True(t, resp.Calls[0].Info.ReceivingAudio)
}

func TestGetCall(t *testing.T) {
	r, exp := newRouter(t)
	exp.Publish(testID, domain.CallInfo{ReceivingVideo: true, Channel: "/channel/abc"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls"+string(testID), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rec status.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, testID, rec.ID)
	assert.True(t, rec.Info.ReceivingVideo)
	assert.Equal(t, domain.CallPath("/channel/abc"), rec.Info.Channel)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCallRejectsOversizedID(t *testing.T) {
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/calls/"+strings.Repeat("x", domain.MaxCallPathLen), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCallPathTooLong.Error())
}

func TestStreamCalls(t *testing.T) {
	r, exp := newRouter(t)
	exp.Publish(testID, domain.CallInfo{Channel: "/channel/abc"})

	srv := httptest.NewServer(r)
	defer srv.Close()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/calls", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))

	var ev status.Event
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, status.EventPublished, ev.Type)
	assert.Equal(t, testID, ev.Record.ID)

	exp.Unpublish(testID)
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, status.EventUnpublished, ev.Type)
	assert.Equal(t, testID, ev.Record.ID)
}
