package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/status"
	"github.com/freedesktop/telepathy-phoenix/internal/domain"
)

// StatusSource is the read side of the status exporter.
type StatusSource interface {
	List() []status.Record
	Get(id domain.SessionID) (domain.CallInfo, bool)
	Subscribe() (<-chan status.Event, func())
}

type CallsResponse struct {
	Calls []status.Record `json:"calls"`
}

type StatusHandlers struct {
	Status StatusSource
}

func SetupRouter(src StatusSource) *gin.Engine {
	router := gin.Default()
	(&StatusHandlers{Status: src}).Register(router.Group("/api"))
	return router
}

// Register mounts the status routes on g.
func (h *StatusHandlers) Register(g *gin.RouterGroup) {
	g.GET("/calls", h.listCalls)
	g.GET("/calls/*id", h.getCall)
	g.GET("/ws/calls", h.streamCalls)
}

func (h *StatusHandlers) listCalls(c *gin.Context) {
	c.JSON(http.StatusOK, CallsResponse{Calls: h.Status.List()})
}

// getCall takes the full exported id, e.g. /org/freedesktop/.../channel/x.
func (h *StatusHandlers) getCall(c *gin.Context) {
	raw := c.Param("id")
	if err := domain.ValidateCallPath(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := domain.SessionID(raw)
	info, ok := h.Status.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such call"})
		return
	}
	c.JSON(http.StatusOK, status.Record{ID: id, Info: info})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamCalls sends the current records as published events, then every
// change until the client goes away.
func (h *StatusHandlers) streamCalls(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "transport.http").Msg("ws upgrade")
		return
	}
	defer ws.Close()

	events, cancel := h.Status.Subscribe()
	defer cancel()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, rec := range h.Status.List() {
		if err := writeEvent(ws, status.Event{Type: status.EventPublished, Record: rec}); err != nil {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(ws, ev); err != nil {
				log.Debug().Err(err).Str("module", "transport.http").Msg("status stream closed")
				return
			}
		}
	}
}

func writeEvent(ws *websocket.Conn, ev status.Event) error {
	if err := ws.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return ws.WriteJSON(ev)
}
