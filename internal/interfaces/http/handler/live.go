package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inventrack/backend/internal/application/livequery"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Server-sent event names
const (
	EventConnected = "connected"
	EventSnapshot  = "snapshot"
	EventError     = "error"
	EventHeartbeat = "heartbeat"
)

// LiveHandler streams live query snapshots as server-sent events
type LiveHandler struct {
	BaseHandler
	hub       *livequery.Hub
	heartbeat time.Duration
	location  *time.Location
	done      chan struct{}
	closeOnce sync.Once
}

// NewLiveHandler creates a new LiveHandler
func NewLiveHandler(hub *livequery.Hub, heartbeat time.Duration, location *time.Location) *LiveHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	if location == nil {
		location = time.Local
	}
	return &LiveHandler{hub: hub, heartbeat: heartbeat, location: location, done: make(chan struct{})}
}

// Close ends every open stream. Register it with http.Server.RegisterOnShutdown.
func (h *LiveHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stream subscribes to a live query and writes every snapshot until the
// client disconnects. Slow clients only see the latest snapshot.
// GET /live/:query with query one of items, low-stock, sales
func (h *LiveHandler) Stream(c *gin.Context) {
	kind, err := livequery.ParseQueryKind(strings.ReplaceAll(c.Param("query"), "-", "_"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	query := livequery.Query{Kind: kind}
	if kind == livequery.QuerySales {
		query.Start, query.End, err = parseRange(c.Query("start"), c.Query("end"), h.location)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	snapshots := make(chan livequery.Snapshot, 1)
	listener := func(s livequery.Snapshot) {
		select {
		case snapshots <- s:
		default:
			select {
			case <-snapshots:
			default:
			}
			snapshots <- s
		}
	}

	ctx := c.Request.Context()
	uid := userID(c)
	cancel, err := h.hub.Subscribe(ctx, uid, query, listener)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer cancel()

	log := logger.GetGinLogger(c).With(zap.String("query", string(kind)))
	log.Debug("Live query stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent(EventConnected, gin.H{"query": query})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Live query stream closed")
			return
		case <-h.done:
			log.Debug("Live query stream closed by shutdown")
			return
		case <-ticker.C:
			c.SSEvent(EventHeartbeat, gin.H{"timestamp": time.Now().Unix()})
		case s := <-snapshots:
			if s.Err != nil {
				c.SSEvent(EventError, dto.ErrorInfo{
					Code:    shared.ErrorCode(s.Err),
					Message: liveErrorMessage(s.Err),
				})
			} else {
				c.SSEvent(EventSnapshot, s)
			}
		}
		c.Writer.Flush()
	}
}

func liveErrorMessage(err error) string {
	if shared.IsBusinessError(err) {
		return err.Error()
	}
	return shared.ErrUnknown.Message
}
