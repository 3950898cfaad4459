package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/usecase"
	xlogger "github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// StreamHub pushes completed analysis reports to connected websocket
// clients. Clients that cannot keep up are dropped rather than backing up
// the scheduler.
type StreamHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan *models.AnalysisReport
}

func NewStreamHub(logger *xlogger.Logger) *StreamHub {
	return &StreamHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan *models.AnalysisReport),
	}
}

func (h *StreamHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stream", h.Stream)
}

// Stream upgrades the connection and forwards reports until the client
// disconnects.
func (h *StreamHub) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ch := make(chan *models.AnalysisReport, 8)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	h.logger.Info("stream client connected", xlogger.String("remote", conn.RemoteAddr().String()))

	// reader goroutine only detects disconnects, inbound data is ignored
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case report, ok := <-ch:
			if !ok {
				h.drop(conn)
				return nil
			}
			if err := conn.WriteJSON(report); err != nil {
				h.drop(conn)
				return nil
			}
		case <-done:
			h.drop(conn)
			return nil
		}
	}
}

// Publish fans a report out to every connected client without blocking.
func (h *StreamHub) Publish(report *models.AnalysisReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- report:
		default:
			// client stalled, disconnect it
			delete(h.clients, conn)
			close(ch)
			_ = conn.Close()
			h.logger.Warn("stream client dropped", xlogger.String("remote", conn.RemoteAddr().String()))
		}
	}
}

func (h *StreamHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Close disconnects all clients.
func (h *StreamHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		delete(h.clients, conn)
		close(ch)
		_ = conn.Close()
	}
	return nil
}

var _ usecase.ReportSink = (*StreamHub)(nil)
