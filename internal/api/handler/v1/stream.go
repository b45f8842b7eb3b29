package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/squares-api/internal/domain"
	"github.com/vietanh2810/squares-api/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBacklog  = 8
	broadcastQueue = 64
)

type PublicViewer interface {
	PublicView() domain.PublicView
}

type streamClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	// sentAt is the updatedAt of the newest view queued to send. Only the
	// hub goroutine touches it.
	sentAt time.Time
}

// streamMessage is an encoded public view and the board version it shows.
type streamMessage struct {
	at   time.Time
	data []byte
}

// StreamHandler pushes the public view to every connected browser whenever
// the board changes, whether locally or through the store.
type StreamHandler struct {
	board    PublicViewer
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	clientsMutex sync.RWMutex
	clients      map[uuid.UUID]*streamClient
	broadcast    chan streamMessage
	register     chan *streamClient
	unregister   chan *streamClient
	done         chan struct{}
}

func NewStreamHandler(board PublicViewer, m *metrics.Metrics, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		board:   board,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		clients:    make(map[uuid.UUID]*streamClient),
		broadcast:  make(chan streamMessage, broadcastQueue),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		done:       make(chan struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Run serves the hub until ctx is done. Every client then gets a close
// frame and is unregistered.
func (h *StreamHandler) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.clientsMutex.RLock()
			ids := make([]uuid.UUID, 0, len(h.clients))
			for id := range h.clients {
				ids = append(ids, id)
			}
			h.clientsMutex.RUnlock()
			for _, id := range ids {
				h.drop(id)
			}
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.drop(client.id)
		case message := <-h.broadcast:
			h.clientsMutex.RLock()
			var slow []uuid.UUID
			for id, client := range h.clients {
				// A view older than the one already queued would roll the
				// browser back.
				if !message.at.After(client.sentAt) {
					continue
				}
				select {
				case client.send <- message.data:
					client.sentAt = message.at
				default:
					slow = append(slow, id)
				}
			}
			h.clientsMutex.RUnlock()
			for _, id := range slow {
				h.drop(id)
			}
		}
	}
}

// add queues the current view before the client joins, so no change made
// after registration can be missed.
func (h *StreamHandler) add(client *streamClient) {
	view := h.board.PublicView()
	initial, err := json.Marshal(view)
	if err != nil {
		zap.L().Error("encoding board stream message failed", zap.Error(err))
		close(client.send)
		return
	}
	client.send <- initial
	client.sentAt = view.UpdatedAt

	h.clientsMutex.Lock()
	h.clients[client.id] = client
	h.clientsMutex.Unlock()
	h.metrics.StreamClients.Inc()
}

func (h *StreamHandler) drop(id uuid.UUID) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.send)
		h.metrics.StreamClients.Dec()
	}
}

// Publish queues the public view of f for every client. It never blocks the
// caller; a full queue drops the message and the next change catches up.
func (h *StreamHandler) Publish(f domain.Fundraiser) {
	message, err := json.Marshal(domain.NewPublicView(f))
	if err != nil {
		zap.L().Error("encoding board stream message failed", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- streamMessage{at: f.UpdatedAt, data: message}:
	default:
		zap.L().Warn("board stream queue full, dropping update")
	}
}

func (h *StreamHandler) clientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

// HandleStream godoc
// @Summary      Live board
// @Description  Upgrades to a WebSocket. The public board is sent on connect and after every change.
// @Tags         board
// @Produce      json
// @Success      101  {string}  string  "Switching Protocols to WebSocket"
// @Router       /board/stream [get]
func (h *StreamHandler) HandleStream(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Info("board stream upgrade failed", zap.Error(err))
		return
	}

	client := &streamClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, clientBacklog),
	}
	if !h.join(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// join hands the client to the hub. It reports false once the hub stopped.
func (h *StreamHandler) join(client *streamClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *StreamHandler) leave(client *streamClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the browser going away; the stream is one-way.
func (c *streamClient) readPump(h *StreamHandler) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Info("board stream closed", zap.String("client", c.id.String()), zap.Error(err))
			}
			return
		}
	}
}
