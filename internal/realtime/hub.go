package realtime

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"garment-backend/internal/config"
	"garment-backend/internal/metrics"
	"garment-backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	queueDepth = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub pushes batch progress changes to connected dashboards.
type Hub struct {
	clients    map[*websocket.Conn]int // conn -> batch filter, 0 for all
	clientsMux sync.Mutex
	broadcast  chan models.BatchProgressUpdate
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]int),
		broadcast: make(chan models.BatchProgressUpdate, queueDepth),
	}
}

// NotifyBatchProgress queues an update. It never blocks the caller; when the
// queue is full the update is dropped since the next one supersedes it.
func (h *Hub) NotifyBatchProgress(update models.BatchProgressUpdate) {
	select {
	case h.broadcast <- update:
	default:
		config.GetLogger().WithField("batch_id", update.BatchID).Warn("progress queue full, dropping update")
	}
}

// Run delivers queued updates until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case update := <-h.broadcast:
			h.deliver(update)
		}
	}
}

func (h *Hub) deliver(update models.BatchProgressUpdate) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client, batchID := range h.clients {
		if batchID != 0 && batchID != update.BatchID {
			continue
		}
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(update); err != nil {
			client.Close()
			delete(h.clients, client)
			metrics.WebsocketClients.Dec()
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
		metrics.WebsocketClients.Dec()
	}
}

// ClientCount is the number of connected sockets
func (h *Hub) ClientCount() int {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request. ?batch_id=N limits the stream to one batch.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	filter := 0
	if raw := r.URL.Query().Get("batch_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			http.Error(w, "invalid batch_id", http.StatusBadRequest)
			return
		}
		filter = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		config.GetLogger().Warn("websocket upgrade error: " + err.Error())
		return
	}

	h.clientsMux.Lock()
	h.clients[conn] = filter
	h.clientsMux.Unlock()
	metrics.WebsocketClients.Inc()

	// Clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.clientsMux.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		metrics.WebsocketClients.Dec()
	}
	h.clientsMux.Unlock()
	conn.Close()
}
