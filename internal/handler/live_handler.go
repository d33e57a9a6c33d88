package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"technofest/internal/catalog"
	"technofest/internal/metrics"
	"technofest/internal/model"
)

const (
	liveSendBuffer = 8
	liveWriteWait  = 10 * time.Second
)

// LiveRequest changes the query of one live view. Absent fields are left
// unchanged; an empty search clears the term at once.
type LiveRequest struct {
	Search   *string `json:"search,omitempty"`
	Category *string `json:"category,omitempty"`
}

// LiveSource is the mirrored catalogue.
type LiveSource interface {
	Items() []model.Event
}

type liveClient struct {
	controller *catalog.Controller
	send       chan catalog.Result
}

// push never blocks the controller; a slow client only sees the latest
// results.
func (lc *liveClient) push(res catalog.Result) {
	for {
		select {
		case lc.send <- res:
			return
		default:
		}
		select {
		case <-lc.send:
		default:
		}
	}
}

// LiveHandler streams catalogue results over websockets. Every connection
// owns a catalog.Controller fed by the events mirror.
type LiveHandler struct {
	source   LiveSource
	metrics  metrics.Recorder
	debounce time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

// NewLiveHandler creates a live handler. Register Refresh as a mirror
// change callback.
func NewLiveHandler(source LiveSource, rec metrics.Recorder, debounce time.Duration) *LiveHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &LiveHandler{
		source:   source,
		metrics:  rec,
		debounce: debounce,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*liveClient]struct{}),
	}
}

// Refresh hands a new event list to every connected view.
func (h *LiveHandler) Refresh(events []model.Event) {
	h.mu.Lock()
	clients := make([]*liveClient, 0, len(h.clients))
	for lc := range h.clients {
		clients = append(clients, lc)
	}
	h.mu.Unlock()

	for _, lc := range clients {
		lc.controller.Refresh(events)
	}
}

// Clients returns the number of open connections.
func (h *LiveHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stream godoc
// @Summary Live catalogue
// @Description Websocket. Send {"search": "...", "category": "..."}; every recompute is pushed as a catalog.Result. Searches are debounced.
// @Tags events
// @Success 101
// @Router /events/live [get]
func (h *LiveHandler) Stream(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", slog.Any("error", err))
		return nil
	}
	defer ws.Close()

	lc := &liveClient{send: make(chan catalog.Result, liveSendBuffer)}
	lc.controller = catalog.NewController(lc.push, catalog.WithDebounce(h.debounce))
	defer lc.controller.Stop()

	h.add(lc)
	defer h.remove(lc)

	done := make(chan struct{})
	go h.writeLoop(ws, lc, done)

	lc.controller.Refresh(h.source.Items())

	for {
		var req LiveRequest
		if err := ws.ReadJSON(&req); err != nil {
			slog.Debug("live client disconnected", slog.Any("error", err))
			break
		}
		if req.Category != nil {
			lc.controller.SetCategory(*req.Category)
		}
		if req.Search != nil {
			if *req.Search == "" {
				lc.controller.ClearSearch()
			} else {
				lc.controller.Search(*req.Search)
			}
		}
	}
	close(done)
	return nil
}

func (h *LiveHandler) writeLoop(ws *websocket.Conn, lc *liveClient, done <-chan struct{}) {
	for {
		select {
		case res := <-lc.send:
			_ = ws.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := ws.WriteJSON(res); err != nil {
				slog.Warn("failed to write websocket JSON", slog.Any("error", err))
				_ = ws.Close()
				return
			}
		case <-done:
			return
		}
	}
}

func (h *LiveHandler) add(lc *liveClient) {
	h.mu.Lock()
	h.clients[lc] = struct{}{}
	h.mu.Unlock()
	h.metrics.AddLiveClients(1)
}

func (h *LiveHandler) remove(lc *liveClient) {
	h.mu.Lock()
	delete(h.clients, lc)
	h.mu.Unlock()
	h.metrics.AddLiveClients(-1)
}
