package livechat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/edubot/internal/chat"
	"github.com/ashureev/edubot/internal/identity"
	"github.com/ashureev/edubot/internal/store"
)

const writeTimeout = 5 * time.Second

// Handler serves one chat.Manager per WebSocket connection. Connections of
// the same device share that device's archive.
type Handler struct {
	kv            store.KV
	dispatcher    *chat.Dispatcher
	cm            *ConnManager
	allowedOrigin string
	isDev         bool
	logger        *slog.Logger

	archivesMu sync.Mutex
	archives   map[string]*archiveRef
}

type archiveRef struct {
	archive *chat.Archive
	refs    int
}

// NewHandler creates a new live chat handler.
func NewHandler(kv store.KV, dispatcher *chat.Dispatcher, cm *ConnManager, allowedOrigin string, isDev bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		kv:            kv,
		dispatcher:    dispatcher,
		cm:            cm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		logger:        logger,
		archives:      make(map[string]*archiveRef),
	}
}

// connection is the per-socket state. Writes are serialized so frames
// arrive in the order the manager produced them.
type connection struct {
	ws       *websocket.Conn
	writeMu  sync.Mutex
	deviceID string
	logger   *slog.Logger
}

func (c *connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.ws, v)
}

func (c *connection) push(v interface{}) {
	if err := c.writeJSON(v); err != nil {
		c.logger.Debug("Failed to write chat frame", "error", err, "device_id", c.deviceID)
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	if deviceID == "" {
		http.Error(w, "missing device identity", http.StatusBadRequest)
		return
	}
	h.logger.Info("Chat connection request", "device_id", deviceID, "tab_id", tabID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "device_id", deviceID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "device_id", deviceID)
		}
	}()

	h.cm.Register(deviceID, tabID, ws)
	defer h.cm.Unregister(deviceID, tabID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	archive := h.acquireArchive(ctx, deviceID)
	defer h.releaseArchive(deviceID)

	conn := &connection{ws: ws, deviceID: deviceID, logger: h.logger}
	mgr := chat.NewManager(archive)
	unsubscribe := mgr.Subscribe(func(v chat.View) {
		conn.push(newStateFrame(v))
	})
	defer unsubscribe()

	conn.push(newStateFrame(mgr.View()))
	conn.push(newHistoryFrame(archive.Entries()))

	var exchanges sync.WaitGroup
	defer exchanges.Wait()

	h.readLoop(ctx, conn, mgr, &exchanges)
	h.logger.Info("Chat connection ended", "device_id", deviceID, "tab_id", tabID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, conn *connection, mgr *chat.Manager, exchanges *sync.WaitGroup) {
	var inFlight atomic.Bool

	for {
		_, message, err := conn.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "device_id", conn.deviceID)
			} else if ctx.Err() == nil {
				h.logger.Warn("WebSocket read error", "error", err, "device_id", conn.deviceID)
			}
			return
		}

		var msg clientFrame
		if err := json.Unmarshal(message, &msg); err != nil {
			conn.push(textFrame{Type: frameError, Content: "malformed frame"})
			continue
		}

		switch msg.Type {
		case frameSend:
			if !inFlight.CompareAndSwap(false, true) {
				conn.push(textFrame{Type: frameError, Content: "a reply is still pending"})
				continue
			}
			exchanges.Add(1)
			// The exchange outlives a closed socket so its reply is still archived.
			go func(text string) {
				defer exchanges.Done()
				defer inFlight.Store(false)
				h.dispatcher.Send(context.WithoutCancel(ctx), mgr, text)
				conn.push(newHistoryFrame(mgr.Archive().Entries()))
			}(msg.Content)
		case frameNewChat:
			mgr.StartNewChat()
		case frameLoadChat:
			mgr.LoadChat(msg.ID)
		case frameHistory:
			conn.push(newHistoryFrame(mgr.Archive().Entries()))
		case framePing:
			conn.push(textFrame{Type: framePong})
		default:
			conn.push(textFrame{Type: frameError, Content: "unknown frame type: " + msg.Type})
		}
	}
}

func (h *Handler) acquireArchive(ctx context.Context, deviceID string) *chat.Archive {
	h.archivesMu.Lock()
	defer h.archivesMu.Unlock()

	ref, ok := h.archives[deviceID]
	if !ok {
		ref = &archiveRef{archive: chat.OpenArchive(ctx, h.kv, chat.ArchiveKeyFor(deviceID), h.logger)}
		h.archives[deviceID] = ref
	}
	ref.refs++
	return ref.archive
}

func (h *Handler) releaseArchive(deviceID string) {
	h.archivesMu.Lock()
	defer h.archivesMu.Unlock()

	ref, ok := h.archives[deviceID]
	if !ok {
		return
	}
	ref.refs--
	if ref.refs <= 0 {
		delete(h.archives, deviceID)
	}
}
