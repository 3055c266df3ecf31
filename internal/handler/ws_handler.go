package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"tour-admin-server/internal/config"
	"tour-admin-server/internal/state"
	"tour-admin-server/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WebSocketHandler struct {
	manager        *websocket.Manager
	registry       *state.Registry
	upgrader       ws.Upgrader
	maxMessageSize int64
	logger         *logrus.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, registry *state.Registry, cfg config.WebSocketConfig, allowedOrigins string, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:        manager,
		registry:       registry,
		maxMessageSize: cfg.MaxMessageSize,
		logger:         logger,
		upgrader: ws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts same-origin requests and the configured CORS origins.
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	allowed := make(map[string]bool)
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			return true
		}
		return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://") == r.Host
	}
}

// HandleConnection binds the socket to the caller's session and starts it
// off with a state snapshot.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	sid := sess.ID()
	snapshot := syncAuth(storeFor(h.registry, sess), sess)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(uuid.New().String(), sid, conn, h.manager)
	if data, err := stateFrame(snapshot); err == nil {
		client.Send <- data
	}

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.maxMessageSize)
}

func stateFrame(s state.AppState) ([]byte, error) {
	msg, err := websocket.NewMessage(websocket.TypeState, s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

type WebSocketMessageHandler struct {
	registry *state.Registry
}

func NewWebSocketMessageHandler(registry *state.Registry) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{registry: registry}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypePing:
		pong, err := websocket.NewMessage(websocket.TypePong, nil)
		if err != nil {
			return err
		}
		return client.Manager.SendToClient(client, pong)

	case websocket.TypeState:
		store, ok := h.registry.Lookup(client.SessionID)
		if !ok {
			store = h.registry.Detached()
		}
		snapshot, err := websocket.NewMessage(websocket.TypeState, store.State())
		if err != nil {
			return err
		}
		return client.Manager.SendToClient(client, snapshot)
	}

	return nil
}

// NewStateNotifier pushes every store change to the session's open sockets.
func NewStateNotifier(manager *websocket.Manager, logger *logrus.Logger) func(sid string, s state.AppState) {
	return func(sid string, s state.AppState) {
		if manager.SessionConnections(sid) == 0 {
			return
		}
		msg, err := websocket.NewMessage(websocket.TypeState, s)
		if err != nil {
			logger.WithError(err).Error("failed to encode state")
			return
		}
		if err := manager.BroadcastToSession(sid, msg); err != nil {
			logger.WithError(err).WithField("sid", sid).Warn("state push failed")
		}
	}
}
