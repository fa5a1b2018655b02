// Package server exposes hosted matches over websockets and runs the gRPC
// health service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thraizz/gridduel-server/internal/config"
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
	"github.com/thraizz/gridduel-server/internal/match"
)

// actionTimeout bounds the persistence work a finishing action may trigger.
const actionTimeout = 5 * time.Second

// Hub tracks connected clients and routes their messages to the match
// manager.
type Hub struct {
	manager  *match.Manager
	cfg      config.WebSocketConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	clients map[*Client]bool
	mu      sync.RWMutex
	closing atomic.Bool
}

// NewHub creates a hub serving the matches of manager.
func NewHub(cfg config.WebSocketConfig, manager *match.Manager, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		manager: manager,
		cfg:     cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are not checked here; deployments terminate behind a proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*Client]bool),
	}
}

// Subscribe forwards committed engine events to the clients of their game.
func (h *Hub) Subscribe(bus *rules.EventBus) []int {
	all := bus.Subscribe(func(gameID string, ev rules.Event) {
		h.publish(gameID, TypeEvent, "", ev)
	})
	over := bus.SubscribeTyped(rules.EventGameOver, func(gameID string, ev rules.Event) {
		h.publish(gameID, TypeGameOver, "", gameOverData(ev))
	})
	return []int{all, over}
}

func gameOverData(ev rules.Event) GameOverData {
	data := GameOverData{
		Status: rules.Status(ev.Metadata["status"]),
		Reason: ev.Metadata["reason"],
		Scores: make(map[string]int),
		Power:  make(map[string]int),
	}
	if ev.PlayerID != "" {
		winner := ev.PlayerID
		data.Winner = &winner
	}
	for key, value := range ev.Metadata {
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		if id, ok := strings.CutPrefix(key, rules.MetaScorePrefix); ok {
			data.Scores[id] = n
		} else if id, ok := strings.CutPrefix(key, rules.MetaPowerPrefix); ok {
			data.Power[id] = n
		}
	}
	return data
}

// Handler routes the websocket endpoint and a JSON health probe.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	path := h.cfg.Path
	if path == "" {
		path = "/ws"
	}
	mux.HandleFunc(path, h.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"clients":        h.ClientCount(),
			"active_matches": h.manager.ActiveCount(),
		})
	})
	return mux
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	limit := h.cfg.RateLimit
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(limit.PerSecond), max(limit.Burst, 1)),
	}
	h.registerClient(client)

	go client.writePump()
	go client.readPump()
}

// Run blocks until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.logger.Info("hub shutting down", zap.Int("clients", h.ClientCount()))
	h.closing.Store(true)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.Int("clients", n))
}

// unregisterClient drops the client. A seated player whose last connection
// to an unfinished game goes away surrenders it, unless the hub is shutting
// down.
func (h *Hub) unregisterClient(c *Client) {
	gameID, playerID := c.session()

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	stillSeated := false
	for other := range h.clients {
		g, p := other.session()
		if g == gameID && p == playerID {
			stillSeated = true
			break
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client disconnected", zap.String("player_id", playerID), zap.Int("clients", n))
	if gameID == "" || playerID == "" || stillSeated || h.closing.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	result, err := h.manager.Disconnect(ctx, gameID, playerID)
	switch {
	case errors.Is(err, match.ErrGameFinished), errors.Is(err, match.ErrGameNotFound):
		return
	case err != nil:
		h.logger.Error("disconnect failed", zap.String("game_id", gameID), zap.Error(err))
	case result.Rejection == nil:
		h.logger.Info("player left, game aborted", zap.String("game_id", gameID), zap.String("player_id", playerID))
		h.broadcastState(gameID, result.State)
	}
}

// publish sends a message to every client bound to gameID.
func (h *Hub) publish(gameID, msgType, playerID string, data any) {
	payload, err := encode(msgType, gameID, playerID, data)
	if err != nil {
		h.logger.Error("encode message", zap.String("type", msgType), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if g, _ := client.session(); g != gameID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("client send buffer full, dropping message", zap.String("game_id", gameID))
		}
	}
}

func (h *Hub) broadcastState(gameID string, state *game.GameState) {
	h.publish(gameID, TypeState, "", state)
}

func (h *Hub) send(c *Client, msgType, gameID string, data any) {
	payload, err := encode(msgType, gameID, "", data)
	if err != nil {
		h.logger.Error("encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	c.reply(payload)
}

func (h *Hub) sendError(c *Client, gameID, message string) {
	h.send(c, TypeError, gameID, ErrorData{Message: message})
}

func (h *Hub) sendRejection(c *Client, gameID string, action game.ActionType, rej *rules.Rejection) {
	h.send(c, TypeRejection, gameID, rejectionData(action, rej))
}

func (h *Hub) handleMessage(c *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, "", "invalid message format")
		return
	}

	switch msg.Type {
	case TypeCreate:
		h.handleCreate(c, msg)
	case TypeJoin:
		h.handleJoin(c, msg)
	case TypeAction:
		h.handleAction(c, msg)
	case TypeState:
		h.handleState(c, msg)
	default:
		h.sendError(c, msg.GameID, "unknown message type: "+msg.Type)
	}
}

func (h *Hub) handleCreate(c *Client, msg WSMessage) {
	var setup game.Setup
	if err := json.Unmarshal(msg.Data, &setup); err != nil {
		h.sendError(c, "", "invalid create payload")
		return
	}
	if setup.ID == "" {
		setup.ID = msg.GameID
	}
	created, err := h.manager.CreateMatch(setup)
	if err != nil {
		h.sendError(c, setup.ID, err.Error())
		return
	}
	h.send(c, TypeState, created.ID, created.State())
}

func (h *Hub) handleJoin(c *Client, msg WSMessage) {
	m, err := h.manager.GetMatch(msg.GameID)
	if err != nil {
		h.sendError(c, msg.GameID, err.Error())
		return
	}
	if msg.PlayerID != "" && !m.HasPlayer(msg.PlayerID) {
		h.sendRejection(c, msg.GameID, "", rules.NewRejection(rules.CodeUnknownPlayer, "player is not part of this game").
			WithDetail("player_id", msg.PlayerID))
		return
	}

	c.bind(m.ID, msg.PlayerID)
	h.logger.Debug("client joined",
		zap.String("game_id", m.ID),
		zap.String("player_id", msg.PlayerID),
	)
	payload, err := encode(TypeJoined, m.ID, msg.PlayerID, nil)
	if err == nil {
		c.reply(payload)
	}
	h.send(c, TypeState, m.ID, m.State())
}

func (h *Hub) handleAction(c *Client, msg WSMessage) {
	gameID, playerID := c.session()
	if gameID == "" || playerID == "" {
		h.sendError(c, msg.GameID, "join a game as a player first")
		return
	}

	var action game.Action
	if err := json.Unmarshal(msg.Data, &action); err != nil {
		h.sendError(c, gameID, "invalid action payload")
		return
	}
	// clients only act for the seat they joined
	action.PlayerID = playerID

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	result, err := h.manager.Apply(ctx, gameID, action)
	if err != nil {
		h.sendError(c, gameID, err.Error())
		return
	}
	if result.Rejection != nil {
		h.sendRejection(c, gameID, action.Type, result.Rejection)
		return
	}
	h.broadcastState(gameID, result.State)
}

func (h *Hub) handleState(c *Client, msg WSMessage) {
	gameID, _ := c.session()
	if gameID == "" {
		gameID = msg.GameID
	}
	m, err := h.manager.GetMatch(gameID)
	if err != nil {
		h.sendError(c, gameID, err.Error())
		return
	}
	h.send(c, TypeState, m.ID, m.State())
}
