package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub manages WebSocket connections and per-game subscriptions. Groups are
// keyed by gameID; the streamer broadcasts new frames into the group for
// every game that has at least one subscriber.
type Hub struct {
	clients    map[*Client]bool
	games      map[string]map[*Client]bool // gameID -> subscribers
	register   chan *Client
	unregister chan *Client
	broadcast  chan *gameMessage
	done       chan struct{} // closed once Run stops servicing the channels
	mu         sync.RWMutex
	logger     *zap.Logger
}

type gameMessage struct {
	gameID  string
	payload []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		games:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *gameMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for gameID := range client.games {
					if subs, ok := h.games[gameID]; ok {
						delete(subs, client)
						if len(subs) == 0 {
							delete(h.games, gameID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.games[msg.gameID] {
				select {
				case client.send <- msg.payload:
				default:
					// Buffer full, schedule disconnect
					go func(c *Client) {
						select {
						case h.unregister <- c:
						case <-h.done:
						}
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) shutdown() {
	// Unblocks client pumps still trying to register or unregister.
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.games = make(map[string]map[*Client]bool)
}

// Subscribe adds a client to a game's group.
func (h *Hub) Subscribe(client *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[gameID] == nil {
		h.games[gameID] = make(map[*Client]bool)
	}
	h.games[gameID][client] = true
	client.games[gameID] = true

	h.logger.Debug("client subscribed",
		zap.String("connID", client.connID),
		zap.String("gameId", gameID),
	)
}

// Unsubscribe removes a client from a game's group.
func (h *Hub) Unsubscribe(client *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.games[gameID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.games, gameID)
		}
	}
	delete(client.games, gameID)
}

// ActiveGames returns every game with at least one subscriber.
func (h *Hub) ActiveGames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var games []string
	for gameID, subs := range h.games {
		if len(subs) > 0 {
			games = append(games, gameID)
		}
	}
	return games
}

// Broadcast sends a payload to every subscriber of a game.
func (h *Hub) Broadcast(gameID string, payload []byte) {
	h.broadcast <- &gameMessage{gameID: gameID, payload: payload}
}
