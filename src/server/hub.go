package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quote-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	updateInitial = "INITIAL"
	updateUpdate  = "UPDATE"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the hub loop. It is the only writer of s.clients.
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.stop:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.stateMutex.Unlock()
			s.Metrics.SetWSClients(0)
			return

		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			n := len(s.clients)
			s.stateMutex.Unlock()
			s.Metrics.SetWSClients(n)

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
			}
			n := len(s.clients)
			s.stateMutex.Unlock()
			s.Metrics.SetWSClients(n)

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			s.latestUpdate = message.Timestamp
			for client := range s.clients {
				update := &models.MQuoteUpdate{
					Type:      message.Type,
					Quotes:    filterQuotes(message.Quotes, client.subscription()),
					Timestamp: message.Timestamp,
				}
				if len(update.Quotes) == 0 {
					continue
				}
				select {
				case client.send <- update:
				default:
					// Slow consumer; drop it so the hub never blocks.
					delete(s.clients, client)
					client.close()
				}
			}
			n := len(s.clients)
			s.stateMutex.Unlock()
			s.Metrics.SetWSClients(n)
		}
	}
}

// -----------------------------------------------------------------------------
// Broadcaster Implementation
// -----------------------------------------------------------------------------

// Broadcast queues the quotes of one poll cycle for every connected client.
// It never blocks: when the queue is full the update is dropped.
func (s *FastAPIServer) Broadcast(quotes []models.MQuote) {
	update := &models.MQuoteUpdate{
		Type:      updateUpdate,
		Quotes:    quotes,
		Timestamp: time.Now().UnixMilli(),
	}

	select {
	case <-s.stop:
	case s.broadcast <- update:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update of %d quotes", len(quotes))
	}
}

// -----------------------------------------------------------------------------

// ConnectionCount returns the number of connected websocket clients.
func (s *FastAPIServer) ConnectionCount() int {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan interface{}, 256),
	}

	// The current table goes out before any broadcast can reach the client.
	quotes, err := s.Store.Quotes(c.Request.Context())
	if err != nil {
		s.Logger.Error("Initial quotes for websocket client: %v", err)
		quotes = []models.MQuote{}
	}
	client.send <- &models.MQuoteUpdate{Type: updateInitial, Quotes: quotes, Timestamp: time.Now().UnixMilli()}

	select {
	case s.register <- client:
	case <-s.stop:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies subscribe/unsubscribe commands. A subscribe
// answers with the current quotes of the requested symbols.
func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		set := symbolSet(cmd.Symbols)
		client.setSubscription(set)

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		quotes, err := s.Store.Quotes(ctx)
		cancel()
		if err != nil {
			s.Logger.Error("Quotes for subscription: %v", err)
			return
		}
		response := &models.MQuoteUpdate{
			Type:      updateInitial,
			Quotes:    filterQuotes(quotes, set),
			Timestamp: time.Now().UnixMilli(),
		}
		client.trySend(response)

	case "unsubscribe":
		client.setSubscription(nil)
	}
}
