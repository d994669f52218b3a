package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1 << 20 // drawings are encoded images
	sendBufferSize = 256
)

// Client is one websocket connection.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	SendChan chan []byte
	limiter  *rate.Limiter
}

// WebSocketService frames events over websocket connections and feeds inbound
// events to the router.
type WebSocketService struct {
	clients    map[string]*Client
	clientsMux sync.RWMutex
	router     *EventRouter
	limit      rate.Limit
	burst      int
}

// NewWebSocketService creates the hub. eventsPerSecond and burst bound how fast a
// single connection may send events.
func NewWebSocketService(router *EventRouter, eventsPerSecond float64, burst int) *WebSocketService {
	if eventsPerSecond <= 0 {
		eventsPerSecond = 20
	}
	if burst <= 0 {
		burst = 40
	}
	s := &WebSocketService{
		clients: make(map[string]*Client),
		router:  router,
		limit:   rate.Limit(eventsPerSecond),
		burst:   burst,
	}
	router.SetDispatcher(s)
	return s
}

// HandleConnection serves conn until it closes, then removes its player.
func (s *WebSocketService) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		SendChan: make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(s.limit, s.burst),
	}
	s.addClient(client)
	log.Info().Str("conn", client.ID).Msg("client connected")

	defer func() {
		s.Dispatch(s.router.Disconnect(client.ID))
		s.removeClient(client)
		conn.Close()
		log.Info().Str("conn", client.ID).Msg("client disconnected")
	}()

	go s.writePump(client)
	s.readPump(client)
}

func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", client.ID).Msg("websocket unexpected close")
			}
			return
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil || req.Event == "" {
			s.Dispatch(errorTo(client.ID, EventError, errorMessage(ErrInvalidPayload)))
			continue
		}
		if !client.limiter.Allow() {
			log.Debug().Str("conn", client.ID).Str("event", req.Event).Msg("rate limited")
			continue
		}

		s.Dispatch(s.router.Handle(client.ID, req))
	}
}

func (s *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Dispatch encodes each event once and queues it for every target connection.
// A client whose queue is full is disconnected.
func (s *WebSocketService) Dispatch(out []Outbound) {
	var slow []*Client

	s.clientsMux.RLock()
	for _, ev := range out {
		payload, err := json.Marshal(Envelope{Event: ev.Event, Data: ev.Payload})
		if err != nil {
			log.Error().Err(err).Str("event", ev.Event).Msg("encode event")
			continue
		}
		for _, id := range ev.Targets {
			client, ok := s.clients[id]
			if !ok {
				continue
			}
			select {
			case client.SendChan <- payload:
			default:
				slow = append(slow, client)
			}
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range slow {
		log.Warn().Str("conn", client.ID).Msg("send queue full, closing connection")
		client.Conn.Close()
	}
}

func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	s.clients[client.ID] = client
}

// removeClient closes the send queue under the write lock so Dispatch can never
// send on a closed channel.
func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		close(client.SendChan)
	}
}

// ClientCount returns the number of open connections.
func (s *WebSocketService) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}
