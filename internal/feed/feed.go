// Package feed streams session output to local overlay clients over a
// WebSocket endpoint. The feed is broadcast-only: clients connect to
// ws://<addr>/feed and receive suggestion, status and notice frames.
package feed

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/coach"
	"github.com/kostaspaps/NG/internal/transcript"
)

const (
	clientBuffer = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type suggestionFrame struct {
	Type       string           `json:"type"`
	Suggestion coach.Suggestion `json:"suggestion"`
}

type statusFrame struct {
	Type      string `json:"type"`
	Stream    string `json:"stream"`
	Capturing bool   `json:"capturing"`
}

type noticeFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type client struct {
	conn *websocket.Conn
	send chan any
}

// Server broadcasts session output to every connected client. A
// client that stops draining its buffer is dropped rather than letting
// it stall the session.
type Server struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	states   map[transcript.Label]bool
	last     *coach.Suggestion
	listener net.Listener
	httpSrv  *http.Server
	closed   bool
}

func NewServer(log zerolog.Logger) *Server {
	return &Server{
		log: log.With().Str("component", "feed").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*client]struct{}),
		states:  make(map[transcript.Label]bool),
	}
}

// Start listens on addr and serves /feed until Close.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)

	srv := &http.Server{Handler: mux}

	s.mu.Lock()
	s.listener = listener
	s.httpSrv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("Feed server stopped")
		}
	}()

	s.log.Info().Str("addr", listener.Addr().String()).Msg("Suggestion feed listening")
	return nil
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Feed upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan any, clientBuffer)}

	// Snapshot so a client attaching mid-session paints immediately.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	for label, capturing := range s.states {
		c.send <- statusFrame{Type: "status", Stream: string(label), Capturing: capturing}
	}
	if s.last != nil {
		c.send <- suggestionFrame{Type: "suggestion", Suggestion: *s.last}
	}
	s.mu.Unlock()

	s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Feed client connected")

	go s.writeLoop(c)
	go s.readLoop(c)
}

// readLoop discards inbound frames; its job is noticing disconnects.
func (s *Server) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				c.conn.Close()
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(frame); err != nil {
				s.drop(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drop(c)
				return
			}
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// broadcast queues a frame for every client, dropping clients whose
// buffers are full.
func (s *Server) broadcast(frame any) {
	s.mu.Lock()
	var slow []*client
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
			delete(s.clients, c)
		}
	}
	s.mu.Unlock()

	for _, c := range slow {
		s.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("Dropping slow feed client")
		c.conn.Close()
	}
}

// ShowSuggestion implements the session display surface.
func (s *Server) ShowSuggestion(suggestion coach.Suggestion) {
	s.mu.Lock()
	s.last = &suggestion
	s.mu.Unlock()
	s.broadcast(suggestionFrame{Type: "suggestion", Suggestion: suggestion})
}

func (s *Server) StreamState(label transcript.Label, capturing bool) {
	s.mu.Lock()
	s.states[label] = capturing
	s.mu.Unlock()
	s.broadcast(statusFrame{Type: "status", Stream: string(label), Capturing: capturing})
}

func (s *Server) Notify(message string) {
	s.broadcast(noticeFrame{Type: "notice", Message: message})
}

// Close disconnects every client and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	srv := s.httpSrv
	s.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
