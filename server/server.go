// Package server exposes a Simulation over a websocket. Clients send JSON
// commands and receive a frame with the full branch snapshot after every
// state change, so renderers can rebuild their scene keyed by branch id.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/joepstevens0/inf-masterproef/pruning"
	"github.com/joepstevens0/inf-masterproef/sim"
)

const writeTimeout = 10 * time.Second

// client pairs a connection with its write lock; gorilla connections allow
// one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Server serialises all access to one Simulation.
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu  sync.Mutex // guards sim
	sim *sim.Simulation

	clientsMu sync.RWMutex
	clients   map[*client]struct{}
}

// New wraps s. A nil logger discards logs.
func New(s *sim.Simulation, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log: log,
		upgrader: websocket.Upgrader{
			// Local tooling front ends are served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sim:     s,
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.log.Info("server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	s.addClient(c)
	defer s.removeClient(c)

	if err := c.send(s.frame()); err != nil {
		s.log.Warn("initial frame failed", zap.Error(err))
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			_ = c.send(ErrorResponse{Type: MsgError, Error: fmt.Sprintf("decode request: %v", err)})
			continue
		}
		s.handle(c, req)
	}
}

// handle runs one request. State changes are broadcast to every client;
// queries and errors only go back to the sender.
func (s *Server) handle(c *client, req Request) {
	reply, changed, err := s.apply(req)
	if err != nil {
		s.log.Debug("request rejected", zap.String("type", req.Type), zap.Error(err))
		_ = c.send(ErrorResponse{Type: MsgError, Request: req.Type, Error: err.Error()})
		return
	}
	if reply != nil {
		if err := c.send(reply); err != nil {
			s.log.Warn("reply failed", zap.Error(err))
		}
	}
	if changed {
		s.broadcast(s.frame())
	}
}

func (s *Server) apply(req Request) (reply any, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Type {
	case MsgGrow:
		n := req.Count
		if n == 0 {
			n = 1
		}
		if n < 0 || n > maxGrowCount {
			return nil, false, fmt.Errorf("grow count %d outside [1, %d]", n, maxGrowCount)
		}
		for range n {
			s.sim.PerformGrowthIteration()
		}
		return nil, true, nil

	case MsgReset:
		s.sim.ResetPlants()
		return nil, true, nil

	case MsgRecalculate:
		s.sim.RecalculatePlants()
		return nil, true, nil

	case MsgPruneID:
		if !s.sim.PruneID(req.ID) {
			return nil, false, fmt.Errorf("no bud with id %d", req.ID)
		}
		return nil, true, nil

	case MsgPruneRule:
		rule, err := pruning.ParseRule(req.Rule)
		if err != nil {
			return nil, false, err
		}
		s.sim.PruneByRule(rule)
		return nil, true, nil

	case MsgSelect:
		s.sim.SetSelectedID(req.ID)
		return nil, true, nil

	case MsgSetParam, MsgGetParam:
		if req.Param == nil {
			return nil, false, fmt.Errorf("%s needs a param", req.Type)
		}
		p, err := req.Param.toParameter()
		if err != nil {
			return nil, false, err
		}
		if req.Type == MsgSetParam {
			s.sim.UpdateParameter(p)
		}
		resp := ParamResponse{Type: MsgParam, Param: paramMessage(s.sim.Parameter(p))}
		return resp, req.Type == MsgSetParam, nil

	case MsgMetamer:
		snap, ok := s.sim.MetamerByID(req.ID)
		resp := MetamerResponse{Type: MsgMetamer, ID: req.ID, Found: ok}
		if ok {
			resp.Metamer = &snap
		}
		return resp, false, nil

	case MsgDebugTexture:
		return s.texture(req.Layer), false, nil
	}
	return nil, false, fmt.Errorf("unknown request type %q", req.Type)
}

func (s *Server) texture(layer int) TextureResponse {
	pixels := s.sim.DebugTexture(layer)
	w := s.sim.Environment().Resolution().X
	resp := TextureResponse{Type: MsgDebugTexture, Layer: layer, Width: w}
	if w > 0 {
		resp.Height = len(pixels) / w
	}
	resp.Pixels = make([]byte, 0, 4*len(pixels))
	for _, p := range pixels {
		resp.Pixels = append(resp.Pixels, p.R, p.G, p.B, p.A)
	}
	return resp
}

func (s *Server) frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Frame{
		Type:      MsgFrame,
		Iteration: s.sim.Iteration(),
		Selected:  s.sim.SelectedID(),
		Branches:  s.sim.BranchViews(),
	}
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.log.Info("client connected", zap.Int("clients", n))
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	n := len(s.clients)
	s.clientsMu.Unlock()
	_ = c.conn.Close()
	s.log.Info("client disconnected", zap.Int("clients", n))
}

func (s *Server) broadcast(v any) {
	s.clientsMu.RLock()
	var failed []*client
	for c := range s.clients {
		if err := c.send(v); err != nil {
			s.log.Warn("broadcast failed", zap.Error(err))
			failed = append(failed, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range failed {
		s.removeClient(c)
	}
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		_ = c.conn.Close()
	}
}
