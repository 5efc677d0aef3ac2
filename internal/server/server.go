package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/internal/network"
	"github.com/gravitas-games/hextactics/pkg/logger"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// Server hosts one battle over WebSocket. Every access to the battle session
// runs on a single game-loop goroutine; see do.
type Server struct {
	config   *config.Config
	battle   *battle.Session
	roster   *Roster
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	auth     *JWTValidator
	redis    *redis.Client
	bridge   *Bridge

	// Game loop
	actions chan func()
	walking map[string]bool // unit ID -> move in flight; loop-owned
	remote  bool            // set while applying a bridge event; loop-owned

	log logrus.FieldLogger

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server around a battle session. The session should not
// be used by the caller afterwards except through the server.
func New(cfg *config.Config, session *battle.Session, bus battle.EventBus, log logrus.FieldLogger) (*Server, error) {
	log = logger.OrDiscard(log).WithField("component", "server")
	log.Info("Initializing server...")

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:  cfg,
		battle:  session,
		roster:  NewRoster(session.ID, log),
		auth:    NewJWTValidator(cfg),
		actions: make(chan func(), 64),
		walking: make(map[string]bool),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"access_token"},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	if cfg.Redis.Enabled {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := srv.redis.Ping(ctx).Err(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		srv.bridge = NewBridge(srv.redis, cfg.Redis.Channel, log)
		log.WithField("channel", cfg.Redis.Channel).Info("Connected to Redis")
	}

	if !srv.auth.Enabled() {
		log.Warn("No auth secret configured, accepting unauthenticated connections")
	}

	srv.subscribe(bus)
	go srv.run()
	if srv.bridge != nil {
		go srv.bridge.Run(ctx, srv.applyRemote)
	}

	log.Info("Server initialized successfully")
	return srv, nil
}

// Start begins listening for connections
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("addr", addr).Info("Starting WebSocket server")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.log.Info("Shutting down server...")

	// Cancel context to stop the game loop, walks and the bridge
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.roster.CloseAll()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Warn("Redis close error")
		}
	}

	s.log.Info("Server shutdown complete")
	return nil
}

// run is the game loop: the only goroutine that touches the battle session.
func (s *Server) run() {
	for {
		select {
		case fn := <-s.actions:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

// do runs fn on the game loop and waits for it to finish.
func (s *Server) do(fn func()) error {
	done := make(chan struct{})
	select {
	case s.actions <- func() { defer close(done); fn() }:
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// subscribe forwards battle events to connections and the bridge. Handlers
// run on the game loop, inside the session call that raised the event.
func (s *Server) subscribe(bus battle.EventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(battle.EventVisibilityRefreshed, func(battle.Event) {
		s.roster.Broadcast(&network.ServerMessage{
			Type:    network.MsgTypeVisibility,
			Payload: s.visibility(),
		}, s.isViewer)
	})
	bus.Subscribe(battle.EventUnitDetected, func(e battle.Event) {
		s.roster.Broadcast(&network.ServerMessage{
			Type:    network.MsgTypeUnitDetected,
			Payload: network.UnitDetectedPayload{At: e.To},
		}, s.isViewer)
	})
	bus.Subscribe(battle.EventMoveCompleted, func(e battle.Event) {
		shown := s.battle.Fog().IsShown(e.Unit)
		s.roster.Broadcast(&network.ServerMessage{
			Type: network.MsgTypeUnitMoved,
			Payload: network.UnitMovedPayload{
				UnitID:  e.Unit.ID,
				Faction: e.Unit.Faction,
				From:    e.From,
				To:      e.To,
			},
		}, func(p *models.Player) bool {
			return p.Faction == e.Unit.Faction || (shown && s.isViewer(p))
		})
		s.forward(network.BridgeEvent{Type: network.BridgeMoveCompleted, UnitID: e.Unit.ID, From: &e.From, To: e.To, Side: e.Side})
	})
	bus.Subscribe(battle.EventTurnChanged, func(e battle.Event) {
		s.forward(network.BridgeEvent{Type: network.BridgeTurnChanged, Side: e.Side})
	})
	bus.Subscribe(battle.EventUnitDied, func(e battle.Event) {
		s.forward(network.BridgeEvent{Type: network.BridgeUnitDied, UnitID: e.Unit.ID, From: &e.From, To: e.To, Side: e.Side})
	})
}

// forward publishes a locally raised event on the bridge.
func (s *Server) forward(ev network.BridgeEvent) {
	if s.bridge == nil || s.remote {
		return
	}
	s.bridge.Publish(ev)
}

// applyRemote applies a bridge event on the game loop.
func (s *Server) applyRemote(ev network.BridgeEvent) {
	err := s.do(func() {
		s.remote = true
		defer func() { s.remote = false }()
		if err := ApplyBridgeEvent(s.battle, ev); err != nil {
			s.log.WithError(err).WithField("type", ev.Type).Warn("Rejected bridge event")
		}
	})
	if err != nil {
		s.log.WithError(err).Debug("Bridge event dropped")
	}
}

// isViewer reports whether p sees the battle through the session's fog.
func (s *Server) isViewer(p *models.Player) bool {
	return p.Faction == s.battle.PlayerSide()
}

// visibility builds the viewer's fog state. Must run on the game loop.
func (s *Server) visibility() network.VisibilityPayload {
	snap := s.battle.Fog().Snapshot()
	payload := network.VisibilityPayload{
		Visible:  snap.Visible,
		Explored: snap.Explored,
		Sensed:   snap.Sensed,
	}
	for _, u := range s.battle.Units() {
		if u.IsAlive() && s.battle.Fog().IsShown(u) {
			payload.Units = append(payload.Units, network.UnitView{
				ID:      u.ID,
				Name:    u.Name,
				Faction: u.Faction,
				Pos:     u.Pos,
			})
		}
	}
	return payload
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithField("remote", r.RemoteAddr)

	player, err := s.auth.Authenticate(r)
	if err != nil {
		reqLog.WithError(err).Warn("Rejected connection")
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		reqLog.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn := NewConnection(ws, s, player)
	s.roster.AddPlayer(conn)
	conn.sendWelcome()

	reqLog.WithField("player", player.ID).Info("WebSocket connection established")

	// Handle connection (blocking)
	conn.Handle()

	reqLog.WithField("player", player.ID).Info("WebSocket connection closed")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "ok",
		"session":     s.battle.ID,
		"connections": s.roster.ConnectionCount(),
		"uptime":      int64(s.roster.Uptime().Seconds()),
	})
}
