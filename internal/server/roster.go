package server

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/network"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// Roster tracks the players connected to the battle and their connections.
// A player may hold more than one connection.
type Roster struct {
	sessionID string
	createdAt time.Time

	players     map[string]*models.Player
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	log logrus.FieldLogger
}

// NewRoster creates an empty roster for a battle session
func NewRoster(sessionID string, log logrus.FieldLogger) *Roster {
	return &Roster{
		sessionID:   sessionID,
		createdAt:   time.Now(),
		players:     make(map[string]*models.Player),
		connections: make(map[*Connection]struct{}),
		log:         log,
	}
}

// AddPlayer registers a connection and marks its player connected
func (r *Roster) AddPlayer(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := conn.player
	if existing, ok := r.players[p.ID]; ok {
		p = existing
		conn.player = existing
	} else {
		r.players[p.ID] = p
	}
	p.Connected = true
	p.ConnectedAt = time.Now()
	p.LastSeen = p.ConnectedAt
	p.SessionID = r.sessionID
	r.connections[conn] = struct{}{}

	r.log.WithFields(logrus.Fields{
		"player":  p.ID,
		"faction": p.Faction.String(),
	}).Info("Player joined")
}

// RemoveConnection drops a connection; the player is marked disconnected
// once its last connection is gone.
func (r *Roster) RemoveConnection(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[conn]; !ok {
		return
	}
	delete(r.connections, conn)

	p := conn.player
	for other := range r.connections {
		if other.player.ID == p.ID {
			return
		}
	}
	p.Connected = false
	p.LastSeen = time.Now()
	r.log.WithField("player", p.ID).Info("Player left")
}

// GetPlayer retrieves a player by ID
func (r *Roster) GetPlayer(playerID string) (*models.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	return p, ok
}

// Players returns every player seen this battle ordered by ID
func (r *Roster) Players() []*models.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]*models.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// ConnectionCount returns the number of open connections
func (r *Roster) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Broadcast sends a message to every connection whose player passes filter.
// A nil filter matches everyone.
func (r *Roster) Broadcast(msg *network.ServerMessage, filter func(p *models.Player) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for conn := range r.connections {
		if filter == nil || filter(conn.player) {
			conn.SendMessage(msg)
		}
	}
}

// CloseAll closes every open connection
func (r *Roster) CloseAll() {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.connections))
	for conn := range r.connections {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Uptime returns how long the battle has been running
func (r *Roster) Uptime() time.Duration {
	return time.Since(r.createdAt)
}
