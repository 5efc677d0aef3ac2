package models

import "time"

// Player represents a connected client commanding one faction.
type Player struct {
	// From JWT claims
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Faction Faction `json:"faction"`

	// Connection state
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`

	// Session state
	SessionID string `json:"session_id"`
}

// IsConnected checks if the player is currently connected
func (p *Player) IsConnected() bool {
	return p.Connected
}

// Commands reports whether the player may issue orders to the unit.
func (p *Player) Commands(u *Unit) bool {
	return u != nil && u.Faction == p.Faction
}
