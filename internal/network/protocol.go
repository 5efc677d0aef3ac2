package network

import (
	"encoding/json"

	"github.com/gravitas-games/hextactics/internal/hex"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// Message types - Client → Server
const (
	MsgTypePing     = "ping"
	MsgTypeFindPath = "find_path"
	MsgTypeMove     = "move"
	MsgTypeEndTurn  = "end_turn"
	MsgTypeQueryFog = "query_fog"
)

// Message types - Server → Client
const (
	MsgTypeWelcome      = "welcome"
	MsgTypePong         = "pong"
	MsgTypePath         = "path"
	MsgTypeMoveResult   = "move_result"
	MsgTypeUnitMoved    = "unit_moved"
	MsgTypeVisibility   = "visibility"
	MsgTypeUnitDetected = "unit_detected"
	MsgTypeError        = "error"
)

// Bridge event types published on the redis channel
const (
	BridgeMoveCompleted = "move_completed"
	BridgeTurnChanged   = "turn_changed"
	BridgeUnitDied      = "unit_died"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// FindPathPayload asks for the battle path of a unit without moving it
type FindPathPayload struct {
	UnitID string    `json:"unit_id"`
	Goal   hex.Axial `json:"goal"`
}

// MovePayload orders a unit to walk to a goal
type MovePayload struct {
	UnitID string    `json:"unit_id"`
	Goal   hex.Axial `json:"goal"`
}

// EndTurnPayload passes the turn to the given side
type EndTurnPayload struct {
	Side models.Faction `json:"side"`
}

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	PlayerID  string         `json:"player_id"`
	Name      string         `json:"name"`
	SessionID string         `json:"session_id"`
	Faction   models.Faction `json:"faction"`
	Turn      models.Faction `json:"turn"`
	MapRadius int            `json:"map_radius"`
}

// PathPayload answers a find_path request
type PathPayload struct {
	UnitID string      `json:"unit_id"`
	Found  bool        `json:"found"`
	Steps  []hex.Axial `json:"steps"`
	Cost   int         `json:"cost"`
}

// MoveResultPayload reports how far a move order got
type MoveResultPayload struct {
	UnitID string      `json:"unit_id"`
	Taken  []hex.Axial `json:"taken"`
	Spent  int         `json:"spent"`
	Error  string      `json:"error,omitempty"`
}

// UnitMovedPayload is broadcast for every committed step the viewer can see
type UnitMovedPayload struct {
	UnitID  string         `json:"unit_id"`
	Faction models.Faction `json:"faction"`
	From    hex.Axial      `json:"from"`
	To      hex.Axial      `json:"to"`
}

// UnitView is a unit as the viewing side is allowed to see it
type UnitView struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Faction models.Faction `json:"faction"`
	Pos     hex.Axial      `json:"pos"`
}

// VisibilityPayload carries the viewer's fog state after a refresh
type VisibilityPayload struct {
	Visible  []hex.Axial `json:"visible"`
	Explored []hex.Axial `json:"explored"`
	Sensed   []hex.Axial `json:"sensed"`
	Units    []UnitView  `json:"units"`
}

// UnitDetectedPayload reports a hidden hostile sensed for the first time
type UnitDetectedPayload struct {
	At hex.Axial `json:"at"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BridgeEvent is a battle event exchanged with external simulators over redis
type BridgeEvent struct {
	Type   string         `json:"type"`
	Origin string         `json:"origin,omitempty"` // publishing server; receivers skip their own events
	UnitID string         `json:"unit_id,omitempty"`
	From   *hex.Axial     `json:"from,omitempty"` // nil: the receiver's own record of the unit's position
	To     hex.Axial      `json:"to"`
	Side   models.Faction `json:"side"`
}
