package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/network"
	"github.com/gravitas-games/hextactics/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	errNotYourUnit = errors.New("unit is not under your command")
	errNotYourTurn = errors.New("it is not your side's turn")
	errUnitBusy    = errors.New("unit is already moving")
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	ws     *websocket.Conn
	server *Server
	player *models.Player

	// Buffered channel for outbound messages
	send   chan []byte
	mu     sync.Mutex
	closed bool
	once   sync.Once

	log logrus.FieldLogger
}

// NewConnection creates a new connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		send:   make(chan []byte, 256),
		log:    server.log.WithField("player", player.ID),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			c.log.WithError(err).Debug("Failed to parse client message")
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	c.log.WithField("type", msg.Type).Debug("Received message")

	switch msg.Type {
	case network.MsgTypePing:
		c.handlePing()

	case network.MsgTypeFindPath:
		c.handleFindPath(msg.Payload)

	case network.MsgTypeMove:
		c.handleMove(msg.Payload)

	case network.MsgTypeEndTurn:
		c.handleEndTurn(msg.Payload)

	case network.MsgTypeQueryFog:
		c.handleQueryFog()

	default:
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

func (c *Connection) sendWelcome() {
	var turn models.Faction
	c.server.do(func() { turn = c.server.battle.Turn() })

	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:  c.player.ID,
			Name:      c.player.Name,
			SessionID: c.server.battle.ID,
			Faction:   c.player.Faction,
			Turn:      turn,
			MapRadius: c.server.config.Battle.MapRadius,
		},
	})
	if c.server.isViewer(c.player) {
		c.handleQueryFog()
	}
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// handleFindPath answers with the battle path of one of the player's units
func (c *Connection) handleFindPath(payload json.RawMessage) {
	var req network.FindPathPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_find_path", "Invalid find_path payload")
		return
	}

	resp := network.PathPayload{UnitID: req.UnitID}
	var cmdErr error
	err := c.server.do(func() {
		u, ok := c.server.battle.Unit(req.UnitID)
		if !ok || !u.IsAlive() {
			cmdErr = battle.ErrUnknownUnit
			return
		}
		if !c.player.Commands(u) {
			cmdErr = errNotYourUnit
			return
		}
		p, found := c.server.battle.PathFor(u, req.Goal)
		resp.Found = found
		resp.Steps = p.Steps
		resp.Cost = p.Cost
	})
	if err == nil {
		err = cmdErr
	}
	if err != nil {
		c.SendError("find_path_failed", err.Error())
		return
	}

	c.SendMessage(&network.ServerMessage{Type: network.MsgTypePath, Payload: resp})
}

// handleMove starts a walk; steps are committed on the game loop with a
// pause between them so clients can animate.
func (c *Connection) handleMove(payload json.RawMessage) {
	var req network.MovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_move", "Invalid move payload")
		return
	}

	var (
		walk   *battle.Walk
		cmdErr error
	)
	err := c.server.do(func() {
		u, ok := c.server.battle.Unit(req.UnitID)
		switch {
		case !ok || !u.IsAlive():
			cmdErr = battle.ErrUnknownUnit
		case !c.player.Commands(u):
			cmdErr = errNotYourUnit
		case c.server.battle.Turn() != u.Faction:
			cmdErr = errNotYourTurn
		case c.server.walking[u.ID]:
			cmdErr = errUnitBusy
		default:
			walk, cmdErr = c.server.battle.BeginWalk(u, req.Goal)
			if cmdErr == nil {
				c.server.walking[u.ID] = true
			}
		}
	})
	if err == nil {
		err = cmdErr
	}
	if err != nil {
		c.SendError("move_failed", err.Error())
		return
	}

	go c.runWalk(req.UnitID, walk)
}

func (c *Connection) runWalk(unitID string, walk *battle.Walk) {
	delay := time.Duration(c.server.config.Server.StepDelayMs) * time.Millisecond
	var stepErr error

	for {
		var done bool
		err := c.server.do(func() {
			if _, stepErr = walk.Step(); stepErr == nil {
				done = walk.Done()
			}
		})
		if err != nil {
			stepErr = err
		}
		if stepErr != nil || done {
			break
		}

		select {
		case <-time.After(delay):
		case <-c.server.ctx.Done():
			stepErr = c.server.ctx.Err()
		}
		if stepErr != nil {
			break
		}
	}

	var res battle.WalkResult
	c.server.do(func() {
		res = walk.Result()
		delete(c.server.walking, unitID)
	})

	out := network.MoveResultPayload{UnitID: unitID, Taken: res.Taken, Spent: res.Spent}
	if stepErr != nil {
		out.Error = stepErr.Error()
		c.log.WithError(stepErr).WithField("unit", unitID).Debug("Walk stopped early")
	}
	c.SendMessage(&network.ServerMessage{Type: network.MsgTypeMoveResult, Payload: out})
}

// handleEndTurn passes the turn to another side
func (c *Connection) handleEndTurn(payload json.RawMessage) {
	var req network.EndTurnPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_end_turn", "Invalid end_turn payload")
		return
	}

	var cmdErr error
	err := c.server.do(func() {
		if c.server.battle.Turn() != c.player.Faction {
			cmdErr = errNotYourTurn
			return
		}
		c.server.battle.HandleTurnChanged(req.Side)
	})
	if err == nil {
		err = cmdErr
	}
	if err != nil {
		c.SendError("end_turn_failed", err.Error())
	}
}

// handleQueryFog sends the viewer's current fog state to this connection only
func (c *Connection) handleQueryFog() {
	if !c.server.isViewer(c.player) {
		c.SendError("no_view", "Your side has no fog view in this battle")
		return
	}

	var vis network.VisibilityPayload
	if err := c.server.do(func() { vis = c.server.visibility() }); err != nil {
		return
	}
	c.SendMessage(&network.ServerMessage{Type: network.MsgTypeVisibility, Payload: vis})
}

// SendMessage queues a message for the client. Messages are dropped when the
// buffer is full or the connection is closed.
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.WithField("type", msg.Type).Warn("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close removes the connection from the roster and closes it
func (c *Connection) Close() {
	c.once.Do(func() {
		c.server.roster.RemoveConnection(c)

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		c.ws.Close()
	})
}
