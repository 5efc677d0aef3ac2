package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/hextactics/internal/battle"
	"github.com/gravitas-games/hextactics/internal/network"
)

// Bridge exchanges battle events with external simulators over a redis
// pub/sub channel. Outgoing events are queued and published by Run.
type Bridge struct {
	client  *redis.Client
	channel string
	origin  string
	out     chan network.BridgeEvent
	log     logrus.FieldLogger
}

// NewBridge creates a bridge on the given channel
func NewBridge(client *redis.Client, channel string, log logrus.FieldLogger) *Bridge {
	origin := uuid.NewString()
	return &Bridge{
		client:  client,
		channel: channel,
		origin:  origin,
		out:     make(chan network.BridgeEvent, 256),
		log:     log.WithFields(logrus.Fields{"component": "bridge", "origin": origin}),
	}
}

// Publish queues an event for the channel. Events are dropped when the queue
// is full.
func (b *Bridge) Publish(ev network.BridgeEvent) {
	ev.Origin = b.origin
	select {
	case b.out <- ev:
	default:
		b.log.WithField("type", ev.Type).Warn("Bridge queue full, dropping event")
	}
}

// Run subscribes to the channel and hands every foreign event to apply until
// ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, apply func(network.BridgeEvent)) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	in := sub.Channel()

	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			ev, err := DecodeBridgeEvent([]byte(msg.Payload))
			if err != nil {
				b.log.WithError(err).Warn("Ignoring malformed bridge event")
				continue
			}
			if ev.Origin == b.origin {
				continue
			}
			apply(ev)

		case ev := <-b.out:
			data, err := json.Marshal(ev)
			if err != nil {
				b.log.WithError(err).Error("Failed to encode bridge event")
				continue
			}
			if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
				b.log.WithError(err).Warn("Failed to publish bridge event")
			}

		case <-ctx.Done():
			return
		}
	}
}

// DecodeBridgeEvent parses and checks a bridge message
func DecodeBridgeEvent(data []byte) (network.BridgeEvent, error) {
	var ev network.BridgeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode bridge event: %w", err)
	}
	switch ev.Type {
	case network.BridgeMoveCompleted, network.BridgeUnitDied:
		if ev.UnitID == "" {
			return ev, fmt.Errorf("bridge event %s has no unit_id", ev.Type)
		}
	case network.BridgeTurnChanged:
	default:
		return ev, fmt.Errorf("unknown bridge event type %q", ev.Type)
	}
	return ev, nil
}

// ApplyBridgeEvent feeds a bridge event into the battle session. Must run on
// the goroutine that owns the session.
func ApplyBridgeEvent(s *battle.Session, ev network.BridgeEvent) error {
	switch ev.Type {
	case network.BridgeTurnChanged:
		s.HandleTurnChanged(ev.Side)
		return nil

	case network.BridgeMoveCompleted:
		u, ok := s.Unit(ev.UnitID)
		if !ok || !u.IsAlive() {
			return fmt.Errorf("move %s: %w", ev.UnitID, battle.ErrUnknownUnit)
		}
		if t := s.Tiles().Get(ev.To); t == nil || !t.Walkable() {
			return fmt.Errorf("move %s: tile %s cannot hold a unit", ev.UnitID, ev.To)
		}
		if occ, taken := s.TryGetOccupantAt(ev.To); taken && occ.ID != u.ID {
			return fmt.Errorf("move %s to %s: %w", ev.UnitID, ev.To, battle.ErrGoalOccupied)
		}
		from := u.Pos
		if ev.From != nil {
			from = *ev.From
		}
		s.HandleMoveCompleted(u, from, ev.To)
		return nil

	case network.BridgeUnitDied:
		u, ok := s.Unit(ev.UnitID)
		if !ok {
			return fmt.Errorf("unit died %s: %w", ev.UnitID, battle.ErrUnknownUnit)
		}
		if u.IsAlive() {
			s.HandleUnitDied(u)
		}
		return nil

	default:
		return fmt.Errorf("unknown bridge event type %q", ev.Type)
	}
}
