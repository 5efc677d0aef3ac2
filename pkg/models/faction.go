package models

import (
	"fmt"
	"strings"
)

// Faction identifies the side a unit fights for.
type Faction int

const (
	FactionNeutral Faction = iota
	FactionPlayer
	FactionEnemy
)

// String returns the lower-case faction name.
func (f Faction) String() string {
	switch f {
	case FactionNeutral:
		return "neutral"
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	default:
		return fmt.Sprintf("faction(%d)", int(f))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Faction) UnmarshalText(text []byte) error {
	parsed, err := ParseFaction(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFaction maps a faction name to its value.
func ParseFaction(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral":
		return FactionNeutral, nil
	case "player":
		return FactionPlayer, nil
	case "enemy":
		return FactionEnemy, nil
	}
	return FactionNeutral, fmt.Errorf("unknown faction %q", s)
}

// Relation reports whether faction a is hostile to faction b.
type Relation func(a, b Faction) bool

// DefaultRelation treats distinct non-neutral factions as hostile.
// Neutral units are hostile to nobody.
func DefaultRelation(a, b Faction) bool {
	if a == FactionNeutral || b == FactionNeutral {
		return false
	}
	return a != b
}
