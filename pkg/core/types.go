// pkg/core/types.go
package core

import (
	"fmt"
	"math"
)

// WorldPoint is a tile position in the game world.
type WorldPoint struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Plane int `json:"plane"`
}

// DistanceTo returns the Chebyshev tile distance to other.
// Points on different planes are infinitely far apart.
func (p WorldPoint) DistanceTo(other WorldPoint) int {
	if p.Plane != other.Plane {
		return math.MaxInt
	}
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}

// RegionID returns the id of the 64x64 map region containing the point.
func (p WorldPoint) RegionID() int {
	return (p.X>>6)<<8 | p.Y>>6
}

func (p WorldPoint) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Plane)
}

// ActorKind tells players and NPCs apart in an ActorRef.
type ActorKind uint8

const (
	ActorNone ActorKind = iota
	ActorPlayer
	ActorNPC
)

// ActorRef points at a player or NPC in the host's live object tables.
type ActorRef struct {
	Kind  ActorKind
	Index int
}

// IsZero reports whether the ref points at nothing.
func (r ActorRef) IsZero() bool {
	return r.Kind == ActorNone
}

func (r ActorRef) String() string {
	switch r.Kind {
	case ActorPlayer:
		return fmt.Sprintf("player:%d", r.Index)
	case ActorNPC:
		return fmt.Sprintf("npc:%d", r.Index)
	default:
		return ""
	}
}

// Team is a Castle Wars side.
type Team int

const (
	TeamNone Team = 0
	TeamSara Team = 1
	TeamZam  Team = 2
)

// TeamOf maps the host's raw team id to a Team. Unknown ids map to TeamNone.
func TeamOf(raw int) Team {
	switch Team(raw) {
	case TeamSara, TeamZam:
		return Team(raw)
	default:
		return TeamNone
	}
}

// Opposite returns the enemy team. TeamNone has no enemy.
func (t Team) Opposite() Team {
	switch t {
	case TeamSara:
		return TeamZam
	case TeamZam:
		return TeamSara
	default:
		return TeamNone
	}
}

func (t Team) String() string {
	switch t {
	case TeamSara:
		return "Saradomin"
	case TeamZam:
		return "Zamorak"
	default:
		return "None"
	}
}
