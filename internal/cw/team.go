// Package cw holds the fixed Castle Wars tables: flags, bases, areas and barricades.
package cw

import (
	"github.com/cwstats/recorder/internal/geo"
	"github.com/cwstats/recorder/pkg/core"
)

// Flag is a team's standard.
type Flag struct {
	Team            core.Team
	EquipmentID     int
	DroppedObjectID int
	MenuName        string
}

// Base is a team's castle.
type Base struct {
	Team   core.Team
	Ground Area
	Fourth Area
	floors []geo.Area
}

// Contains reports whether p is anywhere inside the castle.
func (b *Base) Contains(p core.WorldPoint) bool {
	for _, f := range b.floors {
		if f.Contains(p) {
			return true
		}
	}
	return false
}

var (
	SaraFlag = &Flag{
		Team:            core.TeamSara,
		EquipmentID:     ItemSaradominBanner,
		DroppedObjectID: ObjectSaradominStandardDropped,
		MenuName:        "Saradomin standard",
	}
	ZamFlag = &Flag{
		Team:            core.TeamZam,
		EquipmentID:     ItemZamorakBanner,
		DroppedObjectID: ObjectZamorakStandardDropped,
		MenuName:        "Zamorak standard",
	}

	SaraBase = &Base{
		Team:   core.TeamSara,
		Ground: AreaSaraGround,
		Fourth: AreaSaraFourth,
		floors: castleFloors(2415, 3072, 2431, 3088),
	}
	ZamBase = &Base{
		Team:   core.TeamZam,
		Ground: AreaZamGround,
		Fourth: AreaZamFourth,
		floors: castleFloors(2368, 3119, 2384, 3135),
	}
)

// flags and bases are indexed by core.Team.
var (
	flags = [...]*Flag{core.TeamNone: nil, core.TeamSara: SaraFlag, core.TeamZam: ZamFlag}
	bases = [...]*Base{core.TeamNone: nil, core.TeamSara: SaraBase, core.TeamZam: ZamBase}
)

func castleFloors(minX, minY, maxX, maxY int) []geo.Area {
	floors := make([]geo.Area, 0, 4)
	for plane := 0; plane < 4; plane++ {
		floors = append(floors, mustRect(minX, minY, maxX, maxY, plane))
	}
	return floors
}

// FlagOf returns the team's flag, or nil for TeamNone.
func FlagOf(t core.Team) *Flag {
	if t < 0 || int(t) >= len(flags) {
		return nil
	}
	return flags[t]
}

// BaseOf returns the team's castle, or nil for TeamNone.
func BaseOf(t core.Team) *Base {
	if t < 0 || int(t) >= len(bases) {
		return nil
	}
	return bases[t]
}

// FlagFromEquipment returns the flag wielded as the given weapon item.
func FlagFromEquipment(itemID int) *Flag {
	for _, f := range flags {
		if f != nil && f.EquipmentID == itemID {
			return f
		}
	}
	return nil
}

// FlagFromDroppedObject returns the flag a dropped world object represents.
func FlagFromDroppedObject(objectID int) *Flag {
	for _, f := range flags {
		if f != nil && f.DroppedObjectID == objectID {
			return f
		}
	}
	return nil
}

// MatchBase returns the castle containing p.
func MatchBase(p core.WorldPoint) (*Base, bool) {
	for _, b := range bases {
		if b != nil && b.Contains(p) {
			return b, true
		}
	}
	return nil, false
}

// TimeRemainingWidget names the HUD widget shown to the team while a round is live.
func TimeRemainingWidget(t core.Team) string {
	switch t {
	case core.TeamSara:
		return WidgetTimeRemainingSara
	case core.TeamZam:
		return WidgetTimeRemainingZam
	default:
		return ""
	}
}
