package cw

import (
	"github.com/cwstats/recorder/internal/geo"
	"github.com/cwstats/recorder/pkg/core"
)

// Area is a named sub-area used to classify where the player is standing.
type Area int

const (
	AreaNone Area = iota
	AreaSaraGround
	AreaSaraFourth
	AreaZamGround
	AreaZamFourth
	AreaNorthRocks
	AreaSouthRocks
)

var areaNames = map[Area]string{
	AreaNone:       "none",
	AreaSaraGround: "sara_ground",
	AreaSaraFourth: "sara_fourth",
	AreaZamGround:  "zam_ground",
	AreaZamFourth:  "zam_fourth",
	AreaNorthRocks: "north_rocks",
	AreaSouthRocks: "south_rocks",
}

func (a Area) String() string {
	if n, ok := areaNames[a]; ok {
		return n
	}
	return "unknown"
}

// IsRocks reports whether a is one of the underground choke points.
func (a Area) IsRocks() bool {
	return a == AreaNorthRocks || a == AreaSouthRocks
}

func mustRect(minX, minY, maxX, maxY, plane int) geo.Area {
	a, err := geo.NewRect(minX, minY, maxX, maxY, plane)
	if err != nil {
		panic(err)
	}
	return a
}

// areaBounds are checked in order; the first match wins.
var areaBounds = []struct {
	area  Area
	shape geo.Area
}{
	{AreaSaraGround, mustRect(2415, 3072, 2431, 3088, 0)},
	{AreaSaraFourth, mustRect(2423, 3072, 2431, 3080, 3)},
	{AreaZamGround, mustRect(2368, 3119, 2384, 3135, 0)},
	{AreaZamFourth, mustRect(2368, 3127, 2376, 3135, 3)},
	{AreaNorthRocks, mustRect(2400, 9510, 2410, 9515, 0)},
	{AreaSouthRocks, mustRect(2389, 9490, 2399, 9495, 0)},
}

// MatchArea returns the sub-area containing p, or AreaNone.
func MatchArea(p core.WorldPoint) (Area, bool) {
	for _, b := range areaBounds {
		if b.shape.Contains(p) {
			return b.area, true
		}
	}
	return AreaNone, false
}
