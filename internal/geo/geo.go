package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwstats/recorder/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Tiles are unit squares. A tile (x, y) is tested by its centre point so that shared
// polygon edges never claim a tile for two areas at once.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// WorldPointFromString parses "x,y" or "x,y,plane" into a core.WorldPoint.
func WorldPointFromString(coords string) (core.WorldPoint, error) {
	coordsSplit := strings.Split(strings.TrimSpace(coords), ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return core.WorldPoint{}, ErrInvalidCoordinates
	}
	vals := make([]int, 3)
	for i, s := range coordsSplit {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return core.WorldPoint{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	return core.WorldPoint{X: vals[0], Y: vals[1], Plane: vals[2]}, nil
}

// Area is a polygon of tiles on a single plane.
type Area struct {
	plane   int
	polygon geom.Polygon
}

// NewRect builds an area covering every tile from (minX, minY) to (maxX, maxY) inclusive.
func NewRect(minX, minY, maxX, maxY, plane int) (Area, error) {
	if maxX < minX || maxY < minY {
		return Area{}, fmt.Errorf("invalid rect (%d,%d)-(%d,%d)", minX, minY, maxX, maxY)
	}
	x0, y0 := float64(minX), float64(minY)
	x1, y1 := float64(maxX+1), float64(maxY+1)
	ring, err := geom.NewLineString(geom.NewSequence([]float64{
		x0, y0,
		x1, y0,
		x1, y1,
		x0, y1,
		x0, y0,
	}, geom.DimXY))
	if err != nil {
		return Area{}, fmt.Errorf("failed to build area ring: %w", err)
	}
	polygon, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return Area{}, fmt.Errorf("failed to build area polygon: %w", err)
	}
	return Area{plane: plane, polygon: polygon}, nil
}

// Contains reports whether the tile at p lies inside the area.
func (a Area) Contains(p core.WorldPoint) bool {
	if p.Plane != a.plane || a.polygon.IsEmpty() {
		return false
	}
	centre, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5},
		Type: geom.DimXY,
	})
	if err != nil {
		return false
	}
	return geom.Intersects(a.polygon.AsGeometry(), centre.AsGeometry())
}
