package cw

import (
	"testing"

	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagAndBaseTables(t *testing.T) {
	assert.Same(t, SaraFlag, FlagOf(core.TeamSara))
	assert.Same(t, ZamFlag, FlagOf(core.TeamZam))
	assert.Nil(t, FlagOf(core.TeamNone))
	assert.Nil(t, FlagOf(core.Team(9)))

	assert.Same(t, SaraBase, BaseOf(core.TeamSara))
	assert.Same(t, ZamBase, BaseOf(core.TeamZam))
	assert.Nil(t, BaseOf(core.TeamNone))
}

func TestFlagLookups(t *testing.T) {
	assert.Same(t, SaraFlag, FlagFromEquipment(ItemSaradominBanner))
	assert.Same(t, ZamFlag, FlagFromEquipment(ItemZamorakBanner))
	assert.Nil(t, FlagFromEquipment(-1))

	assert.Same(t, SaraFlag, FlagFromDroppedObject(ObjectSaradominStandardDropped))
	assert.Same(t, ZamFlag, FlagFromDroppedObject(ObjectZamorakStandardDropped))
	assert.Nil(t, FlagFromDroppedObject(1))
}

func TestMatchArea(t *testing.T) {
	tests := []struct {
		name string
		p    core.WorldPoint
		want Area
	}{
		{"sara ground", core.WorldPoint{X: 2420, Y: 3080, Plane: 0}, AreaSaraGround},
		{"sara fourth", core.WorldPoint{X: 2427, Y: 3075, Plane: 3}, AreaSaraFourth},
		{"zam ground", core.WorldPoint{X: 2375, Y: 3125, Plane: 0}, AreaZamGround},
		{"zam fourth", core.WorldPoint{X: 2372, Y: 3130, Plane: 3}, AreaZamFourth},
		{"north rocks", core.WorldPoint{X: 2405, Y: 9512, Plane: 0}, AreaNorthRocks},
		{"south rocks", core.WorldPoint{X: 2390, Y: 9493, Plane: 0}, AreaSouthRocks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchArea(tt.p)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := MatchArea(core.WorldPoint{X: 2400, Y: 3100, Plane: 0})
	assert.False(t, ok)
	assert.Equal(t, AreaNone, got)
}

func TestArea_IsRocks(t *testing.T) {
	assert.True(t, AreaNorthRocks.IsRocks())
	assert.True(t, AreaSouthRocks.IsRocks())
	assert.False(t, AreaSaraGround.IsRocks())
	assert.Equal(t, "north_rocks", AreaNorthRocks.String())
	assert.Equal(t, "unknown", Area(99).String())
}

func TestMatchBase(t *testing.T) {
	b, ok := MatchBase(core.WorldPoint{X: 2420, Y: 3080, Plane: 2})
	require.True(t, ok)
	assert.Equal(t, core.TeamSara, b.Team)

	b, ok = MatchBase(core.WorldPoint{X: 2370, Y: 3120, Plane: 1})
	require.True(t, ok)
	assert.Equal(t, core.TeamZam, b.Team)

	_, ok = MatchBase(core.WorldPoint{X: 2400, Y: 3100, Plane: 0})
	assert.False(t, ok)
}

func TestBarricadeFromNPC(t *testing.T) {
	b, ok := BarricadeFromNPC(NPCSaraBarricade)
	require.True(t, ok)
	assert.False(t, b.Tinded)

	b, ok = BarricadeFromNPC(NPCZamBarricadeTinded)
	require.True(t, ok)
	assert.True(t, b.Tinded)
	assert.Equal(t, core.TeamZam, b.Team)

	_, ok = BarricadeFromNPC(NPCLanthus)
	assert.False(t, ok)
}

func TestTimeRemainingWidget(t *testing.T) {
	assert.Equal(t, WidgetTimeRemainingSara, TimeRemainingWidget(core.TeamSara))
	assert.Equal(t, WidgetTimeRemainingZam, TimeRemainingWidget(core.TeamZam))
	assert.Empty(t, TimeRemainingWidget(core.TeamNone))
}

func TestIsCastleWarsBracelet(t *testing.T) {
	for _, id := range []int{ItemCastleWarsBracelet3, ItemCastleWarsBracelet2, ItemCastleWarsBracelet1} {
		assert.True(t, IsCastleWarsBracelet(id), id)
	}
	assert.False(t, IsCastleWarsBracelet(ItemSaradominBanner))
	assert.False(t, IsCastleWarsBracelet(0))
}
