package client

import (
	"testing"

	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_LocalPlayer(t *testing.T) {
	s := NewState(nil)

	_, ok := s.LocalPlayer()
	assert.False(t, ok, "no local player before it is reported")

	s.SetLocalPlayer(3)
	_, ok = s.LocalPlayer()
	assert.False(t, ok, "local index without a player snapshot is unresolved")

	s.UpdatePlayer(core.PlayerState{Index: 3, Name: "me", Team: 2})
	p, ok := s.LocalPlayer()
	require.True(t, ok)
	assert.Equal(t, "me", p.Name)
}

func TestState_Scalars(t *testing.T) {
	s := NewState(nil)
	s.SetTick(12)
	s.SetWorld(302)
	s.SetVar("cw_sara_score", 2)
	s.SetWidget("cw_time_remaining_sara", true)
	s.SetSkillExperience("MAGIC", 1000)
	s.SetGameState("LOGGED_IN")

	assert.Equal(t, 12, s.TickCount())
	assert.Equal(t, 302, s.World())
	assert.Equal(t, 2, s.Var("cw_sara_score"))
	assert.Equal(t, 0, s.Var("unknown"))
	assert.True(t, s.WidgetVisible("cw_time_remaining_sara"))
	assert.False(t, s.WidgetVisible("cw_time_remaining_zam"))
	assert.Equal(t, 1000, s.SkillExperience("MAGIC"))
	assert.Equal(t, "LOGGED_IN", s.GameState())
}

func TestState_ItemContainerIsCopied(t *testing.T) {
	s := NewState(nil)
	items := []int{4045, 4053}
	s.SetContainer(core.ContainerInventory, items)
	items[0] = 1

	got, ok := s.ItemContainer(core.ContainerInventory)
	require.True(t, ok)
	assert.Equal(t, []int{4045, 4053}, got)

	got[1] = 2
	again, _ := s.ItemContainer(core.ContainerInventory)
	assert.Equal(t, 4053, again[1])

	_, ok = s.ItemContainer(core.ContainerEquipment)
	assert.False(t, ok)
}

func TestState_Reset(t *testing.T) {
	s := NewState(nil)
	s.SetLocalPlayer(1)
	s.UpdatePlayer(core.PlayerState{Index: 1})
	s.UpdateNPC(core.NPCState{Index: 2})
	s.SetVar("x", 1)

	s.Reset()

	_, ok := s.LocalPlayer()
	assert.False(t, ok)
	assert.Empty(t, s.Players())
	assert.Empty(t, s.NPCs())
	assert.Equal(t, 0, s.Var("x"))
}
