package tracker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cwstats/recorder/internal/client"
	"github.com/cwstats/recorder/internal/cw"
	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localIndex = 1

var (
	saraGround = core.WorldPoint{X: 2420, Y: 3080, Plane: 0}
	saraFourth = core.WorldPoint{X: 2425, Y: 3075, Plane: 3}
	northRocks = core.WorldPoint{X: 2405, Y: 9512, Plane: 0}
	outside    = core.WorldPoint{X: 2450, Y: 3100, Plane: 0}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newState(at core.WorldPoint, weapon int) *client.State {
	s := client.NewState(nil)
	s.SetTick(100)
	s.SetWorld(302)
	s.SetLocalPlayer(localIndex)
	s.UpdatePlayer(core.PlayerState{
		Index:    localIndex,
		Name:     "me",
		Team:     int(core.TeamSara),
		Location: at,
		WeaponID: weapon,
	})
	return s
}

func newTracker(s *client.State) *StatsTracker {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return New(s, quietLogger(), WithClock(func() time.Time { return fixed }))
}

func moveLocal(s *client.State, mutate func(p *core.PlayerState)) {
	p, ok := s.LocalPlayer()
	if !ok {
		panic("local player missing")
	}
	mutate(&p)
	s.UpdatePlayer(p)
}

func TestStartGame(t *testing.T) {
	s := newState(saraGround, 0)
	s.SetSkillExperience(cw.SkillMagic, 1000)
	tr := newTracker(s)

	require.False(t, tr.InGame())
	rec := tr.StartGame(12)

	require.True(t, tr.InGame())
	assert.Same(t, rec, tr.Current())
	assert.Equal(t, core.TeamSara, rec.Team)
	assert.Equal(t, 12, rec.TeamSize)
	assert.Equal(t, 302, rec.World)
	assert.Equal(t, 100, rec.StartTick)
	assert.Equal(t, core.TeamSara, tr.Team())

	tr.Reset()
	assert.False(t, tr.InGame())
	assert.Nil(t, tr.Current())
}

func TestFinishGame(t *testing.T) {
	s := newState(saraGround, 0)
	tr := newTracker(s)

	assert.Nil(t, tr.FinishGame())

	tr.StartGame(5)
	s.SetTick(150)
	s.SetVar(cw.VarSaraScore, 2)
	s.SetVar(cw.VarZamScore, 1)

	rec := tr.FinishGame()
	require.NotNil(t, rec)
	assert.True(t, rec.Finalized)
	assert.Equal(t, 2, rec.SaraScore)
	assert.Equal(t, 1, rec.ZamScore)
	assert.Equal(t, 150, rec.EndTick)
	assert.Equal(t, core.OutcomeVictory, rec.Outcome())

	// a second finish keeps the first scores
	s.SetVar(cw.VarZamScore, 9)
	rec = tr.FinishGame()
	assert.Equal(t, 1, rec.ZamScore)
}

func TestSignalsIgnoredOutsideRound(t *testing.T) {
	s := newState(northRocks, cw.ItemSaradominBanner)
	tr := newTracker(s)

	assert.NotPanics(t, func() {
		tr.OnTick(101)
		tr.OnAnimationChanged(core.AnimationEvent{Actor: core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}, AnimationID: cw.AnimationIceBarrage})
		tr.OnGraphicChanged(core.GraphicEvent{Actor: core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}, GraphicID: cw.GraphicIceBarrageHit})
		tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillMagic, Experience: 52})
		tr.OnHitsplatApplied(core.HitsplatEvent{Actor: core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}, Amount: 10})
		tr.OnChatMessage(core.ChatEvent{Message: cw.FrozenMessage})
		tr.OnLocalPlayerDeath()
		tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory})
		tr.OnObjectDespawned(core.ObjectDespawnEvent{ObjectID: cw.ObjectSaradominStandardDropped})
		tr.OnMenuOptionClicked(core.MenuEvent{Option: cw.MenuOptionCapture})
	})
	assert.Nil(t, tr.Current())
}

func TestSplashCorrelation(t *testing.T) {
	local := core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}

	tests := []struct {
		name      string
		gain      int
		xpTick    int
		wantSplat int
	}{
		{"gain at threshold same tick", 52, 100, 1},
		{"gain above threshold", 53, 100, 0},
		{"small gain on a later tick", 52, 101, 0},
		{"no gain", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(saraGround, 0)
			s.SetSkillExperience(cw.SkillMagic, 1000)
			tr := newTracker(s)
			tr.StartGame(5)

			tr.OnAnimationChanged(core.AnimationEvent{Actor: local, AnimationID: cw.AnimationIceBarrage})
			s.SetTick(tt.xpTick)
			tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillMagic, Experience: 1000 + tt.gain})

			assert.Equal(t, 1, tr.Current().TotalCastAttempts)
			assert.Equal(t, tt.wantSplat, tr.Current().Splashes)
		})
	}
}

func TestSplashWhenXPArrivesFirst(t *testing.T) {
	s := newState(saraGround, 0)
	s.SetSkillExperience(cw.SkillMagic, 1000)
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillMagic, Experience: 1052})
	tr.OnAnimationChanged(core.AnimationEvent{Actor: core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}, AnimationID: cw.AnimationIceBarrage})

	assert.Equal(t, 1, tr.Current().Splashes)
}

func TestDamageDealtFromHitpointsXP(t *testing.T) {
	s := newState(saraGround, 0)
	s.SetSkillExperience(cw.SkillHitpoints, 5000)
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillHitpoints, Experience: 5040})
	tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillHitpoints, Experience: 5240}) // 150 damage, noise
	tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillHitpoints, Experience: 5240})
	tr.OnExperienceChanged(core.ExperienceEvent{Skill: cw.SkillHitpoints, Experience: 5260})

	rec := tr.Current()
	assert.InDelta(t, 45.0, rec.DamageDealt, 0.01)
	assert.InDelta(t, 30.0, rec.HighestHitDealt, 0.01)
}

func TestTindBoundaries(t *testing.T) {
	cadeAt := core.WorldPoint{X: 2420, Y: 3090, Plane: 0}
	adjacent := core.WorldPoint{X: 2420, Y: 3089, Plane: 0}
	twoAway := core.WorldPoint{X: 2420, Y: 3088, Plane: 0}
	targetCade := core.ActorRef{Kind: core.ActorNPC, Index: 7}

	tests := []struct {
		name        string
		beforeID    int
		afterID     int
		localAt     core.WorldPoint
		interacting core.ActorRef
		clicked     bool
		want        int
	}{
		{"all conditions hold", cw.NPCZamBarricade, cw.NPCZamBarricadeTinded, adjacent, targetCade, true, 1},
		{"already lit last tick", cw.NPCZamBarricadeTinded, cw.NPCZamBarricadeTinded, adjacent, targetCade, true, 0},
		{"still unlit this tick", cw.NPCZamBarricade, cw.NPCZamBarricade, adjacent, targetCade, true, 0},
		{"not adjacent", cw.NPCZamBarricade, cw.NPCZamBarricadeTinded, twoAway, targetCade, true, 0},
		{"not targeting the cade", cw.NPCZamBarricade, cw.NPCZamBarricadeTinded, adjacent, core.ActorRef{}, true, 0},
		{"no tinderbox click", cw.NPCZamBarricade, cw.NPCZamBarricadeTinded, adjacent, targetCade, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(tt.localAt, 0)
			moveLocal(s, func(p *core.PlayerState) { p.Interacting = tt.interacting })
			s.UpdateNPC(core.NPCState{Index: 7, ID: tt.beforeID, Location: cadeAt})
			tr := newTracker(s)
			tr.StartGame(5)

			if tt.clicked {
				tr.OnMenuOptionClicked(core.MenuEvent{
					Option: "Use",
					Target: "<col=ff9040>Tinderbox</col> -> <col=ffff00>Barricade",
					Action: core.MenuActionItemUseOnNPC,
					ID:     7,
				})
			}

			s.SetTick(101)
			s.UpdateNPC(core.NPCState{Index: 7, ID: tt.afterID, Location: cadeAt})
			tr.OnTick(101)

			assert.Equal(t, tt.want, tr.Current().CadesTinded)
		})
	}
}

func TestTindClickOnAnotherCade(t *testing.T) {
	cadeAt := core.WorldPoint{X: 2420, Y: 3090, Plane: 0}
	otherAt := core.WorldPoint{X: 2410, Y: 3090, Plane: 0}

	s := newState(core.WorldPoint{X: 2420, Y: 3089, Plane: 0}, 0)
	moveLocal(s, func(p *core.PlayerState) { p.Interacting = core.ActorRef{Kind: core.ActorNPC, Index: 7} })
	s.UpdateNPC(core.NPCState{Index: 7, ID: cw.NPCZamBarricade, Location: cadeAt})
	s.UpdateNPC(core.NPCState{Index: 8, ID: cw.NPCZamBarricade, Location: otherAt})
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnMenuOptionClicked(core.MenuEvent{Target: cw.MenuTargetTindCade, Action: core.MenuActionItemUseOnNPC, ID: 8})
	s.SetTick(101)
	s.UpdateNPC(core.NPCState{Index: 7, ID: cw.NPCZamBarricadeTinded, Location: cadeAt})
	tr.OnTick(101)

	assert.Equal(t, 0, tr.Current().CadesTinded)
}

func TestLosingOwnFlag(t *testing.T) {
	tests := []struct {
		name string
		at   core.WorldPoint
		want int
	}{
		{"in rocks", northRocks, 1},
		{"in south rocks", core.WorldPoint{X: 2395, Y: 9492, Plane: 0}, 1},
		{"on own ground floor", saraGround, 1},
		{"elsewhere", outside, 0},
		{"in own fourth", saraFourth, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(tt.at, cw.ItemSaradominBanner)
			tr := newTracker(s)
			tr.StartGame(5)

			s.SetTick(101)
			moveLocal(s, func(p *core.PlayerState) { p.WeaponID = 0 })
			tr.OnTick(101)

			assert.Equal(t, tt.want, tr.Current().FlagsSafed)

			// the edge fires once
			tr.OnTick(102)
			assert.Equal(t, tt.want, tr.Current().FlagsSafed)
		})
	}
}

func TestLosingOwnFlagThroughEquipment(t *testing.T) {
	tests := []struct {
		name string
		at   core.WorldPoint
		want int
	}{
		{"in rocks", northRocks, 1},
		{"on own ground floor", saraGround, 1},
		{"elsewhere", outside, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(tt.at, cw.ItemSaradominBanner)
			s.SetContainer(core.ContainerEquipment, []int{cw.ItemCastleWarsBracelet2, cw.ItemSaradominBanner})
			tr := newTracker(s)
			tr.StartGame(5)

			// the appearance still shows the banner; only the container changed
			s.SetTick(101)
			s.SetContainer(core.ContainerEquipment, []int{cw.ItemCastleWarsBracelet2})
			tr.OnContainerChanged(core.ContainerEvent{
				Container: core.ContainerEquipment,
				Items:     []int{cw.ItemCastleWarsBracelet2},
			})

			assert.Equal(t, tt.want, tr.Current().FlagsSafed)

			tr.OnTick(101)
			assert.Equal(t, tt.want, tr.Current().FlagsSafed)
		})
	}
}

func TestCaptureThroughEquipment(t *testing.T) {
	s := newState(saraFourth, 0)
	s.SetContainer(core.ContainerEquipment, []int{cw.ItemZamorakBanner})
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnMenuOptionClicked(core.MenuEvent{Option: cw.MenuOptionCapture, Target: "Saradomin standard"})

	s.SetTick(102)
	s.SetContainer(core.ContainerEquipment, nil)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerEquipment})

	assert.Equal(t, 1, tr.Current().FlagsScored)
}

func TestStartGameBraced(t *testing.T) {
	s := newState(saraGround, 0)
	tr := newTracker(s)
	assert.False(t, tr.StartGame(5).Braced, "no equipment reported")

	s.SetContainer(core.ContainerEquipment, []int{cw.ItemCastleWarsBracelet1})
	assert.True(t, tr.StartGame(5).Braced)

	s.SetContainer(core.ContainerEquipment, []int{cw.ItemSaradominBanner})
	assert.False(t, tr.StartGame(5).Braced)
}

func TestCaptureWindow(t *testing.T) {
	tests := []struct {
		name     string
		at       core.WorldPoint
		clicked  bool
		lostTick int
		want     int
	}{
		{"clicked three ticks ago", saraFourth, true, 103, 1},
		{"clicked five ticks ago", saraFourth, true, 105, 1},
		{"clicked six ticks ago", saraFourth, true, 106, 0},
		{"never clicked", saraFourth, false, 101, 0},
		{"outside own fourth", saraGround, true, 101, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(tt.at, cw.ItemZamorakBanner)
			tr := newTracker(s)
			tr.StartGame(5)

			if tt.clicked {
				tr.OnMenuOptionClicked(core.MenuEvent{Option: cw.MenuOptionCapture, Target: "Saradomin standard"})
			}

			s.SetTick(tt.lostTick)
			moveLocal(s, func(p *core.PlayerState) { p.WeaponID = 0 })
			tr.OnTick(tt.lostTick)

			assert.Equal(t, tt.want, tr.Current().FlagsScored)
		})
	}
}

func TestItemUsageDropCorrelation(t *testing.T) {
	s := newState(saraGround, 0)
	s.SetContainer(core.ContainerInventory, []int{cw.ItemBarricade, cw.ItemBarricade, cw.ItemExplosivePotion, cw.ItemBucketOfWater})
	tr := newTracker(s)
	tr.StartGame(5)

	// dropped, not placed
	tr.OnMenuOptionClicked(core.MenuEvent{Option: "Drop", Action: core.MenuActionItemDrop, ID: cw.ItemBarricade})
	s.SetTick(101)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory, Items: []int{cw.ItemBarricade, cw.ItemExplosivePotion, cw.ItemBucketOfWater}})
	assert.Equal(t, 0, tr.Current().CadesSet)

	// placed, the drop click is stale
	s.SetTick(103)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory, Items: []int{cw.ItemExplosivePotion, cw.ItemBucketOfWater}})
	assert.Equal(t, 1, tr.Current().CadesSet)

	s.SetTick(104)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory, Items: []int{cw.ItemBucketOfWater}})
	assert.Equal(t, 1, tr.Current().CadesExploded)

	s.SetTick(105)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory, Items: []int{}})
	assert.Equal(t, 1, tr.Current().CadesBucketed)
}

func TestItemUsageIgnoresMultipleRemoved(t *testing.T) {
	s := newState(saraGround, 0)
	s.SetContainer(core.ContainerInventory, []int{cw.ItemBarricade, cw.ItemBarricade})
	tr := newTracker(s)
	tr.StartGame(5)

	s.SetTick(110)
	tr.OnContainerChanged(core.ContainerEvent{Container: core.ContainerInventory, Items: nil})
	assert.Equal(t, 0, tr.Current().CadesSet)
}

func TestChatAndCombatCounters(t *testing.T) {
	s := newState(saraGround, 0)
	s.UpdatePlayer(core.PlayerState{Index: 2, Team: int(core.TeamZam), Interacting: core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}})
	s.UpdatePlayer(core.PlayerState{Index: 3, Team: int(core.TeamZam)})
	tr := newTracker(s)
	tr.StartGame(5)

	local := core.ActorRef{Kind: core.ActorPlayer, Index: localIndex}
	other := core.ActorRef{Kind: core.ActorPlayer, Index: 3}

	tr.OnChatMessage(core.ChatEvent{Message: "<col=ef1020>You have been frozen!</col>"})
	tr.OnChatMessage(core.ChatEvent{Message: "You have been frozen"})

	tr.OnGraphicChanged(core.GraphicEvent{Actor: local, GraphicID: cw.GraphicIceBarrageHit})
	tr.OnGraphicChanged(core.GraphicEvent{Actor: local, GraphicID: cw.GraphicSplash})
	tr.OnGraphicChanged(core.GraphicEvent{Actor: other, GraphicID: cw.GraphicIceBarrageHit})

	tr.OnAnimationChanged(core.AnimationEvent{Actor: core.ActorRef{Kind: core.ActorPlayer, Index: 2}, AnimationID: cw.AnimationDragonSpearSpec})
	tr.OnAnimationChanged(core.AnimationEvent{Actor: other, AnimationID: cw.AnimationZamHastaSpec})

	tr.OnHitsplatApplied(core.HitsplatEvent{Actor: local, Type: core.HitsplatDamage, Amount: 12})
	tr.OnHitsplatApplied(core.HitsplatEvent{Actor: local, Type: core.HitsplatDamage, Amount: 30})
	tr.OnHitsplatApplied(core.HitsplatEvent{Actor: local, Type: core.HitsplatBlock, Amount: 0})
	tr.OnHitsplatApplied(core.HitsplatEvent{Actor: other, Type: core.HitsplatDamage, Amount: 50})

	rec := tr.Current()
	assert.Equal(t, 1, rec.FrozenCount)
	assert.Equal(t, 1, rec.FreezesOnMe)
	assert.Equal(t, 1, rec.SplashesOnMe)
	assert.Equal(t, 1, rec.TimesSpeared)
	assert.Equal(t, 42, rec.DamageTaken)
	assert.Equal(t, 30, rec.HighestHitTaken)
}

func TestDeathWithFlagInRocks(t *testing.T) {
	s := newState(northRocks, cw.ItemSaradominBanner)
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnLocalPlayerDeath()
	assert.Equal(t, 1, tr.Current().Deaths)
	assert.Equal(t, 1, tr.Current().FlagsSafed)

	s.SetTick(101)
	moveLocal(s, func(p *core.PlayerState) { p.WeaponID = 0 })
	tr.OnTick(101)
	assert.Equal(t, 1, tr.Current().FlagsSafed)
}

func TestDeathWithoutFlag(t *testing.T) {
	s := newState(northRocks, 0)
	tr := newTracker(s)
	tr.StartGame(5)

	tr.OnLocalPlayerDeath()
	assert.Equal(t, 1, tr.Current().Deaths)
	assert.Equal(t, 0, tr.Current().FlagsSafed)
}

func TestDroppedFlagReturned(t *testing.T) {
	flagAt := core.WorldPoint{X: 2421, Y: 3080, Plane: 0}

	tests := []struct {
		name       string
		objectID   int
		clicked    bool
		despawnAt  int
		thiefCarry bool
		want       int
	}{
		{"picked up own flag", cw.ObjectSaradominStandardDropped, true, 102, false, 1},
		{"no click", cw.ObjectSaradominStandardDropped, false, 102, false, 0},
		{"click too old", cw.ObjectSaradominStandardDropped, true, 110, false, 0},
		{"enemy flag", cw.ObjectZamorakStandardDropped, true, 102, false, 0},
		{"someone else took it", cw.ObjectSaradominStandardDropped, true, 102, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(saraGround, 0)
			if tt.thiefCarry {
				s.UpdatePlayer(core.PlayerState{Index: 4, Team: int(core.TeamZam), WeaponID: cw.ItemSaradominBanner})
			}
			tr := newTracker(s)
			tr.StartGame(5)

			if tt.clicked {
				tr.OnMenuOptionClicked(core.MenuEvent{Option: "Take", Target: "<col=ffff>Saradomin standard"})
			}
			s.SetTick(tt.despawnAt)
			tr.OnObjectDespawned(core.ObjectDespawnEvent{ObjectID: tt.objectID, Location: flagAt})

			assert.Equal(t, tt.want, tr.Current().FlagsSafed)
		})
	}
}

func TestWithinWindow(t *testing.T) {
	assert.True(t, withinWindow(105, 100, 5))
	assert.False(t, withinWindow(106, 100, 5))
	assert.False(t, withinWindow(99, 100, 5))
	assert.False(t, withinWindow(0, never, 5))
}
