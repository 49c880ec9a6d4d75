// Package tracker infers Castle Wars round statistics from the host event stream.
//
// The host reports state, not deltas, so most patterns are recognised by comparing
// a snapshot taken this tick with the one taken on the previous tick. Correlation
// windows are measured in ticks.
//
// Experience-based inference (splashes, damage dealt) cannot attribute xp with
// certainty when several qualifying events land on the same tick; the counts are
// approximate.
package tracker

import (
	"log/slog"
	"math"
	"time"

	"github.com/cwstats/recorder/internal/client"
	"github.com/cwstats/recorder/internal/cw"
	"github.com/cwstats/recorder/internal/util"
	"github.com/cwstats/recorder/pkg/core"
)

const (
	// IceBarrageSplashXP is the magic xp granted by a barrage that splashes.
	IceBarrageSplashXP = 52
	// HPXPPerHit is the hitpoints xp granted per point of damage dealt.
	HPXPPerHit = 1.3333
	// MaxReasonableHit discards hitpoints xp gains that cannot be a single hit.
	MaxReasonableHit = 110

	// ClickActionTickThreshold is how many ticks a menu click stays associated with
	// the action it started.
	ClickActionTickThreshold = 5
	// DropActionTickThreshold is how many ticks a drop click explains an item
	// disappearing from the inventory.
	DropActionTickThreshold = 1
)

// never is the tick of an action that has not happened.
const never = math.MinInt32

type inventoryCounts struct {
	explosives int
	barricades int
	buckets    int
}

// StatsTracker owns the live GameRecord and every per-tick snapshot used to
// detect edges. It is not safe for concurrent use.
type StatsTracker struct {
	client client.Client
	logger *slog.Logger
	now    func() time.Time

	currentGame *core.GameRecord
	ourTeam     core.Team

	// splashes and damage
	lastHPXP          int
	lastMageXP        int
	castBarrageOnTick int
	mageXPGained      int
	mageXPOnTick      int

	// tinds
	tindTarget    *core.WorldPoint
	cadesLastTick map[core.WorldPoint]cw.Barricade

	// item usage
	invLastTick        inventoryCounts
	droppedExploOnTick int
	droppedCadeOnTick  int

	// flags
	holdingTheirsLastTick       bool
	holdingOwnLastTick          bool
	clickedOwnDroppedFlagOnTick int
	clickedFlagStandOnTick      int
}

// Option configures a StatsTracker.
type Option func(*StatsTracker)

// WithClock overrides the wall clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(t *StatsTracker) {
		t.now = now
	}
}

// New creates a tracker reading host state through c.
func New(c client.Client, logger *slog.Logger, opts ...Option) *StatsTracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &StatsTracker{
		client: c,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.clearSnapshots()
	return t
}

func (t *StatsTracker) clearSnapshots() {
	t.lastHPXP = 0
	t.lastMageXP = 0
	t.castBarrageOnTick = never
	t.mageXPGained = 0
	t.mageXPOnTick = never
	t.tindTarget = nil
	t.cadesLastTick = make(map[core.WorldPoint]cw.Barricade)
	t.invLastTick = inventoryCounts{}
	t.droppedExploOnTick = never
	t.droppedCadeOnTick = never
	t.holdingTheirsLastTick = false
	t.holdingOwnLastTick = false
	t.clickedOwnDroppedFlagOnTick = never
	t.clickedFlagStandOnTick = never
}

// InGame reports whether a round record is live.
func (t *StatsTracker) InGame() bool {
	return t.currentGame != nil
}

// Current returns the live record, or nil between rounds.
func (t *StatsTracker) Current() *core.GameRecord {
	return t.currentGame
}

// Team returns the team the local player joined the live round on.
func (t *StatsTracker) Team() core.Team {
	return t.ourTeam
}

// StartGame creates a new record for a round the local player just joined.
// Snapshots are seeded from the current host state so the first deltas are real.
func (t *StatsTracker) StartGame(teamSize int) *core.GameRecord {
	t.clearSnapshots()

	t.ourTeam = core.TeamNone
	if local, ok := t.client.LocalPlayer(); ok {
		t.ourTeam = core.TeamOf(local.Team)
	}

	tick := t.client.TickCount()
	t.currentGame = core.NewGameRecord(t.ourTeam, teamSize, t.now(), t.client.World(), tick)
	t.currentGame.Braced = t.wearingBracelet()

	t.lastHPXP = t.client.SkillExperience(cw.SkillHitpoints)
	t.lastMageXP = t.client.SkillExperience(cw.SkillMagic)
	if items, ok := t.client.ItemContainer(core.ContainerInventory); ok {
		t.invLastTick = countInventory(items)
	}
	t.cadesLastTick = t.findCades()
	t.holdingOwnLastTick = t.holdingOwnFlag()
	t.holdingTheirsLastTick = t.holdingTheirFlag()

	t.logger.Info("Joined Castle Wars game",
		"team", t.ourTeam.String(),
		"teamSize", teamSize,
		"world", t.currentGame.World,
		"braced", t.currentGame.Braced,
		"tick", tick)

	return t.currentGame
}

// FinishGame finalizes the live record with the authoritative scores and returns it.
// The record stays live until Reset.
func (t *StatsTracker) FinishGame() *core.GameRecord {
	if t.currentGame == nil {
		return nil
	}
	err := t.currentGame.Finalize(
		t.client.Var(cw.VarSaraScore),
		t.client.Var(cw.VarZamScore),
		t.client.TickCount(),
	)
	if err != nil {
		t.logger.Warn("Game record finalized twice", "error", err)
	}
	return t.currentGame
}

// Reset discards the live record and all snapshots.
func (t *StatsTracker) Reset() {
	t.currentGame = nil
	t.ourTeam = core.TeamNone
	t.clearSnapshots()
}

// OnTick runs the per-tick snapshot comparisons.
func (t *StatsTracker) OnTick(tick int) {
	if t.currentGame == nil {
		return
	}
	t.checkTindedCades()
	t.checkHoldingFlag(tick)
}

// OnAnimationChanged handles barrage casts by the local player and spear specials
// aimed at the local player.
func (t *StatsTracker) OnAnimationChanged(e core.AnimationEvent) {
	if t.currentGame == nil {
		return
	}
	local, ok := t.client.LocalPlayer()
	if !ok {
		return
	}

	if e.Actor.Kind == core.ActorPlayer && e.Actor.Index == local.Index {
		if e.AnimationID == cw.AnimationIceBarrage {
			t.onBarrageCast(t.client.TickCount())
		}
		return
	}

	if !t.isInteractingWithLocal(e.Actor, local) {
		return
	}
	if e.AnimationID == cw.AnimationDragonSpearSpec || e.AnimationID == cw.AnimationZamHastaSpec {
		t.currentGame.TimesSpeared++
		t.logger.Debug("Speared", "by", e.Actor.String())
	}
}

// OnGraphicChanged counts enemy barrages that froze or splashed on the local player.
func (t *StatsTracker) OnGraphicChanged(e core.GraphicEvent) {
	if t.currentGame == nil || !t.isLocal(e.Actor) {
		return
	}
	switch e.GraphicID {
	case cw.GraphicIceBarrageHit:
		t.currentGame.FreezesOnMe++
	case cw.GraphicSplash:
		t.currentGame.SplashesOnMe++
	}
}

// OnExperienceChanged feeds magic and hitpoints xp into splash and damage inference.
func (t *StatsTracker) OnExperienceChanged(e core.ExperienceEvent) {
	if t.currentGame == nil {
		return
	}
	switch e.Skill {
	case cw.SkillMagic:
		t.onMageXPChanged(e.Experience, t.client.TickCount())
	case cw.SkillHitpoints:
		t.onHPXPChanged(e.Experience)
	}
}

// OnHitsplatApplied records damage hitsplats on the local player.
func (t *StatsTracker) OnHitsplatApplied(e core.HitsplatEvent) {
	if t.currentGame == nil || !t.isLocal(e.Actor) {
		return
	}
	if e.Type == core.HitsplatDamage {
		t.currentGame.RecordDamageTaken(e.Amount)
	}
}

// OnChatMessage counts freeze notifications.
func (t *StatsTracker) OnChatMessage(e core.ChatEvent) {
	if t.currentGame == nil {
		return
	}
	if util.RemoveTags(e.Message) == cw.FrozenMessage {
		t.currentGame.FrozenCount++
	}
}

// OnLocalPlayerDeath counts a death. Dying with our own flag in the rocks returns
// it, which counts as a save; the flag edge is consumed so the drop that follows is
// not counted a second time.
func (t *StatsTracker) OnLocalPlayerDeath() {
	if t.currentGame == nil {
		return
	}
	t.currentGame.Deaths++

	if !t.holdingOwnFlag() {
		return
	}
	local, ok := t.client.LocalPlayer()
	if !ok {
		return
	}
	if area, ok := cw.MatchArea(local.Location); ok && area.IsRocks() {
		t.currentGame.FlagsSafed++
		t.holdingOwnLastTick = false
		t.logger.Debug("Flag saved by dying in rocks", "area", area.String())
	}
}

// OnContainerChanged checks inventory consumption and equipment flag changes.
func (t *StatsTracker) OnContainerChanged(e core.ContainerEvent) {
	if t.currentGame == nil {
		return
	}
	tick := t.client.TickCount()
	switch e.Container {
	case core.ContainerInventory:
		t.checkItemUsage(e.Items, tick)
	case core.ContainerEquipment:
		t.checkHoldingFlag(tick)
	}
}

// OnObjectDespawned watches for our dropped flag being picked back up.
func (t *StatsTracker) OnObjectDespawned(e core.ObjectDespawnEvent) {
	if t.currentGame == nil {
		return
	}
	flag := cw.FlagFromDroppedObject(e.ObjectID)
	if flag == nil {
		return
	}
	t.onDroppedFlagDespawned(flag, t.client.TickCount(), e.Location)
}

// OnMenuOptionClicked remembers the clicks that later events are correlated with.
func (t *StatsTracker) OnMenuOptionClicked(e core.MenuEvent) {
	if t.currentGame == nil {
		return
	}
	tick := t.client.TickCount()
	target := util.RemoveTags(e.Target)

	if e.Action == core.MenuActionItemUseOnNPC && target == cw.MenuTargetTindCade {
		if npc, ok := t.client.NPC(e.ID); ok {
			if cade, ok := cw.BarricadeFromNPC(npc.ID); ok && !cade.Tinded {
				loc := npc.Location
				t.tindTarget = &loc
			}
		}
	}

	if e.Action == core.MenuActionItemDrop && e.ID == cw.ItemBarricade {
		t.droppedCadeOnTick = tick
	}

	if e.Action == core.MenuActionItemDrop && e.ID == cw.ItemExplosivePotion {
		t.droppedExploOnTick = tick
	}

	if e.Option == cw.MenuOptionCapture {
		t.clickedFlagStandOnTick = tick
	}

	if own := cw.FlagOf(t.ourTeam); own != nil && own.MenuName == target {
		t.clickedOwnDroppedFlagOnTick = tick
	}
}

func (t *StatsTracker) onBarrageCast(tick int) {
	t.currentGame.TotalCastAttempts++
	t.castBarrageOnTick = tick
	t.checkSplash(tick)
}

func (t *StatsTracker) onMageXPChanged(xp, tick int) {
	t.mageXPGained = xp - t.lastMageXP
	t.lastMageXP = xp
	t.mageXPOnTick = tick
	t.checkSplash(tick)
}

func (t *StatsTracker) checkSplash(tick int) {
	if tick == t.castBarrageOnTick &&
		tick == t.mageXPOnTick &&
		t.mageXPGained > 0 &&
		t.mageXPGained <= IceBarrageSplashXP {
		t.currentGame.Splashes++
		t.logger.Debug("Splash detected", "tick", tick, "xp", t.mageXPGained)
	}
}

func (t *StatsTracker) onHPXPChanged(xp int) {
	gained := xp - t.lastHPXP
	t.lastHPXP = xp

	approxDmg := float64(gained) / HPXPPerHit
	if approxDmg > 0 && approxDmg < MaxReasonableHit {
		t.currentGame.RecordDamageDealt(approxDmg)
	}
}

func (t *StatsTracker) checkHoldingFlag(tick int) {
	holdingOwnThisTick := t.holdingOwnFlag()
	if t.holdingOwnLastTick && !holdingOwnThisTick {
		t.lostOurFlag()
	}
	t.holdingOwnLastTick = holdingOwnThisTick

	holdingTheirsThisTick := t.holdingTheirFlag()
	if t.holdingTheirsLastTick && !holdingTheirsThisTick {
		t.lostTheirFlag(tick)
	}
	t.holdingTheirsLastTick = holdingTheirsThisTick
}

func (t *StatsTracker) lostTheirFlag(tick int) {
	local, ok := t.client.LocalPlayer()
	if !ok {
		return
	}
	base := cw.BaseOf(t.ourTeam)
	if base == nil {
		return
	}
	area, ok := cw.MatchArea(local.Location)
	if !ok || area != base.Fourth {
		return
	}
	if withinWindow(tick, t.clickedFlagStandOnTick, ClickActionTickThreshold) {
		t.currentGame.FlagsScored++
		t.logger.Info("Flag captured", "tick", tick)
	}
}

func (t *StatsTracker) lostOurFlag() {
	local, ok := t.client.LocalPlayer()
	if !ok {
		return
	}
	area, ok := cw.MatchArea(local.Location)
	if !ok {
		return
	}

	if base := cw.BaseOf(t.ourTeam); (base != nil && area == base.Ground) || area.IsRocks() {
		t.currentGame.FlagsSafed++
		t.logger.Debug("Flag saved", "area", area.String())
	}
}

func (t *StatsTracker) onDroppedFlagDespawned(flag *cw.Flag, tick int, at core.WorldPoint) {
	local, ok := t.client.LocalPlayer()
	if !ok {
		return
	}

	isOurFlag := flag.Team == t.ourTeam
	recentlyClickedOwnFlag := withinWindow(tick, t.clickedOwnDroppedFlagOnTick, ClickActionTickThreshold)
	nextToFlag := at.DistanceTo(local.Location) == 1

	if recentlyClickedOwnFlag && isOurFlag && t.inOwnBase(local) && nextToFlag && !t.visiblePlayerHoldingOurFlag(local) {
		t.currentGame.FlagsSafed++
		t.logger.Debug("Dropped flag returned", "at", at.String())
	}
}

func (t *StatsTracker) checkItemUsage(items []int, tick int) {
	thisTick := countInventory(items)
	last := t.invLastTick

	if last.explosives-thisTick.explosives == 1 && !withinWindow(tick, t.droppedExploOnTick, DropActionTickThreshold) {
		t.currentGame.CadesExploded++
	}

	if last.barricades-thisTick.barricades == 1 && !withinWindow(tick, t.droppedCadeOnTick, DropActionTickThreshold) {
		t.currentGame.CadesSet++
	}

	if last.buckets-thisTick.buckets == 1 {
		t.currentGame.CadesBucketed++
	}

	t.invLastTick = thisTick
}

func countInventory(items []int) inventoryCounts {
	var c inventoryCounts
	for _, id := range items {
		switch id {
		case cw.ItemExplosivePotion:
			c.explosives++
		case cw.ItemBarricade:
			c.barricades++
		case cw.ItemBucketOfWater:
			c.buckets++
		}
	}
	return c
}

func (t *StatsTracker) checkTindedCades() {
	cadesThisTick := t.findCades()
	for loc, newCade := range cadesThisTick {
		oldCade, ok := t.cadesLastTick[loc]
		if !ok {
			continue
		}
		if !oldCade.Tinded && newCade.Tinded {
			t.onCadeTinded(loc, newCade.NPCID)
		}
	}
	t.cadesLastTick = cadesThisTick
}

func (t *StatsTracker) onCadeTinded(loc core.WorldPoint, npcID int) {
	local, ok := t.client.LocalPlayer()
	if !ok || local.Interacting.Kind != core.ActorNPC {
		return
	}
	target, ok := t.client.NPC(local.Interacting.Index)
	if !ok {
		return
	}

	if target.ID == npcID &&
		loc == target.Location &&
		local.Location.DistanceTo(target.Location) == 1 &&
		t.tindTarget != nil && loc == *t.tindTarget {
		t.currentGame.CadesTinded++
		t.logger.Debug("Barricade tinded", "at", loc.String())
	}
}

func (t *StatsTracker) findCades() map[core.WorldPoint]cw.Barricade {
	cades := make(map[core.WorldPoint]cw.Barricade)
	for _, npc := range t.client.NPCs() {
		if cade, ok := cw.BarricadeFromNPC(npc.ID); ok {
			cades[npc.Location] = cade
		}
	}
	return cades
}

// wieldedFlag reads the equipment container once the host has reported one and
// falls back to the weapon id of the local player's appearance.
func (t *StatsTracker) wieldedFlag() *cw.Flag {
	if items, ok := t.client.ItemContainer(core.ContainerEquipment); ok {
		for _, id := range items {
			if flag := cw.FlagFromEquipment(id); flag != nil {
				return flag
			}
		}
		return nil
	}
	local, ok := t.client.LocalPlayer()
	if !ok {
		return nil
	}
	return cw.FlagFromEquipment(local.WeaponID)
}

func (t *StatsTracker) wearingBracelet() bool {
	items, _ := t.client.ItemContainer(core.ContainerEquipment)
	for _, id := range items {
		if cw.IsCastleWarsBracelet(id) {
			return true
		}
	}
	return false
}

func (t *StatsTracker) holdingOwnFlag() bool {
	flag := t.wieldedFlag()
	return flag != nil && t.ourTeam != core.TeamNone && flag.Team == t.ourTeam
}

func (t *StatsTracker) holdingTheirFlag() bool {
	flag := t.wieldedFlag()
	return flag != nil && t.ourTeam != core.TeamNone && flag.Team.Opposite() == t.ourTeam
}

func (t *StatsTracker) inOwnBase(local core.PlayerState) bool {
	base, ok := cw.MatchBase(local.Location)
	return ok && base.Team == t.ourTeam
}

func (t *StatsTracker) visiblePlayerHoldingOurFlag(local core.PlayerState) bool {
	for _, p := range t.client.Players() {
		if p.Index == local.Index {
			continue
		}
		if flag := cw.FlagFromEquipment(p.WeaponID); flag != nil && flag.Team == t.ourTeam {
			return true
		}
	}
	return false
}

func (t *StatsTracker) isLocal(ref core.ActorRef) bool {
	if ref.Kind != core.ActorPlayer {
		return false
	}
	local, ok := t.client.LocalPlayer()
	return ok && local.Index == ref.Index
}

// isInteractingWithLocal reports whether the actor behind ref currently targets the
// local player.
func (t *StatsTracker) isInteractingWithLocal(ref core.ActorRef, local core.PlayerState) bool {
	var interacting core.ActorRef
	switch ref.Kind {
	case core.ActorPlayer:
		p, ok := t.client.Player(ref.Index)
		if !ok {
			return false
		}
		interacting = p.Interacting
	case core.ActorNPC:
		n, ok := t.client.NPC(ref.Index)
		if !ok {
			return false
		}
		interacting = n.Interacting
	default:
		return false
	}
	return interacting.Kind == core.ActorPlayer && interacting.Index == local.Index
}

// withinWindow reports whether an action on tick `at` happened no more than `window`
// ticks before `now`.
func withinWindow(now, at, window int) bool {
	if at == never {
		return false
	}
	elapsed := now - at
	return elapsed >= 0 && elapsed <= window
}
