// Package client mirrors the parts of the game client's object model that the
// Castle Wars tracker reads. The host bridge keeps it current through commands.
package client

import (
	"slices"
	"sync"

	"github.com/cwstats/recorder/internal/cache"
	"github.com/cwstats/recorder/pkg/core"
)

// Client is the read-only view of host state injected into the tracker and the
// session controller.
type Client interface {
	TickCount() int
	World() int
	LocalPlayer() (core.PlayerState, bool)
	Player(index int) (core.PlayerState, bool)
	Players() []core.PlayerState
	NPC(index int) (core.NPCState, bool)
	NPCs() []core.NPCState
	Var(name string) int
	WidgetVisible(name string) bool
	SkillExperience(skill string) int
	ItemContainer(name string) ([]int, bool)
}

// State is the host mirror. Writes come from command handlers; reads may happen
// from any goroutine.
type State struct {
	mu         sync.RWMutex
	entities   *cache.EntityCache
	tick       int
	world      int
	gameState  string
	localIndex int
	hasLocal   bool
	vars       map[string]int
	widgets    map[string]bool
	skills     map[string]int
	containers map[string][]int
}

var _ Client = (*State)(nil)

// NewState creates an empty mirror backed by the given entity cache.
func NewState(entities *cache.EntityCache) *State {
	if entities == nil {
		entities = cache.NewEntityCache()
	}
	return &State{
		entities:   entities,
		vars:       make(map[string]int),
		widgets:    make(map[string]bool),
		skills:     make(map[string]int),
		containers: make(map[string][]int),
	}
}

// Reset forgets everything, as on logout.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities.Reset()
	s.tick = 0
	s.world = 0
	s.hasLocal = false
	s.localIndex = 0
	s.vars = make(map[string]int)
	s.widgets = make(map[string]bool)
	s.skills = make(map[string]int)
	s.containers = make(map[string][]int)
}

func (s *State) SetTick(tick int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
}

func (s *State) SetWorld(world int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = world
}

func (s *State) SetGameState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameState = state
}

func (s *State) GameState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameState
}

// SetLocalPlayer marks which player index is the logged-in player.
func (s *State) SetLocalPlayer(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localIndex = index
	s.hasLocal = true
}

func (s *State) UpdatePlayer(p core.PlayerState) {
	s.entities.PutPlayer(p)
}

func (s *State) RemovePlayer(index int) {
	s.entities.RemovePlayer(index)
}

func (s *State) UpdateNPC(n core.NPCState) {
	s.entities.PutNPC(n)
}

func (s *State) RemoveNPC(index int) {
	s.entities.RemoveNPC(index)
}

func (s *State) SetWidget(name string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets[name] = visible
}

func (s *State) SetVar(name string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

func (s *State) SetSkillExperience(skill string, xp int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[skill] = xp
}

func (s *State) SetContainer(name string, items []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers[name] = slices.Clone(items)
}

func (s *State) TickCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

func (s *State) World() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world
}

// LocalPlayer returns the logged-in player if the host has reported it.
func (s *State) LocalPlayer() (core.PlayerState, bool) {
	s.mu.RLock()
	idx, ok := s.localIndex, s.hasLocal
	s.mu.RUnlock()
	if !ok {
		return core.PlayerState{}, false
	}
	return s.entities.GetPlayer(idx)
}

func (s *State) Player(index int) (core.PlayerState, bool) {
	return s.entities.GetPlayer(index)
}

func (s *State) Players() []core.PlayerState {
	return s.entities.AllPlayers()
}

func (s *State) NPC(index int) (core.NPCState, bool) {
	return s.entities.GetNPC(index)
}

func (s *State) NPCs() []core.NPCState {
	return s.entities.AllNPCs()
}

// Var returns a client variable, zero when never reported.
func (s *State) Var(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars[name]
}

func (s *State) WidgetVisible(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.widgets[name]
}

func (s *State) SkillExperience(skill string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skills[skill]
}

// ItemContainer returns a copy of the container's item ids.
func (s *State) ItemContainer(name string) ([]int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.containers[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}
