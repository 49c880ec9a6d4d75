package cache

import (
	"sort"
	"sync"

	"github.com/cwstats/recorder/pkg/core"
)

// EntityCache mirrors the players and NPCs the host currently has loaded, keyed by
// the host's actor index. Entries are replaced wholesale on every update.
type EntityCache struct {
	m       sync.Mutex
	Players map[int]core.PlayerState
	NPCs    map[int]core.NPCState
}

func NewEntityCache() *EntityCache {
	return &EntityCache{
		m:       sync.Mutex{},
		Players: make(map[int]core.PlayerState),
		NPCs:    make(map[int]core.NPCState),
	}
}

func (c *EntityCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Players = make(map[int]core.PlayerState)
	c.NPCs = make(map[int]core.NPCState)
}

func (c *EntityCache) GetPlayer(index int) (core.PlayerState, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if p, ok := c.Players[index]; ok {
		return p, true
	}
	return core.PlayerState{}, false
}

func (c *EntityCache) GetNPC(index int) (core.NPCState, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if n, ok := c.NPCs[index]; ok {
		return n, true
	}
	return core.NPCState{}, false
}

func (c *EntityCache) PutPlayer(p core.PlayerState) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Players[p.Index] = p
}

func (c *EntityCache) PutNPC(n core.NPCState) {
	c.m.Lock()
	defer c.m.Unlock()
	c.NPCs[n.Index] = n
}

func (c *EntityCache) RemovePlayer(index int) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.Players, index)
}

func (c *EntityCache) RemoveNPC(index int) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.NPCs, index)
}

// AllPlayers returns the cached players ordered by index.
func (c *EntityCache) AllPlayers() []core.PlayerState {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]core.PlayerState, 0, len(c.Players))
	for _, p := range c.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// AllNPCs returns the cached NPCs ordered by index.
func (c *EntityCache) AllNPCs() []core.NPCState {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]core.NPCState, 0, len(c.NPCs))
	for _, n := range c.NPCs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
