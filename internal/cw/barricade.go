package cw

import "github.com/cwstats/recorder/pkg/core"

// Barricade is a placed barricade NPC variant.
type Barricade struct {
	NPCID  int
	Team   core.Team
	Tinded bool
}

var barricades = map[int]Barricade{
	NPCSaraBarricade:       {NPCID: NPCSaraBarricade, Team: core.TeamSara},
	NPCSaraBarricadeTinded: {NPCID: NPCSaraBarricadeTinded, Team: core.TeamSara, Tinded: true},
	NPCZamBarricade:        {NPCID: NPCZamBarricade, Team: core.TeamZam},
	NPCZamBarricadeTinded:  {NPCID: NPCZamBarricadeTinded, Team: core.TeamZam, Tinded: true},
}

// BarricadeFromNPC returns the barricade variant for an NPC id.
func BarricadeFromNPC(npcID int) (Barricade, bool) {
	b, ok := barricades[npcID]
	return b, ok
}
