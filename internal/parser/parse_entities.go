package parser

import (
	"fmt"

	"github.com/cwstats/recorder/pkg/core"
)

// ParsePlayer parses :PLAYER: data.
// Args: index, name, team, "x,y,plane", weapon item id, interacting ref.
func (p *Parser) ParsePlayer(data []string) (core.PlayerState, error) {
	var player core.PlayerState

	if err := requireArgs(data, 5, ":PLAYER:"); err != nil {
		return player, err
	}
	fixArgs(data)

	index, err := parseIntFromFloat(data[0])
	if err != nil {
		return player, fmt.Errorf("error converting player index to int: %w", err)
	}
	player.Index = index
	player.Name = data[1]

	team, err := parseIntFromFloat(data[2])
	if err != nil {
		return player, fmt.Errorf("error converting team to int: %w", err)
	}
	player.Team = team

	player.Location, err = parseLocation(data[3])
	if err != nil {
		return player, err
	}

	weapon, err := parseIntFromFloat(data[4])
	if err != nil {
		return player, fmt.Errorf("error converting weapon id to int: %w", err)
	}
	player.WeaponID = weapon

	// interacting is optional
	if len(data) > 5 {
		player.Interacting, err = ParseActorRef(data[5])
		if err != nil {
			return player, fmt.Errorf("error parsing player interacting: %w", err)
		}
	}

	return player, nil
}

// ParseNPC parses :NPC: data.
// Args: index, npc id, "x,y,plane", interacting ref.
func (p *Parser) ParseNPC(data []string) (core.NPCState, error) {
	var npc core.NPCState

	if err := requireArgs(data, 3, ":NPC:"); err != nil {
		return npc, err
	}
	fixArgs(data)

	index, err := parseIntFromFloat(data[0])
	if err != nil {
		return npc, fmt.Errorf("error converting npc index to int: %w", err)
	}
	npc.Index = index

	id, err := parseIntFromFloat(data[1])
	if err != nil {
		return npc, fmt.Errorf("error converting npc id to int: %w", err)
	}
	npc.ID = id

	npc.Location, err = parseLocation(data[2])
	if err != nil {
		return npc, err
	}

	if len(data) > 3 {
		npc.Interacting, err = ParseActorRef(data[3])
		if err != nil {
			return npc, fmt.Errorf("error parsing npc interacting: %w", err)
		}
	}

	return npc, nil
}
