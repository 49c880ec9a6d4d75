package parser

import (
	"fmt"
	"strings"

	"github.com/cwstats/recorder/pkg/core"
)

// ParseWidget parses :WIDGET: data (name, visible).
func (p *Parser) ParseWidget(data []string) (core.WidgetEvent, error) {
	var e core.WidgetEvent
	if err := requireArgs(data, 2, ":WIDGET:"); err != nil {
		return e, err
	}
	fixArgs(data)

	visible, err := parseBool(data[1])
	if err != nil {
		return e, fmt.Errorf("error converting widget visibility: %w", err)
	}
	e.Name = data[0]
	e.Visible = visible
	return e, nil
}

// ParseVar parses :VAR: data (name, value).
func (p *Parser) ParseVar(data []string) (core.VarEvent, error) {
	var e core.VarEvent
	if err := requireArgs(data, 2, ":VAR:"); err != nil {
		return e, err
	}
	fixArgs(data)

	v, err := parseIntFromFloat(data[1])
	if err != nil {
		return e, fmt.Errorf("error converting var value to int: %w", err)
	}
	e.Name = data[0]
	e.Value = v
	return e, nil
}

// ParseSkill parses :SKILL: data (skill, total xp).
func (p *Parser) ParseSkill(data []string) (core.ExperienceEvent, error) {
	var e core.ExperienceEvent
	if err := requireArgs(data, 2, ":SKILL:"); err != nil {
		return e, err
	}
	fixArgs(data)

	xp, err := parseIntFromFloat(data[1])
	if err != nil {
		return e, fmt.Errorf("error converting experience to int: %w", err)
	}
	if xp < 0 {
		return e, fmt.Errorf("negative experience %d", xp)
	}
	e.Skill = strings.ToUpper(data[0])
	e.Experience = xp
	return e, nil
}

// ParseAnimation parses :ANIMATION: data (actor ref, animation id).
func (p *Parser) ParseAnimation(data []string) (core.AnimationEvent, error) {
	var e core.AnimationEvent
	if err := requireArgs(data, 2, ":ANIMATION:"); err != nil {
		return e, err
	}
	fixArgs(data)

	actor, err := ParseActorRef(data[0])
	if err != nil {
		return e, fmt.Errorf("error parsing animation actor: %w", err)
	}
	id, err := parseIntFromFloat(data[1])
	if err != nil {
		return e, fmt.Errorf("error converting animation id to int: %w", err)
	}
	e.Actor = actor
	e.AnimationID = id
	return e, nil
}

// ParseGraphic parses :GRAPHIC: data (actor ref, graphic id).
func (p *Parser) ParseGraphic(data []string) (core.GraphicEvent, error) {
	var e core.GraphicEvent
	if err := requireArgs(data, 2, ":GRAPHIC:"); err != nil {
		return e, err
	}
	fixArgs(data)

	actor, err := ParseActorRef(data[0])
	if err != nil {
		return e, fmt.Errorf("error parsing graphic actor: %w", err)
	}
	id, err := parseIntFromFloat(data[1])
	if err != nil {
		return e, fmt.Errorf("error converting graphic id to int: %w", err)
	}
	e.Actor = actor
	e.GraphicID = id
	return e, nil
}

// ParseHitsplat parses :HITSPLAT: data (actor ref, type, amount).
func (p *Parser) ParseHitsplat(data []string) (core.HitsplatEvent, error) {
	var e core.HitsplatEvent
	if err := requireArgs(data, 3, ":HITSPLAT:"); err != nil {
		return e, err
	}
	fixArgs(data)

	actor, err := ParseActorRef(data[0])
	if err != nil {
		return e, fmt.Errorf("error parsing hitsplat actor: %w", err)
	}
	amount, err := parseIntFromFloat(data[2])
	if err != nil {
		return e, fmt.Errorf("error converting hitsplat amount to int: %w", err)
	}
	e.Actor = actor
	e.Type = strings.ToUpper(data[1])
	e.Amount = amount
	return e, nil
}

// ParseOverhead parses :OVERHEAD: data (actor ref, text).
func (p *Parser) ParseOverhead(data []string) (core.OverheadEvent, error) {
	var e core.OverheadEvent
	if err := requireArgs(data, 2, ":OVERHEAD:"); err != nil {
		return e, err
	}
	fixArgs(data)

	actor, err := ParseActorRef(data[0])
	if err != nil {
		return e, fmt.Errorf("error parsing overhead actor: %w", err)
	}
	e.Actor = actor
	e.Text = data[1]
	return e, nil
}

// ParseContainer parses :CONTAINER: data (container name, item ids...).
// Empty slots may be sent as -1 and are dropped.
func (p *Parser) ParseContainer(data []string) (core.ContainerEvent, error) {
	var e core.ContainerEvent
	if err := requireArgs(data, 1, ":CONTAINER:"); err != nil {
		return e, err
	}
	fixArgs(data)

	e.Container = strings.ToLower(data[0])
	e.Items = make([]int, 0, len(data)-1)
	for i, raw := range data[1:] {
		id, err := parseIntFromFloat(raw)
		if err != nil {
			return e, fmt.Errorf("error converting item %d to int: %w", i, err)
		}
		if id < 0 {
			continue
		}
		e.Items = append(e.Items, id)
	}
	return e, nil
}

// ParseObjectDespawn parses :OBJECT:DESPAWN: data (object id, "x,y,plane").
func (p *Parser) ParseObjectDespawn(data []string) (core.ObjectDespawnEvent, error) {
	var e core.ObjectDespawnEvent
	if err := requireArgs(data, 2, ":OBJECT:DESPAWN:"); err != nil {
		return e, err
	}
	fixArgs(data)

	id, err := parseIntFromFloat(data[0])
	if err != nil {
		return e, fmt.Errorf("error converting object id to int: %w", err)
	}
	loc, err := parseLocation(data[1])
	if err != nil {
		return e, err
	}
	e.ObjectID = id
	e.Location = loc
	return e, nil
}

// ParseMenu parses :MENU: data (option, target, action, id).
func (p *Parser) ParseMenu(data []string) (core.MenuEvent, error) {
	var e core.MenuEvent
	if err := requireArgs(data, 4, ":MENU:"); err != nil {
		return e, err
	}
	fixArgs(data)

	id, err := parseIntFromFloat(data[3])
	if err != nil {
		return e, fmt.Errorf("error converting menu id to int: %w", err)
	}
	e.Option = data[0]
	e.Target = data[1]
	e.Action = strings.ToUpper(data[2])
	e.ID = id
	return e, nil
}

// ParseLog parses :LOG: data (function, message, level). Level defaults to INFO.
func (p *Parser) ParseLog(data []string) (core.LogEvent, error) {
	var e core.LogEvent
	if err := requireArgs(data, 2, ":LOG:"); err != nil {
		return e, err
	}
	fixArgs(data)

	e.Function = data[0]
	e.Message = data[1]
	e.Level = "INFO"
	if len(data) > 2 && data[2] != "" {
		e.Level = strings.ToUpper(data[2])
	}
	return e, nil
}
