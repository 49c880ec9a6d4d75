package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cwstats/recorder/internal/geo"
	"github.com/cwstats/recorder/internal/util"
	"github.com/cwstats/recorder/pkg/core"
)

// parseIntFromFloat parses a string that may be an integer ("32") or float ("32.00") into int.
// Some bridges serialize every number as a float.
func parseIntFromFloat(s string) (int, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid integer", s)
	}
	return int(f), nil
}

// parseBool accepts the spellings bridges send for a flag.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("parseBool: %q is not a boolean", s)
}

// Parser provides pure []string -> core event conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	// Static config set at creation time
	version string
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger, version string) *Parser {
	return &Parser{
		logger:  logger,
		version: version,
	}
}

// Version is reported back to the host on :VERSION:.
func (p *Parser) Version() string {
	return p.version
}

// fixArgs strips quoting added by bridges that pass values through a string encoder.
func fixArgs(data []string) {
	for i, v := range data {
		data[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
}

func requireArgs(data []string, n int, command string) error {
	if len(data) < n {
		return fmt.Errorf("%s: expected %d args, got %d", command, n, len(data))
	}
	return nil
}

// ParseActorRef parses "player:<index>", "npc:<index>" or "" into an ActorRef.
func ParseActorRef(s string) (core.ActorRef, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-1" {
		return core.ActorRef{}, nil
	}
	kind, idx, ok := strings.Cut(s, ":")
	if !ok {
		return core.ActorRef{}, fmt.Errorf("invalid actor ref %q", s)
	}
	index, err := parseIntFromFloat(idx)
	if err != nil {
		return core.ActorRef{}, fmt.Errorf("invalid actor index in %q: %w", s, err)
	}
	switch kind {
	case "player":
		return core.ActorRef{Kind: core.ActorPlayer, Index: index}, nil
	case "npc":
		return core.ActorRef{Kind: core.ActorNPC, Index: index}, nil
	}
	return core.ActorRef{}, fmt.Errorf("unknown actor kind %q", kind)
}

// ParseInt parses a single integer argument, used by :TICK:, :WORLD:, :LOCAL: and
// the despawn commands.
func (p *Parser) ParseInt(data []string, command string) (int, error) {
	if err := requireArgs(data, 1, command); err != nil {
		return 0, err
	}
	fixArgs(data)
	v, err := parseIntFromFloat(data[0])
	if err != nil {
		return 0, fmt.Errorf("error converting %s value to int: %w", command, err)
	}
	return v, nil
}

// ParseTick parses :TICK: data.
func (p *Parser) ParseTick(data []string) (core.TickEvent, error) {
	tick, err := p.ParseInt(data, ":TICK:")
	if err != nil {
		return core.TickEvent{}, err
	}
	if tick < 0 {
		return core.TickEvent{}, fmt.Errorf("negative tick %d", tick)
	}
	return core.TickEvent{Tick: tick}, nil
}

// ParseGameState parses :GAMESTATE: data.
func (p *Parser) ParseGameState(data []string) (string, error) {
	if err := requireArgs(data, 1, ":GAMESTATE:"); err != nil {
		return "", err
	}
	fixArgs(data)
	return strings.ToUpper(strings.TrimSpace(data[0])), nil
}

func parseLocation(s string) (core.WorldPoint, error) {
	loc, err := geo.WorldPointFromString(s)
	if err != nil {
		return core.WorldPoint{}, fmt.Errorf("error parsing location: %w", err)
	}
	return loc, nil
}
