// Package handlers binds host commands to the parser, the host mirror, the stats
// tracker and the session controller.
package handlers

import (
	"fmt"
	"log/slog"

	"github.com/cwstats/recorder/internal/client"
	"github.com/cwstats/recorder/internal/dispatcher"
	"github.com/cwstats/recorder/internal/parser"
	"github.com/cwstats/recorder/internal/session"
	"github.com/cwstats/recorder/internal/tracker"
)

// GameLane is the dispatcher lane every state-changing command runs on.
const GameLane = "game"

// MetricWriter stores metrics forwarded by the bridge.
type MetricWriter interface {
	WriteMetric(data []string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Parser  *parser.Parser
	State   *client.State
	Tracker *tracker.StatsTracker
	Session *session.Controller
	Logger  *slog.Logger

	// Log receives :LOG: lines from the bridge. They go to Logger when nil.
	Log func(function, message, level string)

	// Metrics receives :METRIC: commands; the command is not registered when nil.
	Metrics MetricWriter

	// QueueSize > 0 runs game commands on a buffered lane; otherwise they run
	// on the dispatching goroutine.
	QueueSize int
}

// Service provides handler methods for processing host commands
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers all command handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Replies are written by the caller, so this stays synchronous
	d.Register(":VERSION:", s.handleVersion, dispatcher.Logged())
	d.Register(":LOG:", s.handleLog)
	if s.deps.Metrics != nil {
		d.Register(":METRIC:", s.handleMetric, dispatcher.Buffered(256))
	}

	game := []dispatcher.Option{dispatcher.Logged()}
	if s.deps.QueueSize > 0 {
		game = append(game, dispatcher.Buffered(s.deps.QueueSize), dispatcher.Blocking(), dispatcher.Lane(GameLane))
	}

	// Mirror updates
	d.Register(":TICK:", s.handleTick, game...)
	d.Register(":WORLD:", s.handleWorld, game...)
	d.Register(":GAMESTATE:", s.handleGameState, game...)
	d.Register(":LOCAL:", s.handleLocal, game...)
	d.Register(":PLAYER:", s.handlePlayer, game...)
	d.Register(":PLAYER:DESPAWN:", s.handlePlayerDespawn, game...)
	d.Register(":NPC:", s.handleNPC, game...)
	d.Register(":NPC:DESPAWN:", s.handleNPCDespawn, game...)
	d.Register(":WIDGET:", s.handleWidget, game...)
	d.Register(":VAR:", s.handleVar, game...)

	// Signals
	d.Register(":SKILL:", s.handleSkill, game...)
	d.Register(":ANIMATION:", s.handleAnimation, game...)
	d.Register(":GRAPHIC:", s.handleGraphic, game...)
	d.Register(":HITSPLAT:", s.handleHitsplat, game...)
	d.Register(":CHAT:", s.handleChat, game...)
	d.Register(":OVERHEAD:", s.handleOverhead, game...)
	d.Register(":CONTAINER:", s.handleContainer, game...)
	d.Register(":OBJECT:DESPAWN:", s.handleObjectDespawn, game...)
	d.Register(":MENU:", s.handleMenu, game...)
	d.Register(":DEATH:", s.handleDeath, game...)
}

func (s *Service) handleVersion(e dispatcher.Event) (any, error) {
	return []string{":VERSION:", s.deps.Parser.Version()}, nil
}

func (s *Service) handleLog(e dispatcher.Event) (any, error) {
	l, err := s.deps.Parser.ParseLog(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle log: %w", err)
	}
	if s.deps.Log != nil {
		s.deps.Log(l.Function, l.Message, l.Level)
		return nil, nil
	}
	s.deps.Logger.Info(l.Message, "function", l.Function, "level", l.Level)
	return nil, nil
}

func (s *Service) handleMetric(e dispatcher.Event) (any, error) {
	if err := s.deps.Metrics.WriteMetric(e.Args); err != nil {
		return nil, fmt.Errorf("failed to handle metric: %w", err)
	}
	return nil, nil
}

func (s *Service) handleTick(e dispatcher.Event) (any, error) {
	tick, err := s.deps.Parser.ParseTick(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle tick: %w", err)
	}
	s.deps.State.SetTick(tick.Tick)
	s.deps.Session.OnTick(tick.Tick)
	return nil, nil
}

func (s *Service) handleWorld(e dispatcher.Event) (any, error) {
	world, err := s.deps.Parser.ParseInt(e.Args, e.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to handle world: %w", err)
	}
	s.deps.State.SetWorld(world)
	return nil, nil
}

func (s *Service) handleGameState(e dispatcher.Event) (any, error) {
	state, err := s.deps.Parser.ParseGameState(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle game state: %w", err)
	}
	s.deps.State.SetGameState(state)
	s.deps.Session.OnGameStateChanged()
	return nil, nil
}

func (s *Service) handleLocal(e dispatcher.Event) (any, error) {
	index, err := s.deps.Parser.ParseInt(e.Args, e.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to handle local player: %w", err)
	}
	s.deps.State.SetLocalPlayer(index)
	return nil, nil
}

func (s *Service) handlePlayer(e dispatcher.Event) (any, error) {
	player, err := s.deps.Parser.ParsePlayer(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle player: %w", err)
	}
	s.deps.State.UpdatePlayer(player)
	return nil, nil
}

func (s *Service) handlePlayerDespawn(e dispatcher.Event) (any, error) {
	index, err := s.deps.Parser.ParseInt(e.Args, e.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to handle player despawn: %w", err)
	}
	s.deps.State.RemovePlayer(index)
	return nil, nil
}

func (s *Service) handleNPC(e dispatcher.Event) (any, error) {
	npc, err := s.deps.Parser.ParseNPC(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle npc: %w", err)
	}
	s.deps.State.UpdateNPC(npc)
	return nil, nil
}

func (s *Service) handleNPCDespawn(e dispatcher.Event) (any, error) {
	index, err := s.deps.Parser.ParseInt(e.Args, e.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to handle npc despawn: %w", err)
	}
	s.deps.State.RemoveNPC(index)
	return nil, nil
}

func (s *Service) handleWidget(e dispatcher.Event) (any, error) {
	widget, err := s.deps.Parser.ParseWidget(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle widget: %w", err)
	}
	s.deps.State.SetWidget(widget.Name, widget.Visible)
	return nil, nil
}

func (s *Service) handleVar(e dispatcher.Event) (any, error) {
	v, err := s.deps.Parser.ParseVar(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle var: %w", err)
	}
	s.deps.State.SetVar(v.Name, v.Value)
	s.deps.Session.OnVarChanged(v)
	return nil, nil
}

func (s *Service) handleSkill(e dispatcher.Event) (any, error) {
	xp, err := s.deps.Parser.ParseSkill(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle skill: %w", err)
	}
	s.deps.State.SetSkillExperience(xp.Skill, xp.Experience)
	s.deps.Tracker.OnExperienceChanged(xp)
	return nil, nil
}

func (s *Service) handleAnimation(e dispatcher.Event) (any, error) {
	anim, err := s.deps.Parser.ParseAnimation(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle animation: %w", err)
	}
	s.deps.Tracker.OnAnimationChanged(anim)
	return nil, nil
}

func (s *Service) handleGraphic(e dispatcher.Event) (any, error) {
	g, err := s.deps.Parser.ParseGraphic(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle graphic: %w", err)
	}
	s.deps.Tracker.OnGraphicChanged(g)
	return nil, nil
}

func (s *Service) handleHitsplat(e dispatcher.Event) (any, error) {
	h, err := s.deps.Parser.ParseHitsplat(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle hitsplat: %w", err)
	}
	s.deps.Tracker.OnHitsplatApplied(h)
	return nil, nil
}

func (s *Service) handleChat(e dispatcher.Event) (any, error) {
	msg, err := s.deps.Parser.ParseChat(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle chat: %w", err)
	}
	s.deps.Tracker.OnChatMessage(msg)
	return nil, nil
}

func (s *Service) handleOverhead(e dispatcher.Event) (any, error) {
	o, err := s.deps.Parser.ParseOverhead(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle overhead text: %w", err)
	}
	s.deps.Session.OnOverhead(o)
	return nil, nil
}

func (s *Service) handleContainer(e dispatcher.Event) (any, error) {
	c, err := s.deps.Parser.ParseContainer(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle container: %w", err)
	}
	s.deps.State.SetContainer(c.Container, c.Items)
	s.deps.Tracker.OnContainerChanged(c)
	return nil, nil
}

func (s *Service) handleObjectDespawn(e dispatcher.Event) (any, error) {
	o, err := s.deps.Parser.ParseObjectDespawn(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle object despawn: %w", err)
	}
	s.deps.Tracker.OnObjectDespawned(o)
	return nil, nil
}

func (s *Service) handleMenu(e dispatcher.Event) (any, error) {
	m, err := s.deps.Parser.ParseMenu(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle menu click: %w", err)
	}
	s.deps.Tracker.OnMenuOptionClicked(m)
	return nil, nil
}

func (s *Service) handleDeath(e dispatcher.Event) (any, error) {
	s.deps.Tracker.OnLocalPlayerDeath()
	return nil, nil
}
