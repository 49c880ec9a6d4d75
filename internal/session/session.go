// Package session drives the round lifecycle from the Castle Wars HUD and tracks the
// lobby countdown until the next game.
package session

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwstats/recorder/internal/client"
	"github.com/cwstats/recorder/internal/cw"
	"github.com/cwstats/recorder/internal/round"
	"github.com/cwstats/recorder/internal/summary"
	"github.com/cwstats/recorder/internal/tracker"
	"github.com/cwstats/recorder/pkg/core"
)

// TicksPerMinute converts lobby announcements into ticks.
const TicksPerMinute = 100

var numberPattern = regexp.MustCompile(`([0-9]+)`)

// Outbox receives the summary lines destined for the host chat box.
type Outbox interface {
	Push(items ...string)
}

// RoundSink is notified when a round starts and when it ends. Storage backends,
// metrics writers and the status server all implement it.
type RoundSink interface {
	StartRound(r *core.GameRecord) error
	EndRound(r *core.GameRecord, lines []string) error
}

// Controller owns the in-game flag. It is driven from the ingest goroutine.
type Controller struct {
	client    client.Client
	tracker   *tracker.StatsTracker
	outbox    Outbox
	sinks     []RoundSink
	highlight summary.Highlighter
	status    *round.Context
	logger    *slog.Logger

	inGame bool

	minsUntilNextGame int
	timeChangedOnTick int
}

// Option configures a Controller.
type Option func(*Controller)

// WithSinks adds round sinks, called in order.
func WithSinks(sinks ...RoundSink) Option {
	return func(c *Controller) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithHighlighter sets how values are decorated in summary lines.
func WithHighlighter(h summary.Highlighter) Option {
	return func(c *Controller) {
		c.highlight = h
	}
}

// WithStatus publishes controller state to a shared round context.
func WithStatus(status *round.Context) Option {
	return func(c *Controller) {
		c.status = status
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller. tr must read from the same client as c.
func New(c client.Client, tr *tracker.StatsTracker, outbox Outbox, opts ...Option) *Controller {
	ctl := &Controller{
		client:    c,
		tracker:   tr,
		outbox:    outbox,
		highlight: summary.Plain,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// InGame reports whether a round is live.
func (c *Controller) InGame() bool {
	return c.inGame
}

// OnTick evaluates the HUD once and then lets the tracker run its per-tick checks.
func (c *Controller) OnTick(tick int) {
	c.checkInGame()
	if c.inGame {
		c.tracker.OnTick(tick)
	}
	c.publish(func(s *round.Status) {
		s.Tick = tick
		s.CountdownTicks, _ = c.Countdown()
	})
}

func (c *Controller) hudVisible() bool {
	local, ok := c.client.LocalPlayer()
	if !ok {
		return false
	}
	widget := cw.TimeRemainingWidget(core.TeamOf(local.Team))
	if widget == "" {
		return false
	}
	return c.client.WidgetVisible(widget)
}

func (c *Controller) checkInGame() {
	visible := c.hudVisible()
	if c.inGame == visible {
		return
	}
	c.inGame = visible

	if c.inGame {
		c.startRound()
	} else {
		c.finishRound()
	}
}

func (c *Controller) startRound() {
	rec := c.tracker.StartGame(len(c.client.Players()))
	c.resetWaiting()

	for _, sink := range c.sinks {
		if err := sink.StartRound(rec); err != nil {
			c.logger.Error("Failed to record round start", "error", err)
		}
	}

	c.publish(func(s *round.Status) {
		s.InGame = true
		s.Team = rec.Team
		s.TeamSize = rec.TeamSize
		s.World = rec.World
		s.StartTick = rec.StartTick
	})
}

func (c *Controller) finishRound() {
	rec := c.tracker.FinishGame()
	defer c.tracker.Reset()
	if rec == nil {
		return
	}

	lines := summary.Format(rec, c.highlight)
	c.outbox.Push(lines...)

	var errs []error
	for _, sink := range c.sinks {
		if err := sink.EndRound(rec, lines); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Failed to record round end", "error", err)
	}

	c.logger.Info("Castle Wars game finished",
		"outcome", string(rec.Outcome()),
		"sara", rec.SaraScore,
		"zam", rec.ZamScore,
		"ticks", rec.DurationTicks())

	c.publish(func(s *round.Status) {
		s.InGame = false
		s.Team = core.TeamNone
		s.TeamSize = 0
		s.StartTick = 0
		s.RoundsPlayed++
	})
}

// OnOverhead picks up Lanthus announcing the time until the next game.
func (c *Controller) OnOverhead(e core.OverheadEvent) {
	if e.Actor.Kind != core.ActorNPC {
		return
	}
	npc, ok := c.client.NPC(e.Actor.Index)
	if !ok || npc.ID != cw.NPCLanthus {
		return
	}
	c.onLanthusAnnounce(e.Text)
}

func (c *Controller) onLanthusAnnounce(announcement string) {
	if !strings.Contains(announcement, "minute") {
		return
	}
	m := numberPattern.FindString(announcement)
	if m == "" {
		return
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return
	}
	c.minsUntilNextGame = mins
	c.timeChangedOnTick = c.client.TickCount()
	c.logger.Debug("Next game announced", "minutes", mins)
}

// OnVarChanged follows the lobby minutes varbit. The first value seen is only a
// rounded estimate, so the countdown starts on the first change after it.
func (c *Controller) OnVarChanged(core.VarEvent) {
	if c.inGame || c.timeChangedOnTick != 0 {
		return
	}
	updated := c.client.Var(cw.VarGameMins)
	if updated == 0 || updated == c.minsUntilNextGame {
		return
	}
	if c.minsUntilNextGame != 0 {
		c.timeChangedOnTick = c.client.TickCount()
	}
	c.minsUntilNextGame = updated
}

// OnGameStateChanged clears the countdown once the player is away from the lobby.
func (c *Controller) OnGameStateChanged() {
	local, ok := c.client.LocalPlayer()
	if ok {
		if _, waiting := cw.WaitingRegionIDs[local.Location.RegionID()]; waiting {
			return
		}
	}
	c.resetWaiting()
}

// Countdown returns the ticks left until the next game when a countdown is running.
func (c *Controller) Countdown() (int, bool) {
	if c.timeChangedOnTick == 0 {
		return 0, false
	}
	elapsed := c.client.TickCount() - c.timeChangedOnTick
	return max(c.minsUntilNextGame*TicksPerMinute-elapsed, 0), true
}

// MinutesUntilNextGame is the last announced wait, zero when unknown.
func (c *Controller) MinutesUntilNextGame() int {
	return c.minsUntilNextGame
}

func (c *Controller) resetWaiting() {
	c.minsUntilNextGame = 0
	c.timeChangedOnTick = 0
}

// Shutdown drops the live round without emitting a summary.
func (c *Controller) Shutdown() {
	c.inGame = false
	c.tracker.Reset()
	c.resetWaiting()
	c.publish(func(s *round.Status) {
		s.InGame = false
		s.Team = core.TeamNone
		s.CountdownTicks = 0
	})
}

func (c *Controller) publish(fn func(s *round.Status)) {
	if c.status != nil {
		c.status.Update(fn)
	}
}
