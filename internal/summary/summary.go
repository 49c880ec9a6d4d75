// Package summary turns a finished GameRecord into the lines shown to the player.
package summary

import (
	"fmt"
	"strings"

	"github.com/cwstats/recorder/pkg/core"
)

// Highlighter decorates the values inside a summary line.
type Highlighter func(string) string

// Plain leaves values untouched.
func Plain(s string) string { return s }

// ColorTag wraps values in the host's colour markup. An empty colour yields Plain.
func ColorTag(hex string) Highlighter {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return Plain
	}
	return func(s string) string {
		return "<col=" + hex + ">" + s + "</col>"
	}
}

// Format renders r. It is deterministic and never fails, including on a zero record.
func Format(r *core.GameRecord, highlight Highlighter) []string {
	if r == nil {
		return nil
	}
	if highlight == nil {
		highlight = Plain
	}
	h := func(format string, args ...any) string {
		return highlight(fmt.Sprintf(format, args...))
	}

	return []string{
		fmt.Sprintf("Castle Wars - %s - World %d",
			h("%dv%d", r.TeamSize, r.TeamSize), r.World),
		fmt.Sprintf("%s - %s (%d-%d)",
			r.Team.String(), highlight(string(r.Outcome())), r.SaraScore, r.ZamScore),
		fmt.Sprintf("Damage dealt: %s (Max %s) Damage taken: %s (Max %s)",
			h("%.0f", r.DamageDealt), h("%.0f", r.HighestHitDealt),
			h("%d", r.DamageTaken), h("%d", r.HighestHitTaken)),
		fmt.Sprintf("Captures: %s Saves: %s Deaths: %s Stuns: %s Freezes: %s",
			h("%d", r.FlagsScored), h("%d", r.FlagsSafed), h("%d", r.Deaths),
			h("%d", r.TimesSpeared), h("%d", r.FreezesOnMe)),
		fmt.Sprintf("Casts: %s Splashes: %s (Cast rate %s) Frozen: %s Splashed on me: %s",
			h("%d", r.TotalCastAttempts), h("%d", r.Splashes), h("%.0f%%", r.CastRate()),
			h("%d", r.FrozenCount), h("%.0f%%", r.SplashRate())),
		fmt.Sprintf("Barricades set: %s Tinded: %s Exploded: %s Doused: %s",
			h("%d", r.CadesSet), h("%d", r.CadesTinded), h("%d", r.CadesExploded), h("%d", r.CadesBucketed)),
	}
}
