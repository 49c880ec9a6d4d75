// pkg/core/record.go
package core

import (
	"errors"
	"time"
)

// ErrAlreadyFinalized is returned when a finished round is finalized again.
var ErrAlreadyFinalized = errors.New("game record already finalized")

// Outcome of a finished round from the recording player's point of view.
type Outcome string

const (
	OutcomeVictory Outcome = "Victory"
	OutcomeLoss    Outcome = "Loss"
	OutcomeTie     Outcome = "Tie"
)

// GameRecord aggregates the statistics of one Castle Wars round.
// Counter fields are only ever incremented while the round is live.
type GameRecord struct {
	ID        uint      `json:"id"`
	Team      Team      `json:"team"`
	TeamSize  int       `json:"teamSize"`
	World     int       `json:"world"`
	Braced    bool      `json:"braced"`
	CreatedAt time.Time `json:"createdAt"`
	StartTick int       `json:"startTick"`
	EndTick   int       `json:"endTick"`
	Finalized bool      `json:"finalized"`

	SaraScore int `json:"saraScore"`
	ZamScore  int `json:"zamScore"`

	CadesSet      int `json:"cadesSet"`
	CadesTinded   int `json:"cadesTinded"`
	CadesBucketed int `json:"cadesBucketed"`
	CadesExploded int `json:"cadesExploded"`

	TotalCastAttempts int `json:"totalCastAttempts"`
	Splashes          int `json:"splashes"`
	FrozenCount       int `json:"frozenCount"`
	FreezesOnMe       int `json:"freezesOnMe"`
	SplashesOnMe      int `json:"splashesOnMe"`

	Deaths          int `json:"deaths"`
	DamageTaken     int `json:"damageTaken"`
	HighestHitTaken int `json:"highestHitTaken"`
	TimesSpeared    int `json:"timesSpeared"`

	DamageDealt     float64 `json:"damageDealt"`
	HighestHitDealt float64 `json:"highestHitDealt"`

	FlagsSafed  int `json:"flagsSafed"`
	FlagsScored int `json:"flagsScored"`
}

// NewGameRecord starts a record for a round joined on the given tick.
func NewGameRecord(team Team, teamSize int, createdAt time.Time, world int, startTick int) *GameRecord {
	return &GameRecord{
		Team:      team,
		TeamSize:  teamSize,
		World:     world,
		CreatedAt: createdAt,
		StartTick: startTick,
	}
}

// RecordDamageDealt adds an approximate hit to the damage dealt total.
func (r *GameRecord) RecordDamageDealt(amount float64) {
	r.DamageDealt += amount
	if amount > r.HighestHitDealt {
		r.HighestHitDealt = amount
	}
}

// RecordDamageTaken adds a hitsplat to the damage taken total.
func (r *GameRecord) RecordDamageTaken(amount int) {
	r.DamageTaken += amount
	if amount > r.HighestHitTaken {
		r.HighestHitTaken = amount
	}
}

// Finalize stores the terminal scores. It may only be called once.
func (r *GameRecord) Finalize(saraScore, zamScore, endTick int) error {
	if r.Finalized {
		return ErrAlreadyFinalized
	}
	r.SaraScore = saraScore
	r.ZamScore = zamScore
	r.EndTick = endTick
	r.Finalized = true
	return nil
}

// CastRate is the percentage of cast attempts that did not splash.
func (r *GameRecord) CastRate() float64 {
	if r.TotalCastAttempts == 0 {
		return 0
	}
	return (1 - float64(r.Splashes)/float64(r.TotalCastAttempts)) * 100
}

// TotalCastsOnMe counts enemy casts that landed on or splashed on the player.
func (r *GameRecord) TotalCastsOnMe() int {
	return r.SplashesOnMe + r.FreezesOnMe
}

// SplashRate is the percentage of enemy casts on the player that splashed.
func (r *GameRecord) SplashRate() float64 {
	total := r.TotalCastsOnMe()
	if total == 0 {
		return 0
	}
	return float64(r.SplashesOnMe) / float64(total) * 100
}

// Outcome compares the final scores from the record's team perspective.
func (r *GameRecord) Outcome() Outcome {
	if r.SaraScore == r.ZamScore {
		return OutcomeTie
	}
	won := r.ZamScore > r.SaraScore
	if r.Team == TeamSara {
		won = r.SaraScore > r.ZamScore
	}
	if won {
		return OutcomeVictory
	}
	return OutcomeLoss
}

// DurationTicks is the number of ticks between joining and leaving the round.
func (r *GameRecord) DurationTicks() int {
	if !r.Finalized {
		return 0
	}
	return r.EndTick - r.StartTick
}
