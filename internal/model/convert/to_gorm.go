// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/pkg/core"
	"gorm.io/datatypes"
)

// linesToJSON converts summary lines to datatypes.JSON for DB storage.
func linesToJSON(lines []string) datatypes.JSON {
	if len(lines) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(lines)
	return datatypes.JSON(data)
}

// CoreToRound converts a core.GameRecord and its summary lines to a GORM model.Round.
// Outcome is only set once the record is finalized.
func CoreToRound(r core.GameRecord, lines []string) model.Round {
	round := model.Round{
		ID:                r.ID,
		CreatedAt:         r.CreatedAt,
		World:             r.World,
		Team:              r.Team.String(),
		TeamSize:          r.TeamSize,
		StartTick:         r.StartTick,
		EndTick:           r.EndTick,
		Finalized:         r.Finalized,
		Braced:            r.Braced,
		SaraScore:         r.SaraScore,
		ZamScore:          r.ZamScore,
		CadesSet:          r.CadesSet,
		CadesTinded:       r.CadesTinded,
		CadesBucketed:     r.CadesBucketed,
		CadesExploded:     r.CadesExploded,
		TotalCastAttempts: r.TotalCastAttempts,
		Splashes:          r.Splashes,
		FrozenCount:       r.FrozenCount,
		FreezesOnMe:       r.FreezesOnMe,
		SplashesOnMe:      r.SplashesOnMe,
		Deaths:            r.Deaths,
		DamageTaken:       r.DamageTaken,
		HighestHitTaken:   r.HighestHitTaken,
		TimesSpeared:      r.TimesSpeared,
		DamageDealt:       r.DamageDealt,
		HighestHitDealt:   r.HighestHitDealt,
		FlagsSafed:        r.FlagsSafed,
		FlagsScored:       r.FlagsScored,
		Lines:             linesToJSON(lines),
	}
	if r.Finalized {
		round.Outcome = string(r.Outcome())
	}
	return round
}
