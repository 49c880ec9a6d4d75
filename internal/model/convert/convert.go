package convert

import (
	"encoding/json"
	"fmt"

	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/pkg/core"
)

func teamFromName(name string) core.Team {
	switch name {
	case core.TeamSara.String():
		return core.TeamSara
	case core.TeamZam.String():
		return core.TeamZam
	default:
		return core.TeamNone
	}
}

// RoundToCore converts a GORM Round back to a core.GameRecord and its summary lines.
func RoundToCore(m model.Round) (core.GameRecord, []string, error) {
	var lines []string
	if len(m.Lines) > 0 {
		if err := json.Unmarshal(m.Lines, &lines); err != nil {
			return core.GameRecord{}, nil, fmt.Errorf("round %d: failed to decode summary lines: %w", m.ID, err)
		}
	}

	return core.GameRecord{
		ID:                m.ID,
		Team:              teamFromName(m.Team),
		TeamSize:          m.TeamSize,
		World:             m.World,
		CreatedAt:         m.CreatedAt,
		StartTick:         m.StartTick,
		EndTick:           m.EndTick,
		Finalized:         m.Finalized,
		Braced:            m.Braced,
		SaraScore:         m.SaraScore,
		ZamScore:          m.ZamScore,
		CadesSet:          m.CadesSet,
		CadesTinded:       m.CadesTinded,
		CadesBucketed:     m.CadesBucketed,
		CadesExploded:     m.CadesExploded,
		TotalCastAttempts: m.TotalCastAttempts,
		Splashes:          m.Splashes,
		FrozenCount:       m.FrozenCount,
		FreezesOnMe:       m.FreezesOnMe,
		SplashesOnMe:      m.SplashesOnMe,
		Deaths:            m.Deaths,
		DamageTaken:       m.DamageTaken,
		HighestHitTaken:   m.HighestHitTaken,
		TimesSpeared:      m.TimesSpeared,
		DamageDealt:       m.DamageDealt,
		HighestHitDealt:   m.HighestHitDealt,
		FlagsSafed:        m.FlagsSafed,
		FlagsScored:       m.FlagsScored,
	}, lines, nil
}
