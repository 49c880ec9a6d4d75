package summary

import (
	"strings"
	"testing"

	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	r := &core.GameRecord{
		Team:              core.TeamZam,
		TeamSize:          12,
		World:             383,
		SaraScore:         1,
		ZamScore:          3,
		DamageDealt:       412.6,
		HighestHitDealt:   38.2,
		DamageTaken:       220,
		HighestHitTaken:   31,
		FlagsScored:       2,
		FlagsSafed:        1,
		Deaths:            4,
		TimesSpeared:      3,
		FreezesOnMe:       6,
		SplashesOnMe:      2,
		TotalCastAttempts: 20,
		Splashes:          5,
		FrozenCount:       6,
		CadesSet:          2,
		CadesTinded:       1,
		CadesExploded:     3,
		CadesBucketed:     1,
	}

	lines := Format(r, nil)
	require.Len(t, lines, 6)
	assert.Equal(t, "Castle Wars - 12v12 - World 383", lines[0])
	assert.Equal(t, "Zamorak - Victory (1-3)", lines[1])
	assert.Equal(t, "Damage dealt: 413 (Max 38) Damage taken: 220 (Max 31)", lines[2])
	assert.Equal(t, "Captures: 2 Saves: 1 Deaths: 4 Stuns: 3 Freezes: 6", lines[3])
	assert.Equal(t, "Casts: 20 Splashes: 5 (Cast rate 75%) Frozen: 6 Splashed on me: 25%", lines[4])
	assert.Equal(t, "Barricades set: 2 Tinded: 1 Exploded: 3 Doused: 1", lines[5])
}

func TestFormatZeroRecord(t *testing.T) {
	lines := Format(&core.GameRecord{}, nil)
	require.Len(t, lines, 6)
	for _, l := range lines {
		assert.NotContains(t, l, "NaN")
		assert.NotContains(t, l, "Inf")
	}
	assert.Equal(t, "None - Tie (0-0)", lines[1])
	assert.Equal(t, "Casts: 0 Splashes: 0 (Cast rate 0%) Frozen: 0 Splashed on me: 0%", lines[4])
}

func TestFormatNil(t *testing.T) {
	assert.Nil(t, Format(nil, nil))
}

func TestColorTag(t *testing.T) {
	lines := Format(&core.GameRecord{Team: core.TeamSara, TeamSize: 5, World: 301}, ColorTag("#ff0000"))
	assert.Equal(t, "Castle Wars - <col=ff0000>5v5</col> - World 301", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Saradomin - <col=ff0000>Tie</col>"))

	assert.Equal(t, "x", ColorTag("  ")("x"))
}
