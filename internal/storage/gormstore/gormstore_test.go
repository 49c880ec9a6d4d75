package gormstore

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cwstats/recorder/internal/database"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.GetSqliteDB(dsn)
	require.NoError(t, err)

	b := New(Dependencies{
		DB:            db,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Info:          model.RecorderInfo{PlayerName: "tester", Version: "test"},
		WriteInterval: time.Hour,
	})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInitWithoutDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestInitCreatesRecorderInfo(t *testing.T) {
	b := newTestBackend(t)

	var info model.RecorderInfo
	require.NoError(t, b.DB().First(&info).Error)
	assert.Equal(t, "tester", info.PlayerName)
}

func TestStartRoundAssignsID(t *testing.T) {
	b := newTestBackend(t)

	r := core.NewGameRecord(core.TeamSara, 2, time.Now(), 383, 10)
	require.NoError(t, b.StartRound(r))
	assert.NotZero(t, r.ID)

	var row model.Round
	require.NoError(t, b.DB().First(&row, r.ID).Error)
	assert.False(t, row.Finalized)
	assert.Equal(t, "Saradomin", row.Team)
}

func TestEndRoundQueuesUntilFlush(t *testing.T) {
	b := newTestBackend(t)

	r := core.NewGameRecord(core.TeamZam, 2, time.Now(), 383, 10)
	require.NoError(t, b.StartRound(r))
	r.FlagsScored = 2
	require.NoError(t, r.Finalize(0, 2, 500))

	require.NoError(t, b.EndRound(r, []string{"one", "two"}))
	assert.Equal(t, 1, b.Pending())

	b.Flush()
	assert.Equal(t, 0, b.Pending())

	var rows []model.Round
	require.NoError(t, b.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Finalized)
	assert.Equal(t, "Victory", rows[0].Outcome)
	assert.Equal(t, 2, rows[0].FlagsScored)
	assert.NotNil(t, rows[0].EndedAt)
	assert.JSONEq(t, `["one","two"]`, string(rows[0].Lines))
}

func TestEndRoundWithoutStartInserts(t *testing.T) {
	b := newTestBackend(t)

	r := core.NewGameRecord(core.TeamSara, 1, time.Now(), 302, 0)
	require.NoError(t, r.Finalize(1, 1, 100))
	require.NoError(t, b.EndRound(r, nil))
	b.Flush()

	recs, err := b.Rounds(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 302, recs[0].World)
	assert.Equal(t, core.OutcomeTie, recs[0].Outcome())
}

func TestCloseFlushes(t *testing.T) {
	b := newTestBackend(t)

	r := core.NewGameRecord(core.TeamSara, 1, time.Now(), 302, 0)
	require.NoError(t, b.StartRound(r))
	require.NoError(t, r.Finalize(3, 0, 100))
	require.NoError(t, b.EndRound(r, nil))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	var row model.Round
	require.NoError(t, b.DB().First(&row, r.ID).Error)
	assert.True(t, row.Finalized)
}

func TestRoundsNewestFirst(t *testing.T) {
	b := newTestBackend(t)

	for world := 301; world <= 303; world++ {
		require.NoError(t, b.StartRound(core.NewGameRecord(core.TeamSara, 1, time.Now(), world, 0)))
	}

	recs, err := b.Rounds(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 303, recs[0].World)
	assert.Equal(t, 302, recs[1].World)
}

func TestRoundsReportsUndecodableRow(t *testing.T) {
	b := newTestBackend(t)

	row := model.Round{World: 302, Team: "Saradomin", Lines: []byte(`"one line"`)}
	require.NoError(t, b.DB().Create(&row).Error)

	_, err := b.Rounds(10)
	assert.ErrorContains(t, err, fmt.Sprintf("round %d", row.ID))
}
