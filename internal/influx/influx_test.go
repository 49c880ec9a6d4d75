package influx

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unavailableServer(t *testing.T) config.InfluxConfig {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return config.InfluxConfig{
		Enabled:  true,
		Protocol: u.Scheme,
		Host:     u.Hostname(),
		Port:     u.Port(),
		Token:    "token",
		Org:      "cwstats",
		Bucket:   "rounds",
	}
}

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(data)
}

func sampleRound() *core.GameRecord {
	r := core.NewGameRecord(core.TeamSara, 5, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), 383, 100)
	r.Deaths = 2
	r.TotalCastAttempts = 4
	r.Splashes = 1
	_ = r.Finalize(3, 1, 250)
	return r
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	err := m.Connect(context.Background())
	assert.ErrorContains(t, err, "influx.enabled is false")
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(zerolog.Nop(), unavailableServer(t), backup)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	require.NoError(t, m.StartRound(sampleRound()))
	require.NoError(t, m.EndRound(sampleRound(), []string{"summary"}))
	require.NoError(t, m.WriteMetric([]string{"bridge", "tag::plugin::cw", "field::float::fps::49.5"}))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	out := readBackup(t, backup)
	assert.Contains(t, out, "round,")
	assert.Contains(t, out, "outcome=Victory")
	assert.Contains(t, out, "team=Saradomin")
	assert.Contains(t, out, "world=383")
	assert.Contains(t, out, "deaths=2i")
	assert.Contains(t, out, "castRate=75")
	assert.Contains(t, out, "durationTicks=150i")
	assert.Contains(t, out, "bridge,plugin=cw fps=49.5")

	assert.Error(t, m.EndRound(sampleRound(), nil))
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	err := m.WritePoint(influxdb2_write.NewPointWithMeasurement("x").AddField("v", 1))
	assert.ErrorContains(t, err, "backup writer not available")
}

func TestRoundPoint(t *testing.T) {
	r := sampleRound()
	p := RoundPoint(r)

	assert.Equal(t, RoundMeasurement, p.Name())
	assert.Equal(t, r.CreatedAt, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{
		"world":    "383",
		"team":     "Saradomin",
		"teamSize": "5",
		"outcome":  "Victory",
	}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(2), fields["deaths"])
	assert.Equal(t, int64(3), fields["saraScore"])
	assert.Equal(t, 75.0, fields["castRate"])
}

func TestParseMetric(t *testing.T) {
	p, err := ParseMetric([]string{`"bridge"`, "tag::plugin::cw", "field::int::npcs::12", "field::string::state::LOGGED_IN", "field::bool::x::1"})
	require.NoError(t, err)
	assert.Equal(t, "bridge", p.Name())
	require.Len(t, p.TagList(), 1)
	assert.Len(t, p.FieldList(), 2)

	_, err = ParseMetric([]string{"bridge"})
	assert.Error(t, err)

	_, err = ParseMetric([]string{"bridge", "tag::a::b"})
	assert.ErrorContains(t, err, "no fields")

	_, err = ParseMetric([]string{"bridge", "field::int::npcs::many"})
	assert.ErrorContains(t, err, "to int")

	_, err = ParseMetric([]string{"bridge", "field::float::fps::fast"})
	assert.ErrorContains(t, err, "to float")
}
