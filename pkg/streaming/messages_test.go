package streaming

import (
	"encoding/json"
	"testing"

	"github.com/cwstats/recorder/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEndRound(t *testing.T) {
	rec := &core.GameRecord{World: 383, Team: core.TeamSara, SaraScore: 2, ZamScore: 1}
	data, err := Marshal(TypeEndRound, EndRoundPayload{Record: rec, Outcome: rec.Outcome(), Lines: []string{"a"}})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, TypeEndRound, env.Type)

	var payload EndRoundPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, core.OutcomeVictory, payload.Outcome)
	assert.Equal(t, 383, payload.Record.World)
	assert.Equal(t, []string{"a"}, payload.Lines)
}

func TestAckMessageDecode(t *testing.T) {
	var ack AckMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ack","for":"start_round"}`), &ack))
	assert.Equal(t, "ack", ack.Type)
	assert.Equal(t, TypeStartRound, ack.For)
}
