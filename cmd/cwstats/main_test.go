package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/queue"
	"github.com/cwstats/recorder/pkg/hostinterface"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainOutboxFlushesOnStop(t *testing.T) {
	var out bytes.Buffer
	writer := hostinterface.NewWriter(&out)
	outbox := queue.New[string]()
	outbox.Push("Castle Wars - 2v2 - World 383")

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		drainOutbox(outbox, writer, stop, discardLogger())
	}()

	close(stop)
	<-done
	assert.Equal(t, `[":MESSAGE:","Castle Wars - 2v2 - World 383"]`+"\n", out.String())
	assert.Empty(t, outbox.GetAndEmpty())
}

func TestZerologLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, zerologLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, zerologLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, zerologLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, zerologLevel(""))
}

func TestOpenLogFileMovesOldLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	f, path, err := openLogFile(dir, start)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, again, err := openLogFile(dir, start)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, path, again)
	assert.FileExists(t, path+".old")
}

func TestServeUnknownSource(t *testing.T) {
	err := serve(context.Background(), nil, config.InputConfig{Source: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown input source")
}

func TestServeWebsocketWaitsForCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, serve(ctx, nil, config.InputConfig{Source: "websocket"}), context.Canceled)
}

type lineSink chan []byte

func (s lineSink) WriteLine(line []byte) error {
	s <- append([]byte(nil), line...)
	return nil
}

func TestDrainOutboxSendsOnPush(t *testing.T) {
	writer := hostinterface.NewWriter(nil)
	sink := make(lineSink, 4)
	writer.Attach(sink)

	outbox := queue.New[string]()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		drainOutbox(outbox, writer, stop, discardLogger())
	}()
	defer func() {
		close(stop)
		<-done
	}()

	outbox.Push("Saradomin - Victory (3-1)")
	select {
	case line := <-sink:
		assert.Equal(t, `[":MESSAGE:","Saradomin - Victory (3-1)"]`, string(line))
	case <-time.After(time.Second):
		t.Fatal("summary line was not sent")
	}
}
