package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetupWritesToFileOnly(t *testing.T) {
	restore := captureStderr(t)

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", nil)
	m.Logger().Info("round started", "world", 383)

	console := restore()
	assert.Contains(t, file.String(), "world=383")
	assert.Contains(t, file.String(), `msg="Logging initialized" level=INFO`)
	assert.Empty(t, console)
}

func TestSetupWithoutFileUsesStderr(t *testing.T) {
	restore := captureStderr(t)

	m := NewSlogManager()
	m.Setup(nil, "info", nil)
	m.Logger().Info("no log file")

	assert.Contains(t, restore(), "no log file")
}

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, false},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)
			m.Logger().Debug("tick handled")
			m.Logger().Info("summary sent")

			assert.Equal(t, tt.debugSeen, bytes.Contains(buf.Bytes(), []byte("tick handled")))
			assert.Equal(t, tt.infoSeen, bytes.Contains(buf.Bytes(), []byte("summary sent")))
		})
	}
}

func TestSetupReplacesLogger(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Logger().Info("before")
	m.Setup(&second, "info", nil)
	m.Logger().Info("after")

	assert.NotContains(t, first.String(), "after")
	assert.Contains(t, second.String(), "after")
}

func TestSetupContextProvider(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{slog.Bool("inGame", true)}
	})
	m.Setup(&buf, "info", nil)
	m.Logger().Info("splash counted")

	assert.Contains(t, buf.String(), "inGame=true")
}

func TestSetupGraylog(t *testing.T) {
	gw := &fakeGELF{}
	m := NewSlogManager()
	m.SetGraylog(gw)
	m.Setup(&bytes.Buffer{}, "info", nil)
	m.Logger().Info("round ended", "team", "Zamorak")

	require.Len(t, gw.messages, 2)
	assert.Equal(t, "Logging initialized", gw.messages[0].Short)
	assert.Equal(t, "Zamorak", gw.messages[1].Extra["_team"])
}

func TestSetupOTelProvider(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", sdklog.NewLoggerProvider())
	m.Logger().Info("exported")

	assert.Contains(t, buf.String(), "exported")
	assert.NoError(t, m.Flush(context.Background()))
}

func TestLoggerBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Flush(context.Background()))
	m.WriteLog("init", "ignored", "info")
}

func TestWriteLog(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "debug", nil)

	m.WriteLog("onTick", "bridge lagging", "WARN")
	m.WriteLog("onLogin", "bridge connected", "nonsense")

	out := buf.String()
	assert.Contains(t, out, `level=WARN msg="bridge lagging" source=bridge function=onTick`)
	assert.Contains(t, out, `level=INFO msg="bridge connected" source=bridge function=onLogin`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("fatal"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

// captureStderr redirects console logging to a pipe and returns a function
// that restores it and returns what was captured.
func captureStderr(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	orig := osStderr
	osStderr = w

	return func() string {
		w.Close()
		osStderr = orig
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}
