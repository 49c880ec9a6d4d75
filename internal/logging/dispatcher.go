package logging

import "github.com/rs/zerolog"

// DispatcherLogger lets the command dispatcher log through zerolog. Key/value
// pairs become JSON fields; pairs with a non-string key are dropped.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.write(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.write(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.write(l.logger.Error(), msg, keysAndValues)
}

func (l *DispatcherLogger) write(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kv[i+1].(error); isErr {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
