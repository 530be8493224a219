// Package zerolog adapts github.com/rs/zerolog to core.Logger.
package zerolog

import (
	"github.com/Swind/go-green-runner/core"
	"github.com/rs/zerolog"
)

// Logger writes core.Logger events to a zerolog.Logger.
type Logger struct {
	log zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New wraps log.
func New(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Debug(msg string, fields ...core.Field) {
	emit(l.log.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...core.Field) {
	emit(l.log.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...core.Field) {
	emit(l.log.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...core.Field) {
	emit(l.log.Error(), msg, fields)
}

// emit tolerates a nil event, which zerolog returns for disabled levels.
func emit(ev *zerolog.Event, msg string, fields []core.Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			ev = ev.AnErr(f.Key, v)
		case core.TaskID:
			ev = ev.Int(f.Key, int(v))
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Msg(msg)
}

// PanicHandler reports recovered task panics as error events.
type PanicHandler struct {
	log zerolog.Logger
}

var _ core.PanicHandler = (*PanicHandler)(nil)

// NewPanicHandler wraps log.
func NewPanicHandler(log zerolog.Logger) *PanicHandler {
	return &PanicHandler{log: log}
}

func (h *PanicHandler) HandlePanic(runtimeName string, id core.TaskID, panicInfo any, stackTrace []byte) {
	h.log.Error().
		Str("runtime", runtimeName).
		Int("task", int(id)).
		Interface("panic", panicInfo).
		Bytes("stack", stackTrace).
		Msg("task panic recovered")
}
