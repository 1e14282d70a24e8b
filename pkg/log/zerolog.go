package log

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	pkgerrors "github.com/evalpipe/evalpipe/pkg/errors"
)

// ZerologProvider is a LoggerProvider backed by zerolog.
type ZerologProvider struct {
	base  zerolog.Logger
	level Level
}

// NewZerologProvider creates a provider that writes JSON log lines to stderr.
func NewZerologProvider(level Level) *ZerologProvider {
	base := zerolog.New(os.Stderr).
		Level(toZerologLevel(level)).
		With().Timestamp().Logger()
	return &ZerologProvider{base: base, level: level}
}

// NewZerologProviderWithLogger creates a provider around an existing zerolog
// logger. Useful for redirecting output in tests.
func NewZerologProviderWithLogger(logger zerolog.Logger, level Level) *ZerologProvider {
	return &ZerologProvider{base: logger.Level(toZerologLevel(level)), level: level}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base, level: p.level}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{
		zl:    p.base.With().Str(ComponentKey, name).Logger(),
		level: p.level,
	}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.level = level
	p.base = p.base.Level(toZerologLevel(level))
}

// RouteWarnings installs this provider as the sink for library warnings
// raised via pkg/errors.Warn.
func (p *ZerologProvider) RouteWarnings() {
	logger := p.base
	pkgerrors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(warning.Error())
	})
}

type zerologLogger struct {
	zl    zerolog.Logger
	level Level
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	// An error in the leading position carries the stack trace.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	emit(ev, msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger(), level: l.level}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return l.level <= level
}

func emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
