package orchestrator

import "go.uber.org/zap"

// Logger is the ambient structured-logging interface the Orchestrator
// takes at construction: leveled key/value logging plus Bind for deriving
// a sub-logger with fields attached.
type Logger interface {
	Info(msg string, fields ...any)
	Debug(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Bind(fields ...any) Logger
}

// zapLogger adapts *zap.SugaredLogger to Logger, the concrete default for
// this module (the rest of the repo already carries zap for eventbus and
// gateway logging).
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps z as a Logger. A nil z is replaced with a no-op.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return zapLogger{sugar: z.Sugar()}
}

func (l zapLogger) Info(msg string, fields ...any)  { l.sugar.Infow(msg, fields...) }
func (l zapLogger) Debug(msg string, fields ...any) { l.sugar.Debugw(msg, fields...) }
func (l zapLogger) Warn(msg string, fields ...any)  { l.sugar.Warnw(msg, fields...) }
func (l zapLogger) Error(msg string, fields ...any) { l.sugar.Errorw(msg, fields...) }

func (l zapLogger) Bind(fields ...any) Logger {
	return zapLogger{sugar: l.sugar.With(fields...)}
}

// nopLogger discards everything; used when the caller passes a nil Logger.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Bind(...any) Logger   { return nopLogger{} }
