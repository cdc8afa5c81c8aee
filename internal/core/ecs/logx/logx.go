// Package logx is the ECS core's structured logging seam. It wraps
// go.uber.org/zap the way the rest of the pack's production services do:
// a single process-wide sugared logger, swappable for tests, used almost
// exclusively to give the fatal assertions required by the core's error
// model (double-free, unknown pointer, capacity exceeded, use-after-shutdown)
// structured context before the process panics or exits.
package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = mustBuild()

func mustBuild() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		// Logging is ambient infrastructure, not a feature the core can
		// gracefully run without; fall back to a no-op rather than panic
		// during package init.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// L returns the process-wide sugared logger.
func L() *zap.SugaredLogger {
	return logger
}

// SetLogger replaces the process-wide logger, used by tests to install
// NewPanicOnFatal() so that a Fatalw panics instead of exiting the test binary.
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

// NewPanicOnFatal returns a logger whose Fatal/Fatalw calls panic instead of
// calling os.Exit, so tests asserting on fatal-assertion behavior (double
// free, unknown pointer, capacity exceeded) can recover() around the call
// instead of killing the test binary.
func NewPanicOnFatal() *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(discard{}), zap.FatalLevel)
	return zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)).Sugar()
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
