package adapters

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crawler-middleware/internal/logging/types"
)

// ZapAdapter encodes entries with zap's production JSON encoder.
// Level filtering happens in the MultiLogger, so the core accepts everything.
type ZapAdapter struct {
	name string
	core zapcore.Core
}

// ZapConfig represents configuration for the zap adapter
type ZapConfig struct {
	Output      string `yaml:"output"` // stdout or stderr
	Development bool   `yaml:"development"`
}

// NewZapAdapter creates a zap-backed adapter
func NewZapAdapter(name string, config ZapConfig) *ZapAdapter {
	var out io.Writer = os.Stdout
	if config.Output == "stderr" {
		out = os.Stderr
	}
	return NewZapWriterAdapter(name, config, out)
}

// NewZapWriterAdapter creates a zap-backed adapter writing to out
func NewZapWriterAdapter(name string, config ZapConfig, out io.Writer) *ZapAdapter {
	encoderConfig := zap.NewProductionEncoderConfig()
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(out)),
		zapcore.DebugLevel,
	)

	return &ZapAdapter{name: name, core: core}
}

// Write goes to the core directly so a fatal entry never triggers zap's exit hook
func (a *ZapAdapter) Write(entry *types.LogEntry) error {
	fields := make([]zapcore.Field, 0, len(entry.Fields))
	for k, v := range entry.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	return a.core.Write(zapcore.Entry{
		Level:   zapLevel(entry.Level),
		Time:    entry.Timestamp,
		Message: entry.Message,
	}, fields)
}

func (a *ZapAdapter) Close() error {
	// stdout and stderr reject fsync on some platforms
	_ = a.core.Sync()
	return nil
}

func (a *ZapAdapter) Name() string {
	return a.name
}

func zapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.DebugLevel:
		return zapcore.DebugLevel
	case types.WarnLevel:
		return zapcore.WarnLevel
	case types.ErrorLevel:
		return zapcore.ErrorLevel
	case types.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
