package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Logs go to stderr so that command output on stdout
// stays machine readable.
func New(json bool, debug bool) (*zap.Logger, error) {
	return build(json, debug, []string{"stderr"})
}

func build(json bool, debug bool, outputs []string) (*zap.Logger, error) {
	cfg := zap.Config{
		Encoding:          "console",
		Level:             zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		EncoderConfig:     encoderConfig(json),
		DisableStacktrace: !debug,
	}

	if json {
		cfg.Encoding = "json"
	}
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	return cfg.Build()
}

// encoderConfig keeps the message under "step". Console output gets coloured levels,
// JSON gets plain lowercase ones.
func encoderConfig(json bool) zapcore.EncoderConfig {
	levelEncoder := zapcore.CapitalColorLevelEncoder
	if json {
		levelEncoder = zapcore.LowercaseLevelEncoder
	}

	return zapcore.EncoderConfig{
		MessageKey:    "step",
		LevelKey:      "level",
		TimeKey:       "time",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",

		EncodeLevel:    levelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
