package log

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZapLogger struct {
	logger *zap.Logger
}

func NewZapLogger(config Config) (Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", config.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(config.Format) == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := newWriteSyncer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	if config.Sampling != nil {
		tick := config.Sampling.Tick
		if tick == 0 {
			tick = time.Second
		}
		core = zapcore.NewSamplerWithOptions(core, tick, config.Sampling.Initial, config.Sampling.Thereafter)
	}

	options := []zap.Option{
		zap.Fields(
			zap.String("service", config.ServiceName),
			zap.String("version", config.Version),
			zap.String("env", config.Environment),
		),
	}
	if !config.DisableCaller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if !config.DisableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return &ZapLogger{logger: zap.New(core, options...)}, nil
}

// FromZap wraps an existing zap logger, e.g. one built on an observer core.
func FromZap(l *zap.Logger) Logger {
	return &ZapLogger{logger: l}
}

func NewNopLogger() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

func newWriteSyncer(config Config) (zapcore.WriteSyncer, error) {
	switch config.OutputPath {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	dir := filepath.Dir(config.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", dir, err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.OutputPath,
		MaxSize:    config.FileMaxSizeInMB,
		MaxAge:     config.FileMaxAgeInDays,
		MaxBackups: config.FileMaxBackups,
		Compress:   config.CompressRotated,
	}), nil
}

func NewDevelopmentLogger() (Logger, error) {
	return NewZapLogger(DevelopmentConfig())
}

func MustNewDevelopmentLogger() Logger {
	logger, err := NewDevelopmentLogger()
	if err != nil {
		panic(fmt.Sprintf("failed to create development logger: %v", err))
	}
	return logger
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.logger.Fatal(msg, fields...) }

func (l *ZapLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(fields...)}
}

func (l *ZapLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.logger.Debug(msg, append(fields, contextFields(ctx)...)...)
}

func (l *ZapLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.logger.Info(msg, append(fields, contextFields(ctx)...)...)
}

func (l *ZapLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.logger.Warn(msg, append(fields, contextFields(ctx)...)...)
}

func (l *ZapLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.logger.Error(msg, append(fields, contextFields(ctx)...)...)
}

func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	return &ZapLogger{logger: l.logger.With(contextFields(ctx)...)}
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func contextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	var fields []Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, RequestID(id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields = append(fields, UserID(id))
	}
	return fields
}
