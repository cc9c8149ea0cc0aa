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
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ZapLogger struct {
	logger *zap.Logger
	config Config
}

func NewZapLogger(config Config) (Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", config.Level, err)
	}

	writeSyncer, err := createWriteSyncer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	core := zapcore.NewCore(newEncoder(config), writeSyncer, level)
	if s := config.SamplingConfig; s != nil {
		tick := s.Tick
		if tick == 0 {
			tick = time.Second
		}
		core = zapcore.NewSamplerWithOptions(core, tick, s.Initial, s.Thereafter)
	}

	return newFromCore(core, config), nil
}

// NewObservedLogger keeps entries in memory so tests can assert on them.
func NewObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	config := DefaultConfig()
	config.DisableStacktrace = true
	return newFromCore(core, config), logs
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() Logger {
	return &ZapLogger{logger: zap.NewNop(), config: DefaultConfig()}
}

func newEncoder(config Config) zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if config.Environment == "production" {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(config.Format, "console") {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func newFromCore(core zapcore.Core, config Config) *ZapLogger {
	var options []zap.Option
	if !config.DisableCaller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	if !config.DisableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	fields := make([]zap.Field, 0, len(config.InitialFields)+2)
	for key, value := range config.InitialFields {
		fields = append(fields, zap.Any(key, value))
	}
	if config.ServiceName != "" {
		fields = append(fields, zap.String("service", config.ServiceName))
	}
	if config.Environment == "production" {
		fields = append(fields, zap.String("version", config.Version))
	}
	options = append(options, zap.Fields(fields...))

	return &ZapLogger{logger: zap.New(core, options...), config: config}
}

// createWriteSyncer accepts a comma separated list of outputs, e.g. "stdout,logs/app.log".
func createWriteSyncer(config Config) (zapcore.WriteSyncer, error) {
	var outputs []zapcore.WriteSyncer
	seen := make(map[string]struct{})
	for _, path := range strings.Split(config.OutputPath, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}

		syncer, err := getSyncer(path, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create output syncer: %w", err)
		}
		outputs = append(outputs, syncer)
	}

	switch len(outputs) {
	case 0:
		return zapcore.AddSync(os.Stdout), nil
	case 1:
		return outputs[0], nil
	default:
		return zapcore.NewMultiWriteSyncer(outputs...), nil
	}
}

func getSyncer(path string, config Config) (zapcore.WriteSyncer, error) {
	switch path {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", dir, err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
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

// write checks the level before building the entry, so disabled debug
// logs never pay for context lookups.
func (l *ZapLogger) write(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	ce := l.logger.Check(level, msg)
	if ce == nil {
		return
	}
	if ctx != nil {
		fields = append(fields, contextFields(ctx)...)
	}
	ce.Write(fields...)
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.write(nil, zapcore.DebugLevel, msg, fields) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.write(nil, zapcore.InfoLevel, msg, fields) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.write(nil, zapcore.WarnLevel, msg, fields) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.write(nil, zapcore.ErrorLevel, msg, fields) }
func (l *ZapLogger) Fatal(msg string, fields ...Field) { l.write(nil, zapcore.FatalLevel, msg, fields) }

func (l *ZapLogger) Debugf(format string, args ...any) {
	l.write(nil, zapcore.DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Infof(format string, args ...any) {
	l.write(nil, zapcore.InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Warnf(format string, args ...any) {
	l.write(nil, zapcore.WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Errorf(format string, args ...any) {
	l.write(nil, zapcore.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Fatalf(format string, args ...any) {
	l.write(nil, zapcore.FatalLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *ZapLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *ZapLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *ZapLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(fields...), config: l.config}
}

func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	return l.With(contextFields(ctx)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// Printf serves as the gorm logger writer. Slow query reports are raised
// to warn.
func (l *ZapLogger) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	level := zapcore.InfoLevel
	if strings.Contains(msg, "SLOW SQL") {
		level = zapcore.WarnLevel
	}
	l.write(nil, level, msg, nil)
}

func (l *ZapLogger) Println(args ...any) {
	l.write(nil, zapcore.InfoLevel, fmt.Sprint(args...), nil)
}
