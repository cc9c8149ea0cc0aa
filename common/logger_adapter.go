package common

import (
	"fmt"

	"auction-market/pkg/log"
)

// Logger is the key/value logging surface used by handlers and helpers that
// should not depend on zap field types.
type Logger interface {
	Info(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Printf(format string, args ...any)
	Println(args ...any)
}

type LoggerAdapter struct {
	logger log.Logger
}

func NewLoggerAdapter(logger log.Logger) Logger {
	return &LoggerAdapter{logger: logger}
}

// toFields pairs up keyvals. A trailing key without value is logged under "extra".
func toFields(keyvals []any) []log.Field {
	fields := make([]log.Field, 0, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 == len(keyvals) {
			fields = append(fields, log.Any("extra", keyvals[i]))
			break
		}
		fields = append(fields, log.Any(fmt.Sprint(keyvals[i]), keyvals[i+1]))
	}
	return fields
}

func (a *LoggerAdapter) Info(msg string, keyvals ...any) {
	a.logger.Info(msg, toFields(keyvals)...)
}

func (a *LoggerAdapter) Error(msg string, keyvals ...any) {
	a.logger.Error(msg, toFields(keyvals)...)
}

func (a *LoggerAdapter) Debug(msg string, keyvals ...any) {
	a.logger.Debug(msg, toFields(keyvals)...)
}

func (a *LoggerAdapter) Warn(msg string, keyvals ...any) {
	a.logger.Warn(msg, toFields(keyvals)...)
}

func (a *LoggerAdapter) Infof(format string, args ...any) {
	a.logger.Infof(format, args...)
}

func (a *LoggerAdapter) Errorf(format string, args ...any) {
	a.logger.Errorf(format, args...)
}

func (a *LoggerAdapter) Debugf(format string, args ...any) {
	a.logger.Debugf(format, args...)
}

func (a *LoggerAdapter) Warnf(format string, args ...any) {
	a.logger.Warnf(format, args...)
}

func (a *LoggerAdapter) Printf(format string, args ...any) {
	a.logger.Printf(format, args...)
}

func (a *LoggerAdapter) Println(args ...any) {
	a.logger.Println(args...)
}
