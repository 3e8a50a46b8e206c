package log

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Field = zap.Field

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Printf(format string, args ...interface{})
	With(fields ...Field) Logger
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	WithContext(ctx context.Context) Logger
	Sync() error
}

func String(key, value string) Field                 { return zap.String(key, value) }
func Strings(key string, value []string) Field       { return zap.Strings(key, value) }
func Int(key string, value int) Field                { return zap.Int(key, value) }
func Int64(key string, value int64) Field            { return zap.Int64(key, value) }
func Bool(key string, value bool) Field              { return zap.Bool(key, value) }
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }
func Error(err error) Field                          { return zap.Error(err) }
func Any(key string, value interface{}) Field        { return zap.Any(key, value) }
func UserID(value string) Field                      { return zap.String("user_id", value) }
func RoleID(value string) Field                      { return zap.String("role_id", value) }
func ModuleID(value string) Field                    { return zap.String("module_id", value) }
func CompanyID(value string) Field                   { return zap.String("company_id", value) }
func RequestID(value string) Field                   { return zap.String("request_id", value) }
func Method(value string) Field                      { return zap.String("method", value) }
func URL(value string) Field                         { return zap.String("url", value) }
func StatusCode(value int) Field                     { return zap.Int("status_code", value) }
func ResponseTime(value time.Duration) Field         { return zap.Duration("response_time", value) }

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

var defaultLogger Logger

func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger falls back to a development logger when none was set.
func GetDefaultLogger() Logger {
	if defaultLogger == nil {
		defaultLogger = MustNewDevelopmentLogger()
	}
	return defaultLogger
}
