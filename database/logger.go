package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Logger 将 GORM 日志输出到 zerolog
type Logger struct {
	logger zerolog.Logger
}

// NewLogger 创建 GORM 日志适配器
func NewLogger(l zerolog.Logger) *Logger {
	return &Logger{logger: l.With().Str("component", "gorm").Logger()}
}

func (l *Logger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *Logger) Info(_ context.Context, s string, args ...interface{}) {
	l.logger.Info().Msgf(s, args...)
}

func (l *Logger) Warn(_ context.Context, s string, args ...interface{}) {
	l.logger.Warn().Msgf(s, args...)
}

func (l *Logger) Error(_ context.Context, s string, args ...interface{}) {
	l.logger.Error().Msgf(s, args...)
}

func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	event := l.logger.Debug()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		event = l.logger.Error().Err(err)
	}
	event.
		Str("sql", sql).
		Int64("rows", rows).
		Dur("duration", time.Since(begin)).
		Msg("query")
}
