/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/acronis/go-cachekit/log"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm messages to log.FieldLogger.
// Queries are logged at debug level, slow and failed ones at warn/error.
type gormLogger struct {
	logger log.FieldLogger
	level  gormlogger.LogLevel
}

func newGormLogger(logger log.FieldLogger) gormlogger.Interface {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &gormLogger{logger: logger, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{logger: l.logger, level: level}
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []log.Field{log.String("sql", sql), log.Int64("rows", rows), log.Duration("elapsed", elapsed)}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		l.logger.Error("sql query failed", append(fields, log.Error(err))...)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn("slow sql query", fields...)
	default:
		l.logger.Debug("sql query", fields...)
	}
}
