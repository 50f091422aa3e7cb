package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/projecteru2/core/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// gormLog forwards gorm's query log to the service logger. Only failed and
// slow statements are reported.
type gormLog struct {
	level gormlogger.LogLevel
}

func (l gormLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return gormLog{level: level}
}

func (l gormLog) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		log.WithFunc("sqlstore.gorm").Infof(ctx, msg, args...)
	}
}

func (l gormLog) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		log.WithFunc("sqlstore.gorm").Warnf(ctx, msg, args...)
	}
}

func (l gormLog) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		log.WithFunc("sqlstore.gorm").Warnf(ctx, msg, args...)
	}
}

func (l gormLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		log.WithFunc("sqlstore.gorm").Warnf(ctx, "query failed after %s (%d rows): %s: %v", elapsed, rows, sql, err)
	case elapsed > slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.WithFunc("sqlstore.gorm").Warnf(ctx, "slow query %s (%d rows): %s", elapsed, rows, sql)
	}
}
