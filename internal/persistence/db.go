// Package persistence is the postgres-backed data store adapter: one gorm
// connection shared by the per-aggregate repository packages, plus the error
// translation and schema migration that go with it.
package persistence

import (
	"context"
	"database/sql"

	"chirpd/internal/core"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the gorm handle the repositories query through. Queries log
// nothing on their own; the repositories decide what is worth logging.
type DB struct {
	Config *core.Config

	db *gorm.DB
}

func (db *DB) Init(_ context.Context) error {
	gormDB, err := gorm.Open(postgres.Open(db.Config.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	db.db = gormDB
	return nil
}

func (db *DB) Shutdown(_ context.Context) error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// Model starts a query scoped to the given model's table.
func (db *DB) Model(a any) *gorm.DB {
	return db.db.Model(a)
}

// EstimatedCount reads the planner's row estimate for a table. Cheap but
// approximate; only the metrics gauges consume it.
func (db *DB) EstimatedCount(tableName string) (int64, error) {
	var count int64
	err := db.db.
		Raw(`SELECT reltuples::bigint FROM pg_class WHERE relname = ?`, tableName).
		Scan(&count).Error
	return count, err
}

// DB exposes the raw sql.DB, which the migrator needs for its driver.
func (db *DB) DB() (*sql.DB, error) {
	return db.db.DB()
}
