// Package db opens the metadata database and keeps its schema current
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/pkg/util"

	"github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database configured under db.*
func New() (*gorm.DB, error) {
	driver := viper.GetString("db.driver")
	dsn := viper.GetString("db.dsn")

	// If running in a container don't allow the sqlite file to be created.
	// The host should instead mount it using volumes
	if driver == "sqlite" && util.IsRunningInContainer() && !strings.Contains(dsn, ":memory:") {
		if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
		}
	}

	return Open(driver, dsn)
}

// sqliteDriver is go-sqlite3 with LOWER replaced by a Unicode aware one, so
// search filters fold "É" the same way in SQL as in Go
const sqliteDriver = "sqlite3_unicode"

var registerSQLite sync.Once

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	}

	return v
}

func sqliteDialector(dsn string) gorm.Dialector {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", unicodeLower, true)
			},
		})
	})

	return sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: dsn})
}

// Open connects with the given driver and migrates the schema. An in-memory
// sqlite database is pinned to one connection so every query sees the same
// data.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqliteDialector(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// users belong to the account service, so no foreign keys point at them
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", driver, err)
	}

	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle, %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(model.User{}, model.File{}, model.Grant{}, model.OrphanedObject{}, model.Migration{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

type dataMigration struct {
	name string
	run  func(tx *gorm.DB) error
}

// Data fixes that AutoMigrate can't express. Each runs once, in order, and is
// recorded in the migrations table.
var migrations = []dataMigration{
	{
		name: "lowercase_grant_emails",
		run: func(tx *gorm.DB) error {
			return tx.Exec("UPDATE file_grants SET email = LOWER(TRIM(email))").Error
		},
	},
	{
		name: "backfill_file_state",
		run: func(tx *gorm.DB) error {
			return tx.Model(&model.File{}).
				Where("state IS NULL OR state = ''").
				Update("state", model.StateStored).Error
		},
	},
}

func runMigrations(db *gorm.DB) error {
	for _, m := range migrations {
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.Migration{}).Where("name = ?", m.name).Count(&count).Error; err != nil {
				return err
			}

			if count > 0 {
				return nil
			}

			if err := m.run(tx); err != nil {
				return err
			}

			zap.L().Info("Applied data migration", zap.String("name", m.name))
			return tx.Create(&model.Migration{Name: m.name}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s, %w", m.name, err)
		}
	}

	return nil
}
