// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/config"
)

// Default extras per engine, used when DB.Extras is empty.
const (
	DefaultMySQLExtras    = "charset=utf8mb4&parseTime=True&loc=UTC"
	DefaultPostgresExtras = "sslmode=disable TimeZone=UTC"
	DefaultSQLiteExtras   = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

// Create builds the Data Source Name for the configured engine.
func Create(db config.DB) (string, error) {
	switch db.GormEngine {
	case config.EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			extras(db.Extras, DefaultMySQLExtras),
		), nil
	case config.EnginePostgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
			extras(db.Extras, DefaultPostgresExtras),
		), nil
	case config.EngineSQLite:
		return db.Name + "?" + extras(db.Extras, DefaultSQLiteExtras), nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrUnknownDBEngine, db.GormEngine)
	}
}

// Dialector returns the gorm driver for the configured engine.
func Dialector(db config.DB) (gorm.Dialector, error) {
	source, err := Create(db)
	if err != nil {
		return nil, err
	}

	switch db.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(source), nil
	case config.EnginePostgres:
		return postgres.Open(source), nil
	default:
		return sqlite.Open(source), nil
	}
}

func extras(configured, fallback string) string {
	if configured != "" {
		return configured
	}

	return fallback
}
