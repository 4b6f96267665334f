package db

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/models"
)

// driverName is the pure Go sqlite driver registered by modernc.org/sqlite,
// so the bot builds without cgo.
const driverName = "sqlite"

// Database represents the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the sqlite reply ledger at dbPath.
func NewDatabase(dbPath string, log zerolog.Logger) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	gormLog := log.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: driverName, DSN: dbPath}), &gorm.Config{
		Logger: gormlogger.New(
			&gormLog,
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.AutoMigrate(&models.Reply{}); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
