package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN is the shared in-memory SQLite database.
const MemoryDSN = "file::memory:?cache=shared"

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	SqliteFilePath  string
	Logger          zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid:         false,
		ShouldSaveLocal: false,
		Logger:          log,
	}
}

// Connect establishes a postgres connection, falling back to an in-memory SQLite
// database when postgres cannot be reached.
func (m *Manager) Connect(cfg config.DBConfig) error {
	var err error

	m.DB, err = GetPostgresDB(cfg)
	if err == nil {
		m.SqlDB, err = m.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		err = m.SqlDB.Ping()
	}

	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		m.ShouldSaveLocal = true
		m.DB, err = GetSqliteDB("")
		if err != nil || m.DB == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.Logger.Info().Msg("Using local SQLite DB in memory with periodic disk dump")
		m.SqlDB, err = m.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
	} else {
		m.Logger.Info().Str("host", cfg.Host).Msg("Connected to database")
		m.SqlDB.SetMaxOpenConns(10)
	}

	m.IsValid = true
	return nil
}

// Setup migrates tables and creates default settings if they don't exist.
func (m *Manager) Setup(info model.RecorderInfo) error {
	if err := Setup(m.DB, info); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// DumpMemoryToDisk vacuums the in-memory database to a file.
func (m *Manager) DumpMemoryToDisk() error {
	return DumpMemoryDBToDisk(m.DB, m.SqliteFilePath)
}

// PostgresDSN builds a libpq connection string.
func PostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)
}

// GetPostgresDB returns a connection to the Postgres database.
func GetPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = MemoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Setup migrates the schema and records the recorder info row if it is missing.
func Setup(db *gorm.DB, info model.RecorderInfo) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var count int64
	if err := db.Model(&model.RecorderInfo{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count recorder_infos: %w", err)
	}
	if count == 0 {
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to create recorder_infos entry: %w", err)
		}
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if dir := filepath.Dir(sqliteFilePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating DB directory: %w", err)
		}
	}

	// remove existing file if it exists
	if exists, err := os.Stat(sqliteFilePath); err == nil && exists != nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	path := strings.ReplaceAll(sqliteFilePath, "'", "''")
	err := db.Exec("VACUUM INTO 'file:" + path + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}

	return nil
}

// GetBackupDBPaths returns paths to all .db files in the given directory.
func GetBackupDBPaths(folder string) ([]string, error) {
	files, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var dbPaths []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".db") {
			dbPaths = append(dbPaths, filepath.Join(folder, file.Name()))
		}
	}
	return dbPaths, nil
}

// MigrateRounds copies rounds from src into dst under new IDs, in one transaction.
// Rounds already present in dst (same start time, world and start tick) are skipped.
func MigrateRounds(src, dst *gorm.DB) (int, error) {
	var rows []model.Round
	if err := src.Order("id").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to read rounds: %w", err)
	}

	copied := 0
	err := dst.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			var n int64
			err := tx.Model(&model.Round{}).
				Where("created_at = ? AND world = ? AND start_tick = ?", row.CreatedAt, row.World, row.StartTick).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			row.ID = 0
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			copied++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to migrate rounds: %w", err)
	}
	return copied, nil
}
