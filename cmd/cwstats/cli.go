package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/database"
	"github.com/cwstats/recorder/internal/model"
	"github.com/cwstats/recorder/internal/model/convert"
	"github.com/cwstats/recorder/internal/storage/memory"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const defaultListLimit = 20

// openRoundsDB opens the database the configured backend writes to.
func openRoundsDB() (*gorm.DB, error) {
	storageCfg := config.GetStorageConfig()
	switch storageCfg.Type {
	case "postgres":
		return openPostgres()
	case "sqlite":
		path := storageCfg.SQLite.Path
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no sqlite database at %s: %w", path, err)
		}
		return database.GetSqliteDB(path)
	default:
		return nil, fmt.Errorf("storage type %q keeps no database", storageCfg.Type)
	}
}

func openPostgres() (*gorm.DB, error) {
	m := database.NewManager(zerolog.New(os.Stderr).With().Timestamp().Logger())
	if err := m.Connect(config.GetDBConfig()); err != nil {
		return nil, err
	}
	if m.ShouldSaveLocal {
		return nil, errors.New("postgres is unreachable")
	}
	if err := m.Setup(recorderInfo()); err != nil {
		return nil, err
	}
	return m.DB, nil
}

func listRounds(w io.Writer, args []string) error {
	limit := defaultListLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}
	db, err := openRoundsDB()
	if err != nil {
		return err
	}
	return printRounds(w, db, limit)
}

func printRounds(w io.Writer, db *gorm.DB, limit int) error {
	var rows []model.Round
	if err := db.Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load rounds: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tWORLD\tTEAM\tSIZE\tSCORE\tOUTCOME")
	for _, row := range rows {
		outcome := row.Outcome
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%d-%d\t%s\n",
			row.ID,
			row.CreatedAt.Local().Format("2006-01-02 15:04"),
			row.World,
			row.Team,
			row.TeamSize,
			row.SaraScore,
			row.ZamScore,
			outcome,
		)
	}
	return tw.Flush()
}

func exportRounds(w io.Writer, args []string) error {
	if len(args) == 0 {
		return errors.New("no round IDs provided")
	}
	db, err := openRoundsDB()
	if err != nil {
		return err
	}
	return writeExports(w, db, args, config.GetStorageConfig().Memory)
}

// writeExports writes stored rounds as round export files, the same format the
// memory backend produces.
func writeExports(w io.Writer, db *gorm.DB, ids []string, cfg config.MemoryConfig) error {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	exporter := memory.New(cfg)

	for _, id := range ids {
		roundID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid round ID %q: %w", id, err)
		}
		var row model.Round
		if err := db.First(&row, roundID).Error; err != nil {
			return fmt.Errorf("failed to load round %d: %w", roundID, err)
		}
		rec, lines, err := convert.RoundToCore(row)
		if err != nil {
			return err
		}
		if err := exporter.EndRound(&rec, lines); err != nil {
			return err
		}
		fmt.Fprintf(w, "round %d -> %s\n", roundID, exporter.GetExportedFilePath())
	}
	return nil
}

func migrateBackups(w io.Writer, args []string) error {
	folder := filepath.Dir(config.GetStorageConfig().SQLite.Path)
	if len(args) > 0 {
		folder = args[0]
	}
	paths, err := database.GetBackupDBPaths(folder)
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	dst, err := openPostgres()
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}
	return migrateFrom(w, paths, dst)
}

func migrateFrom(w io.Writer, paths []string, dst *gorm.DB) error {
	total := 0
	for _, path := range paths {
		src, err := database.GetSqliteDB(path)
		if err != nil {
			return fmt.Errorf("error opening %s: %w", path, err)
		}
		n, err := database.MigrateRounds(src, dst)
		if err != nil {
			return fmt.Errorf("error migrating %s: %w", path, err)
		}
		fmt.Fprintf(w, "%s: %d rounds\n", path, n)
		total += n
	}
	fmt.Fprintf(w, "migrated %d rounds from %d backups\n", total, len(paths))
	return nil
}
