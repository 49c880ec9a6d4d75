// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwstats/recorder/internal/util"
	"github.com/cwstats/recorder/pkg/core"
)

// ExportVersion is bumped whenever RoundExport changes shape
const ExportVersion = 1

// RoundExport is the root JSON structure of an exported round
type RoundExport struct {
	Version       int              `json:"version"`
	Team          string           `json:"team"`
	Outcome       core.Outcome     `json:"outcome"`
	DurationTicks int              `json:"durationTicks"`
	CastRate      float64          `json:"castRate"`
	SplashRate    float64          `json:"splashRate"`
	Record        *core.GameRecord `json:"record"`
	Lines         []string         `json:"lines"`
}

func buildExport(round RoundRecord) RoundExport {
	r := round.Record
	lines := round.Lines
	if lines == nil {
		lines = make([]string, 0)
	}
	return RoundExport{
		Version:       ExportVersion,
		Team:          r.Team.String(),
		Outcome:       r.Outcome(),
		DurationTicks: r.DurationTicks(),
		CastRate:      r.CastRate(),
		SplashRate:    r.SplashRate(),
		Record:        &r,
		Lines:         lines,
	}
}

// exportFileName builds e.g. cwstats_W383_Saradomin_20240115_103000.json.gz
func exportFileName(r core.GameRecord, compress bool) string {
	name := util.SanitizeFileName(fmt.Sprintf("cwstats_W%d_%s_%s", r.World, r.Team, r.CreatedAt.Format("20060102_150405")))
	if compress {
		return name + ".json.gz"
	}
	return name + ".json"
}

// exportJSON writes the round to a (optionally gzipped) JSON file
func (b *Backend) exportJSON(round RoundRecord) error {
	if b.cfg.OutputDir == "" {
		return nil
	}

	export := buildExport(round)
	outputPath := filepath.Join(b.cfg.OutputDir, exportFileName(round.Record, b.cfg.CompressOutput))

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	b.lastMetadata = core.MetadataFor(&round.Record, fmt.Sprintf("%dv%d", round.Record.TeamSize, round.Record.TeamSize))
	return nil
}

func writeJSON(path string, data RoundExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data RoundExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
