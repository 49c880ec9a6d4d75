// pkg/core/upload.go
package core

// UploadMetadata describes an exported round file for the upload API.
type UploadMetadata struct {
	World         int     `json:"world"`
	Team          string  `json:"team"`
	TeamSize      int     `json:"teamSize"`
	Outcome       Outcome `json:"outcome"`
	DurationTicks int     `json:"durationTicks"`
	Tag           string  `json:"tag"`
}

// MetadataFor builds upload metadata for a finished record.
func MetadataFor(r *GameRecord, tag string) UploadMetadata {
	return UploadMetadata{
		World:         r.World,
		Team:          r.Team.String(),
		TeamSize:      r.TeamSize,
		Outcome:       r.Outcome(),
		DurationTicks: r.DurationTicks(),
		Tag:           tag,
	}
}
