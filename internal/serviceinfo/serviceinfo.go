package serviceinfo

import "strconv"

// Metadata captures static identifiers for the service. Centralising the
// values makes it easy to clone this repository for new pipeline stages.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
}

// Info describes the current service.
var Info = Metadata{
	Name:        "Live Transcript Segmenter",
	BinaryName:  "segmenterd",
	Slug:        "transcript-segmenter",
	Description: "Groups word-level recognition results into speaker-attributed segments.",
	GeneratorID: "transcript-segmenter",
}

// SegmentMetadata produces the standard metadata payload attached to
// emitted segment updates.
func SegmentMetadata(maxGapMS int64) map[string]string {
	return map[string]string{
		"generator":  Info.GeneratorID,
		"max_gap_ms": strconv.FormatInt(maxGapMS, 10),
	}
}
