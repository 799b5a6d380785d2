package config

import (
	"fmt"
	"regexp"
)

const (
	// DefaultListenAddr is used when the host does not inject an explicit address.
	DefaultListenAddr = "127.0.0.1:50051"
	DefaultLogLevel   = "info"
	// DefaultMaxGapMS is the silence threshold between same-speaker words
	// before a new segment starts.
	DefaultMaxGapMS = 2000
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// ExportConfig controls the optional transcript upload performed when a
// stream is flushed.
type ExportConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Bucket  string `json:"bucket" yaml:"bucket"`
	Region  string `json:"region" yaml:"region"`
	Prefix  string `json:"prefix" yaml:"prefix"`
}

// Config captures bootstrap configuration for the segmentation service,
// assembled from an optional YAML file, an injected JSON payload
// (`SEGMENTER_CONFIG`), and per-field environment overrides.
type Config struct {
	ListenAddr string       `json:"listen_addr" yaml:"listen_addr"`
	LogLevel   string       `json:"log_level" yaml:"log_level"`
	MaxGapMS   int64        `json:"max_gap_ms" yaml:"max_gap_ms"`
	Export     ExportConfig `json:"export" yaml:"export"`
}

// Validate applies defaults, checks required fields, and rejects
// out-of-range values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxGapMS == 0 {
		c.MaxGapMS = DefaultMaxGapMS
	}
	if c.MaxGapMS < 0 {
		return fmt.Errorf("config: max_gap_ms must be > 0, got %d", c.MaxGapMS)
	}
	if c.Export.Enabled {
		if c.Export.Bucket == "" {
			return fmt.Errorf("config: export bucket is required when export is enabled")
		}
		if !bucketNameRe.MatchString(c.Export.Bucket) {
			return fmt.Errorf("config: invalid export bucket name %q", c.Export.Bucket)
		}
		if c.Export.Region == "" {
			return fmt.Errorf("config: export region is required when export is enabled")
		}
	}
	return nil
}
