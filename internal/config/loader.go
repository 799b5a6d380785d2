package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from a YAML file, an inline JSON payload, and
// environment variables, in that order of precedence (later sources win).
// Tests can override Lookup to inject deterministic maps and ReadFile to
// avoid touching the filesystem.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load retrieves the service configuration and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if path, ok := l.Lookup("SEGMENTER_CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := l.applyFile(strings.TrimSpace(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	if raw, ok := l.Lookup("SEGMENTER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "SEGMENTER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "SEGMENTER_LOG_LEVEL", &cfg.LogLevel)
	if err := overrideInt64(l.Lookup, "SEGMENTER_MAX_GAP_MS", &cfg.MaxGapMS); err != nil {
		return Config{}, err
	}
	if err := overrideBool(l.Lookup, "SEGMENTER_EXPORT_ENABLED", &cfg.Export.Enabled); err != nil {
		return Config{}, err
	}
	overrideString(l.Lookup, "SEGMENTER_EXPORT_BUCKET", &cfg.Export.Bucket)
	overrideString(l.Lookup, "SEGMENTER_EXPORT_REGION", &cfg.Export.Region)
	overrideString(l.Lookup, "SEGMENTER_EXPORT_PREFIX", &cfg.Export.Prefix)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) applyFile(path string, cfg *Config) error {
	data, err := l.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var payload Config
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	merge(cfg, payload)
	return nil
}

func applyJSON(raw string, cfg *Config) error {
	var payload Config
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode SEGMENTER_CONFIG: %w", err)
	}
	merge(cfg, payload)
	return nil
}

// merge copies set fields from payload onto cfg, leaving zero-valued payload
// fields alone so earlier sources survive.
func merge(cfg *Config, payload Config) {
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.MaxGapMS != 0 {
		cfg.MaxGapMS = payload.MaxGapMS
	}
	if payload.Export.Enabled {
		cfg.Export.Enabled = true
	}
	if payload.Export.Bucket != "" {
		cfg.Export.Bucket = payload.Export.Bucket
	}
	if payload.Export.Region != "" {
		cfg.Export.Region = payload.Export.Region
	}
	if payload.Export.Prefix != "" {
		cfg.Export.Prefix = payload.Export.Prefix
	}
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt64(lookup func(string) (string, bool), key string, target *int64) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}
