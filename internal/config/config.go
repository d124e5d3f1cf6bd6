package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DefaultBufferPeriodSec is the session buffer period used when a
	// caller opens a session without one.
	DefaultBufferPeriodSec int64 `json:"defaultBufferPeriodSec" yaml:"defaultBufferPeriodSec"`
	// PayloadMaxBytes caps a single message payload; zero means no cap.
	PayloadMaxBytes int `json:"payloadMaxBytes" yaml:"payloadMaxBytes"`
	// TagNameMaxLen caps the length of a tag name.
	TagNameMaxLen int `json:"tagNameMaxLen" yaml:"tagNameMaxLen"`
	// QueryMaxResults caps a single query's result set; zero means no cap.
	QueryMaxResults int `json:"queryMaxResults" yaml:"queryMaxResults"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultBufferPeriodSec: 60,
		PayloadMaxBytes:        1 << 20,
		TagNameMaxLen:          256,
		QueryMaxResults:        10_000,
	}
}

// Load reads configuration from a JSON or YAML file by extension. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}
