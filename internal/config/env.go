package config

import (
	"os"
	"strconv"
)

// FromEnv overlays ICECP_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("ICECP_DEFAULT_BUFFER_PERIOD_SEC"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DefaultBufferPeriodSec = n
		}
	}
	if v := os.Getenv("ICECP_PAYLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PayloadMaxBytes = n
		}
	}
	if v := os.Getenv("ICECP_TAG_NAME_MAX_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TagNameMaxLen = n
		}
	}
	if v := os.Getenv("ICECP_QUERY_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueryMaxResults = n
		}
	}
}
