// Package config provides loading and environment overlay for the storage
// module's runtime configuration. It exposes a Default() baseline, file
// loading in JSON or YAML by extension, and an ICECP_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/icecp-storage.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
