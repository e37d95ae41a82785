package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
	kList
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "GRIMOIRE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_enabled", typ: kBool, env: "GRIMOIRE_SERVER_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.MCPEnabled },
	},
	{
		key: "server.api_token", typ: kString, env: "GRIMOIRE_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "server.allowed_origins", typ: kList, env: "GRIMOIRE_SERVER_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.([]string) },
		extract: func(cfg Config) any { return strings.Join(cfg.Server.AllowedOrigins, ",") },
	},
	{
		key: "vision.api_key", typ: kString, env: "GRIMOIRE_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Vision.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.APIKey },
	},
	{
		key: "vision.model", typ: kString, env: "GRIMOIRE_VISION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Vision.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Vision.Model },
	},
	{
		key: "vision.timeout", typ: kDuration, env: "GRIMOIRE_VISION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Vision.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Vision.Timeout },
	},
	{
		key: "vision.requests_per_minute", typ: kInt, env: "GRIMOIRE_VISION_REQUESTS_PER_MINUTE",
		apply:   func(cfg *Config, v any) { cfg.Vision.RequestsPerMinute = v.(int) },
		extract: func(cfg Config) any { return cfg.Vision.RequestsPerMinute },
	},
	{
		key: "storage.data_dir", typ: kString, env: "GRIMOIRE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "api.require_owner", typ: kBool, env: "GRIMOIRE_API_REQUIRE_OWNER",
		apply:   func(cfg *Config, v any) { cfg.API.RequireOwner = v.(bool) },
		extract: func(cfg Config) any { return cfg.API.RequireOwner },
	},
	{
		key: "log.level", typ: kString, env: "GRIMOIRE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// parse converts a raw string into the Go value for s.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kDuration:
		return time.ParseDuration(raw)
	case kList:
		return splitList(raw), nil
	default:
		return raw, nil
	}
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
