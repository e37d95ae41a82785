package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Vision  VisionConfig
	Storage StorageConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           int
	MCPEnabled     bool
	APIToken       string
	AllowedOrigins []string
}

type VisionConfig struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

type StorageConfig struct {
	DataDir string
}

type APIConfig struct {
	RequireOwner bool
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8081,
			AllowedOrigins: []string{"*"},
		},
		Vision: VisionConfig{
			Model:             "gemini-2.5-flash",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the TOML file at Path(), then applies
// GRIMOIRE_* environment overrides. Secrets (the Gemini API key and the
// API token) are read from the environment only.
//
// A missing Gemini key is not an error: the server starts and reports the
// vision model as unconfigured.
func Load() (Config, error) {
	return loadWith(newFileBackend(Path()))
}

// genaiKeyEnv are the variables the Gemini SDK itself reads, consulted when
// GRIMOIRE_GEMINI_API_KEY is unset.
var genaiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Vision.APIKey == "" {
		for _, env := range genaiKeyEnv {
			if v := os.Getenv(env); v != "" {
				cfg.Vision.APIKey = v
				break
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: log.level %q (want debug, info, warn or error)", c.Log.Level)
	}
	if c.Vision.Timeout <= 0 {
		return fmt.Errorf("invalid config: vision.timeout must be positive")
	}
	if c.Vision.RequestsPerMinute < 0 {
		return fmt.Errorf("invalid config: vision.requests_per_minute must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
