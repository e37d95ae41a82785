package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
	for _, env := range genaiKeyEnv {
		t.Setenv(env, "")
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadFromPath(t *testing.T, path string) (Config, error) {
	t.Helper()
	return loadWith(newFileBackend(path))
}

// TestDefaults verifies all default values apply when no config file exists.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(t, filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Server.MCPEnabled {
		t.Error("Server.MCPEnabled = true, want false")
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"*"}) {
		t.Errorf("Server.AllowedOrigins = %v, want [*]", cfg.Server.AllowedOrigins)
	}
	if cfg.Vision.Model != "gemini-2.5-flash" {
		t.Errorf("Vision.Model = %q, want %q", cfg.Vision.Model, "gemini-2.5-flash")
	}
	if cfg.Vision.Timeout != 30*time.Second {
		t.Errorf("Vision.Timeout = %v, want 30s", cfg.Vision.Timeout)
	}
	if cfg.Vision.RequestsPerMinute != 60 {
		t.Errorf("Vision.RequestsPerMinute = %d, want 60", cfg.Vision.RequestsPerMinute)
	}
	if cfg.Vision.APIKey != "" {
		t.Errorf("Vision.APIKey = %q, want empty", cfg.Vision.APIKey)
	}
	if cfg.API.RequireOwner {
		t.Error("API.RequireOwner = true, want false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if !strings.HasSuffix(cfg.Storage.DataDir, "grimoire") && cfg.Storage.DataDir != "grimoire-data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

// TestMissingAPIKeyIsNotAnError verifies the server can start without a
// Gemini key.
func TestMissingAPIKeyIsNotAnError(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFromPath(t, writeTempConfig(t, `# empty config`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Vision.APIKey != "" {
		t.Errorf("Vision.APIKey = %q, want empty", cfg.Vision.APIKey)
	}
}

// TestTOMLParsing verifies that fields are read from nested TOML tables.
func TestTOMLParsing(t *testing.T) {
	clearEnv(t)

	path := writeTempConfig(t, `
[server]
port = 5000
mcp_enabled = true
allowed_origins = ["https://app.example.com", "http://localhost:3000"]

[vision]
model = "gemini-2.5-pro"
timeout = "45s"
requests_per_minute = 10

[storage]
data_dir = "/tmp/grimoire-test"

[api]
require_owner = true

[log]
level = "debug"
`)

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if !cfg.Server.MCPEnabled {
		t.Error("Server.MCPEnabled = false, want true")
	}
	wantOrigins := []string{"https://app.example.com", "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, wantOrigins) {
		t.Errorf("Server.AllowedOrigins = %v, want %v", cfg.Server.AllowedOrigins, wantOrigins)
	}
	if cfg.Vision.Model != "gemini-2.5-pro" {
		t.Errorf("Vision.Model = %q, want %q", cfg.Vision.Model, "gemini-2.5-pro")
	}
	if cfg.Vision.Timeout != 45*time.Second {
		t.Errorf("Vision.Timeout = %v, want 45s", cfg.Vision.Timeout)
	}
	if cfg.Vision.RequestsPerMinute != 10 {
		t.Errorf("Vision.RequestsPerMinute = %d, want 10", cfg.Vision.RequestsPerMinute)
	}
	if cfg.Storage.DataDir != "/tmp/grimoire-test" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/grimoire-test")
	}
	if !cfg.API.RequireOwner {
		t.Error("API.RequireOwner = false, want true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

// TestSecretsIgnoredInFile verifies secrets come from the environment only.
func TestSecretsIgnoredInFile(t *testing.T) {
	clearEnv(t)

	path := writeTempConfig(t, `
[vision]
api_key = "file-key"

[server]
api_token = "file-token"
`)
	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Vision.APIKey != "" {
		t.Errorf("Vision.APIKey = %q, want secrets ignored in file", cfg.Vision.APIKey)
	}
	if cfg.Server.APIToken != "" {
		t.Errorf("Server.APIToken = %q, want secrets ignored in file", cfg.Server.APIToken)
	}
}

// TestEnvOverride verifies that environment variables override file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
[server]
port = 5000

[vision]
model = "file-model"
`)

	t.Setenv("GRIMOIRE_SERVER_PORT", "6000")
	t.Setenv("GRIMOIRE_VISION_MODEL", "env-model")
	t.Setenv("GRIMOIRE_GEMINI_API_KEY", "env-key")
	t.Setenv("GRIMOIRE_API_TOKEN", "env-token")
	t.Setenv("GRIMOIRE_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GRIMOIRE_VISION_TIMEOUT", "5s")
	t.Setenv("GRIMOIRE_API_REQUIRE_OWNER", "true")

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Vision.Model != "env-model" {
		t.Errorf("Vision.Model = %q, want %q", cfg.Vision.Model, "env-model")
	}
	if cfg.Vision.APIKey != "env-key" {
		t.Errorf("Vision.APIKey = %q, want %q", cfg.Vision.APIKey, "env-key")
	}
	if cfg.Server.APIToken != "env-token" {
		t.Errorf("Server.APIToken = %q, want %q", cfg.Server.APIToken, "env-token")
	}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Vision.Timeout != 5*time.Second {
		t.Errorf("Vision.Timeout = %v, want 5s", cfg.Vision.Timeout)
	}
	if !cfg.API.RequireOwner {
		t.Error("API.RequireOwner = false, want true")
	}
}

// TestGenAIKeyFallback verifies the SDK's own variables are consulted last.
func TestGenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := loadFromPath(t, filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Vision.APIKey != "google-key" {
		t.Errorf("Vision.APIKey = %q, want %q", cfg.Vision.APIKey, "google-key")
	}

	t.Setenv("GRIMOIRE_GEMINI_API_KEY", "own-key")
	cfg, err = loadFromPath(t, filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Vision.APIKey != "own-key" {
		t.Errorf("Vision.APIKey = %q, want %q", cfg.Vision.APIKey, "own-key")
	}
}

// TestInvalidEnvFallsBack verifies unparsable env values keep the default.
func TestInvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRIMOIRE_SERVER_PORT", "not-a-number")
	t.Setenv("GRIMOIRE_VISION_TIMEOUT", "soon")
	t.Setenv("GRIMOIRE_SERVER_MCP_ENABLED", "maybe")

	cfg, err := loadFromPath(t, filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want default 8081", cfg.Server.Port)
	}
	if cfg.Vision.Timeout != 30*time.Second {
		t.Errorf("Vision.Timeout = %v, want default", cfg.Vision.Timeout)
	}
	if cfg.Server.MCPEnabled {
		t.Error("Server.MCPEnabled = true, want default false")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"port", "[server]\nport = 70000\n", "server.port"},
		{"log level", "[log]\nlevel = \"chatty\"\n", "log.level"},
		{"negative rate", "[vision]\nrequests_per_minute = -1\n", "requests_per_minute"},
		{"non-integer port", "[server]\nport = \"eighty\"\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := loadFromPath(t, writeTempConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSetKeyRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "grimoire", "config.toml")

	if err := setKey(newFileBackend(path), "server.port", "9090"); err != nil {
		t.Fatalf("setKey(server.port): %v", err)
	}
	if err := setKey(newFileBackend(path), "vision.timeout", "1m"); err != nil {
		t.Fatalf("setKey(vision.timeout): %v", err)
	}
	if err := setKey(newFileBackend(path), "api.require_owner", "true"); err != nil {
		t.Fatalf("setKey(api.require_owner): %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written config: %v", err)
	}
	if !strings.Contains(string(data), "[server]") {
		t.Errorf("written config is not nested TOML:\n%s", data)
	}

	cfg, err := loadFromPath(t, path)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Vision.Timeout != time.Minute {
		t.Errorf("Vision.Timeout = %v, want 1m", cfg.Vision.Timeout)
	}
	if !cfg.API.RequireOwner {
		t.Error("API.RequireOwner = false, want true")
	}
}

func TestSetKeyRejects(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "config.toml"))

	if err := setKey(b, "vision.api_key", "x"); err == nil || !strings.Contains(err.Error(), "GRIMOIRE_GEMINI_API_KEY") {
		t.Errorf("setting a secret: err = %v", err)
	}
	if err := setKey(b, "server.port", "abc"); err == nil {
		t.Error("setting a non-integer port should fail")
	}
	if err := setKey(b, "vision.timeout", "later"); err == nil {
		t.Error("setting an invalid duration should fail")
	}
	if err := setKey(b, "no.such_key", "1"); err == nil {
		t.Error("setting an unknown key should fail")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Vision.APIKey = "secret-key"
	cfg.Server.APIToken = "secret-token"

	for _, info := range ShowAll(cfg) {
		if info.Value == "secret-key" || info.Value == "secret-token" {
			t.Errorf("ShowAll leaked secret under %s", info.Key)
		}
	}

	keys := ValidKeys()
	for _, k := range keys {
		if k == "vision.api_key" || k == "server.api_token" {
			t.Errorf("ValidKeys contains secret %s", k)
		}
	}
	if len(keys) != len(specs)-2 {
		t.Errorf("ValidKeys returned %d keys, want %d", len(keys), len(specs)-2)
	}
}
