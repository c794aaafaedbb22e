package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Environment variables that override the AI endpoint after files are merged.
const (
	EnvAIBaseURL = "FOCUSFLOW_AI_BASE_URL"
	EnvAIModel   = "FOCUSFLOW_AI_MODEL"
)

// Config holds application configuration.
type Config struct {
	// NoteMaxChars is the maximum rune count for note content.
	NoteMaxChars int `json:"note_max_chars"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.focusflow/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool groups to disable entirely.
	// Known types: "note", "summary", "quiz", "text", "session".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogMode selects the zap preset: "dev" (console, debug) or "prod" (JSON, info).
	LogMode string `json:"log_mode,omitempty"`

	// AI configures the local model endpoint.
	AI AIConfig `json:"ai"`
}

// AIConfig describes the on-device model server (llama.cpp, Ollama, LM Studio).
type AIConfig struct {
	BaseURL               string  `json:"base_url,omitempty"`
	Model                 string  `json:"model,omitempty"`
	APIKey                string  `json:"api_key,omitempty"`
	TimeoutSeconds        int     `json:"timeout_seconds,omitempty"`
	ExtractTimeoutSeconds int     `json:"extract_timeout_seconds,omitempty"`
	Temperature           float64 `json:"temperature,omitempty"`

	// Disabled forces every AI operation onto its fallback path.
	Disabled bool `json:"disabled,omitempty"`
}

// Timeout returns the per-request HTTP timeout.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ExtractTimeout returns the ceiling for image and audio extraction.
func (a AIConfig) ExtractTimeout() time.Duration {
	return time.Duration(a.ExtractTimeoutSeconds) * time.Second
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		NoteMaxChars: 50000,
		LogMode:      "dev",
		AI: AIConfig{
			BaseURL:               "http://127.0.0.1:11434",
			Model:                 "llama3.2",
			TimeoutSeconds:        60,
			ExtractTimeoutSeconds: 10,
			Temperature:           0.8,
		},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.focusflow) and repo (.focusflow) directories.
// Repo config is found by walking upward from startDir to find the nearest .focusflow/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment overrides are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .focusflow/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".focusflow", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAIBaseURL)); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvAIModel)); v != "" {
		cfg.AI.Model = v
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.NoteMaxChars = pickInt(overlay.NoteMaxChars, base.NoteMaxChars)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.LogMode = pickString(overlay.LogMode, base.LogMode)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	result.AI = AIConfig{
		BaseURL:               pickString(overlay.AI.BaseURL, base.AI.BaseURL),
		Model:                 pickString(overlay.AI.Model, base.AI.Model),
		APIKey:                pickString(overlay.AI.APIKey, base.AI.APIKey),
		TimeoutSeconds:        pickInt(overlay.AI.TimeoutSeconds, base.AI.TimeoutSeconds),
		ExtractTimeoutSeconds: pickInt(overlay.AI.ExtractTimeoutSeconds, base.AI.ExtractTimeoutSeconds),
		Temperature:           base.AI.Temperature,
		Disabled:              base.AI.Disabled || overlay.AI.Disabled,
	}
	if overlay.AI.Temperature != 0 {
		result.AI.Temperature = overlay.AI.Temperature
	}

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
