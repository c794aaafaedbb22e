package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NoteMaxChars != DefaultConfig().NoteMaxChars {
		t.Fatalf("NoteMaxChars = %d, want %d", cfg.NoteMaxChars, DefaultConfig().NoteMaxChars)
	}
	if cfg.AI.ExtractTimeout() != 10*time.Second {
		t.Errorf("ExtractTimeout() = %v, want 10s", cfg.AI.ExtractTimeout())
	}
	if cfg.AI.Temperature != 0.8 {
		t.Errorf("Temperature = %v, want 0.8", cfg.AI.Temperature)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	body := `{"note_max_chars": 500, "ai": {"model": "qwen2.5", "timeout_seconds": 5}}`
	if err := os.WriteFile(configPath, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NoteMaxChars != 500 {
		t.Fatalf("NoteMaxChars = %d, want %d", cfg.NoteMaxChars, 500)
	}
	if cfg.AI.Model != "qwen2.5" {
		t.Errorf("AI.Model = %q, want qwen2.5", cfg.AI.Model)
	}
	if cfg.AI.Timeout() != 5*time.Second {
		t.Errorf("AI.Timeout() = %v, want 5s", cfg.AI.Timeout())
	}
	// Untouched AI fields keep their defaults.
	if cfg.AI.BaseURL != DefaultConfig().AI.BaseURL {
		t.Errorf("AI.BaseURL = %q, want default", cfg.AI.BaseURL)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["note_delete", "quiz_start"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "note_delete" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "note_delete")
	}
	if cfg.DisabledTools[1] != "quiz_start" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "quiz_start")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	t.Setenv(EnvAIBaseURL, "")
	t.Setenv(EnvAIModel, "")
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"note_max_chars": 8000, "disabled_tools": ["note_delete"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	repoDir := filepath.Join(repoRoot, ".focusflow")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"note_max_chars": 5000, "disabled_tools": ["quiz_start"], "log_mode": "prod"}`
	if err := os.WriteFile(filepath.Join(repoDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.NoteMaxChars != 5000 {
		t.Errorf("NoteMaxChars = %d, want 5000 (repo override)", cfg.NoteMaxChars)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("LogMode = %q, want prod", cfg.LogMode)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	t.Setenv(EnvAIBaseURL, "")
	t.Setenv(EnvAIModel, "")

	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.NoteMaxChars != 50000 {
		t.Errorf("NoteMaxChars = %d, want 50000", cfg.NoteMaxChars)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_EnvOverridesAI(t *testing.T) {
	t.Setenv(EnvAIBaseURL, "http://localhost:8080")
	t.Setenv(EnvAIModel, "phi3")

	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.AI.BaseURL != "http://localhost:8080" {
		t.Errorf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.Model != "phi3" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{NoteMaxChars: 10000, DBMaxOpenConns: 5}
	overlay := &Config{NoteMaxChars: 5000}

	result := Merge(base, overlay)

	if result.NoteMaxChars != 5000 {
		t.Errorf("NoteMaxChars = %d, want 5000 (overlay)", result.NoteMaxChars)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{AllowUnsafePaths: true}
	overlay := &Config{AI: AIConfig{Disabled: true}}

	result := Merge(base, overlay)

	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true (base OR overlay)")
	}
	if !result.AI.Disabled {
		t.Error("AI.Disabled should be true (base OR overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"note_delete", " quiz_start "}}
	overlay := &Config{DisabledTools: []string{"quiz_start", "text_translate"}}

	result := Merge(base, overlay)

	want := []string{"note_delete", "quiz_start", "text_translate"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	repoDir := filepath.Join(tmpDir, ".focusflow")
	if err := os.MkdirAll(repoDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(repoDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if found := FindRepoConfig(subdir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
	if found := FindRepoConfig(tmpDir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}
