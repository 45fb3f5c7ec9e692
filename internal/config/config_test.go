package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Reconstruct.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Reconstruct.Workers)
	}
	if cfg.Reconstruct.BatchSize != 1024 {
		t.Errorf("expected batch size 1024, got %d", cfg.Reconstruct.BatchSize)
	}
	if cfg.Reconstruct.ConditionLimit != 1e14 {
		t.Errorf("expected condition limit 1e14, got %g", cfg.Reconstruct.ConditionLimit)
	}
	if cfg.Reconstruct.NormalizationTolerance != 1e-3 {
		t.Errorf("expected normalization tolerance 1e-3, got %g", cfg.Reconstruct.NormalizationTolerance)
	}
	if cfg.Skin.BindMethod != 0 || cfg.Skin.SkinMethod != 0 {
		t.Errorf("expected bind/skin method 0/0, got %d/%d", cfg.Skin.BindMethod, cfg.Skin.SkinMethod)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
reconstruct:
  workers: 4
  batch_size: 256
  condition_limit: 1e9
  normalization_tolerance: 0.01

skin:
  bind_method: 1

logging:
  level: "debug"
  log_file: "rebind.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Reconstruct.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Reconstruct.Workers)
	}
	if cfg.Reconstruct.BatchSize != 256 {
		t.Errorf("expected batch size 256, got %d", cfg.Reconstruct.BatchSize)
	}
	if cfg.Reconstruct.ConditionLimit != 1e9 {
		t.Errorf("expected condition limit 1e9, got %g", cfg.Reconstruct.ConditionLimit)
	}
	if cfg.Reconstruct.NormalizationTolerance != 0.01 {
		t.Errorf("expected tolerance 0.01, got %g", cfg.Reconstruct.NormalizationTolerance)
	}
	if cfg.Skin.BindMethod != 1 {
		t.Errorf("expected bind method 1, got %d", cfg.Skin.BindMethod)
	}
	// Absent keys keep their defaults.
	if cfg.Skin.SkinMethod != 0 {
		t.Errorf("expected skin method 0, got %d", cfg.Skin.SkinMethod)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "rebind.log" {
		t.Errorf("expected log file 'rebind.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
reconstruct:
  workers: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative workers", func(c *Config) { c.Reconstruct.Workers = -1 }, ErrInvalidWorkers},
		{"zero batch", func(c *Config) { c.Reconstruct.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative condition", func(c *Config) { c.Reconstruct.ConditionLimit = -1 }, ErrInvalidCondition},
		{"negative tolerance", func(c *Config) { c.Reconstruct.NormalizationTolerance = -0.5 }, ErrInvalidTolerance},
		{"bind method", func(c *Config) { c.Skin.BindMethod = 3 }, ErrInvalidBindMethod},
		{"dual quaternion", func(c *Config) { c.Skin.SkinMethod = 1 }, ErrInvalidSkinMethod},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "rebind.yaml")
	if err := os.WriteFile(configPath, []byte("reconstruct:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find rebind.yaml in current directory")
	}
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "debug wins over log level",
			args: []string{"--log-level", "error", "--debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "workers and batch size",
			args: []string{"--workers", "8", "--batch-size", "64"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Reconstruct.Workers != 8 {
					t.Errorf("expected workers 8, got %d", cfg.Reconstruct.Workers)
				}
				if cfg.Reconstruct.BatchSize != 64 {
					t.Errorf("expected batch size 64, got %d", cfg.Reconstruct.BatchSize)
				}
			},
		},
		{
			name: "log file",
			args: []string{"--log-file", "out.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "out.log" {
					t.Errorf("expected log file out.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Overrides
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			o.BindFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg := Default()
			o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
reconstruct:
  workers: 2
  batch_size: 128
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(Overrides{ConfigPath: configPath, Workers: 6})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from the override, not the file.
	if cfg.Reconstruct.Workers != 6 {
		t.Errorf("expected workers 6 from override, got %d", cfg.Reconstruct.Workers)
	}
	// Batch size from the file since no override was given.
	if cfg.Reconstruct.BatchSize != 128 {
		t.Errorf("expected batch size 128 from file, got %d", cfg.Reconstruct.BatchSize)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("skin:\n  skin_method: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(Overrides{ConfigPath: configPath}); !errors.Is(err, ErrInvalidSkinMethod) {
		t.Errorf("expected ErrInvalidSkinMethod, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Reconstruct.Workers = 3
	cfg.Logging.Level = "warn"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, cfg)
	}
}
