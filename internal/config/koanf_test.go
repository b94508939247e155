// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

// chdirTemp switches to an empty temp dir so no config file is discovered.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
	t.Setenv(ConfigPathEnvVar, "")
	return tmpDir
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Catalog.Path != "products.csv" {
		t.Errorf("Catalog.Path = %q, want products.csv", cfg.Catalog.Path)
	}
	if cfg.Events.Path != "" {
		t.Errorf("Events.Path = %q, want empty", cfg.Events.Path)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Database.QueryTimeout != 60*time.Second {
		t.Errorf("Database.QueryTimeout = %v, want 60s", cfg.Database.QueryTimeout)
	}

	if cfg.Vectorizer.MaxFeatures != 5000 || cfg.Vectorizer.StopWords != "english" {
		t.Errorf("Vectorizer = %+v", cfg.Vectorizer)
	}

	if !slices.Equal(cfg.Similar.Fields, recommend.ContentFields) {
		t.Errorf("Similar.Fields = %v", cfg.Similar.Fields)
	}
	if cfg.Similar.TopN != 20 {
		t.Errorf("Similar.TopN = %d, want 20", cfg.Similar.TopN)
	}

	h := cfg.Hybrid
	if !slices.Equal(h.Fields, recommend.HybridFields) {
		t.Errorf("Hybrid.Fields = %v", h.Fields)
	}
	if h.Users != 100 || h.Density != 0.05 || h.Seed != 42 {
		t.Errorf("Hybrid synthetic defaults = users %d density %v seed %d", h.Users, h.Density, h.Seed)
	}
	if h.Components != 30 || h.LearningRate != 0.05 || h.Epochs != 30 || h.Threads != 4 {
		t.Errorf("Hybrid model defaults = %+v", h)
	}
	if h.Loss != "warp" || h.UserID != 0 || h.TopN != 10 {
		t.Errorf("Hybrid loss/user/top = %q %d %d", h.Loss, h.UserID, h.TopN)
	}

	ic := cfg.ItemCF
	if ic.UserID != 0 || ic.TopN != 5 || ic.Neighbors != 0 || ic.MinSimilarity != 0 || ic.Workers != 4 {
		t.Errorf("ItemCF defaults = %+v", ic)
	}

	if cfg.Output.Format != "table" {
		t.Errorf("Output.Format = %q, want table", cfg.Output.Format)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
}

// TestDefaultConfigFieldsAreCopies guards the shared field lists.
func TestDefaultConfigFieldsAreCopies(t *testing.T) {
	cfg := defaultConfig()
	cfg.Similar.Fields[0] = "changed"
	if recommend.ContentFields[0] == "changed" {
		t.Error("defaultConfig shares ContentFields backing array")
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"CATALOG_PATH", "catalog.path"},
		{"EVENTS_PATH", "events.path"},
		{"DUCKDB_PATH", "database.path"},
		{"DUCKDB_QUERY_TIMEOUT", "database.query_timeout"},
		{"TFIDF_MAX_FEATURES", "vectorizer.max_features"},
		{"TFIDF_STOP_WORDS", "vectorizer.stop_words"},
		{"SIMILAR_QUERY_INDEX", "similar.query_index"},
		{"SIMILAR_FIELDS", "similar.fields"},
		{"HYBRID_USER_ID", "hybrid.user_id"},
		{"HYBRID_LOSS", "hybrid.loss"},
		{"HYBRID_ITEM_IDENTITY", "hybrid.item_identity"},
		{"ITEMCF_USER_ID", "itemcf.user_id"},
		{"ITEMCF_MIN_SIMILARITY", "itemcf.min_similarity"},
		{"OUTPUT_FORMAT", "output.format"},
		{"LOG_LEVEL", "logging.level"},
		{"METRICS_TEXTFILE", "metrics.textfile"},
		{"log_level", "logging.level"},

		// Unmapped keys are dropped
		{"PATH", ""},
		{"HOME", ""},
		{"HYBRID_UNKNOWN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := envTransformFunc(tt.input); result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	t.Run("no config file exists", func(t *testing.T) {
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("catalogrec.yaml preferred over config.yaml", func(t *testing.T) {
		for _, name := range []string{"catalogrec.yaml", "config.yaml"} {
			if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x: 1"), 0o600); err != nil {
				t.Fatalf("Failed to create config file: %v", err)
			}
			defer os.Remove(filepath.Join(tmpDir, name))
		}
		if result := findConfigFile(); result != "catalogrec.yaml" {
			t.Errorf("findConfigFile() = %q, want catalogrec.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("x: 1"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadEnvVars tests loading configuration from environment variables
func TestLoadEnvVars(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CATALOG_PATH", "/data/products.csv")
	t.Setenv("TFIDF_MAX_FEATURES", "1000")
	t.Setenv("SIMILAR_QUERY_INDEX", "1000")
	t.Setenv("SIMILAR_FIELDS", "Title, Description ,")
	t.Setenv("HYBRID_USER_ID", "7")
	t.Setenv("HYBRID_DENSITY", "0.1")
	t.Setenv("HYBRID_ITEM_IDENTITY", "true")
	t.Setenv("DUCKDB_QUERY_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.Path != "/data/products.csv" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Vectorizer.MaxFeatures != 1000 {
		t.Errorf("Vectorizer.MaxFeatures = %d, want 1000", cfg.Vectorizer.MaxFeatures)
	}
	if cfg.Similar.QueryIndex != 1000 {
		t.Errorf("Similar.QueryIndex = %d, want 1000", cfg.Similar.QueryIndex)
	}
	if want := []string{"Title", "Description"}; !slices.Equal(cfg.Similar.Fields, want) {
		t.Errorf("Similar.Fields = %v, want %v", cfg.Similar.Fields, want)
	}
	if cfg.Hybrid.UserID != 7 || cfg.Hybrid.Density != 0.1 || !cfg.Hybrid.ItemIdentity {
		t.Errorf("Hybrid = %+v", cfg.Hybrid)
	}
	if cfg.Database.QueryTimeout != 5*time.Second {
		t.Errorf("Database.QueryTimeout = %v, want 5s", cfg.Database.QueryTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Unset values keep defaults
	if cfg.Hybrid.Components != 30 {
		t.Errorf("Hybrid.Components = %d, want 30 (default)", cfg.Hybrid.Components)
	}
	if !slices.Equal(cfg.Hybrid.Fields, recommend.HybridFields) {
		t.Errorf("Hybrid.Fields = %v (default)", cfg.Hybrid.Fields)
	}
}

// TestLoadConfigFile tests loading from YAML with env overrides on top
func TestLoadConfigFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	configContent := `
catalog:
  path: "catalog.csv"
events:
  path: "events.csv"
hybrid:
  loss: "bpr"
  epochs: 5
  fields:
    - Title
    - Model
output:
  format: "json"
logging:
  level: "warn"
`
	configPath := filepath.Join(tmpDir, "settings.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.Path != "catalog.csv" || cfg.Events.Path != "events.csv" {
		t.Errorf("paths = %q %q", cfg.Catalog.Path, cfg.Events.Path)
	}
	if cfg.Hybrid.Loss != "bpr" || cfg.Hybrid.Epochs != 5 {
		t.Errorf("Hybrid loss/epochs = %q %d", cfg.Hybrid.Loss, cfg.Hybrid.Epochs)
	}
	if want := []string{"Title", "Model"}; !slices.Equal(cfg.Hybrid.Fields, want) {
		t.Errorf("Hybrid.Fields = %v, want %v", cfg.Hybrid.Fields, want)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
}

// TestLoadDotEnv tests that .env values apply below real environment variables
func TestLoadDotEnv(t *testing.T) {
	tmpDir := chdirTemp(t)

	dotenv := `# local overrides
CATALOG_PATH=from-dotenv.csv
HYBRID_TOP_N=3
SIMILAR_FIELDS="Title,Model"
LOG_LEVEL=debug
UNRELATED_SETTING=ignored
`
	if err := os.WriteFile(filepath.Join(tmpDir, DotEnvFile), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("Failed to create .env: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Catalog.Path != "from-dotenv.csv" {
		t.Errorf("Catalog.Path = %q, want from-dotenv.csv", cfg.Catalog.Path)
	}
	if cfg.Hybrid.TopN != 3 {
		t.Errorf("Hybrid.TopN = %d, want 3", cfg.Hybrid.TopN)
	}
	if want := []string{"Title", "Model"}; !slices.Equal(cfg.Similar.Fields, want) {
		t.Errorf("Similar.Fields = %v, want %v", cfg.Similar.Fields, want)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (environment wins over .env)", cfg.Logging.Level)
	}
	if _, set := os.LookupEnv("CATALOG_PATH"); set {
		t.Error(".env must not modify the process environment")
	}
}

// TestLoadValidation tests that invalid values are rejected with the config key
func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		errMsg  string
	}{
		{"bad loss", map[string]string{"HYBRID_LOSS": "logistic"}, "hybrid.loss"},
		{"density above one", map[string]string{"HYBRID_DENSITY": "1.5"}, "hybrid.density"},
		{"zero components", map[string]string{"HYBRID_COMPONENTS": "0"}, "hybrid.components"},
		{"negative query", map[string]string{"SIMILAR_QUERY_INDEX": "-1"}, "similar.query_index"},
		{"bad stop words", map[string]string{"TFIDF_STOP_WORDS": "french"}, "vectorizer.stop_words"},
		{"itemcf similarity above one", map[string]string{"ITEMCF_MIN_SIMILARITY": "2"}, "itemcf.min_similarity"},
		{"itemcf zero top n", map[string]string{"ITEMCF_TOP_N": "0"}, "itemcf.top_n"},
		{"bad output", map[string]string{"OUTPUT_FORMAT": "xml"}, "output.format"},
		{"bad log format", map[string]string{"LOG_FORMAT": "text"}, "logging.format"},
		{"duplicate fields", map[string]string{"SIMILAR_FIELDS": "Title,Model,Title"}, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Load() error = %q, want substring %q", err.Error(), tt.errMsg)
			}
		})
	}
}
