// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/catalogrec/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"catalogrec.yaml",
	"catalogrec.yml",
	"config.yaml",
	"config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile holds KEY=value lines using the same names as the environment
// variables. Real environment variables take precedence over it.
const DotEnvFile = ".env"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "products.csv",
		},
		Events: EventsConfig{
			Path: "", // synthetic interactions
		},
		Database: DatabaseConfig{
			Path:         ":memory:",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 60 * time.Second,
		},
		Vectorizer: VectorizerConfig{
			MaxFeatures: 5000,
			StopWords:   "english",
		},
		Similar: SimilarConfig{
			Fields:     slices.Clone(recommend.ContentFields),
			QueryIndex: 0,
			TopN:       20,
			Workers:    4,
		},
		Hybrid: HybridConfig{
			Fields:       slices.Clone(recommend.HybridFields),
			Users:        100,
			Density:      0.05,
			Components:   30,
			LearningRate: 0.05,
			Epochs:       30,
			Threads:      4,
			Loss:         "warp",
			MaxSampled:   10,
			BatchSize:    32,
			ItemIdentity: false,
			Seed:         42,
			UserID:       0,
			TopN:         10,
		},
		ItemCF: ItemCFConfig{
			UserID:        0,
			TopN:          5,
			Neighbors:     0,
			MinSimilarity: 0,
			Workers:       4,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Dotenv: Optional .env file in the working directory
//  4. Environment Variables: Override any mapped setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: .env file (optional)
	if err := loadDotEnv(k, DotEnvFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	// Layer 4: environment variables
	// CATALOG_PATH -> catalog.path
	// HYBRID_USER_ID -> hybrid.user_id
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadDotEnv applies mapped keys from a .env file that are not already set
// in the process environment. The process environment is left untouched.
func loadDotEnv(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for name, value := range vars {
		key := envTransformFunc(name)
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"similar.fields",
	"hybrid.fields",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
var envMappings = map[string]string{
	// Inputs
	"catalog_path": "catalog.path",
	"events_path":  "events.path",

	// Database mappings
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_query_timeout": "database.query_timeout",

	// Vectorizer mappings
	"tfidf_max_features": "vectorizer.max_features",
	"tfidf_stop_words":   "vectorizer.stop_words",

	// Content similarity mappings
	"similar_fields":      "similar.fields",
	"similar_query_index": "similar.query_index",
	"similar_top_n":       "similar.top_n",
	"similar_workers":     "similar.workers",

	// Hybrid model mappings
	"hybrid_fields":        "hybrid.fields",
	"hybrid_users":         "hybrid.users",
	"hybrid_density":       "hybrid.density",
	"hybrid_components":    "hybrid.components",
	"hybrid_learning_rate": "hybrid.learning_rate",
	"hybrid_epochs":        "hybrid.epochs",
	"hybrid_threads":       "hybrid.threads",
	"hybrid_loss":          "hybrid.loss",
	"hybrid_max_sampled":   "hybrid.max_sampled",
	"hybrid_batch_size":    "hybrid.batch_size",
	"hybrid_item_identity": "hybrid.item_identity",
	"hybrid_seed":          "hybrid.seed",
	"hybrid_user_id":       "hybrid.user_id",
	"hybrid_top_n":         "hybrid.top_n",

	// Item CF mappings
	"itemcf_user_id":        "itemcf.user_id",
	"itemcf_top_n":          "itemcf.top_n",
	"itemcf_neighbors":      "itemcf.neighbors",
	"itemcf_min_similarity": "itemcf.min_similarity",
	"itemcf_workers":        "itemcf.workers",

	// Output mappings
	"output_format": "output.format",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Metrics mappings
	"metrics_textfile": "metrics.textfile",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" so unrelated environment variables never reach the config.
//
// Examples:
//   - CATALOG_PATH -> catalog.path
//   - TFIDF_MAX_FEATURES -> vectorizer.max_features
//   - HYBRID_USER_ID -> hybrid.user_id
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
