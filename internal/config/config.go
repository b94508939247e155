// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package config

import "time"

// Config holds all settings for the recommendation pipelines.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults matching the reference pipeline constants
//  2. Config File: Optional YAML file (catalogrec.yaml or config.yaml)
//  3. Dotenv: Optional .env file in the working directory
//  4. Environment Variables: Override any mapped setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	db, err := database.New(&cfg.Database)
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Catalog    CatalogConfig    `koanf:"catalog"`
	Events     EventsConfig     `koanf:"events"`
	Database   DatabaseConfig   `koanf:"database"`
	Vectorizer VectorizerConfig `koanf:"vectorizer"`
	Similar    SimilarConfig    `koanf:"similar"`
	Hybrid     HybridConfig     `koanf:"hybrid"`
	ItemCF     ItemCFConfig     `koanf:"itemcf"`
	Output     OutputConfig     `koanf:"output"`
	Logging    LoggingConfig    `koanf:"logging"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// CatalogConfig locates the product catalog export.
type CatalogConfig struct {
	// Path is the catalog CSV file. Default: products.csv
	Path string `koanf:"path" validate:"required"`
}

// EventsConfig locates user event logs for the hybrid and itemcf pipelines.
type EventsConfig struct {
	// Path is a CSV with user_id, product_id and event columns.
	// When empty the hybrid pipeline generates synthetic interactions.
	Path string `koanf:"path"`
}

// DatabaseConfig holds DuckDB settings used for CSV loading.
type DatabaseConfig struct {
	Path         string        `koanf:"path" validate:"required"`
	MaxMemory    string        `koanf:"max_memory" validate:"required"`
	Threads      int           `koanf:"threads" validate:"gte=0"` // 0 = use NumCPU
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// VectorizerConfig holds TF-IDF settings shared by both pipelines.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size. Default: 5000
	MaxFeatures int `koanf:"max_features" validate:"min=1"`

	// StopWords is "english" or "none". Default: english
	StopWords string `koanf:"stop_words" validate:"oneof=english none"`
}

// SimilarConfig holds content-similarity pipeline settings.
type SimilarConfig struct {
	// Fields are the catalog columns combined into product text.
	// Every field must exist in the catalog.
	Fields []string `koanf:"fields" validate:"min=1,dive,required"`

	// QueryIndex is the catalog row to find similar products for.
	QueryIndex int `koanf:"query_index" validate:"gte=0"`

	// TopN is the number of similar products to return. Default: 20
	TopN int `koanf:"top_n" validate:"min=1"`

	// Workers is the number of goroutines filling similarity rows. Default: 4
	Workers int `koanf:"workers" validate:"min=1,max=256"`
}

// HybridConfig holds hybrid model pipeline settings.
type HybridConfig struct {
	// Fields are the catalog columns combined into item feature text.
	// Missing fields become empty strings.
	Fields []string `koanf:"fields" validate:"min=1,dive,required"`

	// Users is the synthetic user count when no events are configured.
	Users int `koanf:"users" validate:"min=1"`

	// Density is the synthetic interaction probability per cell.
	Density float64 `koanf:"density" validate:"probability"`

	Components   int     `koanf:"components" validate:"min=1,max=1024"`
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`
	Epochs       int     `koanf:"epochs" validate:"min=1"`
	Threads      int     `koanf:"threads" validate:"min=1,max=256"`
	Loss         string  `koanf:"loss" validate:"oneof=warp bpr"`
	MaxSampled   int     `koanf:"max_sampled" validate:"min=1"`
	BatchSize    int     `koanf:"batch_size" validate:"min=1"`
	ItemIdentity bool    `koanf:"item_identity"`

	// Seed drives synthetic data generation and model initialization.
	Seed int64 `koanf:"seed"`

	// UserID is the dense user index to recommend for.
	UserID int `koanf:"user_id" validate:"gte=0"`

	// TopN is the number of recommendations to return. Default: 10
	TopN int `koanf:"top_n" validate:"min=1"`
}

// ItemCFConfig holds item-based collaborative filtering settings. The
// itemcf command always reads interactions from events.path.
type ItemCFConfig struct {
	// UserID is the dense user index to recommend for. Users are numbered
	// in sorted order of their event user_id.
	UserID int `koanf:"user_id" validate:"gte=0"`

	// TopN is the number of recommendations to return. Default: 5
	TopN int `koanf:"top_n" validate:"min=1"`

	// Neighbors caps similar items kept per item, 0 keeps all.
	Neighbors int `koanf:"neighbors" validate:"gte=0"`

	// MinSimilarity drops weaker item pairs. Default: 0
	MinSimilarity float64 `koanf:"min_similarity" validate:"probability"`

	// Workers is the number of goroutines filling similarity rows. Default: 4
	Workers int `koanf:"workers" validate:"min=1,max=256"`
}

// OutputConfig selects how results are printed.
type OutputConfig struct {
	// Format is "table" or "json". Default: table
	Format string `koanf:"format" validate:"oneof=table json"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is the output format: json or console.
	// Default: console
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// MetricsConfig controls Prometheus metric export for batch runs.
type MetricsConfig struct {
	// Textfile, when set, receives all metrics in text exposition format
	// after the run (node_exporter textfile collector).
	Textfile string `koanf:"textfile"`
}
