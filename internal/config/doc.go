// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

/*
Package config provides layered configuration for the catalogrec commands.

# Configuration Sources

Values are merged in this order, later sources winning:
  - Built-in defaults (defaultConfig)
  - YAML file: $CONFIG_PATH, catalogrec.yaml, catalogrec.yml, config.yaml, config.yml
  - .env file in the working directory (same names as the variables below)
  - Environment variables listed below

# Environment Variables

Inputs:
  - CATALOG_PATH: Catalog CSV (default: products.csv)
  - EVENTS_PATH: Event CSV, optional for hybrid and required for itemcf

DuckDB:
  - DUCKDB_PATH: Database path (default: :memory:)
  - DUCKDB_MAX_MEMORY: Memory limit (default: 1GB)
  - DUCKDB_THREADS: Worker threads, 0 = NumCPU
  - DUCKDB_QUERY_TIMEOUT: Per-query timeout (default: 60s)

Vectorizer:
  - TFIDF_MAX_FEATURES: Vocabulary cap (default: 5000)
  - TFIDF_STOP_WORDS: english or none

Content similarity:
  - SIMILAR_FIELDS: Comma-separated catalog columns
  - SIMILAR_QUERY_INDEX: Catalog row to query (default: 0)
  - SIMILAR_TOP_N: Results to print (default: 20)
  - SIMILAR_WORKERS: Similarity row workers (default: 4)

Hybrid model:
  - HYBRID_FIELDS, HYBRID_USERS, HYBRID_DENSITY, HYBRID_COMPONENTS
  - HYBRID_LEARNING_RATE, HYBRID_EPOCHS, HYBRID_THREADS, HYBRID_LOSS
  - HYBRID_MAX_SAMPLED, HYBRID_BATCH_SIZE, HYBRID_ITEM_IDENTITY
  - HYBRID_SEED, HYBRID_USER_ID, HYBRID_TOP_N

Item-based collaborative filtering (needs EVENTS_PATH):
  - ITEMCF_USER_ID, ITEMCF_TOP_N, ITEMCF_NEIGHBORS
  - ITEMCF_MIN_SIMILARITY, ITEMCF_WORKERS

Output and observability:
  - OUTPUT_FORMAT: table or json
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - METRICS_TEXTFILE: Write Prometheus metrics here after the run

# Validation

Load validates the merged result with go-playground/validator through the
validation package; errors name the failing config key.
*/
package config
