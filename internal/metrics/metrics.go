// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogrec_pipeline_runs_total",
			Help: "Total number of finished pipeline runs",
		},
		[]string{"pipeline", "status"}, // status: "success", "error"
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogrec_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"pipeline", "stage"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "error_type"},
	)

	// Data Shape Metrics
	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogrec_catalog_products",
			Help: "Number of products in the last loaded catalog",
		},
	)

	VocabularyTerms = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogrec_vocabulary_terms",
			Help: "Number of TF-IDF vocabulary terms",
		},
		[]string{"pipeline"},
	)

	Interactions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogrec_interactions",
			Help: "Number of user-item interactions used for training",
		},
		[]string{"source"}, // "events", "synthetic"
	)

	Users = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogrec_users",
			Help: "Number of users in the interaction matrix",
		},
	)

	// Training Metrics
	TrainingEpochs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogrec_training_epochs_total",
			Help: "Total number of completed training epochs",
		},
		[]string{"loss"},
	)

	TrainingUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogrec_training_updates_total",
			Help: "Total number of positives that produced a gradient update",
		},
		[]string{"loss"},
	)

	TrainingEpochLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogrec_training_epoch_loss",
			Help: "Mean sampled loss of the most recent epoch",
		},
		[]string{"loss"},
	)

	TrainingEpochDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogrec_training_epoch_duration_seconds",
			Help:    "Duration of training epochs in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"loss"},
	)
)

// RecordRun records the outcome of a pipeline run.
func RecordRun(pipeline string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PipelineRuns.WithLabelValues(pipeline, status).Inc()
}

// RecordStage records the wall time of one pipeline stage.
func RecordStage(pipeline, stage string, duration time.Duration) {
	StageDuration.WithLabelValues(pipeline, stage).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, classifyError(err)).Inc()
	}
}

// classifyError maps an error to a low-cardinality label value.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, os.ErrNotExist):
		return "not_found"
	case strings.Contains(err.Error(), "column"):
		return "schema"
	default:
		return "other"
	}
}

// SetCatalogSize records the number of loaded products.
func SetCatalogSize(products int) {
	CatalogProducts.Set(float64(products))
}

// SetVocabularySize records the TF-IDF vocabulary size for a pipeline.
func SetVocabularySize(pipeline string, terms int) {
	VocabularyTerms.WithLabelValues(pipeline).Set(float64(terms))
}

// SetInteractions records the training data shape.
func SetInteractions(source string, interactions, users int) {
	Interactions.WithLabelValues(source).Set(float64(interactions))
	Users.Set(float64(users))
}

// RecordEpoch records one finished training epoch.
func RecordEpoch(loss string, updates int, meanLoss float64, duration time.Duration) {
	TrainingEpochs.WithLabelValues(loss).Inc()
	TrainingUpdates.WithLabelValues(loss).Add(float64(updates))
	TrainingEpochLoss.WithLabelValues(loss).Set(meanLoss)
	TrainingEpochDuration.WithLabelValues(loss).Observe(duration.Seconds())
}

// WriteTextfile writes every registered metric to path in text exposition
// format. The file is written to a temp file and renamed into place.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
