// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

/*
Package metrics provides Prometheus instrumentation for pipeline runs.

The commands are batch jobs, so nothing is served over HTTP. When
metrics.textfile is configured, WriteTextfile dumps the default registry in
text exposition format for the node_exporter textfile collector.

# Available Metrics

Pipeline:
  - catalogrec_pipeline_runs_total: Finished runs (counter)
    Labels: pipeline, status
  - catalogrec_stage_duration_seconds: Stage wall time (histogram)
    Labels: pipeline, stage

Data:
  - duckdb_query_duration_seconds: CSV load time (histogram)
    Labels: operation
  - duckdb_query_errors_total: Failed loads (counter)
    Labels: operation, error_type
  - catalogrec_catalog_products: Products in the last catalog (gauge)
  - catalogrec_vocabulary_terms: TF-IDF vocabulary size (gauge)
    Labels: pipeline
  - catalogrec_interactions: Interactions fed to training (gauge)
    Labels: source
  - catalogrec_users: Users in the interaction matrix (gauge)

Training:
  - catalogrec_training_epochs_total: Completed epochs (counter)
  - catalogrec_training_updates_total: Gradient updates applied (counter)
  - catalogrec_training_epoch_loss: Mean loss of the last epoch (gauge)
  - catalogrec_training_epoch_duration_seconds: Epoch wall time (histogram)
    All training metrics carry a loss label.

# Usage

	start := time.Now()
	matrix, vocab, err := vec.FitTransform(docs)
	metrics.RecordStage("similar", "vectorize", time.Since(start))
	metrics.SetVocabularySize("similar", len(vocab))
*/
package metrics
