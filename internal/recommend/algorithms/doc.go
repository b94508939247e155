// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package algorithms implements the catalog recommenders.
//
// # Content Similarity
//
// ContentSimilarity turns TF-IDF rows into a dense cosine similarity matrix
// and answers "which products read most like this one". Rows are computed by
// a pool of errgroup workers; each worker owns a contiguous block of rows.
//
// # Hybrid
//
// Hybrid is a latent-factor model whose item vectors are sums of feature
// embeddings, so products with similar text start close together even
// without interactions:
//
//	q_i    = sum_f x_if * V_f
//	s(u,i) = p_u . q_i + b_u + b_i
//
// Two pairwise losses are available:
//   - WARP: samples negatives until one outranks the positive by the margin,
//     weighting the update by how quickly the violation was found
//   - BPR: one negative per positive, logistic pairwise loss
//
// Parameters use adagrad. Positives are processed in shuffled mini-batches
// whose gradients are computed in parallel and merged in a fixed order.
//
// # Item KNN
//
// ItemKNN is item-based collaborative filtering over weighted events. Items
// are compared by the cosine of their per-user weight vectors, and a user's
// unseen items are scored by the similarity weighted average of the weights
// they gave to neighbouring items.
//
// # Interactions
//
// InteractionMatrix is a binary users x items matrix built from aggregated
// events or drawn by GenerateInteractions from a seeded Bernoulli source.
//
// # Thread Safety
//
// Models embed BaseAlgorithm: training takes the write lock, prediction the
// read lock, so a trained model can serve concurrent Predict calls.
package algorithms
