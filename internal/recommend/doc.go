// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package recommend holds the shared catalog types and ranking helpers for
// the product recommendation pipelines.
//
// # Architecture
//
// Two batch pipelines build recommendation signals from a product catalog:
//
//   - Content similarity: TF-IDF over the combined product text, a cosine
//     similarity matrix, and "more like this" top-N ranking
//   - Hybrid ranking: a latent-factor model where items are represented by
//     their TF-IDF features, trained with the WARP ranking loss
//
// Subpackages:
//
//   - sparse: CSR matrices shared by the vectorizer and the trainer
//   - textvec: tokenizer, stop words and the TF-IDF vectorizer
//   - algorithms: cosine similarity, interaction generation, hybrid model
//
// # Determinism
//
// Every random step takes an explicit seed. Running a pipeline twice with
// the same catalog and configuration produces identical output, including
// the hybrid model (training parallelism merges gradients in a fixed order).
//
// # Usage
//
//	docs := make([]string, len(products))
//	for i, p := range products {
//	    docs[i] = recommend.CombineText(p, recommend.ContentFields)
//	}
//	features, vocab, err := textvec.NewVectorizer(textvec.DefaultConfig()).FitTransform(docs)
//	sim, err := algorithms.CosineMatrix(ctx, features, 4)
//	top, err := recommend.TopSimilar(sim, queryIndex, 20)
package recommend
