// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

/*
Package pipeline runs the recommendation pipelines end to end.

Similar (content similarity):

	load catalog -> combine text -> TF-IDF -> cosine matrix -> top-N for a query row

Hybrid (latent factors over text features):

	load catalog -> interactions (events or synthetic) -> TF-IDF item features
	             -> train WARP/BPR model -> top-N for a user

Item CF (collaborative filtering over weighted events):

	load catalog -> event interactions -> item-item cosine -> top-N unseen for a user

All runners read through a recommend.DataProvider, so tests substitute an
in-memory catalog for the DuckDB loader. Every stage is logged with the run
ID and stage name from the context and timed into the metrics package.
*/
package pipeline
