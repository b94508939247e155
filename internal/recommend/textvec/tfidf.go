// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

// Package textvec turns product text into TF-IDF feature vectors.
//
// The vectorizer keeps the MaxFeatures most frequent terms of the corpus,
// weights term counts with smoothed inverse document frequency and
// L2-normalizes every row:
//
//	idf(t)   = ln((1 + n) / (1 + df(t))) + 1
//	w(d, t)  = tf(d, t) * idf(t)
//	row(d)   = w(d) / ||w(d)||
//
// Vocabulary columns are sorted alphabetically. Frequency ties at the
// MaxFeatures cut-off are broken alphabetically, so the output is fully
// determined by the corpus.
package textvec

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
)

var (
	// ErrEmptyCorpus is returned when there are no documents to fit.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrEmptyVocabulary is returned when no token survives tokenization
	// and stop word removal.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
)

// Config holds vectorizer settings.
type Config struct {
	// MaxFeatures caps the vocabulary size (default 5000).
	MaxFeatures int

	// StopWords names the stop word list: "english" or "none".
	StopWords string
}

// DefaultConfig returns the settings used by both pipelines.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 5000,
		StopWords:   StopWordsEnglish,
	}
}

// Vectorizer learns a vocabulary and produces TF-IDF rows. The vocabulary is
// rebuilt on every FitTransform call.
type Vectorizer struct {
	cfg   Config
	stop  map[string]struct{}
	vocab []string
	index map[string]int
	idf   []float64
}

// NewVectorizer creates a vectorizer. Non-positive MaxFeatures uses the
// default.
func NewVectorizer(cfg Config) *Vectorizer {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultConfig().MaxFeatures
	}
	return &Vectorizer{
		cfg:  cfg,
		stop: stopWordSet(cfg.StopWords),
	}
}

// Vocabulary returns the fitted terms in column order.
func (v *Vectorizer) Vocabulary() []string {
	return slices.Clone(v.vocab)
}

// IDF returns the fitted inverse document frequencies in column order.
func (v *Vectorizer) IDF() []float64 {
	return slices.Clone(v.idf)
}

func (v *Vectorizer) analyze(doc string) []string {
	tokens := Tokenize(doc)
	if len(v.stop) == 0 {
		return tokens
	}
	kept := tokens[:0]
	for _, t := range tokens {
		if _, ok := v.stop[t]; !ok {
			kept = append(kept, t)
		}
	}
	return kept
}

type termStat struct {
	term  string
	count int
	df    int
}

// FitTransform learns the vocabulary from docs and returns the TF-IDF
// matrix (len(docs) x vocabulary size) with the vocabulary in column order.
func (v *Vectorizer) FitTransform(docs []string) (*sparse.CSR, []string, error) {
	if len(docs) == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	analyzed := make([][]string, len(docs))
	stats := make(map[string]*termStat)
	for d, doc := range docs {
		analyzed[d] = v.analyze(doc)
		seen := make(map[string]struct{}, len(analyzed[d]))
		for _, t := range analyzed[d] {
			st, ok := stats[t]
			if !ok {
				st = &termStat{term: t}
				stats[t] = st
			}
			st.count++
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				st.df++
			}
		}
	}

	if len(stats) == 0 {
		return nil, nil, fmt.Errorf("%d documents: %w", len(docs), ErrEmptyVocabulary)
	}

	ranked := make([]*termStat, 0, len(stats))
	for _, st := range stats {
		ranked = append(ranked, st)
	}
	slices.SortFunc(ranked, func(a, b *termStat) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.term, b.term)
	})
	if len(ranked) > v.cfg.MaxFeatures {
		ranked = ranked[:v.cfg.MaxFeatures]
	}
	slices.SortFunc(ranked, func(a, b *termStat) int { return cmp.Compare(a.term, b.term) })

	n := float64(len(docs))
	v.vocab = make([]string, len(ranked))
	v.index = make(map[string]int, len(ranked))
	v.idf = make([]float64, len(ranked))
	for j, st := range ranked {
		v.vocab[j] = st.term
		v.index[st.term] = j
		v.idf[j] = math.Log((1+n)/(1+float64(st.df))) + 1
	}

	b := sparse.NewBuilder(len(v.vocab))
	for _, tokens := range analyzed {
		if err := b.AddRow(v.weigh(tokens)); err != nil {
			return nil, nil, fmt.Errorf("build tfidf row: %w", err)
		}
	}

	return b.Build(), v.Vocabulary(), nil
}

// weigh computes the normalized TF-IDF entries of one tokenized document.
func (v *Vectorizer) weigh(tokens []string) []sparse.Entry {
	counts := make(map[int]int)
	for _, t := range tokens {
		if j, ok := v.index[t]; ok {
			counts[j]++
		}
	}

	entries := make([]sparse.Entry, 0, len(counts))
	for j, c := range counts {
		entries = append(entries, sparse.Entry{Col: j, Value: float64(c) * v.idf[j]})
	}
	slices.SortFunc(entries, func(a, b sparse.Entry) int { return cmp.Compare(a.Col, b.Col) })

	var norm float64
	for _, e := range entries {
		norm += e.Value * e.Value
	}
	if norm == 0 {
		return entries
	}
	norm = math.Sqrt(norm)
	for k := range entries {
		entries[k].Value /= norm
	}
	return entries
}
