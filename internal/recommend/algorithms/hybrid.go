// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/sparse"
)

// Loss function names accepted by HybridConfig.Loss.
const (
	LossWARP = "warp"
	LossBPR  = "bpr"
)

// HybridConfig contains configuration for the hybrid model.
type HybridConfig struct {
	// Components is the dimension of the latent vectors.
	// Default: 30.
	Components int

	// LearningRate is the initial adagrad step size.
	// Default: 0.05.
	LearningRate float64

	// Epochs is the number of passes over the positive interactions.
	// Default: 30.
	Epochs int

	// NumWorkers is the number of goroutines computing gradients per batch.
	// Default: 4.
	NumWorkers int

	// Loss selects the ranking loss, "warp" or "bpr".
	// Default: "warp".
	Loss string

	// MaxSampled caps negative draws per positive.
	// Default: 10.
	MaxSampled int

	// BatchSize is the number of positives whose gradients are merged
	// before parameters are updated.
	// Default: 32.
	BatchSize int

	// ItemIdentity appends a per-item indicator feature to the item
	// features so every item also learns its own vector.
	ItemIdentity bool

	// Seed for reproducible training.
	// If 0, uses a default seed.
	Seed int64

	// OnEpoch is called after every completed epoch.
	OnEpoch func(EpochStats)
}

// DefaultHybridConfig returns default hybrid model configuration.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		Components:   30,
		LearningRate: 0.05,
		Epochs:       30,
		NumWorkers:   4,
		Loss:         LossWARP,
		MaxSampled:   10,
		BatchSize:    32,
		Seed:         42,
	}
}

// EpochStats summarizes one training epoch.
type EpochStats struct {
	Epoch     int
	Positives int
	Updates   int
	Loss      float64
	Duration  time.Duration
}

// Hybrid is a latent-factor model where users are represented by an
// identity embedding and items by the sum of their feature embeddings:
//
//	q_i   = sum_f x_if * V_f
//	b_i   = sum_f x_if * b_f
//	s(u,i) = p_u . q_i + b_u + b_i
//
// Training optimizes a pairwise ranking loss with per-parameter adagrad.
// Positives are shuffled every epoch and processed in mini-batches: workers
// compute gradients against a frozen snapshot of the parameters into private
// buffers, buffers are merged in worker order and then applied. A fixed seed
// and worker count always yield the same model.
type Hybrid struct {
	BaseAlgorithm
	config HybridConfig

	numUsers int
	numItems int
	features *sparse.CSR

	// userVec and featVec hold Components weights followed by the bias.
	userVec [][]float64
	featVec [][]float64
	userAcc [][]float64
	featAcc [][]float64
}

// NewHybrid creates a hybrid model with the given configuration.
func NewHybrid(cfg HybridConfig) *Hybrid {
	def := DefaultHybridConfig()
	if cfg.Components <= 0 {
		cfg.Components = def.Components
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}
	if cfg.Loss == "" {
		cfg.Loss = def.Loss
	}
	if cfg.MaxSampled <= 0 {
		cfg.MaxSampled = def.MaxSampled
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}

	return &Hybrid{
		BaseAlgorithm: NewBaseAlgorithm("hybrid_" + cfg.Loss),
		config:        cfg,
	}
}

// positive is one training example.
type positive struct {
	user, item int
	weight     float64
}

// Train fits the model. itemFeatures must have one row per item.
// An empty interaction list trains successfully and leaves the random
// initialization in place.
//
//nolint:gocyclo // training loop
func (h *Hybrid) Train(ctx context.Context, users int, interactions []recommend.Interaction, itemFeatures *sparse.CSR) error {
	h.acquireTrainLock()
	defer h.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}
	if h.config.Loss != LossWARP && h.config.Loss != LossBPR {
		return fmt.Errorf("unsupported loss %q", h.config.Loss)
	}

	items := itemFeatures.Rows()
	seen, err := NewInteractionMatrix(users, items, interactions)
	if err != nil {
		return fmt.Errorf("%d item feature rows: %w", items, err)
	}

	features := itemFeatures
	if h.config.ItemIdentity {
		features, err = sparse.HStack(sparse.Identity(items), itemFeatures)
		if err != nil {
			return fmt.Errorf("item identity features: %w", err)
		}
	}

	rng := rand.New(rand.NewSource(h.config.Seed)) //nolint:gosec // reproducible training, not security sensitive
	h.numUsers = users
	h.numItems = items
	h.features = features
	h.initParams(rng)

	positives := make([]positive, 0, len(interactions))
	for _, in := range interactions {
		if in.Weight > 0 {
			positives = append(positives, positive{user: in.User, item: in.Item, weight: in.Weight})
		}
	}

	for epoch := 0; epoch < h.config.Epochs; epoch++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		start := time.Now()

		rng.Shuffle(len(positives), func(a, b int) {
			positives[a], positives[b] = positives[b], positives[a]
		})

		stats := EpochStats{Epoch: epoch + 1, Positives: len(positives)}
		for lo := 0; lo < len(positives); lo += h.config.BatchSize {
			if ContextCancelled(ctx) {
				return ctx.Err()
			}
			batch := positives[lo:min(lo+h.config.BatchSize, len(positives))]
			updates, loss, err := h.trainBatch(ctx, rng, batch, seen)
			if err != nil {
				return err
			}
			stats.Updates += updates
			stats.Loss += loss
		}

		stats.Duration = time.Since(start)
		if h.config.OnEpoch != nil {
			h.config.OnEpoch(stats)
		}
	}

	h.markTrained()
	return nil
}

func (h *Hybrid) initParams(rng *rand.Rand) {
	k := h.config.Components
	newBlock := func(rows int, random bool, fill float64) [][]float64 {
		block := make([][]float64, rows)
		for r := range block {
			v := make([]float64, k+1)
			for d := range v {
				switch {
				case d < k && random:
					v[d] = (rng.Float64() - 0.5) / float64(k)
				case !random:
					v[d] = fill
				}
			}
			block[r] = v
		}
		return block
	}

	h.featVec = newBlock(h.features.Cols(), true, 0)
	h.userVec = newBlock(h.numUsers, true, 0)
	h.featAcc = newBlock(h.features.Cols(), false, 1)
	h.userAcc = newBlock(h.numUsers, false, 1)
}

// gradBuf accumulates gradients for touched rows only.
type gradBuf struct {
	dim   int
	users map[int][]float64
	feats map[int][]float64
}

func newGradBuf(dim int) *gradBuf {
	return &gradBuf{dim: dim, users: make(map[int][]float64), feats: make(map[int][]float64)}
}

func (g *gradBuf) user(u int) []float64 {
	v, ok := g.users[u]
	if !ok {
		v = make([]float64, g.dim)
		g.users[u] = v
	}
	return v
}

func (g *gradBuf) feat(f int) []float64 {
	v, ok := g.feats[f]
	if !ok {
		v = make([]float64, g.dim)
		g.feats[f] = v
	}
	return v
}

// merge adds o into g. Merging buffers in a fixed order keeps float sums
// reproducible.
func (g *gradBuf) merge(o *gradBuf) {
	for u, v := range o.users {
		dst := g.user(u)
		for d := range v {
			dst[d] += v[d]
		}
	}
	for f, v := range o.feats {
		dst := g.feat(f)
		for d := range v {
			dst[d] += v[d]
		}
	}
}

type workerResult struct {
	grads   *gradBuf
	updates int
	loss    float64
}

func (h *Hybrid) trainBatch(ctx context.Context, rng *rand.Rand, batch []positive, seen *InteractionMatrix) (int, float64, error) {
	spans := chunks(len(batch), h.config.NumWorkers)
	seeds := make([]int64, len(spans))
	for w := range seeds {
		seeds[w] = rng.Int63()
	}
	results := make([]workerResult, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	for w, span := range spans {
		g.Go(func() error {
			if ContextCancelled(gctx) {
				return gctx.Err()
			}
			wrng := rand.New(rand.NewSource(seeds[w])) //nolint:gosec // reproducible training
			res := workerResult{grads: newGradBuf(h.config.Components + 1)}
			for _, p := range batch[span[0]:span[1]] {
				if c, ok := h.sampleGradient(wrng, p, seen, res.grads); ok {
					res.updates++
					res.loss += c
				}
			}
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	merged := newGradBuf(h.config.Components + 1)
	updates, loss := 0, 0.0
	for _, res := range results {
		merged.merge(res.grads)
		updates += res.updates
		loss += res.loss
	}
	h.apply(merged)
	return updates, loss, nil
}

// itemRep writes q_i into out and returns b_i.
func (h *Hybrid) itemRep(i int, out []float64) float64 {
	k := h.config.Components
	clear(out)
	var bias float64
	cols, vals := h.features.Row(i)
	for n, f := range cols {
		x := vals[n]
		v := h.featVec[f]
		for d := 0; d < k; d++ {
			out[d] += x * v[d]
		}
		bias += x * v[k]
	}
	return bias
}

func (h *Hybrid) score(u int, q []float64, itemBias float64) float64 {
	k := h.config.Components
	p := h.userVec[u]
	s := p[k] + itemBias
	for d := 0; d < k; d++ {
		s += p[d] * q[d]
	}
	return s
}

// sampleGradient draws a negative for p and, when the pair violates the
// ranking, accumulates the loss gradient. It returns the loss coefficient.
func (h *Hybrid) sampleGradient(rng *rand.Rand, p positive, seen *InteractionMatrix, grads *gradBuf) (float64, bool) {
	k := h.config.Components
	qi := make([]float64, k)
	qj := make([]float64, k)
	posScore := h.score(p.user, qi, h.itemRep(p.item, qi))

	var (
		neg   = -1
		coeff float64
	)
	for sampled := 1; sampled <= h.config.MaxSampled; sampled++ {
		j := rng.Intn(h.numItems)
		if seen.Has(p.user, j) {
			continue
		}
		negScore := h.score(p.user, qj, h.itemRep(j, qj))

		if h.config.Loss == LossBPR {
			neg = j
			coeff = p.weight / (1 + math.Exp(posScore-negScore))
			break
		}
		if negScore > posScore-1 {
			neg = j
			rank := math.Floor(float64(h.numItems-1) / float64(sampled))
			coeff = p.weight * math.Log(math.Max(1, rank))
			break
		}
	}
	if neg < 0 || coeff == 0 {
		return 0, false
	}

	// d loss / d s_i = -coeff, d loss / d s_j = +coeff.
	pu := h.userVec[p.user]
	gu := grads.user(p.user)
	for d := 0; d < k; d++ {
		gu[d] += coeff * (qj[d] - qi[d])
	}
	h.accumulateItem(grads, p.item, pu, -coeff)
	h.accumulateItem(grads, neg, pu, coeff)
	return coeff, true
}

func (h *Hybrid) accumulateItem(grads *gradBuf, item int, pu []float64, coeff float64) {
	k := h.config.Components
	cols, vals := h.features.Row(item)
	for n, f := range cols {
		x := coeff * vals[n]
		gf := grads.feat(f)
		for d := 0; d < k; d++ {
			gf[d] += x * pu[d]
		}
		gf[k] += x
	}
}

// apply performs the adagrad step for every touched row.
func (h *Hybrid) apply(g *gradBuf) {
	lr := h.config.LearningRate
	step := func(param, acc, grad []float64) {
		for d, gd := range grad {
			if gd == 0 {
				continue
			}
			acc[d] += gd * gd
			param[d] -= lr * gd / math.Sqrt(acc[d])
		}
	}
	for u, grad := range g.users {
		step(h.userVec[u], h.userAcc[u], grad)
	}
	for f, grad := range g.feats {
		step(h.featVec[f], h.featAcc[f], grad)
	}
}

// Users returns the number of users seen in training.
func (h *Hybrid) Users() int {
	h.acquirePredictLock()
	defer h.releasePredictLock()
	return h.numUsers
}

// Predict returns the score of every item for user.
func (h *Hybrid) Predict(ctx context.Context, user int) ([]float64, error) {
	h.acquirePredictLock()
	defer h.releasePredictLock()

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	if !h.trained {
		return nil, recommend.ErrNotTrained
	}
	if user < 0 || user >= h.numUsers {
		return nil, fmt.Errorf("user %d of %d: %w", user, h.numUsers, recommend.ErrUnknownUser)
	}

	scores := make([]float64, h.numItems)
	q := make([]float64, h.config.Components)
	for i := range scores {
		scores[i] = h.score(user, q, h.itemRep(i, q))
	}
	return scores, nil
}

// Recommend returns the n best items for user, ties in item order.
func (h *Hybrid) Recommend(ctx context.Context, user, n int) ([]recommend.ScoredItem, error) {
	scores, err := h.Predict(ctx, user)
	if err != nil {
		return nil, err
	}
	return recommend.TopN(scores, n, nil), nil
}
