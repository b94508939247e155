// Catalogrec - Product Catalog Recommendation Signals
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogrec

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/tomtom215/catalogrec/internal/config"
	"github.com/tomtom215/catalogrec/internal/logging"
	"github.com/tomtom215/catalogrec/internal/recommend"
	"github.com/tomtom215/catalogrec/internal/recommend/algorithms"
	"github.com/tomtom215/catalogrec/internal/recommend/textvec"
)

// fakeProvider serves an in-memory catalog.
type fakeProvider struct {
	products     []recommend.Product
	interactions []recommend.Interaction
	users        int
	err          error
}

func (f *fakeProvider) Products(context.Context) ([]recommend.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeProvider) Interactions(context.Context, []recommend.Product) ([]recommend.Interaction, int, error) {
	return f.interactions, f.users, nil
}

func product(title, description, price string) recommend.Product {
	return recommend.Product{
		Title: title,
		Price: price,
		Fields: map[string]string{
			recommend.ColumnTitle:       title,
			recommend.ColumnDescription: description,
			recommend.ColumnPrice:       price,
		},
	}
}

func testCatalog() []recommend.Product {
	return []recommend.Product{
		product("Red cotton shirt", "summer casual wear", "10"),
		product("Blue denim jeans", "slim fit trousers", "20"),
		product("Red cotton shirt", "summer casual wear", "12"),
		product("Leather boots", "winter hiking shoes", "50"),
		product("Cotton socks", "casual summer pack", "3"),
		product("Denim jacket", "blue casual outerwear", "35"),
	}
}

func similarOptions() SimilarOptions {
	return SimilarOptions{
		Fields:     []string{recommend.ColumnTitle, recommend.ColumnDescription},
		Vectorizer: textvec.DefaultConfig(),
		QueryIndex: 0,
		TopN:       3,
		Workers:    2,
	}
}

func hybridOptions() HybridOptions {
	return HybridOptions{
		Fields:     []string{recommend.ColumnTitle, recommend.ColumnDescription},
		Vectorizer: textvec.DefaultConfig(),
		Users:      12,
		Density:    0.3,
		Seed:       7,
		Model: algorithms.HybridConfig{
			Components:   8,
			LearningRate: 0.05,
			Epochs:       5,
			NumWorkers:   2,
			Loss:         algorithms.LossWARP,
			MaxSampled:   10,
			BatchSize:    4,
			Seed:         7,
		},
		UserID: 0,
		TopN:   3,
	}
}

func TestRunSimilar_DuplicateRanksFirst(t *testing.T) {
	t.Parallel()

	products := []recommend.Product{
		product("Red cotton shirt", "summer wear", "10"),
		product("Blue denim jeans", "slim trousers", "20"),
		product("Red cotton shirt", "summer wear", "10"),
	}
	opts := similarOptions()
	opts.TopN = 2

	res, err := RunSimilar(context.Background(), &fakeProvider{products: products}, opts)
	if err != nil {
		t.Fatalf("RunSimilar() error = %v", err)
	}

	if got := recommend.Indices(res.Items); !slices.Equal(got, []int{2, 1}) {
		t.Fatalf("indices = %v, want [2 1]", got)
	}
	if math.Abs(res.Items[0].Score-1) > 1e-9 {
		t.Errorf("duplicate score = %v, want 1", res.Items[0].Score)
	}
	if res.Items[1].Score != 0 {
		t.Errorf("disjoint score = %v, want 0", res.Items[1].Score)
	}
	if len(res.Products) != 3 || res.Query != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRunSimilar_ExcludesQuery(t *testing.T) {
	t.Parallel()

	opts := similarOptions()
	opts.QueryIndex = 4
	opts.TopN = 10

	res, err := RunSimilar(context.Background(), &fakeProvider{products: testCatalog()}, opts)
	if err != nil {
		t.Fatalf("RunSimilar() error = %v", err)
	}
	if len(res.Items) != 5 {
		t.Errorf("got %d items, want 5 (all but the query)", len(res.Items))
	}
	for _, it := range res.Items {
		if it.Index == 4 {
			t.Error("query row returned as its own neighbour")
		}
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Score > res.Items[i-1].Score {
			t.Errorf("items not sorted by score: %+v", res.Items)
		}
	}
}

func TestRunSimilar_Errors(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("disk on fire")

	tests := []struct {
		name    string
		src     *fakeProvider
		mutate  func(*SimilarOptions)
		wantErr error
		prefix  string
	}{
		{
			name:    "query out of range",
			src:     &fakeProvider{products: testCatalog()},
			mutate:  func(o *SimilarOptions) { o.QueryIndex = 6 },
			wantErr: recommend.ErrIndexOutOfRange,
			prefix:  "load: ",
		},
		{
			name:    "provider failure",
			src:     &fakeProvider{err: loadErr},
			mutate:  func(*SimilarOptions) {},
			wantErr: loadErr,
			prefix:  "load: ",
		},
		{
			name: "only stop words",
			src: &fakeProvider{products: []recommend.Product{
				product("the and", "of a", "1"),
				product("is it", "to be", "2"),
			}},
			mutate:  func(*SimilarOptions) {},
			wantErr: textvec.ErrEmptyVocabulary,
			prefix:  "vectorize: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := similarOptions()
			tt.mutate(&opts)

			_, err := RunSimilar(context.Background(), tt.src, opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunSimilar() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("error %q should start with %q", err, tt.prefix)
			}
		})
	}
}

func TestRunSimilar_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunSimilar(ctx, &fakeProvider{products: testCatalog()}, similarOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunSimilar() error = %v, want context.Canceled", err)
	}
}

func TestRunHybrid_Synthetic(t *testing.T) {
	t.Parallel()

	opts := hybridOptions()
	res, err := RunHybrid(context.Background(), &fakeProvider{products: testCatalog()}, opts)
	if err != nil {
		t.Fatalf("RunHybrid() error = %v", err)
	}

	if res.Source != SourceSynthetic {
		t.Errorf("source = %q, want %q", res.Source, SourceSynthetic)
	}
	if res.Users != opts.Users {
		t.Errorf("users = %d, want %d", res.Users, opts.Users)
	}
	want := algorithms.GenerateInteractions(opts.Users, 6, opts.Density, opts.Seed).Count()
	if len(res.Interactions) != want {
		t.Errorf("interactions = %d, want %d", len(res.Interactions), want)
	}
	if len(res.Scores) != 6 {
		t.Errorf("scores = %d, want one per product", len(res.Scores))
	}
	if len(res.Items) != opts.TopN {
		t.Errorf("items = %d, want %d", len(res.Items), opts.TopN)
	}
	if res.Items[0].Score != slices.Max(res.Scores) {
		t.Errorf("top item score %v is not the max score %v", res.Items[0].Score, slices.Max(res.Scores))
	}
}

func TestRunHybrid_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() []float64 {
		res, err := RunHybrid(context.Background(), &fakeProvider{products: testCatalog()}, hybridOptions())
		if err != nil {
			t.Fatalf("RunHybrid() error = %v", err)
		}
		return res.Scores
	}

	if a, b := run(), run(); !slices.Equal(a, b) {
		t.Errorf("scores differ between identical runs:\n%v\n%v", a, b)
	}
}

func TestRunHybrid_Events(t *testing.T) {
	t.Parallel()

	src := &fakeProvider{
		products: testCatalog(),
		interactions: []recommend.Interaction{
			{User: 0, Item: 0, Weight: 5},
			{User: 0, Item: 4, Weight: 1},
			{User: 1, Item: 1, Weight: 3},
			{User: 1, Item: 5, Weight: 1},
		},
		users: 2,
	}
	opts := hybridOptions()
	opts.UserID = 1

	res, err := RunHybrid(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("RunHybrid() error = %v", err)
	}
	if res.Source != SourceEvents || res.Users != 2 || len(res.Interactions) != 4 {
		t.Errorf("source/users/interactions = %s/%d/%d", res.Source, res.Users, len(res.Interactions))
	}
	if res.User != 1 {
		t.Errorf("user = %d, want 1", res.User)
	}
}

func TestRunHybrid_EventsWithoutMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		events   bool
		wantWarn bool
	}{
		{name: "event log configured", events: true, wantWarn: true},
		{name: "no event log", events: false, wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			ctx := logging.ContextWithLogger(context.Background(), logging.NewTestLogger(&buf))
			opts := hybridOptions()
			opts.Events = tt.events

			res, err := RunHybrid(ctx, &fakeProvider{products: testCatalog()}, opts)
			if err != nil {
				t.Fatalf("RunHybrid() error = %v", err)
			}
			if res.Source != SourceSynthetic {
				t.Errorf("source = %q, want %q", res.Source, SourceSynthetic)
			}

			warned := strings.Contains(buf.String(), `"level":"warn"`) &&
				strings.Contains(buf.String(), "No events matched the catalog")
			if warned != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v:\n%s", warned, tt.wantWarn, buf.String())
			}
		})
	}
}

func TestRunHybrid_ZeroSeedMatchesDefault(t *testing.T) {
	t.Parallel()

	run := func(seed int64) *HybridResult {
		opts := hybridOptions()
		opts.Seed = seed
		opts.Model.Seed = seed
		res, err := RunHybrid(context.Background(), &fakeProvider{products: testCatalog()}, opts)
		if err != nil {
			t.Fatalf("RunHybrid(seed %d) error = %v", seed, err)
		}
		return res
	}

	zero, def := run(0), run(algorithms.DefaultHybridConfig().Seed)
	if !slices.Equal(zero.Interactions, def.Interactions) {
		t.Error("seed 0 generated different synthetic interactions than the default seed")
	}
	if !slices.Equal(zero.Scores, def.Scores) {
		t.Errorf("seed 0 trained a different model than the default seed:\n%v\n%v", zero.Scores, def.Scores)
	}
}

func TestRunItemCF(t *testing.T) {
	t.Parallel()

	// Users 0 and 1 both bought shirt 0 and user 1 also bought jeans 1, so
	// jeans are the only product similar to user 0's history.
	src := &fakeProvider{
		products: testCatalog(),
		interactions: []recommend.Interaction{
			{User: 0, Item: 0, Weight: 5},
			{User: 1, Item: 0, Weight: 5},
			{User: 1, Item: 1, Weight: 3},
			{User: 2, Item: 3, Weight: 1},
		},
		users: 3,
	}

	res, err := RunItemCF(context.Background(), src, ItemCFOptions{
		Model:  algorithms.DefaultItemKNNConfig(),
		UserID: 0,
		TopN:   5,
	})
	if err != nil {
		t.Fatalf("RunItemCF() error = %v", err)
	}
	if res.Users != 3 || len(res.Interactions) != 4 || len(res.Products) != 6 {
		t.Errorf("users/interactions/products = %d/%d/%d", res.Users, len(res.Interactions), len(res.Products))
	}
	if got := recommend.Indices(res.Items); !slices.Equal(got, []int{1}) {
		t.Fatalf("indices = %v, want [1]", got)
	}
	if math.Abs(res.Items[0].Score-5) > 1e-9 {
		t.Errorf("score = %v, want 5 (the single neighbour's weight)", res.Items[0].Score)
	}
}

func TestRunItemCF_Errors(t *testing.T) {
	t.Parallel()

	withEvents := func() *fakeProvider {
		return &fakeProvider{
			products:     testCatalog(),
			interactions: []recommend.Interaction{{User: 0, Item: 0, Weight: 1}},
			users:        1,
		}
	}

	tests := []struct {
		name    string
		src     *fakeProvider
		user    int
		wantErr error
		prefix  string
	}{
		{
			name:    "no matched events",
			src:     &fakeProvider{products: testCatalog()},
			wantErr: ErrNoInteractions,
			prefix:  "interactions: ",
		},
		{
			name:    "unknown user",
			src:     withEvents(),
			user:    1,
			wantErr: recommend.ErrUnknownUser,
			prefix:  "rank: ",
		},
		{
			name: "interaction outside catalog",
			src: &fakeProvider{
				products:     testCatalog(),
				interactions: []recommend.Interaction{{User: 0, Item: 6, Weight: 1}},
				users:        1,
			},
			wantErr: recommend.ErrDimensionMismatch,
			prefix:  "similarity: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := RunItemCF(context.Background(), tt.src, ItemCFOptions{
				Model:  algorithms.DefaultItemKNNConfig(),
				UserID: tt.user,
				TopN:   5,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunItemCF() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("error %q should start with %q", err, tt.prefix)
			}
		})
	}
}

func TestRunHybrid_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		opts := hybridOptions()
		opts.UserID = opts.Users

		_, err := RunHybrid(context.Background(), &fakeProvider{products: testCatalog()}, opts)
		if !errors.Is(err, recommend.ErrUnknownUser) {
			t.Errorf("RunHybrid() error = %v, want ErrUnknownUser", err)
		}
	})

	t.Run("interaction outside catalog", func(t *testing.T) {
		t.Parallel()
		src := &fakeProvider{
			products:     testCatalog(),
			interactions: []recommend.Interaction{{User: 0, Item: 99, Weight: 1}},
			users:        1,
		}

		_, err := RunHybrid(context.Background(), src, hybridOptions())
		if !errors.Is(err, recommend.ErrDimensionMismatch) {
			t.Errorf("RunHybrid() error = %v, want ErrDimensionMismatch", err)
		}
		if err != nil && !strings.HasPrefix(err.Error(), "train: ") {
			t.Errorf("error %q should name the train stage", err)
		}
	})
}

func TestRun_LogsAndPropagates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), logging.NewTestLogger(&buf))
	ctx = logging.ContextWithRunID(ctx, "run00001")

	wantErr := errors.New("stage exploded")
	var seenRunID string
	err := Run(ctx, "test_pipeline", func(ctx context.Context) error {
		seenRunID = logging.RunIDFromContext(ctx)
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	if seenRunID != "run00001" {
		t.Errorf("run ID inside pipeline = %q", seenRunID)
	}

	out := buf.String()
	for _, want := range []string{`"run_id":"run00001"`, `"pipeline":"test_pipeline"`, "Pipeline failed", "stage exploded"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestRun_GeneratesRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), logging.NewTestLogger(&buf))

	var id string
	if err := Run(ctx, "test_pipeline", func(ctx context.Context) error {
		id = logging.RunIDFromContext(ctx)
		return nil
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(id) != 8 {
		t.Errorf("generated run ID = %q", id)
	}
	if !strings.Contains(buf.String(), "Pipeline finished") {
		t.Errorf("missing finish log:\n%s", buf.String())
	}
}

func TestRequiredColumns(t *testing.T) {
	t.Parallel()

	got := RequiredColumns(recommend.ContentFields)
	want := append(slices.Clone(recommend.ContentFields), recommend.ColumnPrice)
	if !slices.Equal(got, want) {
		t.Errorf("RequiredColumns() = %v, want %v", got, want)
	}

	got = RequiredColumns([]string{recommend.ColumnDescription})
	want = []string{recommend.ColumnDescription, recommend.ColumnTitle, recommend.ColumnPrice}
	if !slices.Equal(got, want) {
		t.Errorf("RequiredColumns() = %v, want %v", got, want)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Vectorizer: config.VectorizerConfig{MaxFeatures: 100, StopWords: "none"},
		Similar: config.SimilarConfig{
			Fields:     []string{"Title"},
			QueryIndex: 3,
			TopN:       5,
			Workers:    2,
		},
		Hybrid: config.HybridConfig{
			Fields:       []string{"Title", "Description"},
			Users:        50,
			Density:      0.1,
			Components:   16,
			LearningRate: 0.01,
			Epochs:       3,
			Threads:      8,
			Loss:         "bpr",
			MaxSampled:   5,
			BatchSize:    64,
			ItemIdentity: true,
			Seed:         99,
			UserID:       4,
			TopN:         7,
		},
		ItemCF: config.ItemCFConfig{
			UserID:        2,
			TopN:          4,
			Neighbors:     25,
			MinSimilarity: 0.2,
			Workers:       3,
		},
	}

	s := SimilarOptionsFromConfig(cfg)
	if s.QueryIndex != 3 || s.TopN != 5 || s.Workers != 2 || s.Vectorizer.MaxFeatures != 100 || s.Vectorizer.StopWords != "none" {
		t.Errorf("SimilarOptionsFromConfig() = %+v", s)
	}
	cfg.Similar.Fields[0] = "mutated"
	if s.Fields[0] != "Title" {
		t.Error("similar fields alias the config slice")
	}

	h := HybridOptionsFromConfig(cfg)
	if h.Users != 50 || h.Density != 0.1 || h.Seed != 99 || h.UserID != 4 || h.TopN != 7 {
		t.Errorf("HybridOptionsFromConfig() = %+v", h)
	}
	m := h.Model
	if m.Components != 16 || m.LearningRate != 0.01 || m.Epochs != 3 || m.NumWorkers != 8 ||
		m.Loss != "bpr" || m.MaxSampled != 5 || m.BatchSize != 64 || !m.ItemIdentity || m.Seed != 99 {
		t.Errorf("model config = %+v", m)
	}
	if h.Events {
		t.Error("Events set without an events path")
	}
	cfg.Events.Path = "events.csv"
	if !HybridOptionsFromConfig(cfg).Events {
		t.Error("Events not set for a configured events path")
	}

	ic := ItemCFOptionsFromConfig(cfg)
	if ic.UserID != 2 || ic.TopN != 4 || ic.Model.K != 25 || ic.Model.MinSimilarity != 0.2 || ic.Model.NumWorkers != 3 {
		t.Errorf("ItemCFOptionsFromConfig() = %+v", ic)
	}
}
