package consolidate

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tendergov/tender-cli/internal/model"
)

// Cluster is a group of records believed to describe the same procurement.
type Cluster struct {
	Records []*model.CanonicalRecord
	Method  model.MatchMethod
	// Score is the grouping confidence: 1.0 for exact clusters, the lowest
	// qualifying pair score for fuzzy clusters.
	Score float64
	// Review marks fuzzy clusters whose score fell in the review band.
	Review bool
}

// Grouper clusters records using exact natural-key/URL signals first, then
// weighted fuzzy scoring among the remaining singletons.
type Grouper struct {
	cfg    Config
	scorer *Scorer
}

// NewGrouper creates a Grouper.
func NewGrouper(cfg Config) *Grouper {
	return &Grouper{cfg: cfg, scorer: NewScorer(cfg)}
}

// Group clusters the records. The returned partial flag is true when the
// context expired before every fuzzy pair was scored; unscored records come
// back as singletons rather than being dropped.
func (g *Grouper) Group(ctx context.Context, records []*model.CanonicalRecord) ([]Cluster, bool) {
	if len(records) == 0 {
		return nil, false
	}

	exact, singletons := g.exactPhase(records)
	fuzzy, partial := g.fuzzyPhase(ctx, singletons)

	zap.L().Debug("grouper: phases complete",
		zap.Int("records", len(records)),
		zap.Int("exact_clusters", len(exact)),
		zap.Int("post_exact_singletons", len(singletons)),
		zap.Int("fuzzy_clusters", len(fuzzy)),
		zap.Bool("partial", partial),
	)

	return append(exact, fuzzy...), partial
}

// exactPhase partitions by natural key and independently by normalized URL,
// then unions the two partitions: records sharing either signal land in the
// same cluster. Multi-member clusters are returned; singletons go on to the
// fuzzy phase.
func (g *Grouper) exactPhase(records []*model.CanonicalRecord) ([]Cluster, []*model.CanonicalRecord) {
	uf := newUnionFind(len(records))

	byKey := make(map[string]int, len(records))
	byURL := make(map[string]int)
	for i, r := range records {
		key := NaturalKey(r)
		if first, ok := byKey[key]; ok {
			uf.union(first, i)
		} else {
			byKey[key] = i
		}

		if u := NormalizeURL(r.NoticeURL); u != "" {
			if first, ok := byURL[u]; ok {
				uf.union(first, i)
			} else {
				byURL[u] = i
			}
		}
	}

	var clusters []Cluster
	var singletons []*model.CanonicalRecord
	for _, members := range uf.groups() {
		if len(members) == 1 {
			singletons = append(singletons, records[members[0]])
			continue
		}
		c := Cluster{Method: model.MatchExact, Score: 1.0}
		for _, idx := range members {
			c.Records = append(c.Records, records[idx])
		}
		clusters = append(clusters, c)
	}
	return clusters, singletons
}

// fuzzyPhase scores every remaining pair and greedily groups records in
// index order. Scoring is the dominant cost and runs on a bounded worker
// pool: each worker owns one row of the pair matrix, so there is no shared
// mutable state and the outcome is independent of worker scheduling. The
// greedy pass afterwards is sequential and deterministic; a record placed
// into a group is excluded from further comparison.
func (g *Grouper) fuzzyPhase(ctx context.Context, records []*model.CanonicalRecord) ([]Cluster, bool) {
	n := len(records)
	if n == 0 {
		return nil, false
	}

	scores := make([][]float64, n)
	scored := make([]bool, n)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.cfg.FuzzyWorkers)
	for i := 0; i < n-1; i++ {
		i := i
		grp.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			row := make([]float64, n)
			for j := i + 1; j < n; j++ {
				row[j] = g.scorer.Score(records[i], records[j])
			}
			scores[i] = row
			scored[i] = true
			return nil
		})
	}
	_ = grp.Wait()

	partial := false
	assigned := make([]bool, n)
	var clusters []Cluster

	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		if i < n-1 && !scored[i] {
			// Deadline hit before this row was scored: pass the record
			// through unmerged.
			partial = true
			clusters = append(clusters, singleton(records[i]))
			assigned[i] = true
			continue
		}

		c := Cluster{
			Records: []*model.CanonicalRecord{records[i]},
			Method:  model.MatchFuzzy,
			Score:   1.0,
		}
		for j := i + 1; j < n; j++ {
			if assigned[j] {
				continue
			}
			s := scores[i][j]
			if s < g.cfg.ReviewThreshold {
				continue
			}
			c.Records = append(c.Records, records[j])
			assigned[j] = true
			if s < c.Score {
				c.Score = s
			}
			if s < g.cfg.AutoThreshold {
				c.Review = true
			}
		}
		assigned[i] = true

		if len(c.Records) == 1 {
			clusters = append(clusters, singleton(records[i]))
			continue
		}
		clusters = append(clusters, c)
	}

	return clusters, partial
}

func singleton(r *model.CanonicalRecord) Cluster {
	return Cluster{Records: []*model.CanonicalRecord{r}}
}
