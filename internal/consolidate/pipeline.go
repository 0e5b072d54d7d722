package consolidate

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tendergov/tender-cli/internal/model"
)

// Pipeline orchestrates one consolidation batch: construct and validate,
// group, merge, summarize. It holds no mutable state between runs.
type Pipeline struct {
	cfg     Config
	builder *model.Builder
	grouper *Grouper
	merger  *Merger
}

// NewPipeline creates a Pipeline. The configuration carries every lookup
// table and threshold the run reads.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: config")
	}
	return &Pipeline{
		cfg:     cfg,
		builder: model.NewBuilder(cfg.Derive),
		grouper: NewGrouper(cfg),
		merger:  NewMerger(cfg.Priorities),
	}, nil
}

// Run consolidates one batch. Invalid inputs are reported in the result and
// excluded from matching; a deadline of zero means no time budget. The run
// always returns a result, never aborting the batch wholesale: if the fuzzy
// phase exceeds the deadline, remaining singletons pass through unmerged
// and the result is flagged partial.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawRecord, deadline time.Duration) *model.ConsolidationResult {
	start := time.Now()
	log := zap.L().With(zap.Int("input", len(raws)))
	log.Info("pipeline: starting consolidation")

	result := &model.ConsolidationResult{
		InputCount: len(raws),
		BySource:   make(map[model.Source]model.SourceCounts),
	}

	// Phase 1: validate and construct.
	valid := make([]*model.CanonicalRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := p.builder.Build(raw)
		if err != nil {
			var verr *model.ValidationError
			if eris.As(err, &verr) {
				for _, f := range verr.Fields {
					result.ValidationFailures = append(result.ValidationFailures, model.ValidationFailure{
						Source:   verr.Source,
						SourceID: verr.SourceID,
						Field:    f.Field,
						Reason:   f.Reason,
					})
				}
			} else {
				result.ValidationFailures = append(result.ValidationFailures, model.ValidationFailure{
					Source:   raw.Source,
					SourceID: raw.SourceID,
					Field:    "record",
					Reason:   err.Error(),
				})
			}
			continue
		}
		valid = append(valid, rec)

		c := result.BySource[rec.Source]
		c.Input++
		result.BySource[rec.Source] = c
	}

	// Grouping is greedy in record order; sort by source identity first so
	// permuting the input batch cannot change the output set.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Source != valid[j].Source {
			return valid[i].Source < valid[j].Source
		}
		return valid[i].SourceID < valid[j].SourceID
	})

	// Phase 2: group, under the time budget.
	gctx := ctx
	if deadline > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	clusters, partial := p.grouper.Group(gctx, valid)
	result.Partial = partial

	// Phase 3: merge every cluster.
	for _, cluster := range clusters {
		merged := p.merger.Merge(cluster)
		result.Records = append(result.Records, merged)

		if len(cluster.Records) > 1 {
			result.MergedGroups++
		}
		if cluster.Review {
			result.ReviewGroups = append(result.ReviewGroups, model.ReviewGroup{
				RecordID:   merged.ID,
				Confidence: cluster.Score,
				MemberIDs:  append([]string(nil), merged.ConsolidatedFrom...),
			})
		}

		c := result.BySource[merged.Source]
		c.Output++
		result.BySource[merged.Source] = c
	}

	result.OutputCount = len(result.Records)
	if result.InputCount > 0 {
		result.DedupRate = 1 - float64(result.OutputCount)/float64(result.InputCount)
	}
	result.Elapsed = time.Since(start)

	log.Info("pipeline: consolidation complete",
		zap.Int("output", result.OutputCount),
		zap.Int("merged_groups", result.MergedGroups),
		zap.Int("invalid", len(result.ValidationFailures)),
		zap.Int("review_groups", len(result.ReviewGroups)),
		zap.Bool("partial", result.Partial),
		zap.Duration("elapsed", result.Elapsed),
	)

	return result
}
