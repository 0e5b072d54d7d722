package consolidate

import (
	"math"
	"strings"
	"time"

	"github.com/agext/levenshtein"

	"github.com/tendergov/tender-cli/internal/model"
)

// Scorer computes the weighted similarity score for a pair of records.
// Score is symmetric: Score(a, b) == Score(b, a).
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score aggregates the five weighted factors into a value in [0, 1].
func (s *Scorer) Score(a, b *model.CanonicalRecord) float64 {
	w := s.cfg.Weights
	return w.Description*descriptionSimilarity(a, b) +
		w.Buyer*buyerSimilarity(a, b) +
		w.Value*s.valueProximity(a.EstimatedValue, b.EstimatedValue) +
		w.Date*s.dateProximity(a.PublishedAt, b.PublishedAt) +
		w.Location*locationScore(a, b)
}

// descriptionSimilarity is the token-set Jaccard index over the normalized
// descriptions. An empty token set on either side scores 0.
func descriptionSimilarity(a, b *model.CanonicalRecord) float64 {
	ta := tokenSet(a.NormalizedDescription)
	tb := tokenSet(b.NormalizedDescription)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// buyerSimilarity is the normalized edit-distance ratio between the folded
// contracting-body names.
func buyerSimilarity(a, b *model.CanonicalRecord) float64 {
	return levenshtein.Similarity(model.FoldText(a.Buyer), model.FoldText(b.Buyer), nil)
}

// valueProximity maps the relative difference between estimated values onto
// [0, 1]: 1.0 at or under the tolerance, 0.0 at or over the cutoff, linear
// between. Two zero values are a perfect match; one zero against a nonzero
// value is no match.
func (s *Scorer) valueProximity(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if a == 0 || b == 0 {
		return 0
	}
	rel := math.Abs(a-b) / math.Min(a, b)
	switch {
	case rel <= s.cfg.ValueTolerance:
		return 1
	case rel >= s.cfg.ValueCutoff:
		return 0
	default:
		return (s.cfg.ValueCutoff - rel) / (s.cfg.ValueCutoff - s.cfg.ValueTolerance)
	}
}

// dateProximity maps the gap between publication dates onto [0, 1] with the
// same linear shape as valueProximity. A missing date on either side yields
// the neutral 0.5.
func (s *Scorer) dateProximity(a, b time.Time) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.5
	}
	days := math.Abs(a.Sub(b).Hours()) / 24
	switch {
	case days <= s.cfg.DateToleranceDays:
		return 1
	case days >= s.cfg.DateCutoffDays:
		return 0
	default:
		return (s.cfg.DateCutoffDays - days) / (s.cfg.DateCutoffDays - s.cfg.DateToleranceDays)
	}
}

// locationScore: 1.0 when region and municipality both match, 0.5 when only
// the region matches, 0.0 otherwise.
func locationScore(a, b *model.CanonicalRecord) float64 {
	if a.UF != b.UF {
		return 0
	}
	ma := model.FoldText(a.Municipality)
	mb := model.FoldText(b.Municipality)
	if ma != "" && ma == mb {
		return 1
	}
	return 0.5
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
