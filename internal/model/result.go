package model

import (
	"fmt"
	"strings"
	"time"
)

// ValidationFailure is one excluded input record in a ConsolidationResult.
type ValidationFailure struct {
	Source   Source `json:"source"`
	SourceID string `json:"source_id"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

// SourceCounts is the per-source input/output breakdown.
type SourceCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ReviewGroup flags a fuzzy-matched group whose confidence fell in the
// review band and needs human audit.
type ReviewGroup struct {
	RecordID   string   `json:"record_id"`
	Confidence float64  `json:"confidence"`
	MemberIDs  []string `json:"member_ids"`
}

// ConsolidationResult is the immutable summary of one pipeline run.
type ConsolidationResult struct {
	Records []*CanonicalRecord `json:"records"`

	InputCount   int     `json:"input_count"`
	OutputCount  int     `json:"output_count"`
	MergedGroups int     `json:"merged_groups"`
	DedupRate    float64 `json:"dedup_rate"`

	BySource           map[Source]SourceCounts `json:"by_source"`
	ValidationFailures []ValidationFailure     `json:"validation_failures,omitempty"`
	ReviewGroups       []ReviewGroup           `json:"review_groups,omitempty"`

	// Partial is set when the fuzzy phase hit the deadline and remaining
	// singletons were passed through unmerged.
	Partial bool          `json:"partial"`
	Elapsed time.Duration `json:"elapsed"`
}

// Summary renders a human-readable one-paragraph summary for operational
// logging.
func (r *ConsolidationResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "consolidated %d records into %d (%.1f%% dedup, %d merged groups) in %s",
		r.InputCount, r.OutputCount, r.DedupRate*100, r.MergedGroups, r.Elapsed.Round(time.Millisecond))
	if len(r.ValidationFailures) > 0 {
		fmt.Fprintf(&b, "; %d invalid inputs excluded", len(r.ValidationFailures))
	}
	if len(r.ReviewGroups) > 0 {
		fmt.Fprintf(&b, "; %d groups flagged for review", len(r.ReviewGroups))
	}
	if r.Partial {
		b.WriteString("; fuzzy phase hit deadline, remainder passed through unmerged")
	}
	for _, src := range KnownSources {
		if c, ok := r.BySource[src]; ok {
			fmt.Fprintf(&b, "\n  %-13s in=%-5d out=%d", src, c.Input, c.Output)
		}
	}
	return b.String()
}
