package consolidate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tendergov/tender-cli/internal/model"
)

// Merger collapses a cluster into one record using the source-priority
// policy: the highest-priority member wins every field it already has, and
// lower-priority members may only fill a fixed allow-list of optional
// fields the primary left empty.
type Merger struct {
	priorities map[model.Source]int
}

// NewMerger creates a Merger with the given priority table. Priorities are
// always taken from explicit configuration, never inferred.
func NewMerger(priorities map[model.Source]int) *Merger {
	return &Merger{priorities: priorities}
}

// Merge resolves a cluster to a single record. Single-member clusters are
// returned unchanged and not marked consolidated.
func (m *Merger) Merge(cluster Cluster) *model.CanonicalRecord {
	if len(cluster.Records) == 1 {
		return cluster.Records[0]
	}

	members := append([]*model.CanonicalRecord(nil), cluster.Records...)
	sort.SliceStable(members, func(i, j int) bool {
		pi, pj := m.priorityOf(members[i].Source), m.priorityOf(members[j].Source)
		if pi != pj {
			return pi < pj
		}
		if members[i].Source != members[j].Source {
			return members[i].Source < members[j].Source
		}
		return members[i].SourceID < members[j].SourceID
	})

	primary := members[0]
	merged := primary.Clone()
	merged.ID = primary.ID

	for _, member := range members[1:] {
		fillOptional(merged, member)
	}

	merged.Consolidated = true
	merged.ConsolidatedFrom = make([]string, len(members))
	for i, member := range members {
		merged.ConsolidatedFrom[i] = member.ID
		if member.FetchedAt.Before(merged.FetchedAt) {
			merged.FetchedAt = member.FetchedAt
		}
	}
	merged.PrimarySource = primary.Source
	merged.Method = cluster.Method
	merged.Confidence = cluster.Score

	zap.L().Debug("merge: cluster collapsed",
		zap.String("primary_source", string(primary.Source)),
		zap.Int("members", len(members)),
		zap.String("method", string(cluster.Method)),
		zap.Float64("confidence", cluster.Score),
	)

	return merged
}

// fillOptional copies allow-listed optional fields from a lower-priority
// member into the merged record, only where the primary's value is absent.
// Core required fields and existing optional values are never overwritten.
func fillOptional(dst, src *model.CanonicalRecord) {
	if dst.BuyerCNPJ == "" {
		dst.BuyerCNPJ = src.BuyerCNPJ
	}
	if dst.GovernmentTier == "" {
		dst.GovernmentTier = src.GovernmentTier
	}
	if dst.Municipality == "" {
		dst.Municipality = src.Municipality
	}
	if dst.MunicipalityCode == "" {
		dst.MunicipalityCode = src.MunicipalityCode
	}
	if dst.ModalityCode == "" {
		dst.ModalityCode = src.ModalityCode
	}
	if dst.ModalityName == "" {
		dst.ModalityName = src.ModalityName
	}
	if dst.RawStatus == "" {
		dst.RawStatus = src.RawStatus
		dst.NormalizedStatus = src.NormalizedStatus
	}
	if dst.OpensAt == nil && src.OpensAt != nil {
		t := *src.OpensAt
		dst.OpensAt = &t
		if src.DaysToOpen != nil {
			d := *src.DaysToOpen
			dst.DaysToOpen = &d
		}
	}
	if dst.ClosesAt == nil && src.ClosesAt != nil {
		t := *src.ClosesAt
		dst.ClosesAt = &t
	}
	if dst.HomologatedValue == nil && src.HomologatedValue != nil {
		v := *src.HomologatedValue
		dst.HomologatedValue = &v
	}
	if dst.NoticeURL == "" {
		dst.NoticeURL = src.NoticeURL
	}
	if dst.PortalURL == "" {
		dst.PortalURL = src.PortalURL
	}
	if dst.ProcessNumber == "" {
		dst.ProcessNumber = src.ProcessNumber
	}
	if dst.PurchaseNumber == "" {
		dst.PurchaseNumber = src.PurchaseNumber
	}
	if dst.PurchaseYear == 0 {
		dst.PurchaseYear = src.PurchaseYear
	}
}

func (m *Merger) priorityOf(s model.Source) int {
	if p, ok := m.priorities[s]; ok {
		return p
	}
	// Unknown sources sort last.
	return len(m.priorities) + 100
}
