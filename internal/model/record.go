// Package model defines the canonical procurement-opportunity record, its
// validation and derivation rules, and the consolidation result types.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Source identifies one of the known procurement data portals.
type Source string

const (
	SourcePNCP        Source = "pncp"
	SourceComprasnet  Source = "comprasnet"
	SourceLicitacoesE Source = "licitacoes-e"
	SourceBLL         Source = "bll"
	SourceBNC         Source = "bnc"
)

// KnownSources lists every source the engine accepts, in priority order.
var KnownSources = []Source{
	SourcePNCP,
	SourceComprasnet,
	SourceLicitacoesE,
	SourceBLL,
	SourceBNC,
}

// ParseSource validates a source tag.
func ParseSource(s string) (Source, error) {
	for _, known := range KnownSources {
		if Source(s) == known {
			return known, nil
		}
	}
	return "", eris.Errorf("model: unknown source %q", s)
}

// MatchMethod records how a consolidated record's members were matched.
type MatchMethod string

const (
	MatchExact  MatchMethod = "exact"
	MatchFuzzy  MatchMethod = "fuzzy"
	MatchManual MatchMethod = "manual"
)

// ValueBracket is a coarse estimated-value band used for faceting and
// match blocking.
type ValueBracket string

const (
	BracketUnder50K  ValueBracket = "under_50k"
	Bracket50KTo500K ValueBracket = "50k_500k"
	Bracket500KTo2M  ValueBracket = "500k_2m"
	Bracket2MTo5M    ValueBracket = "2m_5m"
	BracketOver5M    ValueBracket = "over_5m"
)

// CanonicalRecord is one validated, normalized procurement opportunity.
// Records are immutable once built: the pipeline never mutates a record in
// place, and merging produces a new record that references its inputs via
// ConsolidatedFrom.
type CanonicalRecord struct {
	// Identification.
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	Source   Source `json:"source"`

	// Core required attributes.
	Description    string    `json:"description"`
	Buyer          string    `json:"buyer"`
	UF             string    `json:"uf"`
	EstimatedValue float64   `json:"estimated_value"`
	PublishedAt    time.Time `json:"published_at"`

	// Optional standard attributes.
	BuyerCNPJ        string     `json:"buyer_cnpj,omitempty"`
	GovernmentTier   string     `json:"government_tier,omitempty"`
	Municipality     string     `json:"municipality,omitempty"`
	MunicipalityCode string     `json:"municipality_code,omitempty"`
	ModalityCode     string     `json:"modality_code,omitempty"`
	ModalityName     string     `json:"modality_name,omitempty"`
	RawStatus        string     `json:"raw_status,omitempty"`
	OpensAt          *time.Time `json:"opens_at,omitempty"`
	ClosesAt         *time.Time `json:"closes_at,omitempty"`
	HomologatedValue *float64   `json:"homologated_value,omitempty"`
	NoticeURL        string     `json:"notice_url,omitempty"`
	PortalURL        string     `json:"portal_url,omitempty"`
	ProcessNumber    string     `json:"process_number,omitempty"`
	PurchaseNumber   string     `json:"purchase_number,omitempty"`
	PurchaseYear     int        `json:"purchase_year,omitempty"`

	// Source provenance. Payload holds the adapter's view of the original
	// source payload (strings, numbers, bools, nested maps and lists only)
	// for debugging; the engine never reads it.
	Payload        map[string]any `json:"payload,omitempty"`
	FetchedAt      time.Time      `json:"fetched_at"`
	ContentHash    string         `json:"content_hash"`
	SourcePriority int            `json:"source_priority"`

	// Consolidation metadata, populated only on merged records.
	Consolidated     bool        `json:"consolidated"`
	ConsolidatedFrom []string    `json:"consolidated_from,omitempty"`
	Method           MatchMethod `json:"match_method,omitempty"`
	Confidence       float64     `json:"match_confidence,omitempty"`
	PrimarySource    Source      `json:"primary_source,omitempty"`

	// Derived attributes, computed once after validation.
	NormalizedDescription string       `json:"normalized_description"`
	ValueBracket          ValueBracket `json:"value_bracket"`
	NormalizedStatus      string       `json:"normalized_status,omitempty"`
	DaysToOpen            *int         `json:"days_to_open,omitempty"`
}

// RawRecord is the adapter-produced input to record construction. It is the
// shape named by the source-adapter contract: adapters fill it from their
// native payloads and the builder validates it.
type RawRecord struct {
	Source   Source
	SourceID string

	Description    string
	Buyer          string
	UF             string
	EstimatedValue float64
	PublishedAt    time.Time

	BuyerCNPJ        string
	GovernmentTier   string
	Municipality     string
	MunicipalityCode string
	ModalityCode     string
	ModalityName     string
	RawStatus        string
	OpensAt          *time.Time
	ClosesAt         *time.Time
	HomologatedValue *float64
	NoticeURL        string
	PortalURL        string
	ProcessNumber    string
	PurchaseNumber   string
	PurchaseYear     int

	Payload   map[string]any
	FetchedAt time.Time
	Priority  int
}

// MatchCandidate is an ephemeral scored pair produced while grouping. It is
// diagnostic output only and is not persisted beyond a pipeline run.
type MatchCandidate struct {
	RecordA string      `json:"record_a"`
	RecordB string      `json:"record_b"`
	Score   float64     `json:"score"`
	Method  MatchMethod `json:"method"`
}

// Clone returns a deep copy of the record. Merging starts from a clone of
// the primary member so the inputs stay untouched.
func (r *CanonicalRecord) Clone() *CanonicalRecord {
	out := *r
	if r.OpensAt != nil {
		t := *r.OpensAt
		out.OpensAt = &t
	}
	if r.ClosesAt != nil {
		t := *r.ClosesAt
		out.ClosesAt = &t
	}
	if r.HomologatedValue != nil {
		v := *r.HomologatedValue
		out.HomologatedValue = &v
	}
	if r.DaysToOpen != nil {
		d := *r.DaysToOpen
		out.DaysToOpen = &d
	}
	if r.ConsolidatedFrom != nil {
		out.ConsolidatedFrom = append([]string(nil), r.ConsolidatedFrom...)
	}
	if r.Payload != nil {
		out.Payload = clonePayload(r.Payload)
	}
	return &out
}

func clonePayload(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = clonePayload(vv)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
