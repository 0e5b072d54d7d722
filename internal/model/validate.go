package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ufs is the fixed set of 26 state codes plus the federal district.
var ufs = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

const (
	minDescriptionLen = 10
	maxDescriptionLen = 5000
	minPurchaseYear   = 2000
	cnpjDigits        = 14
)

// FieldError is one invariant violation on one field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every invariant a raw record violated. All fields
// are checked so the caller sees a complete diagnosis in one pass.
type ValidationError struct {
	Source   Source       `json:"source"`
	SourceID string       `json:"source_id"`
	Fields   []FieldError `json:"fields"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return fmt.Sprintf("model: invalid record %s/%s: %s", e.Source, e.SourceID, strings.Join(parts, "; "))
}

// Builder constructs CanonicalRecords through the strict two-phase
// construct-then-derive sequence: raw fields are validated first, and
// derived fields are only ever computed from a fully valid record.
type Builder struct {
	cfg DeriveConfig
	now func() time.Time
}

// NewBuilder creates a Builder with the given derivation tables.
func NewBuilder(cfg DeriveConfig) *Builder {
	return &Builder{cfg: cfg, now: time.Now}
}

// WithClock overrides the builder's clock. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates raw fields and, on success, returns a new CanonicalRecord
// with derived fields computed. On failure it returns a *ValidationError
// listing every violated invariant.
func (b *Builder) Build(raw RawRecord) (*CanonicalRecord, error) {
	now := b.now()
	var fields []FieldError
	fail := func(field, reason string) {
		fields = append(fields, FieldError{Field: field, Reason: reason})
	}

	if _, err := ParseSource(string(raw.Source)); err != nil {
		fail("source", fmt.Sprintf("unknown source %q", raw.Source))
	}
	if strings.TrimSpace(raw.SourceID) == "" {
		fail("source_id", "required")
	}

	desc := strings.TrimSpace(raw.Description)
	switch {
	case desc == "":
		fail("description", "required")
	case len(desc) < minDescriptionLen:
		fail("description", fmt.Sprintf("shorter than %d characters", minDescriptionLen))
	case len(desc) > maxDescriptionLen:
		fail("description", fmt.Sprintf("longer than %d characters", maxDescriptionLen))
	}

	if strings.TrimSpace(raw.Buyer) == "" {
		fail("buyer", "required")
	}

	uf := strings.ToUpper(strings.TrimSpace(raw.UF))
	if _, ok := ufs[uf]; !ok {
		fail("uf", fmt.Sprintf("not a valid region code: %q", raw.UF))
	}

	if raw.EstimatedValue < 0 {
		fail("estimated_value", "negative")
	}

	switch {
	case raw.PublishedAt.IsZero():
		fail("published_at", "required")
	case raw.PublishedAt.After(now):
		fail("published_at", "in the future")
	}

	cnpj := digitsOnly(raw.BuyerCNPJ)
	if raw.BuyerCNPJ != "" && len(cnpj) != cnpjDigits {
		fail("buyer_cnpj", fmt.Sprintf("expected %d digits, got %d", cnpjDigits, len(cnpj)))
	}

	if raw.PurchaseYear != 0 {
		if raw.PurchaseYear < minPurchaseYear || raw.PurchaseYear > now.Year()+1 {
			fail("purchase_year", fmt.Sprintf("implausible year %d", raw.PurchaseYear))
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Source: raw.Source, SourceID: raw.SourceID, Fields: fields}
	}

	rec := &CanonicalRecord{
		ID:       uuid.NewString(),
		SourceID: raw.SourceID,
		Source:   raw.Source,

		Description:    desc,
		Buyer:          strings.TrimSpace(raw.Buyer),
		UF:             uf,
		EstimatedValue: raw.EstimatedValue,
		PublishedAt:    raw.PublishedAt,

		BuyerCNPJ:        cnpj,
		GovernmentTier:   raw.GovernmentTier,
		Municipality:     strings.TrimSpace(raw.Municipality),
		MunicipalityCode: raw.MunicipalityCode,
		ModalityCode:     raw.ModalityCode,
		ModalityName:     raw.ModalityName,
		RawStatus:        raw.RawStatus,
		OpensAt:          raw.OpensAt,
		ClosesAt:         raw.ClosesAt,
		HomologatedValue: raw.HomologatedValue,
		NoticeURL:        raw.NoticeURL,
		PortalURL:        raw.PortalURL,
		ProcessNumber:    raw.ProcessNumber,
		PurchaseNumber:   raw.PurchaseNumber,
		PurchaseYear:     raw.PurchaseYear,

		Payload:        raw.Payload,
		FetchedAt:      raw.FetchedAt,
		ContentHash:    contentHash(raw),
		SourcePriority: raw.Priority,
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = now
	}

	// Phase two: derive. Only reached with a fully valid record.
	rec.NormalizedDescription = FoldText(rec.Description)
	rec.ValueBracket = bracketFor(rec.EstimatedValue, b.cfg.BracketBounds)
	rec.NormalizedStatus = b.cfg.StatusSynonyms[FoldText(rec.RawStatus)]
	rec.DaysToOpen = daysToOpen(rec.OpensAt, now)

	return rec, nil
}

// digitsOnly strips every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
