package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DeriveConfig carries the lookup tables used when computing derived fields.
// It is passed in explicitly so tests can substitute fixtures.
type DeriveConfig struct {
	// BracketBounds are the ascending upper bounds of the first four value
	// brackets; values at or above the last bound fall into the top bracket.
	BracketBounds []float64

	// StatusSynonyms maps folded raw status text to a normalized status.
	// A raw status with no entry yields no normalized status.
	StatusSynonyms map[string]string
}

// DefaultDeriveConfig returns the production lookup tables.
func DefaultDeriveConfig() DeriveConfig {
	return DeriveConfig{
		BracketBounds: []float64{50_000, 500_000, 2_000_000, 5_000_000},
		StatusSynonyms: map[string]string{
			"aberta":                  "open",
			"publicada":               "open",
			"divulgada":               "open",
			"divulgada no pncp":       "open",
			"recebendo proposta":      "open",
			"em andamento":            "in_progress",
			"em disputa":              "in_progress",
			"em analise":              "in_progress",
			"julgamento":              "in_progress",
			"homologada":              "awarded",
			"adjudicada":              "awarded",
			"homologado":              "awarded",
			"encerrada":               "closed",
			"concluida":               "closed",
			"finalizada":              "closed",
			"suspensa":                "suspended",
			"cancelada":               "cancelled",
			"revogada":                "cancelled",
			"anulada":                 "cancelled",
			"fracassada":              "failed",
			"deserta":                 "failed",
		},
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldText normalizes free text for matching: lowercase, diacritics
// stripped, punctuation collapsed to single spaces, trimmed.
func FoldText(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// FoldKey folds text for key construction: FoldText plus removal of all
// non-alphanumeric characters.
func FoldKey(s string) string {
	return strings.ReplaceAll(FoldText(s), " ", "")
}

// bracketFor assigns the value bracket from the configured bounds.
func bracketFor(value float64, bounds []float64) ValueBracket {
	brackets := []ValueBracket{
		BracketUnder50K,
		Bracket50KTo500K,
		Bracket500KTo2M,
		Bracket2MTo5M,
	}
	for i, bound := range bounds {
		if value < bound && i < len(brackets) {
			return brackets[i]
		}
	}
	return BracketOver5M
}

// daysToOpen computes whole days until the proposal window opens, or nil if
// the open timestamp is absent or already past.
func daysToOpen(opensAt *time.Time, now time.Time) *int {
	if opensAt == nil || !opensAt.After(now) {
		return nil
	}
	d := int(opensAt.Sub(now).Hours() / 24)
	return &d
}

// contentHash fingerprints the core content fields for change detection
// between ingest cycles of the same source record.
func contentHash(raw RawRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%.2f|%d|%s",
		raw.Description,
		raw.Buyer,
		raw.UF,
		raw.RawStatus,
		raw.EstimatedValue,
		raw.PublishedAt.Unix(),
		raw.PurchaseNumber,
	)
	return hex.EncodeToString(h.Sum(nil))
}
