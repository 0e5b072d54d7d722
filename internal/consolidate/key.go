package consolidate

import (
	"strconv"
	"strings"

	"github.com/tendergov/tender-cli/internal/model"
)

// keyUnknown substitutes for missing natural-key components. Sparse data
// weakens key uniqueness instead of excluding the record from matching.
const keyUnknown = "UNK"

// NaturalKey builds the deterministic composite business key used for
// exact-match grouping. Primary form keys on the buyer CNPJ; when the CNPJ
// is absent it falls back to the folded buyer name plus region code.
func NaturalKey(r *model.CanonicalRecord) string {
	modality := orUnknown(r.ModalityCode)
	number := orUnknown(strings.TrimSpace(r.PurchaseNumber))
	year := keyUnknown
	if r.PurchaseYear != 0 {
		year = strconv.Itoa(r.PurchaseYear)
	}

	if r.BuyerCNPJ != "" {
		return r.BuyerCNPJ + ":" + modality + ":" + number + ":" + year
	}

	buyer := orUnknown(model.FoldKey(r.Buyer))
	return buyer + ":" + orUnknown(r.UF) + ":" + modality + ":" + number + ":" + year
}

// NormalizeURL canonicalizes a notice URL for the independent exact-match
// signal: lowercased, query string removed, trailing slash stripped.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return ""
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

func orUnknown(s string) string {
	if s == "" {
		return keyUnknown
	}
	return s
}
