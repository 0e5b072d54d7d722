package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFoldText(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Aquisição de Veículos":          "aquisicao de veiculos",
		"  PREGÃO   ELETRÔNICO  ":        "pregao eletronico",
		"obras - reforma (etapa 2)":      "obras reforma etapa 2",
		"Construção/Manutenção, urgente": "construcao manutencao urgente",
		"":                               "",
		"---":                            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FoldText(in), "input %q", in)
	}
}

func TestFoldKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "prefeituramunicipaldesaopedro", FoldKey("Prefeitura Municipal de São Pedro"))
	assert.Equal(t, "", FoldKey(" -- "))
}

func TestSummary(t *testing.T) {
	t.Parallel()

	r := &ConsolidationResult{
		InputCount:   10,
		OutputCount:  7,
		MergedGroups: 2,
		DedupRate:    0.3,
		BySource: map[Source]SourceCounts{
			SourcePNCP:       {Input: 6, Output: 5},
			SourceComprasnet: {Input: 4, Output: 2},
		},
		ValidationFailures: []ValidationFailure{{Source: SourceBLL, SourceID: "x", Field: "uf", Reason: "bad"}},
		ReviewGroups:       []ReviewGroup{{RecordID: "r", Confidence: 0.8}},
		Partial:            true,
		Elapsed:            1500 * time.Millisecond,
	}

	s := r.Summary()
	assert.Contains(t, s, "10 records into 7")
	assert.Contains(t, s, "30.0% dedup")
	assert.Contains(t, s, "1 invalid inputs excluded")
	assert.Contains(t, s, "1 groups flagged for review")
	assert.Contains(t, s, "deadline")
	assert.Contains(t, s, "pncp")
	assert.Contains(t, s, "comprasnet")
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	opens := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	hom := 99_000.0
	rec := &CanonicalRecord{
		ID:               "a",
		OpensAt:          &opens,
		HomologatedValue: &hom,
		ConsolidatedFrom: []string{"x", "y"},
		Payload:          map[string]any{"nested": map[string]any{"k": "v"}, "list": []any{1.0}},
	}

	clone := rec.Clone()
	*clone.OpensAt = opens.Add(time.Hour)
	*clone.HomologatedValue = 1
	clone.ConsolidatedFrom[0] = "z"
	clone.Payload["nested"].(map[string]any)["k"] = "changed"

	assert.Equal(t, opens, *rec.OpensAt)
	assert.Equal(t, 99_000.0, *rec.HomologatedValue)
	assert.Equal(t, "x", rec.ConsolidatedFrom[0])
	assert.Equal(t, "v", rec.Payload["nested"].(map[string]any)["k"])
}
