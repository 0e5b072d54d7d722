package consolidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tendergov/tender-cli/internal/model"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// rawFixture returns a valid raw record; mutate it per test.
func rawFixture(source model.Source, sourceID string) model.RawRecord {
	return model.RawRecord{
		Source:         source,
		SourceID:       sourceID,
		Description:    "Aquisição de material de expediente para a secretaria municipal de educação",
		Buyer:          "Prefeitura Municipal de São Pedro",
		UF:             "SP",
		EstimatedValue: 100_000,
		PublishedAt:    testNow.Add(-72 * time.Hour),
		BuyerCNPJ:      "00038174000143",
		Municipality:   "São Pedro",
		ModalityCode:   "6",
		RawStatus:      "aberta",
		PurchaseNumber: "001/2026",
		PurchaseYear:   2026,
		FetchedAt:      testNow.Add(-time.Hour),
	}
}

// buildRecord runs the fixture through the real builder so derived fields
// are populated the same way production records are.
func buildRecord(t *testing.T, raw model.RawRecord) *model.CanonicalRecord {
	t.Helper()
	rec, err := model.NewBuilder(model.DefaultDeriveConfig()).
		WithClock(func() time.Time { return testNow }).
		Build(raw)
	require.NoError(t, err)
	return rec
}
