package consolidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendergov/tender-cli/internal/model"
)

func TestMergeIdentity(t *testing.T) {
	t.Parallel()

	rec := buildRecord(t, rawFixture(model.SourcePNCP, "a"))
	merged := NewMerger(DefaultPriorities()).Merge(singleton(rec))

	assert.Same(t, rec, merged, "single-member clusters come back unchanged")
	assert.False(t, merged.Consolidated)
	assert.Empty(t, merged.ConsolidatedFrom)
}

func TestMergePrimaryBySourcePriority(t *testing.T) {
	t.Parallel()

	low := buildRecord(t, rawFixture(model.SourceBLL, "bll-1"))
	high := buildRecord(t, rawFixture(model.SourcePNCP, "pncp-1"))

	cluster := Cluster{
		Records: []*model.CanonicalRecord{low, high},
		Method:  model.MatchExact,
		Score:   1.0,
	}
	merged := NewMerger(DefaultPriorities()).Merge(cluster)

	assert.Equal(t, model.SourcePNCP, merged.PrimarySource)
	assert.Equal(t, high.ID, merged.ID)
	assert.True(t, merged.Consolidated)
	assert.ElementsMatch(t, []string{high.ID, low.ID}, merged.ConsolidatedFrom)
	assert.Equal(t, model.MatchExact, merged.Method)
	assert.Equal(t, 1.0, merged.Confidence)
}

func TestMergeFillsOnlyAbsentOptionalFields(t *testing.T) {
	t.Parallel()

	praw := rawFixture(model.SourcePNCP, "p")
	praw.Municipality = ""
	praw.RawStatus = ""
	praw.OpensAt = nil
	praw.ProcessNumber = ""
	primary := buildRecord(t, praw)

	sraw := rawFixture(model.SourceComprasnet, "s")
	sraw.Municipality = "Campinas"
	sraw.RawStatus = "homologada"
	opens := testNow.Add(5 * 24 * time.Hour)
	sraw.OpensAt = &opens
	sraw.ProcessNumber = "PA-9/2026"
	hom := 98_500.0
	sraw.HomologatedValue = &hom
	secondary := buildRecord(t, sraw)

	cluster := Cluster{
		Records: []*model.CanonicalRecord{secondary, primary},
		Method:  model.MatchExact,
		Score:   1.0,
	}
	merged := NewMerger(DefaultPriorities()).Merge(cluster)

	assert.Equal(t, "Campinas", merged.Municipality)
	assert.Equal(t, "homologada", merged.RawStatus)
	assert.Equal(t, "awarded", merged.NormalizedStatus, "derived status follows the filled raw status")
	require.NotNil(t, merged.OpensAt)
	assert.Equal(t, opens, *merged.OpensAt)
	assert.Equal(t, "PA-9/2026", merged.ProcessNumber)
	require.NotNil(t, merged.HomologatedValue)
	assert.Equal(t, 98_500.0, *merged.HomologatedValue)
}

func TestMergeNeverOverwritesPrimaryFields(t *testing.T) {
	t.Parallel()

	primary := buildRecord(t, rawFixture(model.SourcePNCP, "p"))

	sraw := rawFixture(model.SourceComprasnet, "s")
	sraw.Description = "Descrição divergente relatada pela fonte de menor prioridade"
	sraw.Buyer = "Outro Órgão Qualquer"
	sraw.EstimatedValue = 999_999
	sraw.Municipality = "Campinas"
	sraw.RawStatus = "cancelada"
	sraw.PurchaseNumber = "999/2026"
	secondary := buildRecord(t, sraw)

	cluster := Cluster{
		Records: []*model.CanonicalRecord{primary, secondary},
		Method:  model.MatchFuzzy,
		Score:   0.93,
	}
	merged := NewMerger(DefaultPriorities()).Merge(cluster)

	// Core fields and every optional the primary already had stay intact.
	assert.Equal(t, primary.Description, merged.Description)
	assert.Equal(t, primary.Buyer, merged.Buyer)
	assert.Equal(t, primary.EstimatedValue, merged.EstimatedValue)
	assert.Equal(t, primary.Municipality, merged.Municipality)
	assert.Equal(t, primary.RawStatus, merged.RawStatus)
	assert.Equal(t, primary.PurchaseNumber, merged.PurchaseNumber)
	assert.Equal(t, 0.93, merged.Confidence)
	assert.Equal(t, model.MatchFuzzy, merged.Method)
}

func TestMergeInputsStayImmutable(t *testing.T) {
	t.Parallel()

	praw := rawFixture(model.SourcePNCP, "p")
	praw.Municipality = ""
	primary := buildRecord(t, praw)
	secondary := buildRecord(t, rawFixture(model.SourceComprasnet, "s"))

	cluster := Cluster{
		Records: []*model.CanonicalRecord{primary, secondary},
		Method:  model.MatchExact,
		Score:   1.0,
	}
	merged := NewMerger(DefaultPriorities()).Merge(cluster)

	assert.NotSame(t, primary, merged)
	assert.False(t, primary.Consolidated, "merge inputs are never mutated")
	assert.False(t, secondary.Consolidated)
	assert.Empty(t, primary.Municipality)
}

func TestMergeTakesEarliestFetchTime(t *testing.T) {
	t.Parallel()

	praw := rawFixture(model.SourcePNCP, "p")
	praw.FetchedAt = testNow.Add(-time.Hour)
	primary := buildRecord(t, praw)

	sraw := rawFixture(model.SourceComprasnet, "s")
	sraw.FetchedAt = testNow.Add(-26 * time.Hour)
	secondary := buildRecord(t, sraw)

	merged := NewMerger(DefaultPriorities()).Merge(Cluster{
		Records: []*model.CanonicalRecord{primary, secondary},
		Method:  model.MatchExact,
		Score:   1.0,
	})
	assert.Equal(t, secondary.FetchedAt, merged.FetchedAt)
}

func TestMergeDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	// Same source on both members: the tie breaks on source id, so member
	// order in the cluster cannot change the outcome.
	a := buildRecord(t, rawFixture(model.SourcePNCP, "aaa"))
	b := buildRecord(t, rawFixture(model.SourcePNCP, "bbb"))

	m := NewMerger(DefaultPriorities())
	m1 := m.Merge(Cluster{Records: []*model.CanonicalRecord{a, b}, Method: model.MatchExact, Score: 1.0})
	m2 := m.Merge(Cluster{Records: []*model.CanonicalRecord{b, a}, Method: model.MatchExact, Score: 1.0})

	assert.Equal(t, m1.SourceID, m2.SourceID)
	assert.Equal(t, "aaa", m1.SourceID)
}
