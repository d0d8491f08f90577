package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/credit-scorer/internal/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(appID string, score float64) *types.ApplicationResult {
	return &types.ApplicationResult{
		ApplicationID:    appID,
		BorrowerID:       "BOR-1",
		TraditionalScore: 70,
		AlternativeScore: 65,
		EnhancedScore:    score,
		Decision:         types.DecisionConditional,
		Compliant:        true,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordAssessment(ctx, sampleResult("APP-1", 700)))
	require.NoError(t, store.RecordAssessment(ctx, sampleResult("APP-2", 655)))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "APP-2", entries[0].ApplicationID)
	assert.Equal(t, 655.0, entries[0].CreditScore)
	assert.Equal(t, types.DecisionConditional, entries[0].Decision)
	assert.True(t, entries[0].Compliant)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecent_LimitAndDefault(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordAssessment(ctx, sampleResult("APP", 650)))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRecordAssessment_NilFails(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.RecordAssessment(context.Background(), nil))
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordAssessment(context.Background(), sampleResult("APP-1", 700)))
}

func TestOpen_EmptyPathFails(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
