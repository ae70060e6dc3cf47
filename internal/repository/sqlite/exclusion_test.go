package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/profile-dashboard/internal/model"
)

func exclusionEmails(entries []model.ExclusionEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Email
	}
	return out
}

func TestListExclusions_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	entries, err := db.ListExclusions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestUpsertExclusion_OverwritesFlagsInPlace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertExclusion(ctx, model.ExclusionEntry{Email: "a@x.com", ExcludeFromCharts: true}))
	require.NoError(t, db.UpsertExclusion(ctx, model.ExclusionEntry{Email: "b@x.com", ExcludeFromList: true}))
	require.NoError(t, db.UpsertExclusion(ctx, model.ExclusionEntry{Email: "a@x.com", ExcludeFromList: true}))

	entries, err := db.ListExclusions(ctx)
	require.NoError(t, err)

	require.Equal(t, []string{"a@x.com", "b@x.com"}, exclusionEmails(entries))
	assert.False(t, entries[0].ExcludeFromCharts, "flags are replaced, not merged")
	assert.True(t, entries[0].ExcludeFromList)
	assert.False(t, entries[0].UpdatedAt.IsZero())
}

func TestUpsertExclusion_KeepsBothFlagsFalse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertExclusion(ctx, model.ExclusionEntry{Email: "idle@x.com"}))

	entries, err := db.ListExclusions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"idle@x.com"}, exclusionEmails(entries))
}

func TestDeleteExclusion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertExclusion(ctx, model.ExclusionEntry{Email: "a@x.com", ExcludeFromList: true}))

	require.NoError(t, db.DeleteExclusion(ctx, "a@x.com"))
	require.NoError(t, db.DeleteExclusion(ctx, "a@x.com"), "deleting twice is not an error")

	entries, err := db.ListExclusions(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
