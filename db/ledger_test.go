package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestFilename_NoUploads(t *testing.T) {
	store := setupStore(t)

	_, ok, err := store.LatestFilename(context.Background(), KindRatings)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLatestFilename_ReplacedPerKind(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.ReplaceRatings(ctx, nil, "ratings-old.csv")
	require.NoError(t, err)
	_, err = store.ReplaceRatings(ctx, nil, "ratings-new.csv")
	require.NoError(t, err)

	_, err = store.AppendMovies(ctx, []MovieRow{
		{MovieID: 1, Title: "Toy Story", Genres: "Animation"},
	}, "movies.csv")
	require.NoError(t, err)

	filename, ok, err := store.LatestFilename(ctx, KindRatings)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ratings-new.csv", filename)

	filename, ok, err = store.LatestFilename(ctx, KindMovies)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "movies.csv", filename)

	// At most one live ledger row per kind
	var count int
	err = store.readDB.QueryRow("SELECT COUNT(*) FROM upload_info WHERE file_type = 'ratings'").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestLatestFilename_KindsIsolated(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.ReplaceRatings(ctx, nil, "ratings.csv")
	require.NoError(t, err)

	// A ratings upload never perturbs the movies ledger entry
	_, ok, err := store.LatestFilename(ctx, KindMovies)
	require.NoError(t, err)
	require.False(t, ok)
}
