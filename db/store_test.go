package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(path, 5000)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })
	return store
}

func countRows(t *testing.T, store *Store, table string) int {
	t.Helper()

	var count int
	err := store.readDB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestNewStore_SchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStore(path, 5000)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same file must not fail on existing tables
	store, err = NewStore(path, 5000)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_MemoryDatabaseReadsSeeWrites(t *testing.T) {
	store, err := NewStore(":memory:", 5000)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	// Reads must hit the same in-memory database the writes committed to
	_, err = store.ReplaceRatings(ctx, []RatingRow{
		{UserID: 1, MovieID: 10, Rating: 4.0, Timestamp: 100},
	}, "ratings.csv")
	require.NoError(t, err)

	labels, counts, err := store.RatingHistogram(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"4.0"}, labels)
	require.Equal(t, []int64{1}, counts)

	filename, ok, err := store.LatestFilename(ctx, KindRatings)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ratings.csv", filename)
}

func TestClearAll_WipesEverything(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.ReplaceRatings(ctx, []RatingRow{
		{UserID: 1, MovieID: 10, Rating: 4.0, Timestamp: 0},
	}, "ratings.csv")
	require.NoError(t, err)

	_, err = store.AppendMovies(ctx, []MovieRow{
		{MovieID: 10, Title: "Test Movie", Genres: "Drama"},
	}, "movies.csv")
	require.NoError(t, err)

	require.NoError(t, store.ClearAll(ctx))

	require.Equal(t, 0, countRows(t, store, "ratings"))
	require.Equal(t, 0, countRows(t, store, "movies"))
	require.Equal(t, 0, countRows(t, store, "upload_info"))

	// Ledger no longer reports a filename
	_, ok, err := store.LatestFilename(ctx, KindRatings)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClearAll_IdempotentOnEmptyTables(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.ClearAll(ctx))
	require.NoError(t, store.ClearAll(ctx))
}

func TestClearAll_AggregatesStayEmptyAfterClear(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.ReplaceRatings(ctx, []RatingRow{
		{UserID: 1, MovieID: 10, Rating: 3.5, Timestamp: 100},
	}, "ratings.csv")
	require.NoError(t, err)

	require.NoError(t, store.ClearAll(ctx))

	labels, counts, err := store.RatingHistogram(ctx)
	require.NoError(t, err)
	require.Empty(t, labels)
	require.Empty(t, counts)

	months, averages, err := store.MonthlyAverageRating(ctx, "", "")
	require.NoError(t, err)
	require.Empty(t, months)
	require.Empty(t, averages)

	titles, ratings, err := store.FilteredMovies(ctx, 0, 5)
	require.NoError(t, err)
	require.Empty(t, titles)
	require.Empty(t, ratings)
}
