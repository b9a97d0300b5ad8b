package db

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

// ReplaceRatings atomically replaces the full contents of the ratings table
// with rows and advances the upload ledger for the ratings dataset. Any
// failure rolls back the delete, the inserts and the ledger update together,
// so the table never holds rows from two different uploads.
func (s *Store) ReplaceRatings(ctx context.Context, rows []RatingRow, filename string) (int, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "ratings begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ratings"); err != nil {
		return 0, &StorageError{Op: "ratings delete", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO ratings (userId, movieId, rating, timestamp) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, &StorageError{Op: "ratings prepare", Err: err}
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.UserID, row.MovieID, row.Rating, row.Timestamp); err != nil {
			return 0, &StorageError{Op: "ratings insert", Err: err}
		}
		inserted++
	}

	if err := replaceLedger(ctx, tx, KindRatings, filename); err != nil {
		return 0, &StorageError{Op: "ratings ledger", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "ratings commit", Err: err}
	}

	log.Info().Int("rows", inserted).Str("filename", filename).Msg("Ratings replaced")
	return inserted, nil
}

// RatingHistogram groups ratings by exact value in ascending order and
// returns parallel label/count slices. Empty table yields two empty slices.
func (s *Store) RatingHistogram(ctx context.Context) ([]string, []int64, error) {
	query, args, err := dialect.From("ratings").
		Select(goqu.C("rating"), goqu.L("COUNT(*)").As("cnt")).
		GroupBy(goqu.C("rating")).
		Order(goqu.C("rating").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, nil, &StorageError{Op: "histogram build", Err: err}
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, &StorageError{Op: "histogram query", Err: err}
	}
	defer rows.Close()

	labels := []string{}
	counts := []int64{}
	for rows.Next() {
		var rating float64
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, nil, &StorageError{Op: "histogram scan", Err: err}
		}
		labels = append(labels, formatRatingLabel(rating))
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &StorageError{Op: "histogram rows", Err: err}
	}

	return labels, counts, nil
}

// MonthlyAverageRating buckets ratings into UTC calendar months and averages
// them, rounded to 2 decimals. The date range filter is applied only when
// both bounds are non-empty; a single bound is ignored entirely.
func (s *Store) MonthlyAverageRating(ctx context.Context, startDate, endDate string) ([]string, []float64, error) {
	ds := dialect.From("ratings").
		Select(
			goqu.L("strftime('%Y-%m', datetime(timestamp, 'unixepoch'))").As("month"),
			goqu.L("AVG(rating)").As("avg_rating"),
		).
		GroupBy(goqu.C("month")).
		Order(goqu.C("month").Asc())

	if startDate != "" && endDate != "" {
		ds = ds.Where(goqu.L("datetime(timestamp, 'unixepoch')").Between(goqu.Range(startDate, endDate)))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, nil, &StorageError{Op: "monthly build", Err: err}
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, &StorageError{Op: "monthly query", Err: err}
	}
	defer rows.Close()

	months := []string{}
	averages := []float64{}
	for rows.Next() {
		var month string
		var avg float64
		if err := rows.Scan(&month, &avg); err != nil {
			return nil, nil, &StorageError{Op: "monthly scan", Err: err}
		}
		months = append(months, month)
		averages = append(averages, round2(avg))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &StorageError{Op: "monthly rows", Err: err}
	}

	return months, averages, nil
}

// formatRatingLabel renders a rating value the way charts display it, always
// keeping at least one decimal ("4" becomes "4.0", "4.25" stays "4.25").
func formatRatingLabel(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
