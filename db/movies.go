package db

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

// AppendMovies inserts rows into the movies table without clearing prior
// uploads, then advances the upload ledger for the movies dataset. A movieId
// colliding with any existing row (within or across uploads) rolls back the
// whole batch and returns *PrimaryKeyCollisionError; prior movies are untouched.
func (s *Store) AppendMovies(ctx context.Context, rows []MovieRow, filename string) (int, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, &StorageError{Op: "movies begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO movies (movieId, title, genres) VALUES (?, ?, ?)")
	if err != nil {
		return 0, &StorageError{Op: "movies prepare", Err: err}
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.MovieID, row.Title, row.Genres); err != nil {
			if isPrimaryKeyConflict(err) {
				return 0, &PrimaryKeyCollisionError{Err: err}
			}
			return 0, &StorageError{Op: "movies insert", Err: err}
		}
		inserted++
	}

	if err := replaceLedger(ctx, tx, KindMovies, filename); err != nil {
		return 0, &StorageError{Op: "movies ledger", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &StorageError{Op: "movies commit", Err: err}
	}

	log.Info().Int("rows", inserted).Str("filename", filename).Msg("Movies appended")
	return inserted, nil
}

// FilteredMovies computes the average rating per movie over an inner join of
// movies and ratings, keeps movies whose average falls in the inclusive
// [minRating, maxRating] range, and orders descending by average. Movies with
// no ratings never appear.
func (s *Store) FilteredMovies(ctx context.Context, minRating, maxRating float64) ([]string, []float64, error) {
	query, args, err := dialect.From(goqu.T("movies").As("m")).
		Join(
			goqu.T("ratings").As("r"),
			goqu.On(goqu.I("m.movieId").Eq(goqu.I("r.movieId"))),
		).
		Select(goqu.I("m.title"), goqu.L("AVG(r.rating)").As("avg_rating")).
		GroupBy(goqu.I("m.movieId")).
		Having(goqu.L("AVG(r.rating)").Between(goqu.Range(minRating, maxRating))).
		Order(goqu.C("avg_rating").Desc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, nil, &StorageError{Op: "filtered movies build", Err: err}
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, &StorageError{Op: "filtered movies query", Err: err}
	}
	defer rows.Close()

	titles := []string{}
	averages := []float64{}
	for rows.Next() {
		var title string
		var avg float64
		if err := rows.Scan(&title, &avg); err != nil {
			return nil, nil, &StorageError{Op: "filtered movies scan", Err: err}
		}
		titles = append(titles, title)
		averages = append(averages, round2(avg))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &StorageError{Op: "filtered movies rows", Err: err}
	}

	log.Debug().Int("matches", len(titles)).Float64("min", minRating).Float64("max", maxRating).
		Msg("Filtered movies computed")

	return titles, averages, nil
}
