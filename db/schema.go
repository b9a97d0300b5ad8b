package db

// DatasetKind identifies which of the two CSV datasets an operation targets
type DatasetKind string

const (
	KindRatings DatasetKind = "ratings"
	KindMovies  DatasetKind = "movies"
)

// RatingRow is a single parsed rating record. No uniqueness is enforced beyond
// the generated id; duplicate (user, movie, timestamp) rows are allowed.
type RatingRow struct {
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp int64
}

// MovieRow is a single parsed movie record. MovieID is the primary key.
type MovieRow struct {
	MovieID int64
	Title   string
	Genres  string
}

// Schemas returns the CREATE TABLE statements for the persistent tables.
// All statements are idempotent; there is no migration logic.
func Schemas() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			userId INTEGER,
			movieId INTEGER,
			rating REAL,
			timestamp INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS movies (
			movieId INTEGER PRIMARY KEY,
			title TEXT,
			genres TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS upload_info (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT,
			file_type TEXT,
			upload_date TEXT
		)`,
	}
}
