package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/reelstats/reelstats/db"
	"github.com/reelstats/reelstats/ingest"
)

const multipartMemoryLimit = 32 << 20 // 32 MiB in memory, rest spills to disk

// Handlers serves the upload, clear and aggregation endpoints
type Handlers struct {
	store          *db.Store
	pipeline       *ingest.Pipeline
	charts         *chartCache
	maxUploadBytes int64
}

// NewHandlers creates the HTTP handler set
func NewHandlers(store *db.Store, pipeline *ingest.Pipeline, maxUploadMB, chartCacheSize int) (*Handlers, error) {
	charts, err := newChartCache(chartCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart cache: %w", err)
	}

	return &Handlers{
		store:          store,
		pipeline:       pipeline,
		charts:         charts,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}, nil
}

// chartData is the /api/chart-data response body: parallel arrays shaped for
// client-side charting
type chartData struct {
	RatingLabels []string  `json:"rating_labels"`
	RatingCounts []int64   `json:"rating_counts"`
	TimeLabels   []string  `json:"time_labels"`
	AvgRatings   []float64 `json:"avg_ratings"`
}

// uploadResponse reports a successful CSV ingestion
type uploadResponse struct {
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	RowsInserted int    `json:"rows_inserted"`
	Checksum     string `json:"checksum"`
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := map[string]interface{}{
		"error": message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// ingestStatus maps the ingestion error taxonomy to HTTP status codes
func ingestStatus(err error) int {
	var decodeErr *ingest.DecodeError
	var missingErr *ingest.MissingColumnError
	var ingestionErr *ingest.IngestionError
	var collisionErr *db.PrimaryKeyCollisionError

	switch {
	case errors.As(err, &decodeErr), errors.As(err, &missingErr), errors.As(err, &ingestionErr):
		return http.StatusBadRequest
	case errors.As(err, &collisionErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parseFloatParam parses an optional float query parameter with a default
func parseFloatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &InvalidParameterError{Param: name, Value: raw}
	}
	return v, nil
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request, kind db.DatasetKind, field string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "no file part in the request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeErrorResponse(w, http.StatusBadRequest, "no file selected")
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), kind, file, header.Filename)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Str("filename", header.Filename).Msg("Upload failed")
		writeErrorResponse(w, ingestStatus(err), fmt.Sprintf("error processing file: %v", err))
		return
	}

	h.charts.purge()

	writeJSONResponse(w, uploadResponse{
		Message:      fmt.Sprintf("Successfully uploaded %d records from %s.", result.RowsInserted, header.Filename),
		Filename:     header.Filename,
		RowsInserted: result.RowsInserted,
		Checksum:     result.Checksum,
	})
}

func (h *Handlers) handleUploadRatings(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, db.KindRatings, "csvFile")
}

func (h *Handlers) handleUploadMovies(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, db.KindMovies, "moviesCsvFile")
}

func (h *Handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		log.Error().Err(err).Msg("Clear failed")
		writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("error clearing database: %v", err))
		return
	}

	h.charts.purge()

	writeJSONResponse(w, map[string]interface{}{
		"message": "Database contents cleared successfully.",
	})
}

func (h *Handlers) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ratings, ratingsOK, err := h.store.LatestFilename(ctx, db.KindRatings)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	movies, moviesOK, err := h.store.LatestFilename(ctx, db.KindMovies)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := struct {
		RatingsFilename *string `json:"ratings_filename"`
		MoviesFilename  *string `json:"movies_filename"`
	}{}
	if ratingsOK {
		response.RatingsFilename = &ratings
	}
	if moviesOK {
		response.MoviesFilename = &movies
	}

	writeJSONResponse(w, response)
}

func (h *Handlers) handleChartData(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	key := chartCacheKey(startDate, endDate)
	if data, ok := h.charts.get(key); ok {
		writeJSONResponse(w, data)
		return
	}

	data, err := h.computeChartData(r, startDate, endDate)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.charts.add(key, data)
	writeJSONResponse(w, data)
}

func (h *Handlers) computeChartData(r *http.Request, startDate, endDate string) (chartData, error) {
	ctx := r.Context()

	labels, counts, err := h.store.RatingHistogram(ctx)
	if err != nil {
		return chartData{}, err
	}

	months, averages, err := h.store.MonthlyAverageRating(ctx, startDate, endDate)
	if err != nil {
		return chartData{}, err
	}

	return chartData{
		RatingLabels: labels,
		RatingCounts: counts,
		TimeLabels:   months,
		AvgRatings:   averages,
	}, nil
}

func (h *Handlers) handleFilteredMovies(w http.ResponseWriter, r *http.Request) {
	minRating, err := parseFloatParam(r, "min_rating", 0)
	if err != nil {
		// Malformed bounds surface as a server error, matching the error
		// contract of the other JSON endpoints
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	maxRating, err := parseFloatParam(r, "max_rating", 5)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	titles, averages, err := h.store.FilteredMovies(r.Context(), minRating, maxRating)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSONResponse(w, map[string]interface{}{
		"movie_titles":  titles,
		"movie_ratings": averages,
	})
}

// handleVisualizations serves the combined view. When no ratings exist at all
// it substitutes a fixed placeholder histogram (ratings 1-5, zero counts) and
// sets no_data; the independent JSON endpoints never do this.
func (h *Handlers) handleVisualizations(w http.ResponseWriter, r *http.Request) {
	data, err := h.computeChartData(r, "", "")
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	noData := false
	if len(data.RatingLabels) == 0 || len(data.TimeLabels) == 0 {
		noData = true
		data.RatingLabels = []string{"1", "2", "3", "4", "5"}
		data.RatingCounts = []int64{0, 0, 0, 0, 0}
		data.TimeLabels = []string{}
		data.AvgRatings = []float64{}
	}

	writeJSONResponse(w, struct {
		chartData
		NoData bool `json:"no_data"`
	}{chartData: data, NoData: noData})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSONResponse(w, map[string]string{"status": "ok"})
}
