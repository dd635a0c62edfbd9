package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/roadsafety/roadguard/ports"
)

// AccidentHandler serves the guarded road accident dataset.
type AccidentHandler struct {
	store ports.AccidentStore
}

// NewAccidentHandler creates a new accident handler.
func NewAccidentHandler(store ports.AccidentStore) *AccidentHandler {
	return &AccidentHandler{store: store}
}

type accidentResponse struct {
	ID         int64     `json:"id"`
	Severity   string    `json:"severity"`
	Year       int       `json:"year"`
	Date       time.Time `json:"date"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Vehicles   int       `json:"vehicles"`
	Casualties int       `json:"casualties"`
	RoadType   string    `json:"road_type"`
	Weather    string    `json:"weather"`
}

type accidentListResponse struct {
	Count     int                `json:"count"`
	Accidents []accidentResponse `json:"accidents"`
}

// List returns accidents matching the query filters.
//
//	@Summary		List road accidents
//	@Tags			Accidents
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			severity	query		string	false	"Filter by severity"
//	@Param			year		query		int		false	"Filter by year"
//	@Param			limit		query		int		false	"Max rows (default 100, max 1000)"
//	@Success		200			{object}	accidentListResponse
//	@Failure		400			{object}	errorResponse
//	@Failure		429			{object}	errorResponse
//	@Router			/api/accidents [get]
func (h *AccidentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := ports.AccidentFilter{Severity: q.Get("severity")}

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		f.Year = year
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = limit
	}

	accidents, err := h.store.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	resp := accidentListResponse{
		Count:     len(accidents),
		Accidents: make([]accidentResponse, 0, len(accidents)),
	}
	for _, a := range accidents {
		resp.Accidents = append(resp.Accidents, accidentResponse{
			ID:         a.ID,
			Severity:   a.Severity,
			Year:       a.Year,
			Date:       a.Date,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			Vehicles:   a.Vehicles,
			Casualties: a.Casualties,
			RoadType:   a.RoadType,
			Weather:    a.Weather,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type severityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

type yearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

type accidentStatsResponse struct {
	Total      int64           `json:"total"`
	BySeverity []severityCount `json:"by_severity"`
	ByYear     []yearCount     `json:"by_year"`
}

// Stats returns dataset-wide aggregates.
//
//	@Summary		Accident dataset statistics
//	@Tags			Accidents
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{object}	accidentStatsResponse
//	@Failure		429	{object}	errorResponse
//	@Router			/api/accidents/stats [get]
func (h *AccidentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	resp := accidentStatsResponse{
		Total:      stats.Total,
		BySeverity: make([]severityCount, 0, len(stats.BySeverity)),
		ByYear:     make([]yearCount, 0, len(stats.ByYear)),
	}
	for _, s := range stats.BySeverity {
		resp.BySeverity = append(resp.BySeverity, severityCount{Severity: s.Severity, Count: s.Count})
	}
	for _, y := range stats.ByYear {
		resp.ByYear = append(resp.ByYear, yearCount{Year: y.Year, Count: y.Count})
	}
	writeJSON(w, http.StatusOK, resp)
}
