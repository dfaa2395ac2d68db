package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"discharge-volume/internal/models"
	"discharge-volume/internal/report"
	"discharge-volume/internal/repository"
	"discharge-volume/internal/services"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

// VolumeHandler serves volume and extremes endpoints over one loaded dataset
type VolumeHandler struct {
	volumeService *services.VolumeService
	dataset       *services.Dataset
	logger        *logging.StructuredLogger
	metrics       *metrics.Collector
}

// NewVolumeHandler creates a new volume handler
func NewVolumeHandler(
	volumeService *services.VolumeService,
	dataset *services.Dataset,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *VolumeHandler {
	return &VolumeHandler{
		volumeService: volumeService,
		dataset:       dataset,
		logger:        logger,
		metrics:       metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// SeriesResponse describes the loaded dataset
type SeriesResponse struct {
	SeriesID     string    `json:"series_id"`
	TableLabel   string    `json:"table_label"`
	Samples      int       `json:"samples"`
	First        time.Time `json:"first"`
	Last         time.Time `json:"last"`
	SpanVolumeM3 float64   `json:"span_volume_m3"`
}

// VolumeResponse is the result of GET /api/volume
type VolumeResponse struct {
	SeriesID       string     `json:"series_id"`
	TableLabel     string     `json:"table_label"`
	RequestedStart time.Time  `json:"requested_start"`
	RequestedEnd   time.Time  `json:"requested_end"`
	EffectiveStart *time.Time `json:"effective_start,omitempty"`
	EffectiveEnd   *time.Time `json:"effective_end,omitempty"`
	Overlaps       bool       `json:"overlaps"`
	VolumeM3       float64    `json:"volume_m3"`
	Report         string     `json:"report"`
}

// ListResponse wraps computed, unpaginated results
type ListResponse struct {
	SeriesID   string      `json:"series_id"`
	TableLabel string      `json:"table_label"`
	Data       interface{} `json:"data"`
	Count      int         `json:"count"`
	Stored     bool        `json:"stored"`
}

// GetSeries handles GET /api/series
func (h *VolumeHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/series", time.Now())

	s := h.dataset.Series
	response := SeriesResponse{
		SeriesID:     h.dataset.SeriesID,
		TableLabel:   h.dataset.TableLabel,
		Samples:      s.Len(),
		First:        s.First().Time,
		Last:         s.Last().Time,
		SpanVolumeM3: s.SpanVolume(),
	}

	h.metrics.RecordAPIRequest("/api/series", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetVolume handles GET /api/volume
func (h *VolumeHandler) GetVolume(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/api/volume", time.Now())

	start, end, ok := h.parseInterval(w, r)
	if !ok {
		return
	}

	result := h.volumeService.Volume(r.Context(), h.dataset, start, end)

	response := VolumeResponse{
		SeriesID:       h.dataset.SeriesID,
		TableLabel:     h.dataset.TableLabel,
		RequestedStart: start,
		RequestedEnd:   end,
		Overlaps:       result.Overlaps,
		VolumeM3:       result.VolumeM3,
		Report:         report.IntervalLine(start, end, result.VolumeM3),
	}
	if result.Overlaps {
		response.EffectiveStart = &result.Effective.Start
		response.EffectiveEnd = &result.Effective.End
	}

	h.metrics.RecordAPIRequest("/api/volume", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetHydrologicYears handles GET /api/volume/hydro-years
func (h *VolumeHandler) GetHydrologicYears(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/volume/hydro-years"
	defer h.observe(endpoint, time.Now())
	ctx := r.Context()

	start, end, ok := h.parseInterval(w, r)
	if !ok {
		return
	}

	years := h.volumeService.HydrologicYears(ctx, h.dataset, start, end)
	if years == nil {
		years = []models.YearVolume{}
	}

	stored := false
	if r.URL.Query().Get("persist") == "true" {
		if err := h.volumeService.StoreYearVolumes(ctx, h.dataset, years); err != nil {
			h.handleStoreError(w, r, endpoint, err)
			return
		}
		stored = true
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, ListResponse{
		SeriesID:   h.dataset.SeriesID,
		TableLabel: h.dataset.TableLabel,
		Data:       years,
		Count:      len(years),
		Stored:     stored,
	}, http.StatusOK)
}

// GetExtremes handles GET /api/extremes
func (h *VolumeHandler) GetExtremes(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/extremes"
	defer h.observe(endpoint, time.Now())
	ctx := r.Context()

	start, end, ok := h.parseInterval(w, r)
	if !ok {
		return
	}

	days := h.volumeService.DailyExtremes(ctx, h.dataset, start, end)
	if days == nil {
		days = []models.DayExtreme{}
	}

	stored := false
	if r.URL.Query().Get("persist") == "true" {
		if err := h.volumeService.StoreDayExtremes(ctx, h.dataset, days); err != nil {
			h.handleStoreError(w, r, endpoint, err)
			return
		}
		stored = true
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, ListResponse{
		SeriesID:   h.dataset.SeriesID,
		TableLabel: h.dataset.TableLabel,
		Data:       days,
		Count:      len(days),
		Stored:     stored,
	}, http.StatusOK)
}

// GetStoredHydrologicYears handles GET /api/volume/hydro-years/stored
func (h *VolumeHandler) GetStoredHydrologicYears(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/volume/hydro-years/stored"
	defer h.observe(endpoint, time.Now())
	ctx := r.Context()

	page, limit := parsePagination(r)
	filter := repository.YearVolumeFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	query := r.URL.Query()
	if v := query.Get("series_id"); v != "" {
		filter.SeriesID = &v
	}
	if query.Has("table_label") {
		v := query.Get("table_label")
		filter.TableLabel = &v
	}
	if v := query.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	rows, total, err := h.volumeService.StoredYearVolumes(ctx, filter)
	if err != nil {
		h.handleStoreError(w, r, endpoint, err)
		return
	}
	if rows == nil {
		rows = []*models.StoredYearVolume{}
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       rows,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetStoredHydrologicYear handles GET /api/volume/hydro-years/stored/{year}
func (h *VolumeHandler) GetStoredHydrologicYear(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/volume/hydro-years/stored/{year}"
	defer h.observe(endpoint, time.Now())

	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
		return
	}

	seriesID := h.dataset.SeriesID
	if v := r.URL.Query().Get("series_id"); v != "" {
		seriesID = v
	}
	tableLabel := h.dataset.TableLabel
	if r.URL.Query().Has("table_label") {
		tableLabel = r.URL.Query().Get("table_label")
	}

	row, err := h.volumeService.StoredYearVolume(r.Context(), seriesID, tableLabel, year)
	if err != nil {
		h.handleStoreError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, row, http.StatusOK)
}

// GetStoredExtremes handles GET /api/extremes/stored
func (h *VolumeHandler) GetStoredExtremes(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/extremes/stored"
	defer h.observe(endpoint, time.Now())
	ctx := r.Context()

	page, limit := parsePagination(r)
	filter := repository.DayExtremeFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	query := r.URL.Query()
	if v := query.Get("series_id"); v != "" {
		filter.SeriesID = &v
	}
	if query.Has("table_label") {
		v := query.Get("table_label")
		filter.TableLabel = &v
	}
	if v := query.Get("start"); v != "" {
		t, err := report.ParseDateTime(v)
		if err != nil {
			h.sendError(w, r, "invalid start, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDay = &t
	}
	if v := query.Get("end"); v != "" {
		t, err := report.ParseDateTime(v)
		if err != nil {
			h.sendError(w, r, "invalid end, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDay = &t
	}

	rows, total, err := h.volumeService.StoredDayExtremes(ctx, filter)
	if err != nil {
		h.handleStoreError(w, r, endpoint, err)
		return
	}
	if rows == nil {
		rows = []*models.StoredDayExtreme{}
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       rows,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *VolumeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"series_id": h.dataset.SeriesID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.volumeService.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK] Repository unhealthy", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parseInterval reads start and end query parameters. A missing bound
// defaults to the corresponding end of the loaded series.
func (h *VolumeHandler) parseInterval(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start := h.dataset.Series.First().Time
	end := h.dataset.Series.Last().Time

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := report.ParseDateTime(v)
		if err != nil {
			h.sendError(w, r, "invalid start, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		start = t
	}

	if v := r.URL.Query().Get("end"); v != "" {
		t, err := report.ParseDateTime(v)
		if err != nil {
			h.sendError(w, r, "invalid end, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		end = t
	}

	return start, end, true
}

func (h *VolumeHandler) handleStoreError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var notFound *repository.NotFoundError
	switch {
	case errors.Is(err, services.ErrPersistenceDisabled):
		h.metrics.RecordAPIError("persistence_disabled", endpoint)
		h.sendError(w, r, "persistence is not configured", http.StatusServiceUnavailable)
	case errors.As(err, &notFound):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, notFound.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "[API_STORE_ERROR] Repository operation failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "repository operation failed", http.StatusInternalServerError)
	}
}

func (h *VolumeHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// parsePagination reads page and limit with defaults 1 and 100
func parsePagination(r *http.Request) (int, int) {
	page := 1
	limit := 100

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	return page, limit
}

// sendJSON sends a JSON response
func (h *VolumeHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *VolumeHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all volume API routes
func (h *VolumeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/series", h.GetSeries).Methods("GET")
	router.HandleFunc("/api/volume", h.GetVolume).Methods("GET")
	router.HandleFunc("/api/volume/hydro-years", h.GetHydrologicYears).Methods("GET")
	router.HandleFunc("/api/volume/hydro-years/stored", h.GetStoredHydrologicYears).Methods("GET")
	router.HandleFunc("/api/volume/hydro-years/stored/{year:[0-9]+}", h.GetStoredHydrologicYear).Methods("GET")
	router.HandleFunc("/api/extremes", h.GetExtremes).Methods("GET")
	router.HandleFunc("/api/extremes/stored", h.GetStoredExtremes).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
