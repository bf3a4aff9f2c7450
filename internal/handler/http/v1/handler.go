package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/incident_dashboard/internal/config"
	"github.com/shenikar/incident_dashboard/internal/export"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
	"github.com/shenikar/incident_dashboard/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	// DemoModeHeader выставляется, когда ответ обслужен резервным хранилищем
	DemoModeHeader = "X-Demo-Mode"

	defaultBulkDemoCount = 5
)

type Handler struct {
	incidentService service.IncidentService
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
	exportLimiter   *rateLimiter
}

func NewHandler(incidentService service.IncidentService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
		exportLimiter:   newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func markServed(c *gin.Context, served models.Served) {
	if served.Fallback {
		c.Header(DemoModeHeader, "true")
	}
}

// @Summary List incidents
// @Description Filtered page of incidents, newest first unless sort=asc. Falls back to the in-memory store on database errors.
// @Tags Incidents
// @Produce json
// @Param status query []string false "Status filter (repeatable)" collectionFormat(multi)
// @Param severity query []string false "Severity filter (repeatable)" collectionFormat(multi)
// @Param created_before query string false "Strict upper bound on created_at (cursor)"
// @Param created_after query string false "Inclusive lower bound on created_at"
// @Param bbox query string false "minLon,minLat,maxLon,maxLat"
// @Param limit query int false "Page size 1..200" default(50)
// @Param sort query string false "desc or asc" default(desc)
// @Success 200 {object} export.PageBody
// @Header 200 {string} X-Demo-Mode "true when served by the fallback store"
// @Failure 500 {object} ProblemDetail
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	f := query.ParseFilter(paramsFromQuery(c), query.ListLimits)

	result, err := h.incidentService.ListIncidents(c.Request.Context(), f)
	if err != nil {
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	c.JSON(http.StatusOK, export.JSONPage(result.Page))
}

// @Summary Export incidents
// @Description Export the filtered selection as CSV (default), JSON page or GeoJSON.
// @Tags Incidents
// @Produce text/csv
// @Produce json
// @Param format query string false "csv, json or geojson" default(csv)
// @Param status query []string false "Status filter (repeatable)" collectionFormat(multi)
// @Param severity query []string false "Severity filter (repeatable)" collectionFormat(multi)
// @Param created_before query string false "Strict upper bound on created_at"
// @Param created_after query string false "Inclusive lower bound on created_at"
// @Param bbox query string false "minLon,minLat,maxLon,maxLat"
// @Param limit query int false "Row count 1..1000" default(500)
// @Param sort query string false "desc or asc" default(desc)
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} ProblemDetail
// @Failure 429 {object} ProblemDetail
// @Failure 500 {object} ProblemDetail
// @Router /incidents/export [get]
func (h *Handler) exportIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "exportIncidents")

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		log.WithError(err).Warn("Unsupported export format")
		abortWithProblem(c, newProblem(http.StatusBadRequest, err.Error(), CodeBadRequest))
		return
	}

	f := query.ParseFilter(paramsFromQuery(c), query.ExportLimits)
	result, err := h.incidentService.ExportIncidents(c.Request.Context(), f)
	if err != nil {
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	switch format {
	case export.FormatJSON:
		c.JSON(http.StatusOK, export.JSONPage(result.Page))
	case export.FormatGeoJSON:
		c.Header("Content-Disposition", `attachment; filename="incidents.geojson"`)
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, export.GeoJSON(result.Items))
	default:
		c.Header("Content-Disposition", `attachment; filename="incidents.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.CSV(result.Items)))
	}
}

// @Summary Incident statistics
// @Description Counts by status and severity plus total under the same filters as the list. limit is ignored.
// @Tags Incidents
// @Produce json
// @Param status query []string false "Status filter (repeatable)" collectionFormat(multi)
// @Param severity query []string false "Severity filter (repeatable)" collectionFormat(multi)
// @Param created_before query string false "Strict upper bound on created_at"
// @Param created_after query string false "Inclusive lower bound on created_at"
// @Param bbox query string false "minLon,minLat,maxLon,maxLat"
// @Success 200 {object} models.Stats
// @Failure 500 {object} ProblemDetail
// @Router /incidents/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")
	f := query.ParseFilter(paramsFromQuery(c), query.ListLimits)

	result, err := h.incidentService.GetStats(c.Request.Context(), f)
	if err != nil {
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	c.JSON(http.StatusOK, result.Stats)
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID (UUID or d-NNNNNN).
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 404 {object} ProblemDetail
// @Failure 500 {object} ProblemDetail
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	result, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		if result != nil {
			markServed(c, result.Served)
		}
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	c.JSON(http.StatusOK, ModelToIncidentResponse(result.Incident))
}

// @Summary Create a new incident
// @Description Create an incident with status open. Requires API key when API_KEYS is set.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} CreateIncidentResponse
// @Failure 400 {object} ProblemDetail
// @Failure 401 {object} ProblemDetail
// @Failure 500 {object} ProblemDetail
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		abortWithProblem(c, newProblem(http.StatusBadRequest, "invalid request body", CodeBadRequest))
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		abortWithProblem(c, newProblem(http.StatusBadRequest, "Missing required fields", CodeBadRequest))
		return
	}

	result, err := h.incidentService.CreateIncident(c.Request.Context(), DTOToIncidentModel(input))
	if err != nil {
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	c.JSON(http.StatusCreated, ModelToCreateResponse(result.Incident))
}

// @Summary Update incident status
// @Description Change status to open, triaged or closed from any current status. Requires API key when API_KEYS is set.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ProblemDetail
// @Failure 401 {object} ProblemDetail
// @Failure 404 {object} ProblemDetail
// @Failure 500 {object} ProblemDetail
// @Router /incidents/{id} [patch]
func (h *Handler) updateIncident(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Failed to bind JSON")
		abortWithProblem(c, newProblem(http.StatusBadRequest, "invalid request body", CodeBadRequest))
		return
	}

	var status models.Status
	if input.Status != nil {
		status = models.Status(*input.Status)
	}

	result, err := h.incidentService.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		if result != nil {
			markServed(c, result.Served)
		}
		respondError(c, log, err)
		return
	}

	markServed(c, result.Served)
	c.JSON(http.StatusOK, ModelToIncidentResponse(result.Incident))
}

// @Summary Seed demo incidents
// @Description Add 1..50 random incidents to the in-memory store. Only available while no database is configured.
// @Tags Demo
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body BulkDemoRequest false "Number of incidents"
// @Success 201 {object} BulkDemoResponse
// @Failure 400 {object} ProblemDetail
// @Failure 501 {object} ProblemDetail
// @Router /incidents/_bulk_demo [post]
func (h *Handler) bulkDemo(c *gin.Context) {
	log := h.logger.WithField("method", "bulkDemo")

	var input BulkDemoRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Failed to bind JSON")
		abortWithProblem(c, newProblem(http.StatusBadRequest, "invalid request body", CodeBadRequest))
		return
	}
	count := defaultBulkDemoCount
	if input.Count != nil {
		count = *input.Count
	}

	added, err := h.incidentService.SeedDemo(c.Request.Context(), count)
	if err != nil {
		respondError(c, log, err)
		return
	}

	c.Header(DemoModeHeader, "true")
	c.JSON(http.StatusCreated, BulkDemoResponse{Added: added})
}

// @Summary Get application health status
// @Description Reports the durable store status (ready, not-configured or error after a failed ping) and how many records the fallback store holds.
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	health := h.incidentService.Health(c.Request.Context())
	c.JSON(http.StatusOK, HealthResponse{
		Status:          "ok",
		Durable:         health.Durable,
		FallbackRecords: health.FallbackRecords,
	})
}
