package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/interfaces/httpserver/requests"
	"audio-articles/article-api/internal/interfaces/httpserver/responses"
)

// DurationHandler exposes the duration correction and diagnostics endpoints.
type DurationHandler struct {
	service ArticleService
	log     zerolog.Logger
}

func NewDurationHandler(service ArticleService, log zerolog.Logger) *DurationHandler {
	return &DurationHandler{
		service: service,
		log:     log.With().Str("component", "duration-handler").Logger(),
	}
}

// UpdateDuration godoc
// @Summary      Set a manual duration
// @Description  Overwrites the stored duration with an operator supplied value.
// @Tags         durations
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Article ID"
// @Param        request  body  requests.UpdateDurationRequest  true  "New duration"
// @Success      200  {object}  responses.ArticleResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/duration [put]
func (h *DurationHandler) UpdateDuration(c *gin.Context) {
	var req requests.UpdateDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.service.UpdateDuration(c.Request.Context(), c.Param("id"), req.DurationSeconds)
	if err != nil {
		responses.HandleError(c, err, "failed to update duration")
		return
	}
	c.JSON(http.StatusOK, responses.NewArticleResponse(a))
}

// FixDuration godoc
// @Summary      Re-measure one article's duration
// @Description  Probes the stored audio and overwrites the stored duration with the measured value.
// @Tags         durations
// @Produce      json
// @Param        id  path  string  true  "Article ID"
// @Success      200  {object}  article.DurationFix
// @Failure      502  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/fix-duration [put]
func (h *DurationHandler) FixDuration(c *gin.Context) {
	fix, err := h.service.FixDuration(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to fix duration")
		return
	}
	c.JSON(http.StatusOK, fix)
}

// RealDuration godoc
// @Summary      Measure the real duration
// @Description  Measures the delivered audio and reconciles the result with the stored duration. Untrustworthy stored values are corrected in the background.
// @Tags         durations
// @Produce      json
// @Param        id  path  string  true  "Article ID"
// @Success      200  {object}  article.RealDurationResult
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /api/articles/{id}/real-duration [get]
func (h *DurationHandler) RealDuration(c *gin.Context) {
	result, err := h.service.RealDuration(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to measure duration")
		return
	}
	c.JSON(http.StatusOK, result)
}

// BulkFix godoc
// @Summary      Repair all suspicious durations
// @Description  Sweeps every article whose stored duration is untrustworthy and repairs it from a live measurement.
// @Tags         durations
// @Produce      json
// @Success      200  {object}  article.BulkFixReport
// @Security     ApiKeyAuth
// @Router       /api/articles/bulk-fix-durations [post]
func (h *DurationHandler) BulkFix(c *gin.Context) {
	report, err := h.service.BulkFixDurations(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "bulk duration repair failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Report godoc
// @Summary      Duration provenance report
// @Description  Summarises duration provenance across the catalog and lists suspicious entries.
// @Tags         durations
// @Produce      json
// @Success      200  {object}  article.DurationReport
// @Security     ApiKeyAuth
// @Router       /api/debug/durations [get]
func (h *DurationHandler) Report(c *gin.Context) {
	report, err := h.service.DurationHealth(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to build duration report")
		return
	}
	c.JSON(http.StatusOK, report)
}
