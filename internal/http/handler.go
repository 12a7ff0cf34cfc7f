package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gate-access-service/internal/auth"
	"gate-access-service/internal/domain/access"
	"gate-access-service/internal/service"
)

type Handler struct {
	pipeline *service.Pipeline
	auth     *auth.Manager
	log      zerolog.Logger
}

func NewHandler(pipeline *service.Pipeline, authManager *auth.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		auth:     authManager,
		log:      log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	// Public endpoints: detection-side collaborators and the dashboard feed.
	public := r.Group("/api/v1")
	{
		public.POST("/detections", h.submitDetection)
		public.POST("/access/decide", h.decide)
		public.GET("/access-log", h.listAccessLog)
		public.POST("/auth/login", h.login)
	}

	// Administrative surface.
	protected := r.Group("/api/v1")
	protected.Use(auth.Middleware(h.auth))
	{
		protected.GET("/whitelist", h.listWhitelist)
		protected.POST("/whitelist", h.upsertWhitelist)
		protected.DELETE("/whitelist/:plate", h.deleteWhitelist)
		protected.POST("/gate/manual", h.manualGate)
	}
}

func (h *Handler) submitDetection(c *gin.Context) {
	var det access.Detection
	if err := c.ShouldBindJSON(&det); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	decisions, err := h.pipeline.ProcessFrame(c.Request.Context(), det)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}

type decideRequest struct {
	Plate string `json:"plate" binding:"required"`
}

func (h *Handler) decide(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	decision, err := h.pipeline.Decide(c.Request.Context(), req.Plate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (h *Handler) listAccessLog(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	events, err := h.pipeline.RecentEvents(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(events))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("invalid credentials"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) listWhitelist(c *gin.Context) {
	entries, err := h.pipeline.ListWhitelist(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entries))
}

func (h *Handler) upsertWhitelist(c *gin.Context) {
	var entry access.WhitelistEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	stored, err := h.pipeline.UpsertWhitelist(c.Request.Context(), entry)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(stored))
}

func (h *Handler) deleteWhitelist(c *gin.Context) {
	plate := strings.TrimSpace(c.Param("plate"))

	if err := h.pipeline.DeleteWhitelist(c.Request.Context(), plate); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) manualGate(c *gin.Context) {
	decision, err := h.pipeline.ManualOverride(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "store unavailable",
			"outcome": access.OutcomeUnknown,
		})
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
