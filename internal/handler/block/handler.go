package block

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	blockService "github.com/jwalitptl/scheduler-api/internal/service/block"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/httputil"
)

type Handler struct {
	service  *blockService.Service
	validate *validator.Validate
}

func NewHandler(service *blockService.Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	blocks := r.Group("/blocks")
	{
		blocks.POST("", h.Create)
		blocks.GET("", h.List)
		blocks.GET("/:id", h.Get)
		blocks.PUT("/:id", h.Update)
		blocks.DELETE("/:id", h.Deactivate)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	block, err := h.service.CreateBlock(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, block)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid block ID", err))
		return
	}

	block, err := h.service.GetBlock(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, block)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.BlockFilters{}
	if id := c.Query("staff_id"); id != "" {
		staffID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid staff ID", err))
			return
		}
		filters.StaffID = staffID
	}
	if date := c.Query("date"); date != "" {
		parsed, err := parseDate(date)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid date", err))
			return
		}
		filters.Date = parsed
	}
	filters.ActiveOnly = c.Query("active") == "true"

	blocks, err := h.service.ListBlocks(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, blocks)
}

func (h *Handler) Update(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid block ID", err))
		return
	}

	var req model.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	block, err := h.service.UpdateBlock(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, block)
}

func (h *Handler) Deactivate(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid block ID", err))
		return
	}

	if err := h.service.DeactivateBlock(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deactivated": true})
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
