package leave

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	leaveService "github.com/jwalitptl/scheduler-api/internal/service/leave"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/httputil"
)

type Handler struct {
	service  *leaveService.Service
	validate *validator.Validate
}

func NewHandler(service *leaveService.Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	leaves := r.Group("/leaves")
	{
		leaves.POST("", h.Request)
		leaves.GET("", h.List)
		leaves.GET("/:id", h.Get)
		leaves.POST("/:id/approve", h.Approve)
		leaves.POST("/:id/reject", h.Reject)
		leaves.POST("/:id/cancel", h.Cancel)
		leaves.POST("/:id/return-to-pending", h.ReturnToPending)
	}
}

func (h *Handler) Request(c *gin.Context) {
	var req model.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	leave, err := h.service.Request(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, leave)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid leave ID", err))
		return
	}

	leave, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leave)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.LeaveFilters{}
	if id := c.Query("staff_id"); id != "" {
		staffID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid staff ID", err))
			return
		}
		filters.StaffID = staffID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.LeaveStatus(status)
	}

	leaves, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leaves)
}

func (h *Handler) Approve(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid leave ID", err))
		return
	}

	leave, err := h.service.Approve(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leave)
}

func (h *Handler) Reject(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid leave ID", err))
		return
	}

	var body struct {
		Reason *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	leave, err := h.service.Reject(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leave)
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid leave ID", err))
		return
	}

	leave, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leave)
}

func (h *Handler) ReturnToPending(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid leave ID", err))
		return
	}

	leave, err := h.service.ReturnToPending(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leave)
}
