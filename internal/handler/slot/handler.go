package slot

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/service/booking"
	slotService "github.com/jwalitptl/scheduler-api/internal/service/slot"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/httputil"
)

type Handler struct {
	slots    *slotService.Service
	bookings *booking.Service
	validate *validator.Validate
}

func NewHandler(slots *slotService.Service, bookings *booking.Service) *Handler {
	return &Handler{slots: slots, bookings: bookings, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	schedules := r.Group("/schedules")
	{
		schedules.POST("/:id/slots/generate", h.Generate)
		schedules.POST("/:id/slots/regenerate", h.Regenerate)
		schedules.GET("/:id/slots", h.ListBySchedule)
	}

	slots := r.Group("/slots")
	{
		slots.GET("", h.List)
		slots.GET("/availability", h.Availability)
		slots.GET("/:id", h.Get)
		slots.POST("/:id/book", h.Book)
		slots.DELETE("/:id/booking", h.CancelBooking)
		slots.POST("/:id/cancel", h.Cancel)
		slots.DELETE("/:id", h.Delete)
	}

	configs := r.Group("/slot-configurations")
	{
		configs.POST("", h.CreateConfiguration)
		configs.GET("", h.ListConfigurations)
		configs.GET("/:id", h.GetConfiguration)
		configs.PUT("/:id", h.UpdateConfiguration)
		configs.DELETE("/:id", h.DeleteConfiguration)
	}
}

func (h *Handler) Generate(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid schedule ID", err))
		return
	}

	slots, err := h.slots.GenerateSlots(c.Request.Context(), actor, scheduleID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, slots)
}

func (h *Handler) Regenerate(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid schedule ID", err))
		return
	}

	slots, err := h.slots.RegenerateSlots(c.Request.Context(), actor, scheduleID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, slots)
}

func (h *Handler) ListBySchedule(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid schedule ID", err))
		return
	}

	slots, err := h.slots.ListSlotsBySchedule(c.Request.Context(), scheduleID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.SlotFilters{}
	if id := c.Query("staff_id"); id != "" {
		staffID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid staff ID", err))
			return
		}
		filters.StaffID = staffID
	}
	if id := c.Query("schedule_id"); id != "" {
		scheduleID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid schedule ID", err))
			return
		}
		filters.ScheduleID = scheduleID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.SlotStatus(status)
	}
	if err := c.ShouldBindQuery(&filters.Range); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid date range", err))
		return
	}

	slots, err := h.slots.ListSlots(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) Availability(c *gin.Context) {
	staffID, err := uuid.Parse(c.Query("staff_id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid staff ID", err))
		return
	}

	var rng model.DateRange
	if err := c.ShouldBindQuery(&rng); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid date range", err))
		return
	}

	slots, err := h.slots.ListAvailability(c.Request.Context(), staffID, rng)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid slot ID", err))
		return
	}

	slot, err := h.slots.GetSlot(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slot)
}

func (h *Handler) Book(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid slot ID", err))
		return
	}

	if err := h.bookings.Book(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"booked": true})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid slot ID", err))
		return
	}

	released, err := h.bookings.CancelBooking(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"released": released})
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid slot ID", err))
		return
	}

	slot, err := h.slots.CancelSlot(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slot)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid slot ID", err))
		return
	}

	if err := h.slots.DeleteSlot(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) CreateConfiguration(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateSlotConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	cfg, err := h.slots.CreateConfiguration(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, cfg)
}

func (h *Handler) ListConfigurations(c *gin.Context) {
	if id := c.Query("staff_id"); id != "" {
		staffID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid staff ID", err))
			return
		}
		configs, err := h.slots.ListConfigurationsForStaff(c.Request.Context(), staffID)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, configs)
		return
	}

	configs, err := h.slots.ListConfigurations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, configs)
}

func (h *Handler) GetConfiguration(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid configuration ID", err))
		return
	}

	cfg, err := h.slots.GetConfiguration(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) UpdateConfiguration(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid configuration ID", err))
		return
	}

	var req model.UpdateSlotConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	cfg, err := h.slots.UpdateConfiguration(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) DeleteConfiguration(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid configuration ID", err))
		return
	}

	if err := h.slots.DeleteConfiguration(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
