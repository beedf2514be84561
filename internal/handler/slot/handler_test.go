package slot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository/memory"
	"github.com/jwalitptl/scheduler-api/internal/service/booking"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	slotService "github.com/jwalitptl/scheduler-api/internal/service/slot"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "slot_handler")

func newTestRouter() (*gin.Engine, *memory.Store) {
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	slots := slotService.NewService(
		store.Slots(), store.Schedules(), store.SlotConfigurations(), store.Blocks(),
		event.NopEmitter{}, testMetrics, log)
	bookings := booking.NewService(store.Slots(), store.Blocks(), event.NopEmitter{}, testMetrics, log)

	engine := gin.New()
	engine.Use(middleware.Actor())
	api := engine.Group("/api/v1")
	NewHandler(slots, bookings).RegisterRoutes(api)
	return engine, store
}

func seedSchedule(t *testing.T, store *memory.Store) *model.Schedule {
	t.Helper()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := &model.Schedule{
		StaffID:   uuid.New(),
		Date:      model.Day(date),
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 10, 0),
		ShiftType: model.ShiftTypeMorning,
		Status:    model.ScheduleStatusScheduled,
	}
	require.NoError(t, store.Schedules().Create(context.Background(), schedule))
	return schedule
}

func doRequest(engine *gin.Engine, method, path string, asAdmin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if asAdmin {
		req.Header.Set(middleware.HeaderActorID, uuid.NewString())
		req.Header.Set(middleware.HeaderActorRole, string(model.RoleAdmin))
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	engine, store := newTestRouter()
	schedule := seedSchedule(t, store)

	w := doRequest(engine, http.MethodPost, "/api/v1/schedules/"+schedule.ID.String()+"/slots/generate", true)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    []model.Slot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)

	// second generation conflicts
	w = doRequest(engine, http.MethodPost, "/api/v1/schedules/"+schedule.ID.String()+"/slots/generate", true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerateEndpointWithoutActor(t *testing.T) {
	engine, store := newTestRouter()
	schedule := seedSchedule(t, store)

	w := doRequest(engine, http.MethodPost, "/api/v1/schedules/"+schedule.ID.String()+"/slots/generate", false)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookEndpoint(t *testing.T) {
	engine, store := newTestRouter()
	schedule := seedSchedule(t, store)

	w := doRequest(engine, http.MethodPost, "/api/v1/schedules/"+schedule.ID.String()+"/slots/generate", true)
	require.Equal(t, http.StatusCreated, w.Code)

	slots, err := store.Slots().ListBySchedule(context.Background(), schedule.ID)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	slotID := slots[0].ID.String()

	w = doRequest(engine, http.MethodPost, "/api/v1/slots/"+slotID+"/book", false)
	require.Equal(t, http.StatusOK, w.Code)

	// slot is at capacity now
	w = doRequest(engine, http.MethodPost, "/api/v1/slots/"+slotID+"/book", false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(engine, http.MethodDelete, "/api/v1/slots/"+slotID+"/booking", false)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/v1/slots/"+slotID+"/book", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookMissingSlotEndpoint(t *testing.T) {
	engine, _ := newTestRouter()

	w := doRequest(engine, http.MethodPost, "/api/v1/slots/"+uuid.NewString()+"/book", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/v1/slots/not-a-uuid/book", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
