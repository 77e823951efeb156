package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-sis-api/internal/middleware"
	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/internal/service"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type classSessionServiceMock struct {
	createErr   error
	lastCreate  service.CreateClassSessionRequest
	lastActor   models.Actor
	lastFilter  models.ClassSessionFilter
	lastFormat  string
	deleteCalls int
}

func (m *classSessionServiceMock) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.ClassSessionDetail{{ClassSession: models.ClassSession{ID: "cs-1"}}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *classSessionServiceMock) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
	}
	return &models.ClassSession{ID: id}, nil
}

func (m *classSessionServiceMock) Create(ctx context.Context, req service.CreateClassSessionRequest, actor models.Actor) (*models.ClassSession, error) {
	m.lastCreate, m.lastActor = req, actor
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.ClassSession{ID: "cs-new", Name: req.Name}, nil
}

func (m *classSessionServiceMock) Update(ctx context.Context, id string, req service.UpdateClassSessionRequest, actor models.Actor) (*models.ClassSession, error) {
	return &models.ClassSession{ID: id}, nil
}

func (m *classSessionServiceMock) Delete(ctx context.Context, id string, actor models.Actor) error {
	m.deleteCalls++
	return nil
}

func (m *classSessionServiceMock) CheckAvailability(ctx context.Context, req service.AvailabilityRequest) (*models.AvailabilityReport, error) {
	return &models.AvailabilityReport{Available: true}, nil
}

func (m *classSessionServiceMock) ExportTimetable(ctx context.Context, semesterID, format string) (*service.TimetableFile, error) {
	m.lastFormat = format
	return &service.TimetableFile{Filename: "timetable-" + semesterID + ".csv", ContentType: "text/csv", Body: []byte("Session\n")}, nil
}

var testClaims = &models.JWTClaims{UserID: "u-1", Roles: []models.UserRole{models.RoleRegistrar}}

func newTestContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, testClaims)
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestClassSessionHandlerCreate(t *testing.T) {
	mockSvc := &classSessionServiceMock{}
	h := NewClassSessionHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/class-sessions", `{"course_id":"C1","semester_id":"S1","instructor_id":"I1","room_id":"R1","name":"A","days":["MON","WED"],"start_time":"09:00","end_time":"10:00"}`)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"MON", "WED"}, mockSvc.lastCreate.Days)
	assert.Equal(t, "u-1", mockSvc.lastActor.UserID)
}

func TestClassSessionHandlerCreateConflict(t *testing.T) {
	detail := &models.ScheduleConflictError{Kind: models.ConflictKindRoom, Conflicts: []models.ScheduleConflict{{SessionID: "cs-1", Name: "A"}}}
	conflict := appErrors.Wrap(detail, appErrors.ErrRoomConflict.Code, appErrors.ErrRoomConflict.Status, "room R1 is already booked")
	conflict.Details = detail
	h := NewClassSessionHandler(&classSessionServiceMock{createErr: conflict})

	c, w := newTestContext(http.MethodPost, "/class-sessions", `{"name":"C"}`)
	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "ROOM_CONFLICT", errBody["code"])
	details := errBody["details"].(map[string]interface{})
	assert.Len(t, details["conflicts"], 1)
}

func TestClassSessionHandlerCreateInvalidBody(t *testing.T) {
	h := NewClassSessionHandler(&classSessionServiceMock{})
	c, w := newTestContext(http.MethodPost, "/class-sessions", `{"name":`)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassSessionHandlerListFilters(t *testing.T) {
	mockSvc := &classSessionServiceMock{}
	h := NewClassSessionHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/class-sessions?semesterId=S1&roomId=R1&active=true&page=2&limit=5", "")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", mockSvc.lastFilter.SemesterID)
	assert.Equal(t, "R1", mockSvc.lastFilter.RoomID)
	require.NotNil(t, mockSvc.lastFilter.Active)
	assert.True(t, *mockSvc.lastFilter.Active)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.PageSize)
	assert.NotNil(t, decodeEnvelope(t, w)["pagination"])
}

func TestClassSessionHandlerGetNotFound(t *testing.T) {
	h := NewClassSessionHandler(&classSessionServiceMock{})
	c, w := newTestContext(http.MethodGet, "/class-sessions/missing", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassSessionHandlerDeleteAndTimetable(t *testing.T) {
	mockSvc := &classSessionServiceMock{}
	h := NewClassSessionHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/class-sessions/cs-1", "")
	c.Params = gin.Params{{Key: "id", Value: "cs-1"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, mockSvc.deleteCalls)

	c, w = newTestContext(http.MethodGet, "/semesters/S1/timetable", "")
	c.Params = gin.Params{{Key: "id", Value: "S1"}}
	h.Timetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-S1.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
