package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-sis-api/internal/models"
	"github.com/noah-isme/campus-sis-api/pkg/database"
	appErrors "github.com/noah-isme/campus-sis-api/pkg/errors"
)

type fakeSessionRepo struct {
	sessions  map[string]models.ClassSession
	nextID    int
	updates   int
	createErr error
	updateErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]models.ClassSession)}
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if s, ok := f.sessions[id]; ok && !s.IsDeleted {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessionRepo) FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ClassSession, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeSessionRepo) ExistsByName(ctx context.Context, exec sqlx.ExtContext, name, excludeID string) (bool, error) {
	for id, s := range f.sessions {
		if s.Name == name && !s.IsDeleted && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessionRepo) scoped(match func(models.ClassSession) bool, excludeID string) []models.ClassSession {
	var out []models.ClassSession
	for id, s := range f.sessions {
		if id != excludeID && !s.IsDeleted && match(s) {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSessionRepo) ListForRoom(ctx context.Context, exec sqlx.ExtContext, semesterID, roomID, excludeID string) ([]models.ClassSession, error) {
	return f.scoped(func(s models.ClassSession) bool { return s.SemesterID == semesterID && s.RoomID == roomID }, excludeID), nil
}

func (f *fakeSessionRepo) ListForInstructor(ctx context.Context, exec sqlx.ExtContext, semesterID, instructorID, excludeID string) ([]models.ClassSession, error) {
	return f.scoped(func(s models.ClassSession) bool { return s.SemesterID == semesterID && s.InstructorID == instructorID }, excludeID), nil
}

func (f *fakeSessionRepo) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	session.ID = "cs-" + string(rune('0'+f.nextID))
	f.sessions[session.ID] = *session
	return nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	f.sessions[session.ID] = *session
	return nil
}

func (f *fakeSessionRepo) SoftDelete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s, ok := f.sessions[id]
	if !ok || s.IsDeleted {
		return sql.ErrNoRows
	}
	s.IsDeleted = true
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionRepo) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSessionDetail, int, error) {
	var out []models.ClassSessionDetail
	for _, s := range f.sessions {
		if !s.IsDeleted {
			out = append(out, models.ClassSessionDetail{ClassSession: s})
		}
	}
	return out, len(out), nil
}

func (f *fakeSessionRepo) ListBySemester(ctx context.Context, semesterID string) ([]models.ClassSessionDetail, error) {
	var out []models.ClassSessionDetail
	for _, s := range f.sessions {
		if s.SemesterID == semesterID && !s.IsDeleted {
			out = append(out, models.ClassSessionDetail{ClassSession: s, RoomName: s.RoomID, CourseCode: s.CourseID})
		}
	}
	return out, nil
}

type fakeSemesters map[string]models.Semester

func (f fakeSemesters) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := f[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCatalog struct {
	missing map[string]bool
}

func (f fakeCatalog) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	if f.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id}, nil
}

func (f fakeCatalog) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	if f.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Employee{ID: id, FullName: "Dr. " + id}, nil
}

func (f fakeCatalog) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	if f.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Room{ID: id, Name: "Hall " + id}, nil
}

type fakeAudit struct {
	entries []models.AuditLog
	err     error
}

func (f *fakeAudit) Create(ctx context.Context, exec sqlx.ExtContext, log *models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *log)
	return nil
}

// fakeTx restores the snapshot taken by begin when fn fails. interleave, when set,
// runs once before the transaction starts to stand in for another writer committing first.
type fakeTx struct {
	begin      func() (rollback func())
	interleave func()
	runs       int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx sqlx.ExtContext) error) error {
	f.runs++
	if f.interleave != nil {
		hook := f.interleave
		f.interleave = nil
		hook()
	}
	var rollback func()
	if f.begin != nil {
		rollback = f.begin()
	}
	if err := fn(nil); err != nil {
		if rollback != nil {
			rollback()
		}
		return err
	}
	return nil
}

type sessionFixture struct {
	svc   *ClassSessionService
	repo  *fakeSessionRepo
	audit *fakeAudit
	tx    *fakeTx
	locks []int64
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{repo: newFakeSessionRepo(), audit: &fakeAudit{}}
	f.tx = &fakeTx{begin: func() func() {
		snapshot := make(map[string]models.ClassSession, len(f.repo.sessions))
		for k, v := range f.repo.sessions {
			snapshot[k] = v
		}
		audits := len(f.audit.entries)
		return func() {
			f.repo.sessions = snapshot
			f.audit.entries = f.audit.entries[:audits]
		}
	}}
	semesters := fakeSemesters{
		"S1": {ID: "S1", Name: "First Semester", IsActive: true},
		"S2": {ID: "S2", Name: "Second Semester", IsActive: false},
	}
	f.svc = NewClassSessionService(f.repo, semesters, fakeCatalog{missing: map[string]bool{"ghost": true}}, f.audit, f.tx, nil, nil, zap.NewNop())
	f.svc.lock = func(ctx context.Context, exec sqlx.ExecerContext, key int64) error {
		f.locks = append(f.locks, key)
		return nil
	}
	return f
}

func sessionRequest(name, room, instructor string, days []string, start, end string) CreateClassSessionRequest {
	return CreateClassSessionRequest{
		CourseID: "C1", SemesterID: "S1", InstructorID: instructor, RoomID: room,
		Name: name, Days: days, StartTime: start, EndTime: end,
	}
}

var registrar = models.Actor{UserID: "u-1", Roles: []models.UserRole{models.RoleRegistrar}}

func TestClassSessionServiceScenarios(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON", "WED"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)
	assert.Equal(t, models.NewWeekdaySet(models.Monday, models.Wednesday), a.Days)
	assert.Len(t, f.locks, 3, "name, room and instructor locks taken")
	assert.Contains(t, f.locks, database.AdvisoryKey("class-name", "A"))

	_, err = f.svc.Create(ctx, sessionRequest("B", "R1", "I2", []string{"TUE", "THU"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, sessionRequest("C", "R1", "I3", []string{"MON"}, "09:30", "10:30"), registrar)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrRoomConflict))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	detail, ok := appErr.Details.(*models.ScheduleConflictError)
	require.True(t, ok)
	require.Len(t, detail.Conflicts, 1)
	assert.Equal(t, a.ID, detail.Conflicts[0].SessionID)
	assert.Equal(t, "Hall R1", detail.Subject)
	assert.Contains(t, appErr.Message, "room Hall R1 is already booked")
	assert.Contains(t, appErr.Message, "09:00-10:00")

	_, err = f.svc.Create(ctx, sessionRequest("D", "R2", "I1", []string{"MON", "WED"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInstructorConflict))
	assert.Contains(t, err.Error(), "instructor Dr. I1 is already booked")

	inactive := sessionRequest("E", "R9", "I9", []string{"FRI"}, "15:00", "16:00")
	inactive.SemesterID = "S2"
	_, err = f.svc.Create(ctx, inactive, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInactiveSemester))

	assert.Len(t, f.repo.sessions, 2)
	assert.Len(t, f.audit.entries, 2)
	assert.Equal(t, models.AuditActionClassSessionCreate, f.audit.entries[0].Action)
}

func TestClassSessionServiceCreateValidationOrder(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	cases := []struct {
		name string
		req  CreateClassSessionRequest
		want *appErrors.Error
	}{
		{"duplicate name", sessionRequest("A", "R5", "I5", []string{"SAT"}, "09:00", "10:00"), appErrors.ErrDuplicateName},
		{"missing room", sessionRequest("N1", "ghost", "I5", []string{"SAT"}, "09:00", "10:00"), appErrors.ErrNotFound},
		{"end before start", sessionRequest("N2", "R5", "I5", []string{"SAT"}, "10:00", "09:00"), appErrors.ErrInvalidTimeRange},
		{"equal bounds", sessionRequest("N3", "R5", "I5", []string{"SAT"}, "10:00", "10:00"), appErrors.ErrInvalidTimeRange},
		{"unparseable time", sessionRequest("N4", "R5", "I5", []string{"SAT"}, "ten", "11:00"), appErrors.ErrInvalidTimeRange},
		{"no days", sessionRequest("N5", "R5", "I5", nil, "09:00", "10:00"), appErrors.ErrInvalidSchedule},
		{"bad day", sessionRequest("N6", "R5", "I5", []string{"MON", "XYZ"}, "09:00", "10:00"), appErrors.ErrInvalidSchedule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.req, registrar)
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, tc.want), "got %v", err)
		})
	}

	_, err = f.svc.Create(ctx, sessionRequest("N7", "R5", "ghost", []string{"SAT"}, "09:00", "10:00"), registrar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instructor ghost not found")
	assert.Len(t, f.audit.entries, 1)
}

func TestClassSessionServiceCreateRollsBackWhenAuditFails(t *testing.T) {
	f := newSessionFixture(t)
	f.audit.err = errors.New("audit table locked")

	_, err := f.svc.Create(context.Background(), sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPersistence))
	assert.Empty(t, f.repo.sessions)
}

func TestClassSessionServicePersistenceFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.createErr = errors.New("connection reset")

	_, err := f.svc.Create(context.Background(), sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPersistence))
	assert.Empty(t, f.audit.entries)
}

func TestClassSessionServiceNoOpUpdateWritesNothing(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON", "WED"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)
	locks := len(f.locks)

	name, room, start := "A", "R1", "09:00"
	got, err := f.svc.Update(ctx, created.ID, UpdateClassSessionRequest{
		Name: &name, RoomID: &room, StartTime: &start, Days: []string{"wed", "mon"},
	}, registrar)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 0, f.repo.updates)
	assert.Len(t, f.locks, locks, "no advisory locks for an unchanged session")
	assert.Len(t, f.audit.entries, 1)
}

func TestClassSessionServiceUpdateReadsRowInsideTransaction(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	f.tx.interleave = func() {
		moved := f.repo.sessions[created.ID]
		moved.RoomID = "R2"
		f.repo.sessions[created.ID] = moved
	}
	end := "11:00"
	updated, err := f.svc.Update(ctx, created.ID, UpdateClassSessionRequest{EndTime: &end}, registrar)
	require.NoError(t, err)

	stored := f.repo.sessions[created.ID]
	assert.Equal(t, "R2", stored.RoomID, "room change committed by the other writer survives")
	assert.Equal(t, models.MustTimeOfDay("11:00"), stored.EndTime)
	assert.Equal(t, "R2", updated.RoomID)
	entry := f.audit.entries[len(f.audit.entries)-1]
	assert.JSONEq(t, `{"end_time":"10:00"}`, string(entry.OldValues))
}

func TestClassSessionServiceRejectsBlankNames(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, sessionRequest("   ", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "got %v", err)

	created, err := f.svc.Create(ctx, sessionRequest("  Algebra I ", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", created.Name)

	blank := " \t "
	_, err = f.svc.Update(ctx, created.ID, UpdateClassSessionRequest{Name: &blank}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "got %v", err)
	assert.Equal(t, "Algebra I", f.repo.sessions[created.ID].Name)
	assert.Equal(t, 0, f.repo.updates)
}

func TestClassSessionServiceNameClaimedInsideTransaction(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.tx.interleave = func() {
		f.repo.sessions["other"] = models.ClassSession{ID: "other", Name: "A", SemesterID: "S1", RoomID: "R8", InstructorID: "I8"}
	}
	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateName), "got %v", err)
	assert.Contains(t, f.locks, database.AdvisoryKey("class-name", "A"))
	assert.Empty(t, f.audit.entries)

	f.repo.createErr = &pq.Error{Code: database.UniqueViolation, Constraint: "class_sessions_name_key"}
	_, err = f.svc.Create(ctx, sessionRequest("B", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateName), "got %v", err)
}

func TestClassSessionServiceMapsForeignKeyViolations(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	f.repo.createErr = &pq.Error{Code: database.ForeignKeyViolation, Constraint: "class_sessions_room_id_fkey"}

	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound), "got %v", err)

	f.repo.createErr = nil
	created, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	f.repo.updateErr = &pq.Error{Code: database.ForeignKeyViolation}
	room := "R3"
	_, err = f.svc.Update(ctx, created.ID, UpdateClassSessionRequest{RoomID: &room}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound), "got %v", err)
	assert.Equal(t, "R1", f.repo.sessions[created.ID].RoomID)
}

func TestClassSessionServiceRecordsScheduleQueryMetrics(t *testing.T) {
	f := newSessionFixture(t)
	metrics := NewMetricsService()
	f.svc.metrics = metrics
	ctx := context.Background()

	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, sessionRequest("B", "R1", "I2", []string{"MON"}, "09:30", "10:30"), registrar)
	require.True(t, appErrors.HasCode(err, appErrors.ErrRoomConflict))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	samples := map[string]uint64{}
	for _, family := range families {
		if family.GetName() != "db_query_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				samples[label.GetValue()] = metric.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, uint64(2), samples["room_schedule"])
	assert.Equal(t, uint64(1), samples["instructor_schedule"], "room conflict stops before the instructor lookup")
	assert.Equal(t, uint64(1), metrics.Snapshot().ScheduleConflicts)
}

func TestClassSessionServiceUpdateAuditsDiffOnly(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	end := "10:30"
	updated, err := f.svc.Update(ctx, created.ID, UpdateClassSessionRequest{EndTime: &end}, registrar)
	require.NoError(t, err)
	assert.Equal(t, models.MustTimeOfDay("10:30"), updated.EndTime)
	require.Len(t, f.audit.entries, 2)
	entry := f.audit.entries[1]
	assert.Equal(t, models.AuditActionClassSessionUpdate, entry.Action)
	assert.JSONEq(t, `{"end_time":"10:00"}`, string(entry.OldValues))
	assert.JSONEq(t, `{"end_time":"10:30"}`, string(entry.NewValues))
}

func TestClassSessionServiceUpdateRechecksConflicts(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, sessionRequest("B", "R1", "I2", []string{"TUE"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, b.ID, UpdateClassSessionRequest{Days: []string{"MON"}}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrRoomConflict))
	assert.Equal(t, models.NewWeekdaySet(models.Tuesday), f.repo.sessions[b.ID].Days)

	start, end := "09:30", "10:15"
	_, err = f.svc.Update(ctx, b.ID, UpdateClassSessionRequest{StartTime: &start, EndTime: &end}, registrar)
	require.NoError(t, err, "a session never conflicts with itself")

	_, err = f.svc.Update(ctx, b.ID, UpdateClassSessionRequest{Days: []string{}}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidSchedule))

	late := "08:00"
	_, err = f.svc.Update(ctx, b.ID, UpdateClassSessionRequest{EndTime: &late}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTimeRange))

	_, err = f.svc.Update(ctx, "nope", UpdateClassSessionRequest{EndTime: &late}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestClassSessionServiceMalformedExistingDaysDoNotBlock(t *testing.T) {
	f := newSessionFixture(t)
	f.repo.sessions["legacy"] = models.ClassSession{
		ID: "legacy", Name: "legacy", SemesterID: "S1", RoomID: "R1", InstructorID: "I1",
		StartTime: models.MustTimeOfDay("09:00"), EndTime: models.MustTimeOfDay("10:00"),
	}
	_, err := f.svc.Create(context.Background(), sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	assert.NoError(t, err)

	rename := "legacy-renamed"
	_, err = f.svc.Update(context.Background(), "legacy", UpdateClassSessionRequest{Name: &rename}, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidSchedule))

	fixed, err := f.svc.Update(context.Background(), "legacy", UpdateClassSessionRequest{Name: &rename, Days: []string{"FRI"}}, registrar)
	require.NoError(t, err)
	assert.Equal(t, models.NewWeekdaySet(models.Friday), fixed.Days)
}

func TestClassSessionServiceDeleteAndAvailability(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	report, err := f.svc.CheckAvailability(ctx, AvailabilityRequest{SemesterID: "S1", RoomID: "R1", InstructorID: "I7", Days: []string{"MON"}, StartTime: "09:45", EndTime: "11:00"})
	require.NoError(t, err)
	assert.False(t, report.Available)
	assert.Len(t, report.RoomConflicts, 1)
	assert.Empty(t, report.InstructorConflicts)

	require.NoError(t, f.svc.Delete(ctx, a.ID, registrar))
	assert.Equal(t, models.AuditActionClassSessionDelete, f.audit.entries[len(f.audit.entries)-1].Action)

	report, err = f.svc.CheckAvailability(ctx, AvailabilityRequest{SemesterID: "S1", RoomID: "R1", Days: []string{"MON"}, StartTime: "09:45", EndTime: "11:00"})
	require.NoError(t, err)
	assert.True(t, report.Available)

	err = f.svc.Delete(ctx, a.ID, registrar)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestClassSessionServiceExportTimetable(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, sessionRequest("A", "R1", "I1", []string{"MON", "WED"}, "09:00", "10:00"), registrar)
	require.NoError(t, err)

	file, err := f.svc.ExportTimetable(ctx, "S1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "timetable-S1.csv", file.Filename)
	assert.Contains(t, string(file.Body), "A,C1,,,R1,\"MON,WED\",09:00,10:00")

	_, err = f.svc.ExportTimetable(ctx, "S404", "pdf")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
