package service

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/workflow"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

var patient = Session{UserID: 7, Email: "jane@example.com", Role: model.Patient, SessionID: "sid-1"}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	return m.Called(ctx, sess, ttl).Error(0)
}

func (m *mockSessionStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) Refresh(ctx context.Context, sessionID string, ttl time.Duration) error {
	return m.Called(ctx, sessionID, ttl).Error(0)
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockEnrollmentStore struct{ mock.Mock }

func (m *mockEnrollmentStore) Create(ctx context.Context, e *model.Enrollment) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEnrollmentStore) FindByUserAndProgram(ctx context.Context, userID, programID uint) (*model.Enrollment, error) {
	args := m.Called(ctx, userID, programID)
	if e := args.Get(0); e != nil {
		return e.(*model.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEnrollmentStore) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	args := m.Called(ctx, userID)
	es, _ := args.Get(0).([]model.Enrollment)
	return es, args.Error(1)
}

func (m *mockEnrollmentStore) ApplyChange(ctx context.Context, id uint, columns map[string]interface{}) error {
	return m.Called(ctx, id, columns).Error(0)
}

func (m *mockEnrollmentStore) CompleteAssessment(ctx context.Context, submission *model.AssessmentSubmission, columns map[string]interface{}) error {
	return m.Called(ctx, submission, columns).Error(0)
}

type mockAssessmentStore struct{ mock.Mock }

func (m *mockAssessmentStore) FindAssessment(ctx context.Context, programID uint, kind model.AssessmentKind) (*model.Assessment, error) {
	args := m.Called(ctx, programID, kind)
	if a := args.Get(0); a != nil {
		return a.(*model.Assessment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAssessmentStore) ListQuestions(ctx context.Context, assessmentID uint) ([]model.AssessmentQuestion, error) {
	args := m.Called(ctx, assessmentID)
	qs, _ := args.Get(0).([]model.AssessmentQuestion)
	return qs, args.Error(1)
}

type mockCatalogStore struct{ mock.Mock }

func (m *mockCatalogStore) ListPrograms(ctx context.Context) ([]model.HealthTrackModule, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]model.HealthTrackModule)
	return ps, args.Error(1)
}

func (m *mockCatalogStore) FindProgramByID(ctx context.Context, id uint) (*model.HealthTrackModule, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*model.HealthTrackModule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalogStore) ListGlossary(ctx context.Context, programID uint, search string) ([]model.GlossaryTerm, error) {
	args := m.Called(ctx, programID, search)
	ts, _ := args.Get(0).([]model.GlossaryTerm)
	return ts, args.Error(1)
}

func (m *mockCatalogStore) CreateGlossaryTerm(ctx context.Context, term *model.GlossaryTerm) error {
	return m.Called(ctx, term).Error(0)
}

func (m *mockCatalogStore) ListVideos(ctx context.Context, programID uint) ([]model.Video, error) {
	args := m.Called(ctx, programID)
	vs, _ := args.Get(0).([]model.Video)
	return vs, args.Error(1)
}

func (m *mockCatalogStore) CreateVideo(ctx context.Context, video *model.Video) error {
	return m.Called(ctx, video).Error(0)
}

type mockVisitStore struct{ mock.Mock }

func (m *mockVisitStore) Create(ctx context.Context, rec *model.VisitRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockVisitStore) FindByID(ctx context.Context, id string) (*model.VisitRecord, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*model.VisitRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVisitStore) ListByUser(ctx context.Context, userID, programID uint) ([]model.VisitRecord, error) {
	args := m.Called(ctx, userID, programID)
	rs, _ := args.Get(0).([]model.VisitRecord)
	return rs, args.Error(1)
}

func (m *mockVisitStore) SaveStep(ctx context.Context, w *workflow.StepWrite) error {
	return m.Called(ctx, w).Error(0)
}

func (m *mockVisitStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockMedicationStore struct{ mock.Mock }

func (m *mockMedicationStore) CreateWithEvent(ctx context.Context, med *model.Medication, event *model.MedicationHistoryEvent) error {
	return m.Called(ctx, med, event).Error(0)
}

func (m *mockMedicationStore) UpdateWithEvent(ctx context.Context, id uint, columns map[string]interface{}, event *model.MedicationHistoryEvent) error {
	return m.Called(ctx, id, columns, event).Error(0)
}

func (m *mockMedicationStore) AppendEvent(ctx context.Context, event *model.MedicationHistoryEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockMedicationStore) FindByID(ctx context.Context, id uint) (*model.Medication, error) {
	args := m.Called(ctx, id)
	if med := args.Get(0); med != nil {
		return med.(*model.Medication), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMedicationStore) ListByUser(ctx context.Context, userID uint, activeOnly bool) ([]model.Medication, error) {
	args := m.Called(ctx, userID, activeOnly)
	ms, _ := args.Get(0).([]model.Medication)
	return ms, args.Error(1)
}

func (m *mockMedicationStore) ListHistory(ctx context.Context, medicationID uint) ([]model.MedicationHistoryEvent, error) {
	args := m.Called(ctx, medicationID)
	es, _ := args.Get(0).([]model.MedicationHistoryEvent)
	return es, args.Error(1)
}

func (m *mockMedicationStore) ListHistoryByUser(ctx context.Context, userID uint) ([]model.MedicationHistoryEvent, error) {
	args := m.Called(ctx, userID)
	es, _ := args.Get(0).([]model.MedicationHistoryEvent)
	return es, args.Error(1)
}

func (m *mockMedicationStore) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type mockGate struct{ mock.Mock }

func (m *mockGate) RequireFeature(ctx context.Context, sess Session, programID uint, f workflow.Feature) (*model.Enrollment, error) {
	args := m.Called(ctx, sess, programID, f)
	if e := args.Get(0); e != nil {
		return e.(*model.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGate) RequireFeatureAnyProgram(ctx context.Context, sess Session, f workflow.Feature) (*model.Enrollment, error) {
	args := m.Called(ctx, sess, f)
	if e := args.Get(0); e != nil {
		return e.(*model.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Name() string { return "mock" }

func (m *mockPublisher) Publish(ctx context.Context, event ProgramEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error) {
	args := m.Called(ctx, key, localPath, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStorage) GetURL(key string) string {
	return "/uploads/" + key
}
