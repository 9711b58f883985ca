package service

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/workflow"
	"time"
)

// 以下接口由 repository 包实现，service 只依赖需要的方法

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

type EnrollmentStore interface {
	Create(ctx context.Context, e *model.Enrollment) error
	FindByUserAndProgram(ctx context.Context, userID, programID uint) (*model.Enrollment, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error)
	ApplyChange(ctx context.Context, id uint, columns map[string]interface{}) error
	CompleteAssessment(ctx context.Context, submission *model.AssessmentSubmission, columns map[string]interface{}) error
}

type AssessmentStore interface {
	FindAssessment(ctx context.Context, programID uint, kind model.AssessmentKind) (*model.Assessment, error)
	ListQuestions(ctx context.Context, assessmentID uint) ([]model.AssessmentQuestion, error)
}

type CatalogStore interface {
	ListPrograms(ctx context.Context) ([]model.HealthTrackModule, error)
	FindProgramByID(ctx context.Context, id uint) (*model.HealthTrackModule, error)
	ListGlossary(ctx context.Context, programID uint, search string) ([]model.GlossaryTerm, error)
	CreateGlossaryTerm(ctx context.Context, term *model.GlossaryTerm) error
	ListVideos(ctx context.Context, programID uint) ([]model.Video, error)
	CreateVideo(ctx context.Context, video *model.Video) error
}

type VisitStore interface {
	Create(ctx context.Context, rec *model.VisitRecord) error
	FindByID(ctx context.Context, id string) (*model.VisitRecord, error)
	ListByUser(ctx context.Context, userID, programID uint) ([]model.VisitRecord, error)
	SaveStep(ctx context.Context, w *workflow.StepWrite) error
	Delete(ctx context.Context, id string) error
}

type MedicationStore interface {
	CreateWithEvent(ctx context.Context, med *model.Medication, event *model.MedicationHistoryEvent) error
	UpdateWithEvent(ctx context.Context, id uint, columns map[string]interface{}, event *model.MedicationHistoryEvent) error
	AppendEvent(ctx context.Context, event *model.MedicationHistoryEvent) error
	FindByID(ctx context.Context, id uint) (*model.Medication, error)
	ListByUser(ctx context.Context, userID uint, activeOnly bool) ([]model.Medication, error)
	ListHistory(ctx context.Context, medicationID uint) ([]model.MedicationHistoryEvent, error)
	ListHistoryByUser(ctx context.Context, userID uint) ([]model.MedicationHistoryEvent, error)
	Delete(ctx context.Context, id uint) error
}

type MedicalRecordStore interface {
	Create(ctx context.Context, rec *model.MedicalRecord) error
	FindByID(ctx context.Context, id uint) (*model.MedicalRecord, error)
	ListByUser(ctx context.Context, userID uint, category string, page, limit int) ([]model.MedicalRecord, int64, error)
	Delete(ctx context.Context, id uint) error
}
