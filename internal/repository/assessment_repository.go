package repository

import (
	"context"
	"health_track_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) FindAssessment(ctx context.Context, programID uint, kind model.AssessmentKind) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.WithContext(ctx).
		Where("program_id = ? AND kind = ?", programID, kind).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AssessmentRepository) ListQuestions(ctx context.Context, assessmentID uint) ([]model.AssessmentQuestion, error) {
	var qs []model.AssessmentQuestion
	err := r.DB.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("sort_order asc, id asc").
		Find(&qs).Error
	return qs, err
}
