package repository

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// Create 唯一索引 (user_id, program_id) 保证重复报名失败
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	err := r.DB.WithContext(writeCtx(ctx)).Create(e).Error
	if duplicate(err) {
		return util.ErrAlreadyEnrolled
	}
	return err
}

func (r *EnrollmentRepository) FindByUserAndProgram(ctx context.Context, userID, programID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND program_id = ?", userID, programID).
		First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("enrolled_at asc").Find(&es).Error
	return es, err
}

// ApplyChange 一条 UPDATE 写入状态机的全部列
func (r *EnrollmentRepository) ApplyChange(ctx context.Context, id uint, columns map[string]interface{}) error {
	return updateEnrollment(r.DB.WithContext(writeCtx(ctx)), id, columns)
}

// CompleteAssessment 提交记录与报名状态在同一事务中写入
func (r *EnrollmentRepository) CompleteAssessment(ctx context.Context, submission *model.AssessmentSubmission, columns map[string]interface{}) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}
		return updateEnrollment(tx, submission.EnrollmentID, columns)
	})
}

func updateEnrollment(tx *gorm.DB, id uint, columns map[string]interface{}) error {
	values := make(map[string]interface{}, len(columns)+1)
	for k, v := range columns {
		values[k] = v
	}
	values["updated_at"] = time.Now()

	res := tx.Model(&model.Enrollment{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
