package repository

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"

	"gorm.io/gorm"
)

type MedicalRecordRepository struct {
	DB *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{DB: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, rec *model.MedicalRecord) error {
	return r.DB.WithContext(writeCtx(ctx)).Create(rec).Error
}

func (r *MedicalRecordRepository) FindByID(ctx context.Context, id uint) (*model.MedicalRecord, error) {
	var rec model.MedicalRecord
	if err := r.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *MedicalRecordRepository) ListByUser(ctx context.Context, userID uint, category string, page, limit int) ([]model.MedicalRecord, int64, error) {
	var recs []model.MedicalRecord
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.MedicalRecord{}).Where("user_id = ?", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := paginate(page, limit)
	err := query.Order("created_at desc").Offset(offset).Limit(size).Find(&recs).Error
	return recs, total, err
}

func (r *MedicalRecordRepository) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(writeCtx(ctx)).Delete(&model.MedicalRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
