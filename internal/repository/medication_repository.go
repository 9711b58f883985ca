package repository

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"

	"gorm.io/gorm"
)

type MedicationRepository struct {
	DB *gorm.DB
}

func NewMedicationRepository(db *gorm.DB) *MedicationRepository {
	return &MedicationRepository{DB: db}
}

// CreateWithEvent 新增药物并写入 start 事件
func (r *MedicationRepository) CreateWithEvent(ctx context.Context, med *model.Medication, event *model.MedicationHistoryEvent) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(med).Error; err != nil {
			return err
		}
		event.MedicationID = med.ID
		return tx.Create(event).Error
	})
}

// UpdateWithEvent event 为 nil 时只更新药物
func (r *MedicationRepository) UpdateWithEvent(ctx context.Context, id uint, columns map[string]interface{}, event *model.MedicationHistoryEvent) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		if len(columns) > 0 {
			res := tx.Model(&model.Medication{}).Where("id = ?", id).Updates(columns)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return util.ErrNotFound
			}
		}
		if event == nil {
			return nil
		}
		event.MedicationID = id
		return tx.Create(event).Error
	})
}

func (r *MedicationRepository) AppendEvent(ctx context.Context, event *model.MedicationHistoryEvent) error {
	return r.DB.WithContext(writeCtx(ctx)).Create(event).Error
}

func (r *MedicationRepository) FindByID(ctx context.Context, id uint) (*model.Medication, error) {
	var med model.Medication
	if err := r.DB.WithContext(ctx).First(&med, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &med, nil
}

// ListByUser 正在使用的排在前面
func (r *MedicationRepository) ListByUser(ctx context.Context, userID uint, activeOnly bool) ([]model.Medication, error) {
	var meds []model.Medication
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("still_using = ?", true)
	}
	err := query.Order("still_using desc, start_date desc, id desc").Find(&meds).Error
	return meds, err
}

func (r *MedicationRepository) ListHistory(ctx context.Context, medicationID uint) ([]model.MedicationHistoryEvent, error) {
	var events []model.MedicationHistoryEvent
	err := r.DB.WithContext(ctx).
		Where("medication_id = ?", medicationID).
		Order("event_date asc, id asc").
		Find(&events).Error
	return events, err
}

func (r *MedicationRepository) ListHistoryByUser(ctx context.Context, userID uint) ([]model.MedicationHistoryEvent, error) {
	var events []model.MedicationHistoryEvent
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("event_date asc, id asc").
		Find(&events).Error
	return events, err
}

// Delete 物理删除药物及其历史
func (r *MedicationRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medication_id = ?", id).Delete(&model.MedicationHistoryEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Medication{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrNotFound
		}
		return nil
	})
}
