package repository

import (
	"context"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisitRepository struct {
	DB *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{DB: db}
}

func (r *VisitRepository) Create(ctx context.Context, rec *model.VisitRecord) error {
	return r.DB.WithContext(writeCtx(ctx)).Create(rec).Error
}

// FindByID 包含三张子表
func (r *VisitRepository) FindByID(ctx context.Context, id string) (*model.VisitRecord, error) {
	var rec model.VisitRecord
	err := r.DB.WithContext(ctx).
		Preload("Symptoms", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("DailyLiving").
		Preload("QualityOfLife").
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *VisitRepository) ListByUser(ctx context.Context, userID, programID uint) ([]model.VisitRecord, error) {
	var recs []model.VisitRecord
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if programID > 0 {
		query = query.Where("program_id = ?", programID)
	}
	err := query.Order("created_at desc").Find(&recs).Error
	return recs, err
}

var (
	symptomUpdateColumns = []string{
		"present", "frequency", "intensity", "treatments", "context", "time_patterns", "notes", "updated_at",
	}
	dailyLivingUpdateColumns = []string{
		"work_impact", "household_impact", "social_impact", "exercise_impact", "self_care_impact",
		"affected_activities", "notes", "updated_at",
	}
	qualityOfLifeUpdateColumns = []string{
		"physical_health", "emotional_wellbeing", "social_life", "energy_level", "overall", "notes", "updated_at",
	}
)

// SaveStep 子表 upsert 与父表 current_step 更新在同一事务中
func (r *VisitRepository) SaveStep(ctx context.Context, w *workflow.StepWrite) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		switch {
		case len(w.Symptoms) > 0:
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "record_id"}, {Name: "symptom_type"}},
				DoUpdates: clause.AssignmentColumns(symptomUpdateColumns),
			}).Create(&w.Symptoms).Error
			if err != nil {
				return err
			}
		case w.DailyLiving != nil:
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "record_id"}},
				DoUpdates: clause.AssignmentColumns(dailyLivingUpdateColumns),
			}).Create(w.DailyLiving).Error
			if err != nil {
				return err
			}
		case w.QualityOfLife != nil:
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "record_id"}},
				DoUpdates: clause.AssignmentColumns(qualityOfLifeUpdateColumns),
			}).Create(w.QualityOfLife).Error
			if err != nil {
				return err
			}
		}

		res := tx.Model(&model.VisitRecord{}).Where("id = ?", w.RecordID).Updates(w.ParentColumns)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrNotFound
		}
		return nil
	})
}

// Delete 子表物理删除，父记录软删除
func (r *VisitRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(writeCtx(ctx)).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&model.Symptom{}, &model.DailyLiving{}, &model.QualityOfLife{}} {
			if err := tx.Where("record_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&model.VisitRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrNotFound
		}
		return nil
	})
}
