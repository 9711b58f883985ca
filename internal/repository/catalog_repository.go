package repository

import (
	"context"
	"health_track_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 项目、术语表和视频
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) ListPrograms(ctx context.Context) ([]model.HealthTrackModule, error) {
	var programs []model.HealthTrackModule
	err := r.DB.WithContext(ctx).Where("published = ?", true).Order("id asc").Find(&programs).Error
	return programs, err
}

func (r *CatalogRepository) FindProgramByID(ctx context.Context, id uint) (*model.HealthTrackModule, error) {
	var p model.HealthTrackModule
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *CatalogRepository) ListGlossary(ctx context.Context, programID uint, search string) ([]model.GlossaryTerm, error) {
	var terms []model.GlossaryTerm
	query := r.DB.WithContext(ctx).Where("program_id = ?", programID)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("term LIKE ? OR definition LIKE ?", like, like)
	}
	err := query.Order("term asc").Find(&terms).Error
	return terms, err
}

func (r *CatalogRepository) CreateGlossaryTerm(ctx context.Context, term *model.GlossaryTerm) error {
	return r.DB.WithContext(writeCtx(ctx)).Create(term).Error
}

func (r *CatalogRepository) ListVideos(ctx context.Context, programID uint) ([]model.Video, error) {
	var videos []model.Video
	err := r.DB.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("is_intro desc, sort_order asc, id asc").
		Find(&videos).Error
	return videos, err
}

func (r *CatalogRepository) CreateVideo(ctx context.Context, video *model.Video) error {
	return r.DB.WithContext(writeCtx(ctx)).Create(video).Error
}
