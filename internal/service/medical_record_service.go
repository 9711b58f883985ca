package service

import (
	"context"
	"fmt"
	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/pkg/logger"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type MedicalRecordService struct {
	Records MedicalRecordStore
	Storage StorageProvider
	Cfg     *config.Config
}

func NewMedicalRecordService(records MedicalRecordStore, storage StorageProvider, cfg *config.Config) *MedicalRecordService {
	return &MedicalRecordService{Records: records, Storage: storage, Cfg: cfg}
}

type MedicalRecordInput struct {
	Category    string `form:"category"`
	Description string `form:"description"`
	RecordDate  string `form:"recordDate"`
}

// Upload 校验类型后上传到对象存储，再写元数据；元数据失败时删除对象
func (s *MedicalRecordService) Upload(ctx context.Context, sess Session, in MedicalRecordInput, header *multipart.FileHeader) (*model.MedicalRecord, error) {
	if header == nil {
		return nil, util.NewValidationError("file")
	}
	category := in.Category
	if category == "" {
		category = "other"
	}
	if !lo.Contains(util.AllowedRecordCategories, category) {
		return nil, util.NewValidationError("category")
	}
	recordDate, err := util.ParseDate(in.RecordDate)
	if err != nil {
		return nil, util.NewValidationError("recordDate")
	}

	maxBytes := int64(s.Cfg.Upload.MaxRecordSizeMB) << 20
	contentType, err := util.SniffUpload(header, util.AllowedRecordMimeTypes, maxBytes)
	if err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := path.Join("records", fmt.Sprint(sess.UserID), uuid.NewString()+ext)
	url, err := s.Storage.Upload(ctx, key, src, header.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload medical record: %w", err)
	}

	rec := &model.MedicalRecord{
		UserID:      sess.UserID,
		FileName:    filepath.Base(header.Filename),
		ObjectKey:   key,
		URL:         url,
		ContentType: contentType,
		Size:        header.Size,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		RecordDate:  recordDate,
	}
	if err := s.Records.Create(ctx, rec); err != nil {
		if delErr := s.Storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			logger.Log.Warn("cleanup uploaded record failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, util.Persistence("create medical record", err)
	}
	logger.Log.Info("medical record uploaded", zap.Uint("userID", sess.UserID), zap.Uint("recordID", rec.ID))
	return rec, nil
}

func (s *MedicalRecordService) List(ctx context.Context, sess Session, category string, page, limit int) ([]model.MedicalRecord, int64, error) {
	if category != "" && !lo.Contains(util.AllowedRecordCategories, category) {
		return nil, 0, util.NewValidationError("category")
	}
	recs, total, err := s.Records.ListByUser(ctx, sess.UserID, category, page, limit)
	if err != nil {
		return nil, 0, util.Persistence("list medical records", err)
	}
	return recs, total, nil
}

func (s *MedicalRecordService) owned(ctx context.Context, sess Session, id uint) (*model.MedicalRecord, error) {
	rec, err := s.Records.FindByID(ctx, id)
	if err != nil {
		return nil, util.Persistence("find medical record", err)
	}
	if !sess.Owns(rec.UserID) {
		return nil, util.ErrPermissionDenied
	}
	return rec, nil
}

// Download 调用方负责关闭返回的 reader
func (s *MedicalRecordService) Download(ctx context.Context, sess Session, id uint) (*model.MedicalRecord, io.ReadCloser, error) {
	rec, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.Storage.Open(ctx, rec.ObjectKey)
	if err != nil {
		return nil, nil, util.Persistence("open medical record", err)
	}
	return rec, body, nil
}

// Delete 先删对象再删元数据
func (s *MedicalRecordService) Delete(ctx context.Context, sess Session, id uint) error {
	rec, err := s.owned(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, rec.ObjectKey); err != nil {
		return util.Persistence("delete medical record object", err)
	}
	if err := s.Records.Delete(ctx, id); err != nil {
		return util.Persistence("delete medical record", err)
	}
	return nil
}
