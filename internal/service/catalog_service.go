package service

import (
	"context"
	"fmt"
	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// thumbnailOffset 截图位置（秒），视频过短时取中点
const thumbnailOffset = 1.0

type CatalogService struct {
	Catalog   CatalogStore
	Gate      FeatureGate
	Storage   StorageProvider
	Cfg       *config.Config
	Probe     func(videoPath string) (*util.VideoInfo, error)
	Thumbnail func(videoPath, thumbnailPath string, atSeconds float64) error
}

func NewCatalogService(catalog CatalogStore, gate FeatureGate, storage StorageProvider, cfg *config.Config) *CatalogService {
	return &CatalogService{
		Catalog:   catalog,
		Gate:      gate,
		Storage:   storage,
		Cfg:       cfg,
		Probe:     util.ProbeVideo,
		Thumbnail: util.ExtractThumbnail,
	}
}

func (s *CatalogService) ListPrograms(ctx context.Context) ([]model.HealthTrackModule, error) {
	programs, err := s.Catalog.ListPrograms(ctx)
	if err != nil {
		return nil, util.Persistence("list programs", err)
	}
	return programs, nil
}

func (s *CatalogService) GetProgram(ctx context.Context, id uint) (*model.HealthTrackModule, error) {
	program, err := s.Catalog.FindProgramByID(ctx, id)
	if err != nil {
		return nil, util.Persistence("find program", err)
	}
	return program, nil
}

// Glossary 看完介绍视频后才能查看
func (s *CatalogService) Glossary(ctx context.Context, sess Session, programID uint, search string) ([]model.GlossaryTerm, error) {
	if !sess.IsAdmin() {
		if _, err := s.Gate.RequireFeature(ctx, sess, programID, workflow.FeatureGlossary); err != nil {
			return nil, err
		}
	}
	terms, err := s.Catalog.ListGlossary(ctx, programID, strings.TrimSpace(search))
	if err != nil {
		return nil, util.Persistence("list glossary", err)
	}
	return terms, nil
}

type GlossaryInput struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
}

func (s *CatalogService) CreateGlossaryTerm(ctx context.Context, sess Session, programID uint, in GlossaryInput) (*model.GlossaryTerm, error) {
	if !sess.IsAdmin() {
		return nil, util.ErrPermissionDenied
	}
	var missing []string
	if strings.TrimSpace(in.Term) == "" {
		missing = append(missing, "term")
	}
	if strings.TrimSpace(in.Definition) == "" {
		missing = append(missing, "definition")
	}
	if len(missing) > 0 {
		return nil, util.NewValidationError(missing...)
	}
	if _, err := s.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	term := &model.GlossaryTerm{
		ProgramID:  programID,
		Term:       strings.TrimSpace(in.Term),
		Definition: strings.TrimSpace(in.Definition),
		Category:   strings.TrimSpace(in.Category),
	}
	if err := s.Catalog.CreateGlossaryTerm(ctx, term); err != nil {
		return nil, util.Persistence("create glossary term", err)
	}
	return term, nil
}

// Videos 介绍视频是第二步，不做解锁检查
func (s *CatalogService) Videos(ctx context.Context, programID uint) ([]model.Video, error) {
	if _, err := s.GetProgram(ctx, programID); err != nil {
		return nil, err
	}
	videos, err := s.Catalog.ListVideos(ctx, programID)
	if err != nil {
		return nil, util.Persistence("list videos", err)
	}
	return videos, nil
}

type VideoInput struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	IsIntro     bool   `form:"isIntro"`
	SortOrder   int    `form:"sortOrder"`
}

// UploadVideo 管理员上传视频：ffprobe 读取时长，截取封面，两者都存入对象存储
func (s *CatalogService) UploadVideo(ctx context.Context, sess Session, programID uint, in VideoInput, header *multipart.FileHeader) (*model.Video, error) {
	if !sess.IsAdmin() {
		return nil, util.ErrPermissionDenied
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, util.NewValidationError("title")
	}
	if header == nil || !util.IsVideoFile(header.Filename) {
		return nil, util.NewValidationError("file")
	}
	if limit := int64(s.Cfg.Upload.MaxVideoSizeMB) << 20; limit > 0 && header.Size > limit {
		return nil, util.NewValidationError("file")
	}
	if _, err := s.GetProgram(ctx, programID); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "video-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	ext := strings.ToLower(filepath.Ext(header.Filename))
	localVideo := filepath.Join(tmpDir, "source"+ext)
	if err := saveUpload(header, localVideo); err != nil {
		return nil, err
	}

	info, err := s.Probe(localVideo)
	if err != nil {
		return nil, util.NewValidationError("file")
	}

	id := uuid.NewString()
	videoKey := path.Join("videos", fmt.Sprint(programID), id+ext)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = util.MimeOctetStream
	}
	videoURL, err := s.Storage.UploadFile(ctx, videoKey, localVideo, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	// 封面失败不影响视频本身
	var thumbURL string
	localThumb := filepath.Join(tmpDir, "thumb.jpg")
	at := math.Min(thumbnailOffset, info.Duration/2)
	if err := s.Thumbnail(localVideo, localThumb, at); err != nil {
		logger.Log.Warn("extract thumbnail failed", zap.String("video", videoKey), zap.Error(err))
	} else {
		thumbKey := path.Join("videos", fmt.Sprint(programID), id+".jpg")
		if thumbURL, err = s.Storage.UploadFile(ctx, thumbKey, localThumb, "image/jpeg"); err != nil {
			logger.Log.Warn("upload thumbnail failed", zap.String("video", videoKey), zap.Error(err))
			thumbURL = ""
		}
	}

	video := &model.Video{
		ProgramID:       programID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		URL:             videoURL,
		ThumbnailURL:    thumbURL,
		DurationSeconds: info.Duration,
		IsIntro:         in.IsIntro,
		SortOrder:       in.SortOrder,
	}
	if err := s.Catalog.CreateVideo(ctx, video); err != nil {
		// 元数据写入失败时清理已上传的文件
		_ = s.Storage.Delete(ctx, videoKey)
		return nil, util.Persistence("create video", err)
	}
	logger.Log.Info("video uploaded",
		zap.Uint("programID", programID),
		zap.Uint("videoID", video.ID),
		zap.Float64("duration", info.Duration))
	return video, nil
}

func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
