package service

import (
	"bytes"
	"context"
	"fmt"
	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/report"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"health_track_backend/pkg/monitoring"
	"health_track_backend/pkg/tracing"
	"path"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ReportFile 生成好的 PDF
type ReportFile struct {
	Filename string
	Data     []byte
}

type ReportService struct {
	Visits      VisitStore
	Medications MedicationStore
	Catalog     CatalogStore
	Users       UserStore
	Gate        FeatureGate
	Storage     StorageProvider
	Now         func() time.Time

	mu      sync.RWMutex
	layout  report.Layout
	archive bool
}

func NewReportService(visits VisitStore, medications MedicationStore, catalog CatalogStore, users UserStore,
	gate FeatureGate, storage StorageProvider, cfg *config.ReportConfig) *ReportService {
	s := &ReportService{
		Visits:      visits,
		Medications: medications,
		Catalog:     catalog,
		Users:       users,
		Gate:        gate,
		Storage:     storage,
		Now:         time.Now,
	}
	s.Configure(cfg)
	return s
}

// Configure 配置热更新时调用
func (s *ReportService) Configure(cfg *config.ReportConfig) {
	layout := report.DefaultLayout()
	if cfg.PageHeight > 0 {
		layout.PageHeight = cfg.PageHeight
	}
	if cfg.LineHeight > 0 {
		layout.LineHeight = cfg.LineHeight
	}
	if cfg.TopMargin > 0 {
		layout.TopMargin = cfg.TopMargin
	}
	if cfg.BottomLimit > layout.TopMargin && cfg.BottomLimit <= layout.PageHeight {
		layout.BottomLimit = cfg.BottomLimit
	}

	s.mu.Lock()
	s.layout = layout
	s.archive = cfg.Archive
	s.mu.Unlock()
}

func (s *ReportService) settings() (report.Layout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout, s.archive
}

// VisitReport 就诊准备报告
func (s *ReportService) VisitReport(ctx context.Context, sess Session, recordID string) (*ReportFile, error) {
	rec, err := s.Visits.FindByID(ctx, recordID)
	if err != nil {
		return nil, util.Persistence("find visit record", err)
	}
	if !sess.Owns(rec.UserID) {
		return nil, util.ErrPermissionDenied
	}
	program, err := s.Catalog.FindProgramByID(ctx, rec.ProgramID)
	if err != nil {
		return nil, util.Persistence("find program", err)
	}

	now := s.Now()
	payload := report.PayloadFromRecord(rec, program.Title, now)
	return s.produce(ctx, sess, report.KindDoctorVisit, program.Slug, now, func(layout report.Layout) (*report.Document, error) {
		return report.BuildVisitReport(payload, layout)
	})
}

// MedicationReport 用药记录报告；历史在生成前全部读取完成
func (s *ReportService) MedicationReport(ctx context.Context, sess Session) (*ReportFile, error) {
	enrollment, err := s.Gate.RequireFeatureAnyProgram(ctx, sess, workflow.FeatureMedicationLog)
	if err != nil {
		return nil, err
	}
	program, err := s.Catalog.FindProgramByID(ctx, enrollment.ProgramID)
	if err != nil {
		return nil, util.Persistence("find program", err)
	}
	user, err := s.Users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("find user", err)
	}
	meds, err := s.Medications.ListByUser(ctx, sess.UserID, false)
	if err != nil {
		return nil, util.Persistence("list medications", err)
	}
	rows, err := s.Medications.ListHistoryByUser(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("list medication history", err)
	}
	history, err := decodeHistory(rows)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	payload := medicationPayload(program.Title, user.Name, meds, history, now)
	return s.produce(ctx, sess, report.KindMedicationLog, program.Slug, now, func(layout report.Layout) (*report.Document, error) {
		return report.BuildMedicationReport(payload, layout)
	})
}

func medicationPayload(programTitle, patient string, meds []model.Medication, history []HistoryItem, now time.Time) report.MedicationPayload {
	byMedication := lo.GroupBy(history, func(h HistoryItem) uint { return h.MedicationID })
	entries := lo.Map(meds, func(m model.Medication, _ int) report.MedicationEntry {
		var stop *time.Time
		if m.StopDate != nil {
			t := time.Time(*m.StopDate)
			stop = &t
		}
		return report.MedicationEntry{
			Name:       m.Name,
			Dosage:     m.Dosage,
			Frequency:  m.Frequency,
			Timing:     m.Timing,
			Indication: m.Indication,
			StartDate:  dateOf(m.StartDate),
			StopDate:   stop,
			StillUsing: m.StillUsing,
			Notes:      m.Notes,
			History: lo.Map(byMedication[m.ID], func(h HistoryItem, _ int) report.HistoryEntry {
				return report.HistoryEntry{Date: h.EventDate, Description: h.Description}
			}),
		}
	})
	return report.MedicationPayload{
		ProgramTitle: programTitle,
		PatientName:  patient,
		Medications:  entries,
		GeneratedAt:  now,
	}
}

func dateOf(d datatypes.Date) time.Time {
	return time.Time(d)
}

// produce 排版、绘制、归档全部成功后才返回字节
func (s *ReportService) produce(ctx context.Context, sess Session, kind, slug string, now time.Time,
	build func(report.Layout) (*report.Document, error)) (file *ReportFile, err error) {
	ctx, span := tracing.StartSpan(ctx, "report.generate",
		attribute.String("report.kind", kind),
		attribute.Int("user.id", int(sess.UserID)))
	start := time.Now()
	defer func() {
		monitoring.ReportsGenerated.WithLabelValues(kind, monitoring.Outcome(err)).Inc()
		monitoring.ReportDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		tracing.End(span, err)
	}()

	layout, archive := s.settings()
	doc, err := build(layout)
	if err != nil {
		return nil, err
	}
	data, err := report.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", kind, err)
	}
	filename := report.Filename(slug, kind, now)

	if archive && s.Storage != nil {
		key := path.Join("reports", fmt.Sprint(sess.UserID), filename)
		if _, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), util.MimePDF); err != nil {
			return nil, util.Persistence("archive report", err)
		}
	}

	logger.Log.Info("report generated",
		zap.String("kind", kind),
		zap.Uint("userID", sess.UserID),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("bytes", len(data)))
	return &ReportFile{Filename: filename, Data: data}, nil
}
