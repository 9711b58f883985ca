package service

import (
	"bytes"
	"context"
	"encoding/json"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"health_track_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// FeatureGate 由 EnrollmentService 实现
type FeatureGate interface {
	RequireFeature(ctx context.Context, sess Session, programID uint, f workflow.Feature) (*model.Enrollment, error)
	RequireFeatureAnyProgram(ctx context.Context, sess Session, f workflow.Feature) (*model.Enrollment, error)
}

type VisitService struct {
	Visits VisitStore
	Gate   FeatureGate
	Now    func() time.Time
}

func NewVisitService(visits VisitStore, gate FeatureGate) *VisitService {
	return &VisitService{Visits: visits, Gate: gate, Now: time.Now}
}

// VisitView 就诊记录及各步骤状态，重新打开向导时据此恢复
type VisitView struct {
	Record *model.VisitRecord       `json:"record"`
	Steps  []workflow.VisitStepView `json:"steps"`
}

func newVisitView(rec *model.VisitRecord) *VisitView {
	return &VisitView{Record: rec, Steps: workflow.VisitStepViews(rec.CurrentStep)}
}

func (s *VisitService) Create(ctx context.Context, sess Session, programID uint) (*VisitView, error) {
	if _, err := s.Gate.RequireFeature(ctx, sess, programID, workflow.FeatureDoctorVisit); err != nil {
		return nil, err
	}
	rec := &model.VisitRecord{
		UserID:      sess.UserID,
		ProgramID:   programID,
		CurrentStep: model.StepPersonalInfo,
	}
	if err := s.Visits.Create(ctx, rec); err != nil {
		return nil, util.Persistence("create visit record", err)
	}
	logger.Log.Info("visit record created", zap.Uint("userID", sess.UserID), zap.String("recordID", rec.ID))
	return newVisitView(rec), nil
}

func (s *VisitService) List(ctx context.Context, sess Session, programID uint) ([]model.VisitRecord, error) {
	recs, err := s.Visits.ListByUser(ctx, sess.UserID, programID)
	if err != nil {
		return nil, util.Persistence("list visit records", err)
	}
	return recs, nil
}

// owned 读取记录并校验归属
func (s *VisitService) owned(ctx context.Context, sess Session, id string) (*model.VisitRecord, error) {
	rec, err := s.Visits.FindByID(ctx, id)
	if err != nil {
		return nil, util.Persistence("find visit record", err)
	}
	if !sess.Owns(rec.UserID) && !sess.IsAdmin() {
		return nil, util.ErrPermissionDenied
	}
	return rec, nil
}

func (s *VisitService) GetRecord(ctx context.Context, sess Session, id string) (*VisitView, error) {
	rec, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return newVisitView(rec), nil
}

// DecodeAnswers 按步骤解析答案 JSON，未知字段视为错误
func DecodeAnswers(step model.VisitStep, raw json.RawMessage) (workflow.StepAnswers, error) {
	var target workflow.StepAnswers
	switch step {
	case model.StepPersonalInfo:
		var a workflow.PersonalInfoAnswers
		if err := strictUnmarshal(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case model.StepSymptoms:
		var a workflow.SymptomsAnswers
		if err := strictUnmarshal(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case model.StepDailyLiving:
		var a workflow.DailyLivingAnswers
		if err := strictUnmarshal(raw, &a); err != nil {
			return nil, err
		}
		target = a
	case model.StepQualityOfLife:
		var a workflow.QualityOfLifeAnswers
		if err := strictUnmarshal(raw, &a); err != nil {
			return nil, err
		}
		target = a
	default:
		return nil, util.NewValidationError("step")
	}
	return target, nil
}

func strictUnmarshal(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return util.NewValidationError("answers")
	}
	return nil
}

// SubmitStep 写入成功后重新读取记录，未写成功不推进步骤
func (s *VisitService) SubmitStep(ctx context.Context, sess Session, id, step string, raw json.RawMessage) (*VisitView, error) {
	visitStep, ok := workflow.ParseVisitStep(step)
	if !ok {
		return nil, util.NewValidationError("step")
	}
	rec, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	// 管理员只读
	if !sess.Owns(rec.UserID) {
		return nil, util.ErrPermissionDenied
	}

	answers, err := DecodeAnswers(visitStep, raw)
	if err != nil {
		s.record(visitStep, err)
		return nil, err
	}
	w, err := workflow.PlanStepWrite(rec, answers, s.Now())
	if err != nil {
		s.record(visitStep, err)
		return nil, err
	}
	if err := s.Visits.SaveStep(ctx, w); err != nil {
		s.record(visitStep, err)
		return nil, util.Persistence("save visit step", err)
	}
	s.record(visitStep, nil)

	logger.Log.Info("visit step saved",
		zap.String("recordID", rec.ID),
		zap.String("step", string(visitStep)),
		zap.String("currentStep", string(w.NextStep)))

	saved, err := s.Visits.FindByID(ctx, id)
	if err != nil {
		return nil, util.Persistence("find visit record", err)
	}
	return newVisitView(saved), nil
}

func (s *VisitService) Delete(ctx context.Context, sess Session, id string) error {
	rec, err := s.Visits.FindByID(ctx, id)
	if err != nil {
		return util.Persistence("find visit record", err)
	}
	if !sess.Owns(rec.UserID) {
		return util.ErrPermissionDenied
	}
	if err := s.Visits.Delete(ctx, id); err != nil {
		return util.Persistence("delete visit record", err)
	}
	logger.Log.Info("visit record deleted", zap.String("recordID", id))
	return nil
}

func (s *VisitService) record(step model.VisitStep, err error) {
	monitoring.VisitStepSubmissions.WithLabelValues(string(step), monitoring.Outcome(err)).Inc()
}
