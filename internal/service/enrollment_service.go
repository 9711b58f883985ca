package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"health_track_backend/pkg/monitoring"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type EnrollmentService struct {
	Catalog     CatalogStore
	Enrollments EnrollmentStore
	Assessments AssessmentStore
	Events      EventPublisher
	Now         func() time.Time
}

func NewEnrollmentService(catalog CatalogStore, enrollments EnrollmentStore, assessments AssessmentStore, events EventPublisher) *EnrollmentService {
	return &EnrollmentService{
		Catalog:     catalog,
		Enrollments: enrollments,
		Assessments: assessments,
		Events:      events,
		Now:         time.Now,
	}
}

// EnrollmentView 报名状态及六个步骤的状态
type EnrollmentView struct {
	Enrollment *model.Enrollment           `json:"enrollment"`
	Steps      []workflow.ProgramStepView `json:"steps"`
}

func newEnrollmentView(e *model.Enrollment) *EnrollmentView {
	return &EnrollmentView{Enrollment: e, Steps: workflow.ProgramSteps(e)}
}

// Enroll 先查后插；并发重复报名由唯一索引兜底
func (s *EnrollmentService) Enroll(ctx context.Context, sess Session, programID uint) (*EnrollmentView, error) {
	if _, err := s.Catalog.FindProgramByID(ctx, programID); err != nil {
		return nil, util.Persistence("find program", err)
	}

	_, err := s.Enrollments.FindByUserAndProgram(ctx, sess.UserID, programID)
	switch {
	case err == nil:
		s.record(workflow.TransitionEnroll, util.ErrAlreadyEnrolled)
		return nil, util.ErrAlreadyEnrolled
	case !errors.Is(err, util.ErrNotFound):
		return nil, util.Persistence("find enrollment", err)
	}

	now := s.Now()
	e := workflow.NewEnrollment(sess.UserID, programID, now)
	err = s.Enrollments.Create(ctx, e)
	s.record(workflow.TransitionEnroll, err)
	if err != nil {
		return nil, util.Persistence("create enrollment", err)
	}

	logger.Log.Info("user enrolled", zap.Uint("userID", sess.UserID), zap.Uint("programID", programID))
	publishAfterCommit(ctx, s.Events, NewProgramEvent(workflow.TransitionEnroll, e, now))
	return newEnrollmentView(e), nil
}

func (s *EnrollmentService) GetEnrollment(ctx context.Context, sess Session, programID uint) (*EnrollmentView, error) {
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}
	return newEnrollmentView(e), nil
}

func (s *EnrollmentService) ListEnrollments(ctx context.Context, sess Session) ([]EnrollmentView, error) {
	es, err := s.Enrollments.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("list enrollments", err)
	}
	return lo.Map(es, func(e model.Enrollment, _ int) EnrollmentView {
		return *newEnrollmentView(&e)
	}), nil
}

func (s *EnrollmentService) load(ctx context.Context, sess Session, programID uint) (*model.Enrollment, error) {
	e, err := s.Enrollments.FindByUserAndProgram(ctx, sess.UserID, programID)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, util.Persistence("find enrollment", err)
	}
	return e, nil
}

// RequireFeature 检查指定项目的功能是否已解锁
func (s *EnrollmentService) RequireFeature(ctx context.Context, sess Session, programID uint, f workflow.Feature) (*model.Enrollment, error) {
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}
	if !workflow.FeatureUnlocked(e, f) {
		return nil, util.ErrFeatureLocked
	}
	return e, nil
}

// RequireFeatureAnyProgram 用户任一报名解锁即可（用药记录不属于单个项目）
func (s *EnrollmentService) RequireFeatureAnyProgram(ctx context.Context, sess Session, f workflow.Feature) (*model.Enrollment, error) {
	es, err := s.Enrollments.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("list enrollments", err)
	}
	if len(es) == 0 {
		return nil, util.ErrNotEnrolled
	}
	e, ok := lo.Find(es, func(e model.Enrollment) bool {
		return workflow.FeatureUnlocked(&e, f)
	})
	if !ok {
		return nil, util.ErrFeatureLocked
	}
	return &e, nil
}

func (s *EnrollmentService) AssessmentQuestions(ctx context.Context, sess Session, programID uint, kind model.AssessmentKind) ([]model.AssessmentQuestion, error) {
	if !kind.Valid() {
		return nil, util.NewValidationError("kind")
	}
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}
	if kind == model.AssessmentPost && !workflow.FeatureUnlocked(e, workflow.FeaturePostAssessment) {
		return nil, util.ErrFeatureLocked
	}
	_, questions, err := s.questions(ctx, programID, kind)
	return questions, err
}

func (s *EnrollmentService) questions(ctx context.Context, programID uint, kind model.AssessmentKind) (*model.Assessment, []model.AssessmentQuestion, error) {
	a, err := s.Assessments.FindAssessment(ctx, programID, kind)
	if err != nil {
		return nil, nil, util.Persistence("find assessment", err)
	}
	qs, err := s.Assessments.ListQuestions(ctx, a.ID)
	if err != nil {
		return nil, nil, util.Persistence("list questions", err)
	}
	return a, qs, nil
}

// checkAnswers 每道题都需要非空答案；未知题目视为参数错误
func checkAnswers(questions []model.AssessmentQuestion, answers []model.QuestionAnswer) error {
	known := lo.SliceToMap(questions, func(q model.AssessmentQuestion) (uint, struct{}) {
		return q.ID, struct{}{}
	})
	for i, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return util.NewValidationError(fmt.Sprintf("answers[%d].questionId", i))
		}
	}

	answered := lo.SliceToMap(
		lo.Filter(answers, func(a model.QuestionAnswer, _ int) bool { return strings.TrimSpace(a.Answer) != "" }),
		func(a model.QuestionAnswer) (uint, struct{}) { return a.QuestionID, struct{}{} },
	)
	missing := lo.FilterMap(questions, func(q model.AssessmentQuestion, _ int) (uint, bool) {
		_, ok := answered[q.ID]
		return q.ID, !ok
	})
	if len(missing) > 0 {
		return &util.IncompleteAssessmentError{Missing: missing}
	}
	return nil
}

// SubmitAssessment 前测/后测提交：提交记录和状态迁移在同一事务
func (s *EnrollmentService) SubmitAssessment(ctx context.Context, sess Session, programID uint, kind model.AssessmentKind, answers []model.QuestionAnswer) (*EnrollmentView, error) {
	if !kind.Valid() {
		return nil, util.NewValidationError("kind")
	}
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var change *workflow.Change
	if kind == model.AssessmentPre {
		change, err = workflow.CompletePreAssessment(*e)
	} else {
		change, err = workflow.CompletePostAssessment(*e, now)
	}
	if err != nil {
		s.record(transitionFor(kind), err)
		return nil, err
	}

	assessment, questions, err := s.questions(ctx, programID, kind)
	if err != nil {
		return nil, err
	}
	if err := checkAnswers(questions, answers); err != nil {
		s.record(change.Transition, err)
		return nil, err
	}

	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	submission := &model.AssessmentSubmission{
		UserID:       sess.UserID,
		AssessmentID: assessment.ID,
		EnrollmentID: e.ID,
		Kind:         kind,
		Answers:      raw,
	}
	err = s.Enrollments.CompleteAssessment(ctx, submission, change.Columns)
	s.record(change.Transition, err)
	if err != nil {
		return nil, util.Persistence("complete assessment", err)
	}
	return s.committed(ctx, change, now), nil
}

func transitionFor(kind model.AssessmentKind) workflow.Transition {
	if kind == model.AssessmentPost {
		return workflow.TransitionCompletePostAssessment
	}
	return workflow.TransitionCompletePreAssessment
}

// CompleteIntroVideo 看完介绍视频，一次写入同时解锁四个功能
func (s *EnrollmentService) CompleteIntroVideo(ctx context.Context, sess Session, programID uint) (*EnrollmentView, error) {
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}
	change, err := workflow.CompleteIntroVideo(*e)
	if err != nil {
		s.record(workflow.TransitionCompleteIntroVideo, err)
		return nil, err
	}
	return s.apply(ctx, e, change)
}

// CompleteStep 完成第 3~5 步
func (s *EnrollmentService) CompleteStep(ctx context.Context, sess Session, programID uint, step int) (*EnrollmentView, error) {
	e, err := s.load(ctx, sess, programID)
	if err != nil {
		return nil, err
	}
	change, err := workflow.AdvanceStep(*e, step)
	if err != nil {
		s.record(workflow.TransitionAdvanceStep, err)
		return nil, err
	}
	if change.Empty() {
		return newEnrollmentView(e), nil
	}
	return s.apply(ctx, e, change)
}

func (s *EnrollmentService) apply(ctx context.Context, e *model.Enrollment, change *workflow.Change) (*EnrollmentView, error) {
	err := s.Enrollments.ApplyChange(ctx, e.ID, change.Columns)
	s.record(change.Transition, err)
	if err != nil {
		return nil, util.Persistence("update enrollment", err)
	}
	return s.committed(ctx, change, s.Now()), nil
}

// committed 写库成功后才返回新状态并发布事件
func (s *EnrollmentService) committed(ctx context.Context, change *workflow.Change, now time.Time) *EnrollmentView {
	result := change.Result
	result.UpdatedAt = now
	logger.Log.Info("enrollment transition",
		zap.String("transition", string(change.Transition)),
		zap.Uint("enrollmentID", result.ID),
		zap.Int("currentStep", result.CurrentStep))
	publishAfterCommit(ctx, s.Events, NewProgramEvent(change.Transition, &result, now))
	return newEnrollmentView(&result)
}

func (s *EnrollmentService) record(t workflow.Transition, err error) {
	monitoring.ProgramTransitions.WithLabelValues(string(t), monitoring.Outcome(err)).Inc()
}
