package service

import (
	"context"
	"testing"

	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type enrollmentFixture struct {
	catalog     *mockCatalogStore
	enrollments *mockEnrollmentStore
	assessments *mockAssessmentStore
	events      *mockPublisher
	svc         *EnrollmentService
}

func newEnrollmentFixture() *enrollmentFixture {
	f := &enrollmentFixture{
		catalog:     new(mockCatalogStore),
		enrollments: new(mockEnrollmentStore),
		assessments: new(mockAssessmentStore),
		events:      new(mockPublisher),
	}
	f.svc = NewEnrollmentService(f.catalog, f.enrollments, f.assessments, f.events)
	f.svc.Now = clock
	return f
}

func enrolled(step int) *model.Enrollment {
	e := workflow.NewEnrollment(patient.UserID, 1, fixedNow)
	e.ID = 3
	e.CurrentStep = step
	return e
}

func TestEnroll_CreatesFreshEnrollment(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()

	f.catalog.On("FindProgramByID", ctx, uint(1)).Return(&model.HealthTrackModule{Slug: "long-covid"}, nil)
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(nil, util.ErrNotFound)
	f.enrollments.On("Create", ctx, mock.AnythingOfType("*model.Enrollment")).Return(nil)
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(ev ProgramEvent) bool {
		return ev.Transition == workflow.TransitionEnroll && ev.UserID == patient.UserID
	})).Return(nil)

	view, err := f.svc.Enroll(ctx, patient, 1)
	require.NoError(t, err)

	e := view.Enrollment
	assert.Equal(t, workflow.StepPreAssessment, e.CurrentStep)
	assert.False(t, e.PreAssessmentCompleted)
	assert.False(t, e.VideoCompleted)
	assert.False(t, e.GlossaryUnlocked)
	assert.False(t, e.MedicationLogUnlocked)
	assert.False(t, e.DoctorVisitUnlocked)
	assert.False(t, e.PostAssessmentUnlocked)
	assert.Equal(t, fixedNow, e.EnrolledAt)
	assert.Equal(t, workflow.StatusAvailable, view.Steps[0].Status)
	assert.Equal(t, workflow.StatusLocked, view.Steps[1].Status)
	f.enrollments.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestEnroll_SecondCallFails(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()

	f.catalog.On("FindProgramByID", ctx, uint(1)).Return(&model.HealthTrackModule{}, nil)
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(1), nil)

	_, err := f.svc.Enroll(ctx, patient, 1)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
	f.enrollments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestEnroll_ConcurrentInsertHitsUniqueIndex(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()

	f.catalog.On("FindProgramByID", ctx, uint(1)).Return(&model.HealthTrackModule{}, nil)
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(nil, util.ErrNotFound)
	f.enrollments.On("Create", ctx, mock.Anything).Return(util.ErrAlreadyEnrolled)

	_, err := f.svc.Enroll(ctx, patient, 1)
	assert.ErrorIs(t, err, util.ErrAlreadyEnrolled)
}

func TestEnroll_UnknownProgram(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.catalog.On("FindProgramByID", ctx, uint(9)).Return(nil, util.ErrNotFound)

	_, err := f.svc.Enroll(ctx, patient, 9)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func preAssessment(f *enrollmentFixture, ctx context.Context) {
	f.assessments.On("FindAssessment", ctx, uint(1), model.AssessmentPre).Return(&model.Assessment{BaseModel: model.BaseModel{ID: 11}}, nil)
	f.assessments.On("ListQuestions", ctx, uint(11)).Return([]model.AssessmentQuestion{
		{BaseModel: model.BaseModel{ID: 1}},
		{BaseModel: model.BaseModel{ID: 2}},
		{BaseModel: model.BaseModel{ID: 3}},
	}, nil)
}

func TestSubmitAssessment_Incomplete(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(1), nil)
	preAssessment(f, ctx)

	_, err := f.svc.SubmitAssessment(ctx, patient, 1, model.AssessmentPre, []model.QuestionAnswer{
		{QuestionID: 1, Answer: "yes"},
		{QuestionID: 3, Answer: "  "},
	})

	var ie *util.IncompleteAssessmentError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, []uint{2, 3}, ie.Missing)
	assert.ErrorIs(t, err, util.ErrIncompleteAssessment)
	f.enrollments.AssertNotCalled(t, "CompleteAssessment", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitAssessment_UnknownQuestion(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(1), nil)
	preAssessment(f, ctx)

	_, err := f.svc.SubmitAssessment(ctx, patient, 1, model.AssessmentPre, []model.QuestionAnswer{{QuestionID: 99, Answer: "x"}})
	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"answers[0].questionId"}, ve.Fields)
}

func TestSubmitAssessment_PreCompletesStepOne(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(1), nil)
	preAssessment(f, ctx)
	f.enrollments.On("CompleteAssessment", ctx,
		mock.MatchedBy(func(s *model.AssessmentSubmission) bool {
			return s.EnrollmentID == 3 && s.AssessmentID == 11 && s.Kind == model.AssessmentPre
		}),
		map[string]interface{}{"pre_assessment_completed": true, "current_step": workflow.StepIntroVideo},
	).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	view, err := f.svc.SubmitAssessment(ctx, patient, 1, model.AssessmentPre, []model.QuestionAnswer{
		{QuestionID: 1, Answer: "a"}, {QuestionID: 2, Answer: "b"}, {QuestionID: 3, Answer: "c"},
	})
	require.NoError(t, err)
	assert.True(t, view.Enrollment.PreAssessmentCompleted)
	assert.Equal(t, workflow.StepIntroVideo, view.Enrollment.CurrentStep)
	assert.Equal(t, workflow.StatusCompleted, view.Steps[0].Status)
	f.enrollments.AssertExpectations(t)
}

func TestSubmitAssessment_PostLockedBeforeVideo(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(2), nil)

	_, err := f.svc.SubmitAssessment(ctx, patient, 1, model.AssessmentPost, nil)
	assert.ErrorIs(t, err, util.ErrFeatureLocked)
}

func TestSubmitAssessment_InvalidKind(t *testing.T) {
	f := newEnrollmentFixture()
	_, err := f.svc.SubmitAssessment(context.Background(), patient, 1, model.AssessmentKind("mid"), nil)
	var ve *util.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCompleteIntroVideo_UnlocksAllFeaturesInOneWrite(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()

	// 前测未完成时仍允许
	e := enrolled(1)
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(e, nil)
	f.enrollments.On("ApplyChange", ctx, uint(3), map[string]interface{}{
		"video_completed":          true,
		"glossary_unlocked":        true,
		"medication_log_unlocked":  true,
		"doctor_visit_unlocked":    true,
		"post_assessment_unlocked": true,
		"current_step":             workflow.StepGlossary,
	}).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	view, err := f.svc.CompleteIntroVideo(ctx, patient, 1)
	require.NoError(t, err)
	assert.True(t, view.Enrollment.VideoCompleted)
	assert.False(t, view.Enrollment.PreAssessmentCompleted)
	assert.True(t, view.Enrollment.GlossaryUnlocked)
	assert.True(t, view.Enrollment.PostAssessmentUnlocked)
	f.enrollments.AssertExpectations(t)
}

func TestCompleteIntroVideo_WriteFailureReturnsNoState(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(2), nil)
	f.enrollments.On("ApplyChange", ctx, uint(3), mock.Anything).Return(assert.AnError)

	view, err := f.svc.CompleteIntroVideo(ctx, patient, 1)
	assert.Nil(t, view)
	var pe *util.PersistenceError
	assert.ErrorAs(t, err, &pe)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCompleteIntroVideo_PublishFailureKeepsResult(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(enrolled(2), nil)
	f.enrollments.On("ApplyChange", ctx, uint(3), mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	view, err := f.svc.CompleteIntroVideo(ctx, patient, 1)
	require.NoError(t, err)
	assert.True(t, view.Enrollment.VideoCompleted)
}

func TestCompleteStep_ReplayIsNoop(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	e := enrolled(5)
	e.GlossaryUnlocked = true
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(e, nil)

	view, err := f.svc.CompleteStep(ctx, patient, 1, workflow.StepGlossary)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Enrollment.CurrentStep)
	f.enrollments.AssertNotCalled(t, "ApplyChange", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetEnrollment_NotEnrolled(t *testing.T) {
	f := newEnrollmentFixture()
	ctx := context.Background()
	f.enrollments.On("FindByUserAndProgram", ctx, patient.UserID, uint(1)).Return(nil, util.ErrNotFound)

	_, err := f.svc.GetEnrollment(ctx, patient, 1)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestRequireFeatureAnyProgram(t *testing.T) {
	ctx := context.Background()

	t.Run("no enrollments", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollments.On("ListByUser", ctx, patient.UserID).Return([]model.Enrollment{}, nil)
		_, err := f.svc.RequireFeatureAnyProgram(ctx, patient, workflow.FeatureMedicationLog)
		assert.ErrorIs(t, err, util.ErrNotEnrolled)
	})

	t.Run("locked everywhere", func(t *testing.T) {
		f := newEnrollmentFixture()
		f.enrollments.On("ListByUser", ctx, patient.UserID).Return([]model.Enrollment{*enrolled(1)}, nil)
		_, err := f.svc.RequireFeatureAnyProgram(ctx, patient, workflow.FeatureMedicationLog)
		assert.ErrorIs(t, err, util.ErrFeatureLocked)
	})

	t.Run("unlocked in second program", func(t *testing.T) {
		f := newEnrollmentFixture()
		second := *enrolled(3)
		second.ProgramID = 2
		second.MedicationLogUnlocked = true
		f.enrollments.On("ListByUser", ctx, patient.UserID).Return([]model.Enrollment{*enrolled(1), second}, nil)
		e, err := f.svc.RequireFeatureAnyProgram(ctx, patient, workflow.FeatureMedicationLog)
		require.NoError(t, err)
		assert.Equal(t, uint(2), e.ProgramID)
	})
}
