package workflow

import (
	"testing"
	"time"

	"health_track_backend/internal/model"
	"health_track_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func freshEnrollment() model.Enrollment {
	return *NewEnrollment(7, 1, fixedNow)
}

func TestNewEnrollment(t *testing.T) {
	e := freshEnrollment()

	assert.Equal(t, StepPreAssessment, e.CurrentStep)
	assert.False(t, e.PreAssessmentCompleted)
	assert.False(t, e.VideoCompleted)
	assert.False(t, e.GlossaryUnlocked)
	assert.False(t, e.PostAssessmentCompleted)
	assert.Nil(t, e.CompletedAt)

	assert.Equal(t, StatusAvailable, ProgramStepStatus(&e, StepPreAssessment))
	for step := StepIntroVideo; step <= ProgramStepCount; step++ {
		assert.Equal(t, StatusLocked, ProgramStepStatus(&e, step), "step %d", step)
	}
}

func TestCompletePreAssessment(t *testing.T) {
	change, err := CompletePreAssessment(freshEnrollment())
	require.NoError(t, err)

	assert.Equal(t, TransitionCompletePreAssessment, change.Transition)
	assert.Equal(t, true, change.Columns["pre_assessment_completed"])
	assert.Equal(t, StepIntroVideo, change.Columns["current_step"])
	assert.True(t, change.Result.PreAssessmentCompleted)
	assert.False(t, change.Result.GlossaryUnlocked)

	assert.Equal(t, StatusCompleted, ProgramStepStatus(&change.Result, StepPreAssessment))
	assert.Equal(t, StatusAvailable, ProgramStepStatus(&change.Result, StepIntroVideo))
}

func TestCompleteIntroVideoUnlocksFeatures(t *testing.T) {
	pre, err := CompletePreAssessment(freshEnrollment())
	require.NoError(t, err)

	change, err := CompleteIntroVideo(pre.Result)
	require.NoError(t, err)

	e := change.Result
	assert.True(t, e.VideoCompleted)
	assert.True(t, e.GlossaryUnlocked)
	assert.True(t, e.MedicationLogUnlocked)
	assert.True(t, e.DoctorVisitUnlocked)
	assert.True(t, e.PostAssessmentUnlocked)
	assert.Equal(t, StepGlossary, e.CurrentStep)
	assert.Len(t, change.Columns, 6)

	for _, f := range []Feature{FeatureGlossary, FeatureMedicationLog, FeatureDoctorVisit, FeaturePostAssessment} {
		assert.True(t, FeatureUnlocked(&e, f), string(f))
	}
	assert.Equal(t, StatusAvailable, ProgramStepStatus(&e, StepGlossary))
	assert.Equal(t, StatusLocked, ProgramStepStatus(&e, StepMedicationLog))
}

func TestCompleteIntroVideoWithoutPreAssessment(t *testing.T) {
	change, err := CompleteIntroVideo(freshEnrollment())
	require.NoError(t, err)

	e := change.Result
	assert.False(t, e.PreAssessmentCompleted)
	assert.True(t, e.VideoCompleted)
	assert.True(t, e.GlossaryUnlocked)
	assert.True(t, e.PostAssessmentUnlocked)

	// 标记已写入，但步骤状态仍要求前面的步骤完成
	assert.Equal(t, StatusAvailable, ProgramStepStatus(&e, StepPreAssessment))
	assert.Equal(t, StatusLocked, ProgramStepStatus(&e, StepIntroVideo))
	assert.Equal(t, StatusLocked, ProgramStepStatus(&e, StepGlossary))
}

func TestCurrentStepNeverDecreases(t *testing.T) {
	video, err := CompleteIntroVideo(freshEnrollment())
	require.NoError(t, err)
	require.Equal(t, StepGlossary, video.Result.CurrentStep)

	pre, err := CompletePreAssessment(video.Result)
	require.NoError(t, err)
	assert.Equal(t, StepGlossary, pre.Result.CurrentStep)
	assert.True(t, pre.Result.VideoCompleted)
}

func TestAdvanceStep(t *testing.T) {
	pre, _ := CompletePreAssessment(freshEnrollment())
	video, _ := CompleteIntroVideo(pre.Result)
	e := video.Result

	_, err := AdvanceStep(e, StepMedicationLog)
	assert.ErrorIs(t, err, util.ErrStepNotReachable)

	for step := StepGlossary; step <= StepDoctorVisit; step++ {
		change, err := AdvanceStep(e, step)
		require.NoError(t, err, "step %d", step)
		assert.Equal(t, step+1, change.Result.CurrentStep)
		e = change.Result
		assert.Equal(t, StatusCompleted, ProgramStepStatus(&e, step))
	}
	assert.Equal(t, StatusAvailable, ProgramStepStatus(&e, StepPostAssessment))

	replay, err := AdvanceStep(e, StepGlossary)
	require.NoError(t, err)
	assert.True(t, replay.Empty())
	assert.Equal(t, StepPostAssessment, replay.Result.CurrentStep)
}

func TestAdvanceStepRequiresUnlock(t *testing.T) {
	e := freshEnrollment()
	e.CurrentStep = StepGlossary

	_, err := AdvanceStep(e, StepGlossary)
	assert.ErrorIs(t, err, util.ErrFeatureLocked)

	_, err = AdvanceStep(e, StepPostAssessment)
	assert.ErrorIs(t, err, util.ErrStepNotReachable)
}

func TestAdvanceStepRefusesLockedStep(t *testing.T) {
	video, err := CompleteIntroVideo(freshEnrollment())
	require.NoError(t, err)
	e := video.Result
	require.Equal(t, StepGlossary, e.CurrentStep)
	require.Equal(t, StatusLocked, ProgramStepStatus(&e, StepGlossary))

	_, err = AdvanceStep(e, StepGlossary)
	assert.ErrorIs(t, err, util.ErrStepNotReachable)

	pre, err := CompletePreAssessment(e)
	require.NoError(t, err)
	change, err := AdvanceStep(pre.Result, StepGlossary)
	require.NoError(t, err)
	assert.Equal(t, StepMedicationLog, change.Result.CurrentStep)
}

func TestCompletePostAssessment(t *testing.T) {
	t.Run("locked before video", func(t *testing.T) {
		_, err := CompletePostAssessment(freshEnrollment(), fixedNow)
		assert.ErrorIs(t, err, util.ErrFeatureLocked)
	})

	t.Run("unlocked but earlier steps pending", func(t *testing.T) {
		video, _ := CompleteIntroVideo(freshEnrollment())
		_, err := CompletePostAssessment(video.Result, fixedNow)
		assert.ErrorIs(t, err, util.ErrStepNotReachable)
	})

	t.Run("terminal", func(t *testing.T) {
		pre, _ := CompletePreAssessment(freshEnrollment())
		video, _ := CompleteIntroVideo(pre.Result)
		e := video.Result
		e.CurrentStep = StepPostAssessment

		change, err := CompletePostAssessment(e, fixedNow)
		require.NoError(t, err)
		assert.True(t, change.Result.PostAssessmentCompleted)
		require.NotNil(t, change.Result.CompletedAt)
		assert.Equal(t, fixedNow, *change.Result.CompletedAt)
		assert.Equal(t, StepFinished, change.Result.CurrentStep)
		assert.Equal(t, StatusCompleted, ProgramStepStatus(&change.Result, StepPostAssessment))

		_, err = CompletePostAssessment(change.Result, fixedNow)
		assert.ErrorIs(t, err, util.ErrProgramCompleted)
		_, err = CompleteIntroVideo(change.Result)
		assert.ErrorIs(t, err, util.ErrProgramCompleted)
	})
}

func TestProgramStepStatusLocksAfterIncompletePriorStep(t *testing.T) {
	states := []model.Enrollment{freshEnrollment()}
	pre, _ := CompletePreAssessment(states[0])
	states = append(states, pre.Result)
	video, _ := CompleteIntroVideo(pre.Result)
	states = append(states, video.Result)
	skipped, _ := CompleteIntroVideo(states[0])
	states = append(states, skipped.Result)

	for _, e := range states {
		e := e
		for step := StepPreAssessment; step <= ProgramStepCount; step++ {
			status := ProgramStepStatus(&e, step)
			for prior := StepPreAssessment; prior < step; prior++ {
				if ProgramStepStatus(&e, prior) != StatusCompleted {
					assert.Equal(t, StatusLocked, status, "step %d with prior %d incomplete", step, prior)
				}
			}
		}
	}
}

func TestProgramStepsWithoutEnrollment(t *testing.T) {
	views := ProgramSteps(nil)
	require.Len(t, views, ProgramStepCount)
	for _, v := range views {
		assert.Equal(t, StatusLocked, v.Status)
		assert.NotEmpty(t, v.Name)
	}
	assert.False(t, FeatureUnlocked(nil, FeatureGlossary))
}
