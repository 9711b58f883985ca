// Package workflow 项目进度状态机与就诊准备向导。
// 这里的函数都是纯函数：输入当前状态，返回需要写入的列和写入后的状态，
// 由 service 层持久化成功后才对外可见。
package workflow

import (
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"time"
)

// 项目固定的六个步骤
const (
	StepPreAssessment  = 1
	StepIntroVideo     = 2
	StepGlossary       = 3
	StepMedicationLog  = 4
	StepDoctorVisit    = 5
	StepPostAssessment = 6

	ProgramStepCount = 6
	// StepFinished 后测完成后的 current_step
	StepFinished = ProgramStepCount + 1
)

var programStepNames = map[int]string{
	StepPreAssessment:  "pre_assessment",
	StepIntroVideo:     "intro_video",
	StepGlossary:       "glossary",
	StepMedicationLog:  "medication_log",
	StepDoctorVisit:    "doctor_visit",
	StepPostAssessment: "post_assessment",
}

func ProgramStepName(step int) string {
	return programStepNames[step]
}

type StepStatus string

const (
	StatusLocked    StepStatus = "locked"
	StatusAvailable StepStatus = "available"
	StatusCompleted StepStatus = "completed"
)

type Transition string

const (
	TransitionEnroll                 Transition = "enroll"
	TransitionCompletePreAssessment  Transition = "complete_pre_assessment"
	TransitionCompleteIntroVideo     Transition = "complete_intro_video"
	TransitionAdvanceStep            Transition = "advance_step"
	TransitionCompletePostAssessment Transition = "complete_post_assessment"
)

// Change 一次状态迁移：Columns 必须在一条 UPDATE 中写入
type Change struct {
	Transition Transition
	Columns    map[string]interface{}
	Result     model.Enrollment
}

// Empty 迁移不需要写库（幂等重放）
func (c *Change) Empty() bool {
	return len(c.Columns) == 0
}

// NewEnrollment 报名：所有标记为 false，current_step=1
func NewEnrollment(userID, programID uint, now time.Time) *model.Enrollment {
	return &model.Enrollment{
		UserID:      userID,
		ProgramID:   programID,
		CurrentStep: StepPreAssessment,
		EnrolledAt:  now,
		UpdatedAt:   now,
	}
}

func advanceTo(current, target int) int {
	if current > target {
		return current
	}
	return target
}

// CompletePreAssessment 前测完成；题目是否答全由调用方先校验
func CompletePreAssessment(e model.Enrollment) (*Change, error) {
	if e.PostAssessmentCompleted {
		return nil, util.ErrProgramCompleted
	}
	e.PreAssessmentCompleted = true
	e.CurrentStep = advanceTo(e.CurrentStep, StepIntroVideo)
	return &Change{
		Transition: TransitionCompletePreAssessment,
		Columns: map[string]interface{}{
			"pre_assessment_completed": true,
			"current_step":             e.CurrentStep,
		},
		Result: e,
	}, nil
}

// CompleteIntroVideo 看完介绍视频后同时解锁术语表、用药记录、就诊准备和后测。
// 这里不检查 pre_assessment_completed，只有前端按步骤状态限制入口。
func CompleteIntroVideo(e model.Enrollment) (*Change, error) {
	if e.PostAssessmentCompleted {
		return nil, util.ErrProgramCompleted
	}
	e.VideoCompleted = true
	e.GlossaryUnlocked = true
	e.MedicationLogUnlocked = true
	e.DoctorVisitUnlocked = true
	e.PostAssessmentUnlocked = true
	e.CurrentStep = advanceTo(e.CurrentStep, StepGlossary)
	return &Change{
		Transition: TransitionCompleteIntroVideo,
		Columns: map[string]interface{}{
			"video_completed":          true,
			"glossary_unlocked":        true,
			"medication_log_unlocked":  true,
			"doctor_visit_unlocked":    true,
			"post_assessment_unlocked": true,
			"current_step":             e.CurrentStep,
		},
		Result: e,
	}, nil
}

// AdvanceStep 完成第 3~5 步（术语表、用药记录、就诊准备）
func AdvanceStep(e model.Enrollment, step int) (*Change, error) {
	if step < StepGlossary || step > StepDoctorVisit {
		return nil, util.ErrStepNotReachable
	}
	if !stepUnlocked(&e, step) {
		return nil, util.ErrFeatureLocked
	}
	if e.CurrentStep > step {
		return &Change{Transition: TransitionAdvanceStep, Result: e}, nil
	}
	// 前置步骤未完成时与 ProgramStepStatus 一致视为不可达
	if e.CurrentStep < step || ProgramStepStatus(&e, step) == StatusLocked {
		return nil, util.ErrStepNotReachable
	}
	e.CurrentStep = step + 1
	return &Change{
		Transition: TransitionAdvanceStep,
		Columns:    map[string]interface{}{"current_step": e.CurrentStep},
		Result:     e,
	}, nil
}

// CompletePostAssessment 终态，不再解锁任何功能
func CompletePostAssessment(e model.Enrollment, now time.Time) (*Change, error) {
	if e.PostAssessmentCompleted {
		return nil, util.ErrProgramCompleted
	}
	if !e.PostAssessmentUnlocked {
		return nil, util.ErrFeatureLocked
	}
	if e.CurrentStep < StepPostAssessment {
		return nil, util.ErrStepNotReachable
	}
	e.PostAssessmentCompleted = true
	e.CompletedAt = &now
	e.CurrentStep = StepFinished
	return &Change{
		Transition: TransitionCompletePostAssessment,
		Columns: map[string]interface{}{
			"post_assessment_completed": true,
			"completed_at":              now,
			"current_step":              StepFinished,
		},
		Result: e,
	}, nil
}

func stepCompleted(e *model.Enrollment, step int) bool {
	switch step {
	case StepPreAssessment:
		return e.PreAssessmentCompleted
	case StepIntroVideo:
		return e.VideoCompleted
	case StepGlossary, StepMedicationLog, StepDoctorVisit:
		return e.CurrentStep > step
	case StepPostAssessment:
		return e.PostAssessmentCompleted
	}
	return false
}

func stepUnlocked(e *model.Enrollment, step int) bool {
	switch step {
	case StepPreAssessment, StepIntroVideo:
		return true
	case StepGlossary:
		return e.GlossaryUnlocked
	case StepMedicationLog:
		return e.MedicationLogUnlocked
	case StepDoctorVisit:
		return e.DoctorVisitUnlocked
	case StepPostAssessment:
		return e.PostAssessmentUnlocked
	}
	return false
}

// ProgramStepStatus 由报名记录的标记计算步骤状态；未报名时全部锁定
func ProgramStepStatus(e *model.Enrollment, step int) StepStatus {
	if e == nil || step < StepPreAssessment || step > ProgramStepCount {
		return StatusLocked
	}
	for prior := StepPreAssessment; prior < step; prior++ {
		if !stepCompleted(e, prior) {
			return StatusLocked
		}
	}
	if !stepUnlocked(e, step) {
		return StatusLocked
	}
	if stepCompleted(e, step) {
		return StatusCompleted
	}
	return StatusAvailable
}

type ProgramStepView struct {
	Step   int        `json:"step"`
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
}

func ProgramSteps(e *model.Enrollment) []ProgramStepView {
	views := make([]ProgramStepView, 0, ProgramStepCount)
	for step := StepPreAssessment; step <= ProgramStepCount; step++ {
		views = append(views, ProgramStepView{
			Step:   step,
			Name:   ProgramStepName(step),
			Status: ProgramStepStatus(e, step),
		})
	}
	return views
}

// Feature 由解锁标记控制的功能区
type Feature string

const (
	FeatureGlossary       Feature = "glossary"
	FeatureMedicationLog  Feature = "medication_log"
	FeatureDoctorVisit    Feature = "doctor_visit"
	FeaturePostAssessment Feature = "post_assessment"
)

func FeatureUnlocked(e *model.Enrollment, f Feature) bool {
	if e == nil {
		return false
	}
	switch f {
	case FeatureGlossary:
		return e.GlossaryUnlocked
	case FeatureMedicationLog:
		return e.MedicationLogUnlocked
	case FeatureDoctorVisit:
		return e.DoctorVisitUnlocked
	case FeaturePostAssessment:
		return e.PostAssessmentUnlocked
	}
	return false
}
