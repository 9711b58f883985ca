package model

import "gorm.io/datatypes"

type AssessmentKind string

const (
	AssessmentPre  AssessmentKind = "pre"
	AssessmentPost AssessmentKind = "post"
)

func (k AssessmentKind) Valid() bool {
	return k == AssessmentPre || k == AssessmentPost
}

// Assessment 项目的前测/后测问卷
// swagger:model Assessment
type Assessment struct {
	BaseModel
	ProgramID   uint           `gorm:"uniqueIndex:idx_assessment_program_kind;not null" json:"programId"`
	Kind        AssessmentKind `gorm:"size:10;uniqueIndex:idx_assessment_program_kind;not null" json:"kind"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// swagger:model AssessmentQuestion
type AssessmentQuestion struct {
	BaseModel
	AssessmentID uint           `gorm:"index;not null" json:"assessmentId"`
	QuestionType string         `gorm:"size:50;not null" json:"questionType"` // single_choice, multiple_choice, scale, text
	Content      string         `gorm:"type:text;not null" json:"content"`
	Options      datatypes.JSON `json:"options,omitempty"`
	SortOrder    int            `gorm:"default:0" json:"sortOrder"`
}

func (AssessmentQuestion) TableName() string {
	return "assessment_questions"
}

// swagger:model AssessmentSubmission
type AssessmentSubmission struct {
	BaseModel
	UserID       uint           `gorm:"index;not null" json:"userId"`
	AssessmentID uint           `gorm:"index;not null" json:"assessmentId"`
	EnrollmentID uint           `gorm:"index;not null" json:"enrollmentId"`
	Kind         AssessmentKind `gorm:"size:10;not null" json:"kind"`
	Answers      datatypes.JSON `json:"answers"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}

type QuestionAnswer struct {
	QuestionID uint   `json:"questionId"`
	Answer     string `json:"answer"`
}
