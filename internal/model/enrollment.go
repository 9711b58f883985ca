package model

import "time"

// Enrollment 用户参加某个健康项目的进度记录，只追加不删除
// swagger:model Enrollment
type Enrollment struct {
	ID                      uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                  uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_program" json:"userId"`
	ProgramID               uint       `gorm:"not null;uniqueIndex:idx_enrollment_user_program" json:"programId"`
	CurrentStep             int        `gorm:"not null;default:1" json:"currentStep"`
	PreAssessmentCompleted  bool       `gorm:"not null;default:false" json:"preAssessmentCompleted"`
	VideoCompleted          bool       `gorm:"not null;default:false" json:"videoCompleted"`
	GlossaryUnlocked        bool       `gorm:"not null;default:false" json:"glossaryUnlocked"`
	MedicationLogUnlocked   bool       `gorm:"not null;default:false" json:"medicationLogUnlocked"`
	DoctorVisitUnlocked     bool       `gorm:"not null;default:false" json:"doctorVisitUnlocked"`
	PostAssessmentUnlocked  bool       `gorm:"not null;default:false" json:"postAssessmentUnlocked"`
	PostAssessmentCompleted bool       `gorm:"not null;default:false" json:"postAssessmentCompleted"`
	EnrolledAt              time.Time  `gorm:"not null" json:"enrolledAt"`
	CompletedAt             *time.Time `json:"completedAt,omitempty"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
