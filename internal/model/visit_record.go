package model

import (
	"time"

	"gorm.io/datatypes"
)

// VisitStep 就诊准备向导的步骤
type VisitStep string

const (
	StepPersonalInfo  VisitStep = "personal_info"
	StepSymptoms      VisitStep = "symptoms"
	StepDailyLiving   VisitStep = "daily_living"
	StepQualityOfLife VisitStep = "quality_of_life"
	StepCompleted     VisitStep = "completed"
)

// VisitRecord 一次就诊准备会话，个人信息直接存放在父记录上
// swagger:model VisitRecord
type VisitRecord struct {
	UUIDBase
	UserID      uint       `gorm:"index;not null" json:"userId"`
	ProgramID   uint       `gorm:"index;not null" json:"programId"`
	CurrentStep VisitStep  `gorm:"size:32;not null;default:'personal_info'" json:"currentStep"`
	FullName    string     `gorm:"size:200" json:"fullName"`
	DateOfBirth *time.Time `gorm:"type:date" json:"dateOfBirth,omitempty"`
	VisitDate   *time.Time `gorm:"type:date" json:"visitDate,omitempty"`
	DoctorName  string     `gorm:"size:200" json:"doctorName"`
	VisitReason string     `gorm:"type:text" json:"visitReason"`

	Symptoms      []Symptom      `gorm:"foreignKey:RecordID" json:"symptoms,omitempty"`
	DailyLiving   *DailyLiving   `gorm:"foreignKey:RecordID" json:"dailyLiving,omitempty"`
	QualityOfLife *QualityOfLife `gorm:"foreignKey:RecordID" json:"qualityOfLife,omitempty"`
}

func (VisitRecord) TableName() string {
	return "visit_records"
}

type SymptomType string

const (
	SymptomFatigue         SymptomType = "fatigue"
	SymptomPain            SymptomType = "pain"
	SymptomSleepProblems   SymptomType = "sleep_problems"
	SymptomBrainFog        SymptomType = "brain_fog"
	SymptomMoodChanges     SymptomType = "mood_changes"
	SymptomDigestiveIssues SymptomType = "digestive_issues"
	SymptomHeadache        SymptomType = "headache"
	SymptomDizziness       SymptomType = "dizziness"
)

// SymptomTypes 固定顺序，报告按此顺序输出
var SymptomTypes = []SymptomType{
	SymptomFatigue,
	SymptomPain,
	SymptomSleepProblems,
	SymptomBrainFog,
	SymptomMoodChanges,
	SymptomDigestiveIssues,
	SymptomHeadache,
	SymptomDizziness,
}

var symptomLabels = map[SymptomType]string{
	SymptomFatigue:         "Fatigue",
	SymptomPain:            "Pain",
	SymptomSleepProblems:   "Sleep problems",
	SymptomBrainFog:        "Brain fog",
	SymptomMoodChanges:     "Mood changes",
	SymptomDigestiveIssues: "Digestive issues",
	SymptomHeadache:        "Headache",
	SymptomDizziness:       "Dizziness",
}

func (t SymptomType) Valid() bool {
	_, ok := symptomLabels[t]
	return ok
}

func (t SymptomType) Label() string {
	if l, ok := symptomLabels[t]; ok {
		return l
	}
	return string(t)
}

type Frequency string

const (
	FrequencyRarely    Frequency = "rarely"
	FrequencySometimes Frequency = "sometimes"
	FrequencyOften     Frequency = "often"
	FrequencyDaily     Frequency = "daily"
	FrequencyConstant  Frequency = "constant"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyRarely, FrequencySometimes, FrequencyOften, FrequencyDaily, FrequencyConstant:
		return true
	}
	return false
}

// Symptom 每条就诊记录每种症状一行
// swagger:model Symptom
type Symptom struct {
	ID           uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID     string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_symptom_record_type" json:"recordId"`
	SymptomType  SymptomType                 `gorm:"size:32;not null;uniqueIndex:idx_symptom_record_type" json:"symptomType"`
	Present      bool                        `gorm:"not null;default:false" json:"present"`
	Frequency    Frequency                   `gorm:"size:20" json:"frequency"`
	Intensity    int                         `gorm:"default:0" json:"intensity"`
	Treatments   datatypes.JSONSlice[string] `json:"treatments"`
	Context      datatypes.JSONSlice[string] `json:"context"`
	TimePatterns datatypes.JSONSlice[string] `json:"timePatterns"`
	Notes        string                      `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func (Symptom) TableName() string {
	return "symptoms"
}

type ImpactLevel string

const (
	ImpactNone     ImpactLevel = "none"
	ImpactMild     ImpactLevel = "mild"
	ImpactModerate ImpactLevel = "moderate"
	ImpactSevere   ImpactLevel = "severe"
)

func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactNone, ImpactMild, ImpactModerate, ImpactSevere:
		return true
	}
	return false
}

// swagger:model DailyLiving
type DailyLiving struct {
	ID                 uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID           string                      `gorm:"type:varchar(36);not null;uniqueIndex" json:"recordId"`
	WorkImpact         ImpactLevel                 `gorm:"size:20" json:"workImpact"`
	HouseholdImpact    ImpactLevel                 `gorm:"size:20" json:"householdImpact"`
	SocialImpact       ImpactLevel                 `gorm:"size:20" json:"socialImpact"`
	ExerciseImpact     ImpactLevel                 `gorm:"size:20" json:"exerciseImpact"`
	SelfCareImpact     ImpactLevel                 `gorm:"size:20" json:"selfCareImpact"`
	AffectedActivities datatypes.JSONSlice[string] `json:"affectedActivities"`
	Notes              string                      `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
}

func (DailyLiving) TableName() string {
	return "daily_living"
}

// swagger:model QualityOfLife
type QualityOfLife struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID           string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"recordId"`
	PhysicalHealth     int       `json:"physicalHealth"`
	EmotionalWellbeing int       `json:"emotionalWellbeing"`
	SocialLife         int       `json:"socialLife"`
	EnergyLevel        int       `json:"energyLevel"`
	Overall            int       `json:"overall"`
	Notes              string    `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (QualityOfLife) TableName() string {
	return "quality_of_life"
}
