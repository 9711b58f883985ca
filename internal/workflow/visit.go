package workflow

import (
	"fmt"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// VisitSteps 就诊准备向导的固定顺序
var VisitSteps = []model.VisitStep{
	model.StepPersonalInfo,
	model.StepSymptoms,
	model.StepDailyLiving,
	model.StepQualityOfLife,
}

const (
	SymptomIntensityMin = 1
	SymptomIntensityMax = 10
	QualityRatingMin    = 1
	QualityRatingMax    = 10
)

// VisitStepIndex completed 返回 len(VisitSteps)，未知步骤返回 -1
func VisitStepIndex(step model.VisitStep) int {
	if step == model.StepCompleted {
		return len(VisitSteps)
	}
	for i, s := range VisitSteps {
		if s == step {
			return i
		}
	}
	return -1
}

func ParseVisitStep(s string) (model.VisitStep, bool) {
	step := model.VisitStep(s)
	idx := VisitStepIndex(step)
	return step, idx >= 0 && idx < len(VisitSteps)
}

func NextVisitStep(step model.VisitStep) model.VisitStep {
	idx := VisitStepIndex(step)
	if idx < 0 || idx+1 >= len(VisitSteps) {
		return model.StepCompleted
	}
	return VisitSteps[idx+1]
}

// VisitStepStatus 只依据已保存的 current_step，不根据已填内容推断
func VisitStepStatus(current, step model.VisitStep) StepStatus {
	ci, si := VisitStepIndex(current), VisitStepIndex(step)
	switch {
	case si < 0 || ci < 0 || si > ci:
		return StatusLocked
	case si < ci:
		return StatusCompleted
	default:
		return StatusAvailable
	}
}

type VisitStepView struct {
	Step   model.VisitStep `json:"step"`
	Status StepStatus      `json:"status"`
}

func VisitStepViews(current model.VisitStep) []VisitStepView {
	views := make([]VisitStepView, len(VisitSteps))
	for i, s := range VisitSteps {
		views[i] = VisitStepView{Step: s, Status: VisitStepStatus(current, s)}
	}
	return views
}

// CanSubmit 当前步骤或已完成步骤可以提交
func CanSubmit(current, step model.VisitStep) error {
	if VisitStepStatus(current, step) == StatusLocked {
		return util.ErrStepNotReachable
	}
	return nil
}

// AdvanceAfter 提交 step 后 current_step 的新值，不会回退
func AdvanceAfter(current, submitted model.VisitStep) model.VisitStep {
	next := NextVisitStep(submitted)
	if VisitStepIndex(next) > VisitStepIndex(current) {
		return next
	}
	return current
}

// StepAnswers 各步骤的答案；只有本包内的四种类型实现
type StepAnswers interface {
	Step() model.VisitStep
	// Missing 返回缺失或非法的字段名
	Missing() []string
	sealed()
}

// Validate 必填校验
func Validate(a StepAnswers) error {
	if missing := a.Missing(); len(missing) > 0 {
		return util.NewValidationError(missing...)
	}
	return nil
}

type PersonalInfoAnswers struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
	VisitDate   string `json:"visitDate"`
	DoctorName  string `json:"doctorName"`
	VisitReason string `json:"visitReason"`
}

func (PersonalInfoAnswers) Step() model.VisitStep { return model.StepPersonalInfo }
func (PersonalInfoAnswers) sealed()               {}

func (a PersonalInfoAnswers) Missing() []string {
	var missing []string
	if strings.TrimSpace(a.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if d, err := util.ParseDate(a.DateOfBirth); err != nil || d == nil {
		missing = append(missing, "dateOfBirth")
	}
	if d, err := util.ParseDate(a.VisitDate); err != nil || d == nil {
		missing = append(missing, "visitDate")
	}
	return missing
}

// ApplyTo 把个人信息写到父记录上（调用前需通过 Validate）
func (a PersonalInfoAnswers) ApplyTo(r *model.VisitRecord) {
	r.FullName = strings.TrimSpace(a.FullName)
	r.DateOfBirth, _ = util.ParseDate(a.DateOfBirth)
	r.VisitDate, _ = util.ParseDate(a.VisitDate)
	r.DoctorName = a.DoctorName
	r.VisitReason = a.VisitReason
}

type SymptomAnswer struct {
	SymptomType  model.SymptomType `json:"symptomType"`
	Present      bool              `json:"present"`
	Frequency    model.Frequency   `json:"frequency"`
	Intensity    int               `json:"intensity"`
	Treatments   []string          `json:"treatments"`
	Context      []string          `json:"context"`
	TimePatterns []string          `json:"timePatterns"`
	Notes        string            `json:"notes"`
}

type SymptomsAnswers struct {
	Symptoms []SymptomAnswer `json:"symptoms"`
}

func (SymptomsAnswers) Step() model.VisitStep { return model.StepSymptoms }
func (SymptomsAnswers) sealed()               {}

func (a SymptomsAnswers) Missing() []string {
	if len(a.Symptoms) == 0 {
		return []string{"symptoms"}
	}
	var missing []string
	seen := make(map[model.SymptomType]bool, len(a.Symptoms))
	for i, s := range a.Symptoms {
		prefix := fmt.Sprintf("symptoms[%d].", i)
		if !s.SymptomType.Valid() || seen[s.SymptomType] {
			missing = append(missing, prefix+"symptomType")
			continue
		}
		seen[s.SymptomType] = true
		if !s.Present {
			continue
		}
		if !s.Frequency.Valid() {
			missing = append(missing, prefix+"frequency")
		}
		if s.Intensity < SymptomIntensityMin || s.Intensity > SymptomIntensityMax {
			missing = append(missing, prefix+"intensity")
		}
	}
	return missing
}

// Rows 为每种症状生成一行；未提交的症状记为不存在，保证批量 upsert 覆盖完整
func (a SymptomsAnswers) Rows(recordID string) []model.Symptom {
	byType := make(map[model.SymptomType]SymptomAnswer, len(a.Symptoms))
	for _, s := range a.Symptoms {
		byType[s.SymptomType] = s
	}
	rows := make([]model.Symptom, 0, len(model.SymptomTypes))
	for _, t := range model.SymptomTypes {
		ans, ok := byType[t]
		row := model.Symptom{RecordID: recordID, SymptomType: t}
		if ok && ans.Present {
			row.Present = true
			row.Frequency = ans.Frequency
			row.Intensity = ans.Intensity
			row.Treatments = cleanList(ans.Treatments)
			row.Context = cleanList(ans.Context)
			row.TimePatterns = cleanList(ans.TimePatterns)
			row.Notes = strings.TrimSpace(ans.Notes)
		}
		rows = append(rows, row)
	}
	return rows
}

type DailyLivingAnswers struct {
	WorkImpact         model.ImpactLevel `json:"workImpact"`
	HouseholdImpact    model.ImpactLevel `json:"householdImpact"`
	SocialImpact       model.ImpactLevel `json:"socialImpact"`
	ExerciseImpact     model.ImpactLevel `json:"exerciseImpact"`
	SelfCareImpact     model.ImpactLevel `json:"selfCareImpact"`
	AffectedActivities []string          `json:"affectedActivities"`
	Notes              string            `json:"notes"`
}

func (DailyLivingAnswers) Step() model.VisitStep { return model.StepDailyLiving }
func (DailyLivingAnswers) sealed()               {}

func (a DailyLivingAnswers) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		level model.ImpactLevel
	}{
		{"workImpact", a.WorkImpact},
		{"householdImpact", a.HouseholdImpact},
		{"socialImpact", a.SocialImpact},
		{"exerciseImpact", a.ExerciseImpact},
		{"selfCareImpact", a.SelfCareImpact},
	} {
		if !f.level.Valid() {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (a DailyLivingAnswers) Row(recordID string) *model.DailyLiving {
	return &model.DailyLiving{
		RecordID:           recordID,
		WorkImpact:         a.WorkImpact,
		HouseholdImpact:    a.HouseholdImpact,
		SocialImpact:       a.SocialImpact,
		ExerciseImpact:     a.ExerciseImpact,
		SelfCareImpact:     a.SelfCareImpact,
		AffectedActivities: cleanList(a.AffectedActivities),
		Notes:              strings.TrimSpace(a.Notes),
	}
}

type QualityOfLifeAnswers struct {
	PhysicalHealth     int    `json:"physicalHealth"`
	EmotionalWellbeing int    `json:"emotionalWellbeing"`
	SocialLife         int    `json:"socialLife"`
	EnergyLevel        int    `json:"energyLevel"`
	Overall            int    `json:"overall"`
	Notes              string `json:"notes"`
}

func (QualityOfLifeAnswers) Step() model.VisitStep { return model.StepQualityOfLife }
func (QualityOfLifeAnswers) sealed()               {}

func (a QualityOfLifeAnswers) Missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value int
	}{
		{"physicalHealth", a.PhysicalHealth},
		{"emotionalWellbeing", a.EmotionalWellbeing},
		{"socialLife", a.SocialLife},
		{"energyLevel", a.EnergyLevel},
		{"overall", a.Overall},
	} {
		if f.value < QualityRatingMin || f.value > QualityRatingMax {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (a QualityOfLifeAnswers) Row(recordID string) *model.QualityOfLife {
	return &model.QualityOfLife{
		RecordID:           recordID,
		PhysicalHealth:     a.PhysicalHealth,
		EmotionalWellbeing: a.EmotionalWellbeing,
		SocialLife:         a.SocialLife,
		EnergyLevel:        a.EnergyLevel,
		Overall:            a.Overall,
		Notes:              strings.TrimSpace(a.Notes),
	}
}

// StepWrite 一次步骤提交需要的写入：一次子表 upsert（个人信息步骤没有）+ 一次父表更新
type StepWrite struct {
	RecordID      string
	ParentColumns map[string]interface{}
	Symptoms      []model.Symptom
	DailyLiving   *model.DailyLiving
	QualityOfLife *model.QualityOfLife
	NextStep      model.VisitStep
}

// PlanStepWrite 校验答案并生成写入计划
func PlanStepWrite(record *model.VisitRecord, answers StepAnswers, now time.Time) (*StepWrite, error) {
	if err := CanSubmit(record.CurrentStep, answers.Step()); err != nil {
		return nil, err
	}
	if err := Validate(answers); err != nil {
		return nil, err
	}

	next := AdvanceAfter(record.CurrentStep, answers.Step())
	w := &StepWrite{
		RecordID: record.ID,
		NextStep: next,
		ParentColumns: map[string]interface{}{
			"current_step": next,
			"updated_at":   now,
		},
	}

	switch a := answers.(type) {
	case PersonalInfoAnswers:
		tmp := *record
		a.ApplyTo(&tmp)
		w.ParentColumns["full_name"] = tmp.FullName
		w.ParentColumns["date_of_birth"] = tmp.DateOfBirth
		w.ParentColumns["visit_date"] = tmp.VisitDate
		w.ParentColumns["doctor_name"] = tmp.DoctorName
		w.ParentColumns["visit_reason"] = tmp.VisitReason
	case SymptomsAnswers:
		w.Symptoms = a.Rows(record.ID)
	case DailyLivingAnswers:
		w.DailyLiving = a.Row(record.ID)
	case QualityOfLifeAnswers:
		w.QualityOfLife = a.Row(record.ID)
	}
	return w, nil
}

func cleanList(items []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return datatypes.JSONSlice[string](out)
}
