package report

import (
	"fmt"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"strings"
	"time"
)

// symptomIntensityScale 报告中症状强度按 x/5 显示；录入允许 1~10，这里不做换算
const symptomIntensityScale = 5

const qualityRatingScale = 10

type PersonalInfo struct {
	FullName    string
	DateOfBirth *time.Time
	VisitDate   *time.Time
	DoctorName  string
	VisitReason string
}

type SymptomEntry struct {
	Type         model.SymptomType
	Frequency    model.Frequency
	Intensity    int
	Treatments   []string
	Context      []string
	TimePatterns []string
	Notes        string
}

type DailyLivingEntry struct {
	Work               model.ImpactLevel
	Household          model.ImpactLevel
	Social             model.ImpactLevel
	Exercise           model.ImpactLevel
	SelfCare           model.ImpactLevel
	AffectedActivities []string
	Notes              string
}

type QualityOfLifeEntry struct {
	PhysicalHealth     int
	EmotionalWellbeing int
	SocialLife         int
	EnergyLevel        int
	Overall            int
	Notes              string
}

// VisitPayload 就诊准备报告的完整输入
type VisitPayload struct {
	ProgramTitle  string
	Personal      PersonalInfo
	Symptoms      []SymptomEntry
	DailyLiving   *DailyLivingEntry
	QualityOfLife *QualityOfLifeEntry
	GeneratedAt   time.Time
}

// PayloadFromRecord 从就诊记录组装报告数据，只保留存在的症状并按固定顺序排列
func PayloadFromRecord(rec *model.VisitRecord, programTitle string, now time.Time) VisitPayload {
	p := VisitPayload{
		ProgramTitle: programTitle,
		Personal: PersonalInfo{
			FullName:    rec.FullName,
			DateOfBirth: rec.DateOfBirth,
			VisitDate:   rec.VisitDate,
			DoctorName:  rec.DoctorName,
			VisitReason: rec.VisitReason,
		},
		GeneratedAt: now,
	}

	byType := make(map[model.SymptomType]model.Symptom, len(rec.Symptoms))
	for _, s := range rec.Symptoms {
		byType[s.SymptomType] = s
	}
	for _, t := range model.SymptomTypes {
		s, ok := byType[t]
		if !ok || !s.Present {
			continue
		}
		p.Symptoms = append(p.Symptoms, SymptomEntry{
			Type:         s.SymptomType,
			Frequency:    s.Frequency,
			Intensity:    s.Intensity,
			Treatments:   s.Treatments,
			Context:      s.Context,
			TimePatterns: s.TimePatterns,
			Notes:        s.Notes,
		})
	}

	if dl := rec.DailyLiving; dl != nil {
		p.DailyLiving = &DailyLivingEntry{
			Work:               dl.WorkImpact,
			Household:          dl.HouseholdImpact,
			Social:             dl.SocialImpact,
			Exercise:           dl.ExerciseImpact,
			SelfCare:           dl.SelfCareImpact,
			AffectedActivities: dl.AffectedActivities,
			Notes:              dl.Notes,
		}
	}
	if q := rec.QualityOfLife; q != nil {
		p.QualityOfLife = &QualityOfLifeEntry{
			PhysicalHealth:     q.PhysicalHealth,
			EmotionalWellbeing: q.EmotionalWellbeing,
			SocialLife:         q.SocialLife,
			EnergyLevel:        q.EnergyLevel,
			Overall:            q.Overall,
			Notes:              q.Notes,
		}
	}
	return p
}

func (p PersonalInfo) missing() []string {
	var missing []string
	if strings.TrimSpace(p.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if p.DateOfBirth == nil {
		missing = append(missing, "date_of_birth")
	}
	if p.VisitDate == nil {
		missing = append(missing, "visit_date")
	}
	return missing
}

type note struct {
	label string
	text  string
}

// BuildVisitReport 标题 → 个人信息 → 症状 → 日常生活 → 生活质量 → 备注页（有备注时）
func BuildVisitReport(p VisitPayload, layout Layout) (*Document, error) {
	if missing := p.Personal.missing(); len(missing) > 0 {
		return nil, &util.ExportError{Reason: "missing personal info: " + strings.Join(missing, ", ")}
	}

	title := "Doctor Visit Preparation"
	if p.ProgramTitle != "" {
		title = p.ProgramTitle + " - " + title
	}
	b := newBuilder(title, p.GeneratedAt, layout)
	b.add(StyleTitle, title)
	b.gap()

	b.heading("Personal Information")
	b.field("Name", p.Personal.FullName)
	b.field("Date of birth", util.FormatDate(p.Personal.DateOfBirth))
	b.field("Visit date", util.FormatDate(p.Personal.VisitDate))
	b.field("Doctor", p.Personal.DoctorName)
	b.field("Reason for visit", p.Personal.VisitReason)

	var notes []note
	for _, s := range p.Symptoms {
		b.gap()
		b.heading(s.Type.Label())
		b.field("Frequency", humanize(string(s.Frequency)))
		b.field("Intensity", fmt.Sprintf("%d/%d", s.Intensity, symptomIntensityScale))
		b.bullets("Treatments tried", s.Treatments)
		b.bullets("Context", s.Context)
		b.bullets("Time patterns", s.TimePatterns)
		if n := strings.TrimSpace(s.Notes); n != "" {
			b.field("Notes", n)
			notes = append(notes, note{label: s.Type.Label(), text: n})
		}
	}

	if dl := p.DailyLiving; dl != nil {
		b.gap()
		b.heading("Daily Living")
		b.field("Work", humanize(string(dl.Work)))
		b.field("Household", humanize(string(dl.Household)))
		b.field("Social", humanize(string(dl.Social)))
		b.field("Exercise", humanize(string(dl.Exercise)))
		b.field("Self care", humanize(string(dl.SelfCare)))
		b.bullets("Affected activities", dl.AffectedActivities)
		if n := strings.TrimSpace(dl.Notes); n != "" {
			b.field("Notes", n)
			notes = append(notes, note{label: "Daily Living", text: n})
		}
	}

	if q := p.QualityOfLife; q != nil {
		b.gap()
		b.heading("Quality of Life")
		b.field("Physical health", rating(q.PhysicalHealth))
		b.field("Emotional wellbeing", rating(q.EmotionalWellbeing))
		b.field("Social life", rating(q.SocialLife))
		b.field("Energy level", rating(q.EnergyLevel))
		b.field("Overall", rating(q.Overall))
		if n := strings.TrimSpace(q.Notes); n != "" {
			b.field("Notes", n)
			notes = append(notes, note{label: "Quality of Life", text: n})
		}
	}

	if len(notes) > 0 {
		b.newPage()
		b.heading("Notes")
		for _, n := range notes {
			b.add(StyleLabel, n.label)
			b.paragraph(StyleBody, n.text)
			b.gap()
		}
	}
	return b.document(), nil
}

func rating(v int) string {
	return fmt.Sprintf("%d/%d", v, qualityRatingScale)
}
