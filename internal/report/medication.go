package report

import (
	"health_track_backend/internal/util"
	"sort"
	"strings"
	"time"
)

type HistoryEntry struct {
	Date        time.Time
	Description string
}

type MedicationEntry struct {
	Name       string
	Dosage     string
	Frequency  string
	Timing     string
	Indication string
	StartDate  time.Time
	StopDate   *time.Time
	StillUsing bool
	Notes      string
	History    []HistoryEntry
}

type MedicationPayload struct {
	ProgramTitle string
	PatientName  string
	Medications  []MedicationEntry
	GeneratedAt  time.Time
}

var medicationColumns = []string{"Name", "Dosage", "Frequency", "Start", "Stop", "Still using"}

// BuildMedicationReport 患者信息 → 用药表 → 每种药物的历史事件
func BuildMedicationReport(p MedicationPayload, layout Layout) (*Document, error) {
	if strings.TrimSpace(p.PatientName) == "" {
		return nil, &util.ExportError{Reason: "missing patient name"}
	}

	title := "Medication Log"
	if p.ProgramTitle != "" {
		title = p.ProgramTitle + " - " + title
	}
	b := newBuilder(title, p.GeneratedAt, layout)
	b.add(StyleTitle, title)
	b.gap()

	b.heading("Patient")
	b.field("Name", p.PatientName)
	b.field("Generated", p.GeneratedAt.Format(util.DateFormat))

	b.gap()
	b.heading("Medications")
	if len(p.Medications) == 0 {
		b.add(StyleBody, "No medications recorded.")
		return b.document(), nil
	}
	b.row(StyleTableHeader, medicationColumns...)
	for _, m := range p.Medications {
		b.row(StyleTableRow,
			m.Name,
			m.Dosage,
			m.Frequency,
			m.StartDate.Format(util.DateFormat),
			util.FormatDate(m.StopDate),
			yesNo(m.StillUsing),
		)
	}

	for _, m := range p.Medications {
		b.gap()
		b.heading(m.Name)
		b.field("Timing", m.Timing)
		b.field("Indication", m.Indication)
		b.field("Notes", strings.TrimSpace(m.Notes))
		history := append([]HistoryEntry(nil), m.History...)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Date.Before(history[j].Date)
		})
		for _, h := range history {
			b.paragraph(StyleBullet, "- "+h.Date.Format(util.DateFormat)+" "+h.Description)
		}
	}
	return b.document(), nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
