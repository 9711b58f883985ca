package service

import (
	"fmt"
	"health_track_backend/internal/model"
	"strings"
	"time"
)

// HistoryEvent 用药历史事件；只有本文件中的四种类型实现
type HistoryEvent interface {
	Kind() model.MedicationEventType
	Date() time.Time
	Describe() string
	sealed()
}

type MedicationStarted struct {
	At        time.Time `json:"at"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency"`
}

type MedicationStopped struct {
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

type DosageChanged struct {
	At        time.Time `json:"at"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Frequency string    `json:"frequency,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type MedicationNote struct {
	At    time.Time `json:"at"`
	Notes string    `json:"notes"`
}

func (MedicationStarted) Kind() model.MedicationEventType { return model.MedicationEventStart }
func (MedicationStopped) Kind() model.MedicationEventType { return model.MedicationEventStop }
func (DosageChanged) Kind() model.MedicationEventType     { return model.MedicationEventDosageChange }
func (MedicationNote) Kind() model.MedicationEventType    { return model.MedicationEventNote }

func (e MedicationStarted) Date() time.Time { return e.At }
func (e MedicationStopped) Date() time.Time { return e.At }
func (e DosageChanged) Date() time.Time     { return e.At }
func (e MedicationNote) Date() time.Time    { return e.At }

func (MedicationStarted) sealed() {}
func (MedicationStopped) sealed() {}
func (DosageChanged) sealed()     {}
func (MedicationNote) sealed()    {}

func (e MedicationStarted) Describe() string {
	return fmt.Sprintf("Started %s, %s", e.Dosage, e.Frequency)
}

func (e MedicationStopped) Describe() string {
	return withReason("Stopped", e.Reason)
}

func (e DosageChanged) Describe() string {
	// 仅频次变化
	if e.From == e.To && e.Frequency != "" {
		return withReason("Frequency changed to "+e.Frequency, e.Reason)
	}
	desc := fmt.Sprintf("Dosage changed from %s to %s", e.From, e.To)
	if e.Frequency != "" {
		desc += ", " + e.Frequency
	}
	return withReason(desc, e.Reason)
}

func (e MedicationNote) Describe() string {
	return "Note: " + e.Notes
}

func withReason(desc, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return desc + " (" + reason + ")"
	}
	return desc
}

// DecodeHistoryEvent 数据库行转为具体事件，未知类型返回错误
func DecodeHistoryEvent(row model.MedicationHistoryEvent) (HistoryEvent, error) {
	switch row.EventType {
	case model.MedicationEventStart:
		return MedicationStarted{At: row.EventDate, Dosage: row.Dosage, Frequency: row.Frequency}, nil
	case model.MedicationEventStop:
		return MedicationStopped{At: row.EventDate, Reason: row.Reason}, nil
	case model.MedicationEventDosageChange:
		return DosageChanged{
			At:        row.EventDate,
			From:      row.PreviousDosage,
			To:        row.Dosage,
			Frequency: row.Frequency,
			Reason:    row.Reason,
		}, nil
	case model.MedicationEventNote:
		return MedicationNote{At: row.EventDate, Notes: row.Notes}, nil
	}
	return nil, fmt.Errorf("unknown medication event type %q (event %d)", row.EventType, row.ID)
}

// encodeHistoryEvent 事件转为待写入的行
func encodeHistoryEvent(userID, medicationID uint, e HistoryEvent) *model.MedicationHistoryEvent {
	row := &model.MedicationHistoryEvent{
		MedicationID: medicationID,
		UserID:       userID,
		EventType:    e.Kind(),
		EventDate:    e.Date(),
	}
	switch ev := e.(type) {
	case MedicationStarted:
		row.Dosage, row.Frequency = ev.Dosage, ev.Frequency
	case MedicationStopped:
		row.Reason = ev.Reason
	case DosageChanged:
		row.PreviousDosage, row.Dosage = ev.From, ev.To
		row.Frequency, row.Reason = ev.Frequency, ev.Reason
	case MedicationNote:
		row.Notes = ev.Notes
	}
	return row
}

// HistoryItem 接口返回的历史条目
type HistoryItem struct {
	ID           uint                      `json:"id"`
	MedicationID uint                      `json:"medicationId"`
	EventType    model.MedicationEventType `json:"eventType"`
	EventDate    time.Time                 `json:"eventDate"`
	Description  string                    `json:"description"`
	Detail       HistoryEvent              `json:"detail"`
}

func decodeHistory(rows []model.MedicationHistoryEvent) ([]HistoryItem, error) {
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		ev, err := DecodeHistoryEvent(row)
		if err != nil {
			return nil, err
		}
		items = append(items, HistoryItem{
			ID:           row.ID,
			MedicationID: row.MedicationID,
			EventType:    ev.Kind(),
			EventDate:    ev.Date(),
			Description:  ev.Describe(),
			Detail:       ev,
		})
	}
	return items, nil
}
