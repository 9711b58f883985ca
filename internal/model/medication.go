package model

import (
	"time"

	"gorm.io/datatypes"
)

// Medication 用药记录；停药通过 StopDate + StillUsing=false 表示
// swagger:model Medication
type Medication struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"userId"`
	Name       string          `gorm:"size:200;not null" json:"name"`
	Dosage     string          `gorm:"size:100;not null" json:"dosage"`
	Frequency  string          `gorm:"size:100;not null" json:"frequency"`
	Timing     string          `gorm:"size:100" json:"timing,omitempty"`
	Indication string          `gorm:"size:255" json:"indication,omitempty"`
	StartDate  datatypes.Date  `gorm:"not null" json:"startDate"`
	StopDate   *datatypes.Date `json:"stopDate,omitempty"`
	StillUsing bool            `gorm:"not null;default:true" json:"stillUsing"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (Medication) TableName() string {
	return "medications"
}

type MedicationEventType string

const (
	MedicationEventStart        MedicationEventType = "start"
	MedicationEventStop         MedicationEventType = "stop"
	MedicationEventDosageChange MedicationEventType = "dosage_change"
	MedicationEventNote         MedicationEventType = "note"
)

// MedicationHistoryEvent 只追加的用药历史
// swagger:model MedicationHistoryEvent
type MedicationHistoryEvent struct {
	ID             uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	MedicationID   uint                `gorm:"index;not null" json:"medicationId"`
	UserID         uint                `gorm:"index;not null" json:"userId"`
	EventType      MedicationEventType `gorm:"size:32;not null" json:"eventType"`
	EventDate      time.Time           `gorm:"not null" json:"eventDate"`
	Dosage         string              `gorm:"size:100" json:"dosage,omitempty"`
	PreviousDosage string              `gorm:"size:100" json:"previousDosage,omitempty"`
	Frequency      string              `gorm:"size:100" json:"frequency,omitempty"`
	Reason         string              `gorm:"size:255" json:"reason,omitempty"`
	Notes          string              `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func (MedicationHistoryEvent) TableName() string {
	return "medication_history_events"
}
