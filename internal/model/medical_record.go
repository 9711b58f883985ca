package model

import "time"

// MedicalRecord 用户上传的病历文件，文件内容存放在对象存储中
// swagger:model MedicalRecord
type MedicalRecord struct {
	BaseModel
	UserID      uint       `gorm:"index;not null" json:"userId"`
	FileName    string     `gorm:"size:255;not null" json:"fileName"`
	ObjectKey   string     `gorm:"size:500;not null" json:"-"`
	URL         string     `gorm:"size:500" json:"url"`
	ContentType string     `gorm:"size:100" json:"contentType"`
	Size        int64      `json:"size"`
	Category    string     `gorm:"size:50" json:"category"` // lab_result, imaging, prescription, letter, other
	Description string     `gorm:"type:text" json:"description,omitempty"`
	RecordDate  *time.Time `gorm:"type:date" json:"recordDate,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}
