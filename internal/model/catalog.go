package model

// HealthTrackModule 健康项目（课程）
// swagger:model HealthTrackModule
type HealthTrackModule struct {
	BaseModel
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Published   bool   `gorm:"default:true" json:"published"`
}

func (HealthTrackModule) TableName() string {
	return "health_track_modules"
}

// swagger:model GlossaryTerm
type GlossaryTerm struct {
	BaseModel
	ProgramID  uint   `gorm:"index;not null" json:"programId"`
	Term       string `gorm:"size:200;not null" json:"term"`
	Definition string `gorm:"type:text;not null" json:"definition"`
	Category   string `gorm:"size:100" json:"category,omitempty"`
}

func (GlossaryTerm) TableName() string {
	return "glossary_terms"
}

// swagger:model Video
type Video struct {
	BaseModel
	ProgramID       uint    `gorm:"index;not null" json:"programId"`
	Title           string  `gorm:"size:255;not null" json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	URL             string  `gorm:"size:500;not null" json:"url"`
	ThumbnailURL    string  `gorm:"size:500" json:"thumbnailUrl,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	IsIntro         bool    `gorm:"default:false" json:"isIntro"`
	SortOrder       int     `gorm:"default:0" json:"sortOrder"`
}

func (Video) TableName() string {
	return "videos"
}
