package model

import (
	"time"

	"gorm.io/datatypes"
)

// 可选模板。
const (
	TemplateClassic      = "classic"
	TemplateModern       = "modern"
	TemplateCreative     = "creative"
	TemplateProfessional = "professional"
)

// Templates 为模板标识到展示名称的映射。
var Templates = map[string]string{
	TemplateClassic:      "Classique",
	TemplateModern:       "Moderne",
	TemplateCreative:     "Créatif",
	TemplateProfessional: "Professionnel",
}

// CV 表示一份简历
// - Data: 简历正文 JSON（见 cvdoc.Payload）
// - PhotoPath: 照片存储引用，可为空
// - ViewCount: 与 cv_views 同事务维护
// - UpdatedAt: 每次保存刷新，列表按其倒序
type CV struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Title     string         `gorm:"not null" json:"title"`
	Template  string         `gorm:"size:32;not null;default:classic" json:"template"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	PhotoPath string         `json:"photo_path"`
	IsPublic  bool           `gorm:"not null;default:false" json:"is_public"`
	ViewCount int64          `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`
}

func (CV) TableName() string { return "cvs" }

// CVHistory 是保存时的正文快照，只追加不修改。
type CVHistory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CVID      uint           `gorm:"column:cv_id;index;not null" json:"cv_id"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func (CVHistory) TableName() string { return "cv_histories" }

// CVView 记录一次浏览，ViewerID 为空表示匿名。
type CVView struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	CVID     uint      `gorm:"column:cv_id;index;not null" json:"cv_id"`
	ViewerID *uint     `gorm:"index" json:"viewer_id,omitempty"`
	ViewedAt time.Time `gorm:"index;not null" json:"viewed_at"`
	Origin   string    `gorm:"size:255" json:"origin"`
}

func (CVView) TableName() string { return "cv_views" }
