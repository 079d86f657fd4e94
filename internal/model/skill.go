package model

import "time"

// Skill 是全局去重的技能目录项。
type Skill struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

func (Skill) TableName() string { return "skills" }

// UserSkill 记录用户对某项技能的熟练度，(user_id, skill_id) 唯一。
type UserSkill struct {
	UserID          uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	SkillID         uint      `gorm:"primaryKey;autoIncrement:false" json:"skill_id"`
	Level           int       `gorm:"not null;default:1" json:"level"`
	ExperienceYears int       `gorm:"not null;default:0" json:"experience_years"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (UserSkill) TableName() string { return "user_skills" }
