package model

import "time"

// Role 表示账号角色。
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleRecruiter Role = "recruiter"
)

// Valid 判断角色是否为已知取值。
func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleRecruiter
}

// User 表示一个账号
// - Email: 唯一，统一存小写
// - PasswordHash: bcrypt 哈希，从不输出
// - LastLogin: 首次登录前为空
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:128;not null" json:"first_name"`
	LastName     string     `gorm:"size:128;not null" json:"last_name"`
	Role         Role       `gorm:"size:32;not null;default:candidate" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (User) TableName() string { return "users" }
