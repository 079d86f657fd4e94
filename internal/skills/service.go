package skills

import (
	"context"
	"strings"

	"cv-platform/internal/apperr"
	"cv-platform/internal/logger"
	"cv-platform/internal/model"
	"cv-platform/internal/storage"
)

// 熟练度范围。
const (
	MinLevel = 1
	MaxLevel = 4
)

var levelLabels = [...]string{"Débutant", "Intermédiaire", "Avancé", "Expert"}

// LevelLabel 返回熟练度的展示名称，越界时截断到有效范围。
func LevelLabel(level int) string {
	level = min(max(level, MinLevel), MaxLevel)
	return levelLabels[level-1]
}

// Store 定义技能目录的持久化接口。
type Store interface {
	EnsureSkill(ctx context.Context, name string) (model.Skill, error)
	SkillByID(ctx context.Context, id uint) (model.Skill, error)
	UserByID(ctx context.Context, id uint) (model.User, error)
	SearchSkills(ctx context.Context, substr string) ([]string, error)
	UpsertUserSkill(ctx context.Context, us model.UserSkill) error
	DeleteUserSkill(ctx context.Context, userID, skillID uint) error
	ListUserSkills(ctx context.Context, userID uint) ([]storage.UserSkillRow, error)
}

// Assignment 表示用户的一项技能。
type Assignment struct {
	SkillID    uint   `json:"skill_id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	LevelLabel string `json:"level_label"`
	Years      int    `json:"years"`
}

// Service 管理技能目录与用户技能。
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService 创建技能服务。
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log).Named("skills")}
}

// EnsureSkill 按名称插入或获取技能，返回技能 ID。
func (s *Service) EnsureSkill(ctx context.Context, name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.Validation("skill name required")
	}
	skill, err := s.store.EnsureSkill(ctx, name)
	if err != nil {
		return 0, err
	}
	return skill.ID, nil
}

// AssignSkill 写入或覆盖用户对某技能的熟练度与年限。
func (s *Service) AssignSkill(ctx context.Context, userID, skillID uint, level, years int) error {
	if err := validateAssignment(level, years); err != nil {
		return err
	}
	if _, err := s.store.SkillByID(ctx, skillID); err != nil {
		return err
	}
	if err := s.store.UpsertUserSkill(ctx, model.UserSkill{
		UserID:          userID,
		SkillID:         skillID,
		Level:           level,
		ExperienceYears: years,
	}); err != nil {
		return err
	}
	s.log.Debug("skill assigned", "user_id", userID, "skill_id", skillID, "level", level)
	return nil
}

// AssignSkillByName 先确保目录中存在该技能，再写入用户技能。
func (s *Service) AssignSkillByName(ctx context.Context, userID uint, name string, level, years int) (uint, error) {
	if err := validateAssignment(level, years); err != nil {
		return 0, err
	}
	// 用户不存在时不向目录写入新技能。
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return 0, err
	}
	id, err := s.EnsureSkill(ctx, name)
	if err != nil {
		return 0, err
	}
	return id, s.AssignSkill(ctx, userID, id, level, years)
}

// RemoveAssignment 删除用户技能，不存在时不做任何事。
func (s *Service) RemoveAssignment(ctx context.Context, userID, skillID uint) error {
	return s.store.DeleteUserSkill(ctx, userID, skillID)
}

// ListAssignments 按熟练度、年限倒序返回用户技能。
func (s *Service) ListAssignments(ctx context.Context, userID uint) ([]Assignment, error) {
	rows, err := s.store.ListUserSkills(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assignment{
			SkillID:    r.SkillID,
			Name:       r.Name,
			Level:      r.Level,
			LevelLabel: LevelLabel(r.Level),
			Years:      r.ExperienceYears,
		})
	}
	return out, nil
}

// SearchCatalogue 返回名称包含 substr 的技能，不区分大小写。
func (s *Service) SearchCatalogue(ctx context.Context, substr string) ([]string, error) {
	return s.store.SearchSkills(ctx, substr)
}

func validateAssignment(level, years int) error {
	if level < MinLevel || level > MaxLevel {
		return apperr.Validation("skill level must be between %d and %d, got %d", MinLevel, MaxLevel, level)
	}
	if years < 0 {
		return apperr.Validation("experience years must not be negative, got %d", years)
	}
	return nil
}
