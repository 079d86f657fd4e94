package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cv-platform/internal/apperr"
	"cv-platform/internal/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// PredefinedSkills 为首次启动时写入目录的技能。
var PredefinedSkills = []string{
	"Python", "JavaScript", "Java", "C++", "PHP", "SQL", "HTML/CSS",
	"React", "Angular", "Vue.js", "Node.js", "Django", "Flask",
	"Git", "Docker", "AWS", "Azure", "Machine Learning",
	"Data Analysis", "Project Management", "Agile/Scrum",
	"Communication", "Leadership", "Problem Solving",
}

// Store 封装 SQLite 数据库访问，负责用户、简历、历史、浏览与技能的增删查。
type Store struct {
	db *gorm.DB
}

// CVUpdate 描述一次保存要覆盖的列。
type CVUpdate struct {
	Data      datatypes.JSON
	Template  string
	PhotoPath string
}

// UserSkillRow 为用户技能与目录名称的联合查询结果。
type UserSkillRow struct {
	SkillID         uint
	Name            string
	Level           int
	ExperienceYears int
}

// ViewAggregate 为浏览统计的原始聚合值。
type ViewAggregate struct {
	ViewCount     int64
	UniqueViewers int64
	LastViewedAt  *time.Time
}

// NewStore 创建 Store，自动迁移数据表并写入预置技能。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql DB: %w", err)
	}
	// 单连接串行化写入，后台自动保存与前台操作不会互相锁库。
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.CV{},
		&model.CVHistory{},
		&model.CVView{},
		&model.Skill{},
		&model.UserSkill{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	store := &Store{db: db}
	if err := store.SeedSkills(context.Background(), PredefinedSkills); err != nil {
		return nil, err
	}
	return store, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Ping 检查数据库连接是否可用。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	return apperr.Storage("ping db", sqlDB.PingContext(ctx))
}

// --- 用户 ---

// CreateUser 写入新用户，邮箱冲突时返回 ErrDuplicateEmail。
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return apperr.Storage("count users", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateEmail, user.Email)
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", apperr.ErrDuplicateEmail, user.Email)
			}
			return apperr.Storage("create user", err)
		}
		return nil
	})
	return err
}

// UserByEmail 按邮箱查找用户。
func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return model.User{}, notFoundOr(err, "user", email, "get user")
	}
	return user, nil
}

// UserByID 按 ID 查找用户。
func (s *Store) UserByID(ctx context.Context, id uint) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return model.User{}, notFoundOr(err, "user", id, "get user")
	}
	return user, nil
}

// TouchLastLogin 更新最近登录时间。
func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	tx := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at)
	if tx.Error != nil {
		return apperr.Storage("update last login", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

// --- 技能目录 ---

// SeedSkills 幂等写入技能名称。
func (s *Store) SeedSkills(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]model.Skill, 0, len(names))
	for _, name := range names {
		rows = append(rows, model.Skill{Name: name})
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows)
	if tx.Error != nil {
		return apperr.Storage("seed skills", tx.Error)
	}
	return nil
}

// EnsureSkill 按名称插入或获取技能。
func (s *Store) EnsureSkill(ctx context.Context, name string) (model.Skill, error) {
	db := s.db.WithContext(ctx)
	row := model.Skill{Name: name}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return model.Skill{}, apperr.Storage("insert skill", err)
	}

	var skill model.Skill
	if err := db.First(&skill, "name = ?", name).Error; err != nil {
		return model.Skill{}, notFoundOr(err, "skill", name, "get skill")
	}
	return skill, nil
}

// SkillByID 按 ID 查找技能。
func (s *Store) SkillByID(ctx context.Context, id uint) (model.Skill, error) {
	var skill model.Skill
	if err := s.db.WithContext(ctx).First(&skill, id).Error; err != nil {
		return model.Skill{}, notFoundOr(err, "skill", id, "get skill")
	}
	return skill, nil
}

// SearchSkills 返回名称包含 substr（不区分大小写）的技能，按名称排序。
func (s *Store) SearchSkills(ctx context.Context, substr string) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&model.Skill{}).Order("name ASC")
	if substr = strings.ToLower(strings.TrimSpace(substr)); substr != "" {
		query = query.Where("instr(lower(name), ?) > 0", substr)
	}
	var names []string
	if err := query.Pluck("name", &names).Error; err != nil {
		return nil, apperr.Storage("search skills", err)
	}
	return names, nil
}

// UpsertUserSkill 写入或覆盖用户技能等级，用户不存在时返回 NotFound。
func (s *Store) UpsertUserSkill(ctx context.Context, us model.UserSkill) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("id = ?", us.UserID).Count(&n).Error; err != nil {
			return apperr.Storage("count users", err)
		}
		if n == 0 {
			return apperr.NotFound("user", us.UserID)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"level", "experience_years", "updated_at"}),
		}).Create(&us).Error
		if err != nil {
			return apperr.Storage("upsert user skill", err)
		}
		return nil
	})
}

// DeleteUserSkill 删除用户技能，记录不存在时不报错。
func (s *Store) DeleteUserSkill(ctx context.Context, userID, skillID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Delete(&model.UserSkill{}).Error
	return apperr.Storage("delete user skill", err)
}

// ListUserSkills 按等级、年限倒序返回用户技能。
func (s *Store) ListUserSkills(ctx context.Context, userID uint) ([]UserSkillRow, error) {
	var rows []UserSkillRow
	err := s.db.WithContext(ctx).
		Table("user_skills").
		Select("user_skills.skill_id AS skill_id, skills.name AS name, user_skills.level AS level, user_skills.experience_years AS experience_years").
		Joins("JOIN skills ON skills.id = user_skills.skill_id").
		Where("user_skills.user_id = ?", userID).
		Order("user_skills.level DESC, user_skills.experience_years DESC, skills.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage("list user skills", err)
	}
	return rows, nil
}

// --- 简历 ---

// CreateCV 为已存在的用户写入新简历。
func (s *Store) CreateCV(ctx context.Context, cv *model.CV) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("id = ?", cv.UserID).Count(&n).Error; err != nil {
			return apperr.Storage("count users", err)
		}
		if n == 0 {
			return apperr.NotFound("user", cv.UserID)
		}
		if err := tx.Create(cv).Error; err != nil {
			return apperr.Storage("create cv", err)
		}
		return nil
	})
}

// GetCV 按 ID 获取简历。
func (s *Store) GetCV(ctx context.Context, id uint) (model.CV, error) {
	var cv model.CV
	if err := s.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return model.CV{}, notFoundOr(err, "cv", id, "get cv")
	}
	return cv, nil
}

// ListCVs 返回用户的简历摘要，按更新时间倒序。
func (s *Store) ListCVs(ctx context.Context, userID uint) ([]model.CV, error) {
	var cvs []model.CV
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "title", "template", "view_count", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&cvs).Error
	if err != nil {
		return nil, apperr.Storage("list cvs", err)
	}
	return cvs, nil
}

// SaveCV 在同一事务内覆盖正文并追加一条历史快照。
func (s *Store) SaveCV(ctx context.Context, id uint, update CVUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.CV{}).Where("id = ?", id).Updates(map[string]any{
			"data":       update.Data,
			"template":   update.Template,
			"photo_path": update.PhotoPath,
			"updated_at": now,
		})
		if res.Error != nil {
			return apperr.Storage("update cv", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("cv", id)
		}
		snapshot := model.CVHistory{CVID: id, Data: update.Data, CreatedAt: now}
		if err := tx.Create(&snapshot).Error; err != nil {
			return apperr.Storage("append cv history", err)
		}
		return nil
	})
}

// RenameCV 修改简历标题。
func (s *Store) RenameCV(ctx context.Context, id uint, title string) error {
	return s.updateCV(ctx, id, "rename cv", map[string]any{"title": title, "updated_at": time.Now()})
}

// SetCVPhoto 修改简历照片引用。
func (s *Store) SetCVPhoto(ctx context.Context, id uint, ref string) error {
	return s.updateCV(ctx, id, "set cv photo", map[string]any{"photo_path": ref, "updated_at": time.Now()})
}

func (s *Store) updateCV(ctx context.Context, id uint, op string, values map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.CV{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return apperr.Storage(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("cv", id)
	}
	return nil
}

// DeleteCV 在同一事务内删除简历及其历史、浏览记录，返回被删除的简历。
func (s *Store) DeleteCV(ctx context.Context, id uint) (model.CV, error) {
	var cv model.CV
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cv, id).Error; err != nil {
			return notFoundOr(err, "cv", id, "get cv")
		}
		if err := tx.Where("cv_id = ?", id).Delete(&model.CVHistory{}).Error; err != nil {
			return apperr.Storage("delete cv history", err)
		}
		if err := tx.Where("cv_id = ?", id).Delete(&model.CVView{}).Error; err != nil {
			return apperr.Storage("delete cv views", err)
		}
		if err := tx.Delete(&model.CV{}, id).Error; err != nil {
			return apperr.Storage("delete cv", err)
		}
		return nil
	})
	if err != nil {
		return model.CV{}, err
	}
	return cv, nil
}

// ListHistory 按写入顺序返回简历快照。
func (s *Store) ListHistory(ctx context.Context, cvID uint) ([]model.CVHistory, error) {
	var rows []model.CVHistory
	if err := s.db.WithContext(ctx).Where("cv_id = ?", cvID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, apperr.Storage("list cv history", err)
	}
	return rows, nil
}

// CountHistory 返回简历快照数量。
func (s *Store) CountHistory(ctx context.Context, cvID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.CVHistory{}).Where("cv_id = ?", cvID).Count(&n).Error; err != nil {
		return 0, apperr.Storage("count cv history", err)
	}
	return n, nil
}

// --- 浏览统计 ---

// RecordView 在同一事务内追加浏览记录并累加计数。
func (s *Store) RecordView(ctx context.Context, view *model.CVView) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CV{}).Where("id = ?", view.CVID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return apperr.Storage("increment view count", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("cv", view.CVID)
		}
		if view.ViewedAt.IsZero() {
			view.ViewedAt = time.Now()
		}
		if err := tx.Create(view).Error; err != nil {
			return apperr.Storage("create cv view", err)
		}
		return nil
	})
}

// ViewStats 汇总简历的浏览次数、独立访客与最近浏览时间。
func (s *Store) ViewStats(ctx context.Context, cvID uint) (ViewAggregate, error) {
	var agg ViewAggregate
	db := s.db.WithContext(ctx)

	var cv model.CV
	if err := db.Select("id", "view_count").First(&cv, cvID).Error; err != nil {
		return agg, notFoundOr(err, "cv", cvID, "get cv")
	}
	agg.ViewCount = cv.ViewCount

	if err := db.Model(&model.CVView{}).
		Where("cv_id = ? AND viewer_id IS NOT NULL", cvID).
		Distinct("viewer_id").
		Count(&agg.UniqueViewers).Error; err != nil {
		return agg, apperr.Storage("count unique viewers", err)
	}

	var last []model.CVView
	if err := db.Where("cv_id = ?", cvID).Order("viewed_at DESC, id DESC").Limit(1).Find(&last).Error; err != nil {
		return agg, apperr.Storage("get last view", err)
	}
	if len(last) > 0 {
		at := last[0].ViewedAt
		agg.LastViewedAt = &at
	}
	return agg, nil
}

func notFoundOr(err error, kind string, id any, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(kind, id)
	}
	return apperr.Storage(op, err)
}
