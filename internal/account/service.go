package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"cv-platform/internal/apperr"
	"cv-platform/internal/logger"
	"cv-platform/internal/model"
)

// MinPasswordLength 为注册时密码的最小长度。
const MinPasswordLength = 6

// Store 定义账号持久化接口。
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// RegisterInput 表示注册请求。
type RegisterInput struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      model.Role `json:"role"`
}

// Service 负责注册与登录校验。
type Service struct {
	store  Store
	hasher Hasher
	log    *logger.Logger
	now    func() time.Time
}

// NewService 创建账号服务，hasher 为空时使用默认 bcrypt。
func NewService(store Store, hasher Hasher, log *logger.Logger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{
		store:  store,
		hasher: hasher,
		log:    logger.OrNop(log).Named("account"),
		now:    time.Now,
	}
}

// Register 校验输入并创建用户，返回新用户 ID。
func (s *Service) Register(ctx context.Context, in RegisterInput) (uint, error) {
	email := normalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if email == "" || first == "" || last == "" {
		return 0, apperr.Validation("email, first name and last name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return 0, apperr.Validation("invalid email %q", email)
	}
	if len(in.Password) < MinPasswordLength {
		return 0, fmt.Errorf("%w: at least %d characters required", apperr.ErrWeakPassword, MinPasswordLength)
	}

	role := in.Role
	if role == "" {
		role = model.RoleCandidate
	}
	if !role.Valid() {
		return 0, apperr.Validation("unknown role %q", role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return 0, err
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return 0, err
	}
	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user.ID, nil
}

// Authenticate 校验邮箱与密码，成功时刷新最近登录时间并返回用户。
func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.ErrAuthFailure
		}
		return model.User{}, err
	}
	if !user.IsActive || !s.hasher.Compare(user.PasswordHash, password) {
		s.log.Warn("authentication rejected", "user_id", user.ID)
		return model.User{}, apperr.ErrAuthFailure
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return model.User{}, err
	}
	user.LastLogin = &now
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
