package photo

import (
	"bytes"
	"context"
	"io"
	"time"

	"cv-platform/internal/apperr"
	"cv-platform/internal/logger"
)

// DefaultMaxUpload 为单张照片上传的字节上限。
const DefaultMaxUpload = 10 << 20

// Service 处理照片上传：规范化后写入后端。
type Service struct {
	store     Store
	maxUpload int64
	log       *logger.Logger
	now       func() time.Time
}

// NewService 创建照片服务，maxUpload 非正时使用 DefaultMaxUpload。
func NewService(store Store, maxUpload int64, log *logger.Logger) *Service {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Service{store: store, maxUpload: maxUpload, log: logger.OrNop(log).Named("photo"), now: time.Now}
}

// Store 返回底层后端。
func (s *Service) Store() Store {
	return s.store
}

// Upload 规范化图片并保存，返回存储引用。
func (s *Service) Upload(ctx context.Context, userID uint, r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		return "", apperr.Validation("read upload: %v", err)
	}
	if int64(len(raw)) > s.maxUpload {
		return "", apperr.Validation("photo exceeds %d bytes", s.maxUpload)
	}

	data, err := Normalize(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	ref, err := s.store.Put(ctx, ObjectKey(userID, s.now()), data)
	if err != nil {
		return "", err
	}
	s.log.Info("photo stored", "user_id", userID, "ref", ref, "bytes", len(data))
	return ref, nil
}

// Delete 删除照片。
func (s *Service) Delete(ctx context.Context, ref string) error {
	return s.store.Delete(ctx, ref)
}

// Open 读取照片。
func (s *Service) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return s.store.Open(ctx, ref)
}
