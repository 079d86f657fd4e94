package document

import (
	"context"
	"strings"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/logger"
	"cv-platform/internal/model"
	"cv-platform/internal/storage"

	"gorm.io/datatypes"
)

// Store 定义简历持久化接口。
type Store interface {
	CreateCV(ctx context.Context, cv *model.CV) error
	GetCV(ctx context.Context, id uint) (model.CV, error)
	ListCVs(ctx context.Context, userID uint) ([]model.CV, error)
	SaveCV(ctx context.Context, id uint, update storage.CVUpdate) error
	RenameCV(ctx context.Context, id uint, title string) error
	SetCVPhoto(ctx context.Context, id uint, ref string) error
	DeleteCV(ctx context.Context, id uint) (model.CV, error)
	ListHistory(ctx context.Context, cvID uint) ([]model.CVHistory, error)
	CountHistory(ctx context.Context, cvID uint) (int64, error)
}

// PhotoRemover 删除简历关联的照片。
type PhotoRemover interface {
	Delete(ctx context.Context, ref string) error
}

// Service 负责简历的创建、保存、读取与删除。
type Service struct {
	store  Store
	photos PhotoRemover
	log    *logger.Logger
}

// NewService 创建简历服务，photos 可为空。
func NewService(store Store, photos PhotoRemover, log *logger.Logger) *Service {
	return &Service{store: store, photos: photos, log: logger.OrNop(log).Named("document")}
}

// Create 为用户创建简历，返回新简历 ID。
func (s *Service) Create(ctx context.Context, userID uint, title string, payload cvdoc.Payload) (uint, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, apperr.Validation("title required")
	}
	data, err := cvdoc.Encode(payload)
	if err != nil {
		return 0, err
	}
	cv := model.CV{
		UserID:   userID,
		Title:    title,
		Template: model.TemplateClassic,
		Data:     datatypes.JSON(data),
	}
	if err := s.store.CreateCV(ctx, &cv); err != nil {
		return 0, err
	}
	s.log.Info("cv created", "cv_id", cv.ID, "user_id", userID)
	return cv.ID, nil
}

// Save 校验个人信息与模板后覆盖正文，并追加一条历史快照。
func (s *Service) Save(ctx context.Context, id uint, in SaveInput) error {
	update, err := prepare(in)
	if err != nil {
		return err
	}
	if err := s.store.SaveCV(ctx, id, update); err != nil {
		return err
	}
	s.log.Debug("cv saved", "cv_id", id)
	return nil
}

// BestEffortSave 是后台保存策略：从不返回错误，校验失败时跳过写入，存储错误只记录日志。
func (s *Service) BestEffortSave(ctx context.Context, id uint, in SaveInput) SaveStatus {
	update, err := prepare(in)
	if err != nil {
		s.log.Debug("background save skipped", "cv_id", id, "reason", err)
		return SaveStatus{Skipped: err.Error()}
	}
	if err := s.store.SaveCV(ctx, id, update); err != nil {
		s.log.Warn("background save failed", "cv_id", id, "error", err)
		return SaveStatus{Err: err}
	}
	return SaveStatus{Saved: true}
}

func prepare(in SaveInput) (storage.CVUpdate, error) {
	if err := in.Payload.ValidatePersonal(); err != nil {
		return storage.CVUpdate{}, err
	}
	template := strings.TrimSpace(in.Template)
	if template == "" {
		template = model.TemplateClassic
	}
	if _, ok := model.Templates[template]; !ok {
		return storage.CVUpdate{}, apperr.Validation("unknown template %q", template)
	}
	data, err := cvdoc.Encode(in.Payload)
	if err != nil {
		return storage.CVUpdate{}, err
	}
	return storage.CVUpdate{Data: datatypes.JSON(data), Template: template, PhotoPath: in.PhotoRef}, nil
}

// Load 读取简历，损坏的正文降级为空白正文。
func (s *Service) Load(ctx context.Context, id uint) (Document, error) {
	cv, err := s.store.GetCV(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return fromModel(cv), nil
}

// Delete 删除简历及其历史和浏览记录，然后尽力删除照片。
func (s *Service) Delete(ctx context.Context, id uint) error {
	cv, err := s.store.DeleteCV(ctx, id)
	if err != nil {
		return err
	}
	s.log.Info("cv deleted", "cv_id", id)

	if cv.PhotoPath != "" && s.photos != nil {
		if err := s.photos.Delete(ctx, cv.PhotoPath); err != nil {
			s.log.Warn("remove cv photo failed", "cv_id", id, "photo", cv.PhotoPath, "error", err)
		}
	}
	return nil
}

// List 返回用户的简历摘要，最近更新的在前。
func (s *Service) List(ctx context.Context, userID uint) ([]Summary, error) {
	cvs, err := s.store.ListCVs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(cvs))
	for _, cv := range cvs {
		out = append(out, Summary{ID: cv.ID, Title: cv.Title, Template: cv.Template, CreatedAt: cv.CreatedAt, UpdatedAt: cv.UpdatedAt})
	}
	return out, nil
}

// History 按保存顺序返回历史快照。
func (s *Service) History(ctx context.Context, id uint) ([]Snapshot, error) {
	if _, err := s.store.GetCV(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, Snapshot{ID: r.ID, CreatedAt: r.CreatedAt, Payload: cvdoc.Decode(r.Data)})
	}
	return out, nil
}

// HistoryCount 返回历史快照数量。
func (s *Service) HistoryCount(ctx context.Context, id uint) (int64, error) {
	return s.store.CountHistory(ctx, id)
}

// Rename 修改简历标题。
func (s *Service) Rename(ctx context.Context, id uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("title required")
	}
	return s.store.RenameCV(ctx, id, title)
}

// SetPhoto 立即更新简历的照片引用。
func (s *Service) SetPhoto(ctx context.Context, id uint, ref string) error {
	return s.store.SetCVPhoto(ctx, id, ref)
}
