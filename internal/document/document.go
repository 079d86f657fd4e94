package document

import (
	"time"

	"cv-platform/internal/cvdoc"
	"cv-platform/internal/model"
)

// Document 是已持久化的简历及其解码后的正文。
type Document struct {
	ID        uint          `json:"id"`
	UserID    uint          `json:"user_id"`
	Title     string        `json:"title"`
	Template  string        `json:"template"`
	PhotoRef  string        `json:"photo_ref,omitempty"`
	Payload   cvdoc.Payload `json:"payload"`
	IsPublic  bool          `json:"is_public"`
	ViewCount int64         `json:"view_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary 是列表展示用的简历摘要。
type Summary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot 是一次保存留下的历史快照。
type Snapshot struct {
	ID        uint          `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Payload   cvdoc.Payload `json:"payload"`
}

// SaveInput 描述一次保存写入的内容。
type SaveInput struct {
	Payload  cvdoc.Payload `json:"payload"`
	Template string        `json:"template"`
	PhotoRef string        `json:"photo_ref"`
}

// SaveStatus 是后台保存的结果，调用方可以直接丢弃。
type SaveStatus struct {
	Saved   bool
	Skipped string
	Err     error
}

// DefaultPayload 返回以用户姓名和邮箱预填的空白正文。
func DefaultPayload(user model.User) cvdoc.Payload {
	return cvdoc.Seeded(user.FirstName, user.LastName, user.Email)
}

func fromModel(cv model.CV) Document {
	return Document{
		ID:        cv.ID,
		UserID:    cv.UserID,
		Title:     cv.Title,
		Template:  cv.Template,
		PhotoRef:  cv.PhotoPath,
		Payload:   cvdoc.Decode(cv.Data),
		IsPublic:  cv.IsPublic,
		ViewCount: cv.ViewCount,
		CreatedAt: cv.CreatedAt,
		UpdatedAt: cv.UpdatedAt,
	}
}
