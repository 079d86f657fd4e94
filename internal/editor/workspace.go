package editor

import (
	"context"
	"strings"
	"sync"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/document"
	"cv-platform/internal/model"
)

// Documents 定义工作区依赖的简历操作。
type Documents interface {
	Create(ctx context.Context, userID uint, title string, payload cvdoc.Payload) (uint, error)
	Load(ctx context.Context, id uint) (document.Document, error)
	Save(ctx context.Context, id uint, in document.SaveInput) error
}

// Session 表示当前登录用户与打开的简历，DocumentID 为 0 表示未打开。
type Session struct {
	User       model.User
	DocumentID uint
}

// Draft 是正在编辑、尚未保存的内容。
type Draft struct {
	Title    string
	Payload  cvdoc.Payload
	Template string
	PhotoRef string
}

func (d Draft) clone() Draft {
	d.Payload = d.Payload.Clone()
	return d
}

// SaveInput 转换为保存参数。
func (d Draft) SaveInput() document.SaveInput {
	return document.SaveInput{Payload: d.Payload.Clone(), Template: d.Template, PhotoRef: d.PhotoRef}
}

// Workspace 保存登录状态与编辑草稿，前台请求与自动保存共享同一把锁。
type Workspace struct {
	docs Documents

	// saveMu 覆盖"取草稿副本 + 写入"的整个过程，前台保存与自动保存按顺序落盘。
	saveMu sync.Mutex

	mu       sync.Mutex
	loggedIn bool
	session  Session
	draft    Draft
}

// NewWorkspace 创建空工作区。
func NewWorkspace(docs Documents) *Workspace {
	return &Workspace{docs: docs}
}

// Login 切换到指定用户，关闭已打开的简历。
func (w *Workspace) Login(user model.User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loggedIn = true
	w.session = Session{User: user}
	w.draft = Draft{}
}

// Logout 清空登录状态与草稿。
func (w *Workspace) Logout() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loggedIn = false
	w.session = Session{}
	w.draft = Draft{}
}

// User 返回当前登录用户。
func (w *Workspace) User() (model.User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.User, w.loggedIn
}

// Open 加载属于当前用户的简历作为草稿。
func (w *Workspace) Open(ctx context.Context, docID uint) (Session, error) {
	user, ok := w.User()
	if !ok {
		return Session{}, apperr.ErrNoSession
	}
	doc, err := w.docs.Load(ctx, docID)
	if err != nil {
		return Session{}, err
	}
	if doc.UserID != user.ID {
		return Session{}, apperr.NotFound("cv", docID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loggedIn || w.session.User.ID != user.ID {
		return Session{}, apperr.ErrNoSession
	}
	w.session.DocumentID = doc.ID
	w.draft = Draft{Title: doc.Title, Payload: doc.Payload, Template: doc.Template, PhotoRef: doc.PhotoRef}
	return w.session, nil
}

// New 以默认正文创建简历并打开。
func (w *Workspace) New(ctx context.Context, title string) (Session, error) {
	user, ok := w.User()
	if !ok {
		return Session{}, apperr.ErrNoSession
	}
	id, err := w.docs.Create(ctx, user.ID, title, document.DefaultPayload(user))
	if err != nil {
		return Session{}, err
	}
	return w.Open(ctx, id)
}

// Close 关闭当前简历，保留登录状态，未保存的草稿被丢弃。
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.DocumentID = 0
	w.draft = Draft{}
}

// Current 返回会话与草稿副本，未打开简历时 ok 为 false。
func (w *Workspace) Current() (Session, Draft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loggedIn || w.session.DocumentID == 0 {
		return Session{}, Draft{}, false
	}
	return w.session, w.draft.clone(), true
}

// Update 在草稿副本上执行 fn，成功后才替换草稿。
func (w *Workspace) Update(fn func(d *Draft) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.loggedIn || w.session.DocumentID == 0 {
		return apperr.ErrNoSession
	}
	next := w.draft.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.Template = strings.TrimSpace(next.Template)
	w.draft = next
	return nil
}

// Save 前台保存当前草稿，错误原样返回。
func (w *Workspace) Save(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	session, draft, ok := w.Current()
	if !ok {
		return apperr.ErrNoSession
	}
	return w.docs.Save(ctx, session.DocumentID, draft.SaveInput())
}

// WithDraft 在保存锁内取草稿副本并调用 fn，未打开简历时返回 false。
// fn 返回前前台 Save 会等待，因此较旧的副本不会覆盖较新的保存。
func (w *Workspace) WithDraft(fn func(session Session, draft Draft)) bool {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	session, draft, ok := w.Current()
	if !ok {
		return false
	}
	fn(session, draft)
	return true
}
