package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"cv-platform/internal/account"
	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/document"
	"cv-platform/internal/editor"
	"cv-platform/internal/export"
	"cv-platform/internal/logger"
	"cv-platform/internal/model"
	"cv-platform/internal/skills"
	"cv-platform/internal/stats"

	"github.com/google/uuid"
)

const maxJSONBody = 1 << 20

// Accounts 处理注册与登录。
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (uint, error)
	Authenticate(ctx context.Context, email, password string) (model.User, error)
}

// Documents 抽象简历存取。
type Documents interface {
	Create(ctx context.Context, userID uint, title string, payload cvdoc.Payload) (uint, error)
	Load(ctx context.Context, id uint) (document.Document, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, userID uint) ([]document.Summary, error)
	History(ctx context.Context, id uint) ([]document.Snapshot, error)
}

// Workspace 抽象当前会话与编辑草稿。
type Workspace interface {
	Login(user model.User)
	Logout()
	User() (model.User, bool)
	Open(ctx context.Context, docID uint) (editor.Session, error)
	New(ctx context.Context, title string) (editor.Session, error)
	Current() (editor.Session, editor.Draft, bool)
	Update(fn func(d *editor.Draft) error) error
	Save(ctx context.Context) error
}

// Views 记录与汇总浏览。
type Views interface {
	RecordView(ctx context.Context, docID uint, viewerID *uint, origin string) error
	GetStats(ctx context.Context, docID uint) (stats.Stats, error)
}

// Exporter 按格式导出简历。
type Exporter interface {
	Renderer(format string) (export.Renderer, error)
	Export(ctx context.Context, docID uint, format string, w io.Writer) error
}

// Photos 规范化并保存上传的照片。
type Photos interface {
	Upload(ctx context.Context, userID uint, r io.Reader) (string, error)
}

// Skills 管理技能目录与用户技能。
type Skills interface {
	SearchCatalogue(ctx context.Context, substr string) ([]string, error)
	ListAssignments(ctx context.Context, userID uint) ([]skills.Assignment, error)
	AssignSkillByName(ctx context.Context, userID uint, name string, level, years int) (uint, error)
	RemoveAssignment(ctx context.Context, userID, skillID uint) error
}

// Metrics 暴露 /metrics 并包装请求统计。
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Deps 汇总 HTTP 层依赖，Metrics 可为空。
type Deps struct {
	Accounts  Accounts
	Documents Documents
	Workspace Workspace
	Views     Views
	Exporter  Exporter
	Photos    Photos
	Skills    Skills
	Metrics   Metrics
}

type server struct {
	Deps
	log *logger.Logger
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(deps Deps, log *logger.Logger) http.Handler {
	s := &server{Deps: deps, log: logger.OrNop(log).Named("api")}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("POST /api/logout", s.logout)

	mux.HandleFunc("GET /api/cvs", s.listCVs)
	mux.HandleFunc("POST /api/cvs", s.createCV)
	mux.HandleFunc("GET /api/cvs/{id}", s.getCV)
	mux.HandleFunc("DELETE /api/cvs/{id}", s.deleteCV)
	mux.HandleFunc("GET /api/cvs/{id}/history", s.history)
	mux.HandleFunc("POST /api/cvs/{id}/views", s.recordView)
	mux.HandleFunc("GET /api/cvs/{id}/stats", s.viewStats)
	mux.HandleFunc("GET /api/cvs/{id}/export", s.exportCV)

	mux.HandleFunc("POST /api/editor/open", s.openDraft)
	mux.HandleFunc("GET /api/editor/draft", s.getDraft)
	mux.HandleFunc("PUT /api/editor/draft", s.patchDraft)
	mux.HandleFunc("POST /api/editor/save", s.saveDraft)
	mux.HandleFunc("GET /api/editor/preview", s.preview)
	mux.HandleFunc("POST /api/editor/photo", s.uploadPhoto)
	mux.HandleFunc("POST /api/editor/{section}", s.addEntry)
	mux.HandleFunc("PUT /api/editor/{section}/{entryID}", s.updateEntry)
	mux.HandleFunc("DELETE /api/editor/{section}/{entryID}", s.removeEntry)

	mux.HandleFunc("GET /api/skills", s.searchSkills)
	mux.HandleFunc("GET /api/me/skills", s.listMySkills)
	mux.HandleFunc("POST /api/me/skills", s.assignSkill)
	mux.HandleFunc("DELETE /api/me/skills/{skillID}", s.removeSkill)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = deps.Metrics.Middleware(h)
	}
	return withRequestID(s.withLogging(h))
}

// --- 账户 ---

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.Accounts.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint{"id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Workspace.Login(user)
	writeJSON(w, http.StatusOK, user)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	s.Workspace.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// --- 简历 ---

func (s *server) currentUser() (model.User, error) {
	user, ok := s.Workspace.User()
	if !ok {
		return model.User{}, apperr.ErrNoSession
	}
	return user, nil
}

// ownedDocument 加载属于当前用户的简历，他人的简历按不存在处理。
func (s *server) ownedDocument(r *http.Request) (document.Document, error) {
	user, err := s.currentUser()
	if err != nil {
		return document.Document{}, err
	}
	id, err := pathID(r, "id")
	if err != nil {
		return document.Document{}, err
	}
	doc, err := s.Documents.Load(r.Context(), id)
	if err != nil {
		return document.Document{}, err
	}
	if doc.UserID != user.ID {
		return document.Document{}, apperr.NotFound("cv", id)
	}
	return doc, nil
}

func (s *server) listCVs(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Documents.List(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createRequest struct {
	Title string `json:"title"`
}

func (s *server) createCV(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.currentUser()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.Documents.Create(r.Context(), user.ID, req.Title, document.DefaultPayload(user))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint{"id": id})
}

func (s *server) getCV(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ownedDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) deleteCV(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ownedDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Documents.Delete(r.Context(), doc.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) history(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ownedDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snaps, err := s.Documents.History(r.Context(), doc.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

type viewRequest struct {
	Origin string `json:"origin"`
}

// recordView 不要求登录，已登录时记录浏览者。
func (s *server) recordView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req viewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	var viewer *uint
	if user, ok := s.Workspace.User(); ok {
		viewer = &user.ID
	}
	if err := s.Views.RecordView(r.Context(), id, viewer, req.Origin); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	stats.Stats
	Summary string `json:"summary"`
}

func (s *server) viewStats(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ownedDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.Views.GetStats(r.Context(), doc.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, Summary: st.String()})
}

func (s *server) exportCV(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	renderer, err := s.Exporter.Renderer(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.ownedDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// 先渲染到缓冲区，失败时还能返回 JSON 错误。
	var buf bytes.Buffer
	if err := s.Exporter.Export(r.Context(), doc.ID, format, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(doc.Title, renderer)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// --- 技能 ---

func (s *server) searchSkills(w http.ResponseWriter, r *http.Request) {
	names, err := s.Skills.SearchCatalogue(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *server) listMySkills(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Skills.ListAssignments(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []skills.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

type assignRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
	Years int    `json:"years"`
}

func (s *server) assignSkill(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.currentUser()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.Skills.AssignSkillByName(r.Context(), user.ID, req.Name, req.Level, req.Years)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint{"skill_id": id})
}

func (s *server) removeSkill(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	skillID, err := pathID(r, "skillID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Skills.RemoveAssignment(r.Context(), user.ID, skillID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- 通用 ---

func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return uint(v), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid payload: %v", err)
	}
	return nil
}

// statusFor 将错误类别映射为 HTTP 状态码。
func statusFor(err error) int {
	switch apperr.Kind(err) {
	case "validation", "weak_password":
		return http.StatusBadRequest
	case "auth_failure", "no_session":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "duplicate_email":
		return http.StatusConflict
	case "index_out_of_range", "entry_not_found":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg, "kind": apperr.Kind(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- 中间件 ---

type ctxKey struct{}

// RequestIDHeader 是关联 ID 的请求与响应头。
const RequestIDHeader = "X-Request-ID"

// RequestID 返回请求的关联 ID。
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
