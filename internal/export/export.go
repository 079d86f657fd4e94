package export

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"cv-platform/internal/apperr"
	"cv-platform/internal/cvdoc"
	"cv-platform/internal/document"
	"cv-platform/internal/logger"
)

// Snapshot 是导出的输入：最近一次成功保存的内容。
type Snapshot struct {
	Title    string
	Template string
	Payload  cvdoc.Payload
	PhotoRef string
	// Photo 为已规范化的 JPEG，读取失败时为空。
	Photo []byte
}

// Renderer 将快照渲染为某种格式。
type Renderer interface {
	Render(w io.Writer, snap Snapshot) error
	ContentType() string
	Ext() string
}

// Loader 读取已持久化的简历。
type Loader interface {
	Load(ctx context.Context, id uint) (document.Document, error)
}

// PhotoOpener 读取照片内容。
type PhotoOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Exporter 从存储读取简历并交给对应格式的渲染器。
type Exporter struct {
	docs      Loader
	photos    PhotoOpener
	renderers map[string]Renderer
	log       *logger.Logger
}

// NewExporter 创建 Exporter 并注册 text、html、pdf、png 四种格式，photos 可为空。
func NewExporter(docs Loader, photos PhotoOpener, log *logger.Logger) *Exporter {
	return &Exporter{
		docs:   docs,
		photos: photos,
		renderers: map[string]Renderer{
			"text": TextRenderer{},
			"html": HTMLRenderer{},
			"pdf":  PDFRenderer{},
			"png":  PNGRenderer{},
		},
		log: logger.OrNop(log).Named("export"),
	}
}

// Formats 返回支持的格式，按名称排序。
func (e *Exporter) Formats() []string {
	out := make([]string, 0, len(e.renderers))
	for name := range e.renderers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Renderer 按格式名查找渲染器。
func (e *Exporter) Renderer(format string) (Renderer, error) {
	r, ok := e.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, apperr.Validation("unsupported export format %q", format)
	}
	return r, nil
}

// Snapshot 读取简历最近一次保存的内容。
func (e *Exporter) Snapshot(ctx context.Context, docID uint) (Snapshot, error) {
	doc, err := e.docs.Load(ctx, docID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Title: doc.Title, Template: doc.Template, Payload: doc.Payload, PhotoRef: doc.PhotoRef}
	if doc.PhotoRef != "" && e.photos != nil {
		snap.Photo = e.readPhoto(ctx, doc.PhotoRef)
	}
	return snap, nil
}

func (e *Exporter) readPhoto(ctx context.Context, ref string) []byte {
	rc, err := e.photos.Open(ctx, ref)
	if err != nil {
		e.log.Warn("open photo for export failed", "photo", ref, "error", err)
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		e.log.Warn("read photo for export failed", "photo", ref, "error", err)
		return nil
	}
	return data
}

// Export 将简历按格式写入 w。
func (e *Exporter) Export(ctx context.Context, docID uint, format string, w io.Writer) error {
	r, err := e.Renderer(format)
	if err != nil {
		return err
	}
	snap, err := e.Snapshot(ctx, docID)
	if err != nil {
		return err
	}
	if err := r.Render(w, snap); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

// FileName 生成下载文件名。
func FileName(title string, r Renderer) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if base == "" {
		base = "cv"
	}
	return base + "." + r.Ext()
}
