package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cv-platform/internal/model"
	"cv-platform/internal/storage"
)

// Store 定义浏览记录的持久化接口。
type Store interface {
	RecordView(ctx context.Context, view *model.CVView) error
	ViewStats(ctx context.Context, cvID uint) (storage.ViewAggregate, error)
}

// Stats 是一份简历的浏览统计。
type Stats struct {
	ViewCount     int64      `json:"view_count"`
	UniqueViewers int64      `json:"unique_viewers"`
	LastViewedAt  *time.Time `json:"last_viewed_at,omitempty"`
}

// Never 表示从未被浏览。
func (s Stats) Never() bool {
	return s.LastViewedAt == nil
}

// String 按展示格式输出统计。
func (s Stats) String() string {
	last := "Jamais"
	if s.LastViewedAt != nil {
		last = s.LastViewedAt.Format(time.DateOnly)
	}
	return fmt.Sprintf("Vues totales: %d\nVisiteurs uniques: %d\nDernière vue: %s", s.ViewCount, s.UniqueViewers, last)
}

// Recorder 记录浏览并汇总统计。
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder 创建 Recorder。
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// RecordView 追加一次浏览，viewerID 为空表示匿名访问。
func (r *Recorder) RecordView(ctx context.Context, docID uint, viewerID *uint, origin string) error {
	view := model.CVView{
		CVID:     docID,
		ViewerID: viewerID,
		ViewedAt: r.now(),
		Origin:   strings.TrimSpace(origin),
	}
	return r.store.RecordView(ctx, &view)
}

// GetStats 返回简历的浏览统计。
func (r *Recorder) GetStats(ctx context.Context, docID uint) (Stats, error) {
	agg, err := r.store.ViewStats(ctx, docID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{ViewCount: agg.ViewCount, UniqueViewers: agg.UniqueViewers, LastViewedAt: agg.LastViewedAt}, nil
}
