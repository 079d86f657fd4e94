package autosave

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"cv-platform/internal/document"
	"cv-platform/internal/editor"
	"cv-platform/internal/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultInterval 为自动保存周期。
const DefaultInterval = 30 * time.Second

// Config 用于自动保存配置。
type Config struct {
	Interval string `yaml:"interval" json:"interval"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// Source 在保存锁内提供当前会话与草稿，通常是 editor.Workspace。
type Source interface {
	WithDraft(fn func(session editor.Session, draft editor.Draft)) bool
}

// Saver 执行后台保存，通常是 document.Service。
type Saver interface {
	BestEffortSave(ctx context.Context, id uint, in document.SaveInput) document.SaveStatus
}

// Recorder 接收每次执行的结果，用于指标统计。
type Recorder interface {
	ObserveAutosave(outcome string, elapsed time.Duration)
}

// Outcome 表示单次执行的结果类别。
type Outcome string

const (
	OutcomeIdle    Outcome = "idle"
	OutcomeBusy    Outcome = "busy"
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result 描述单次执行。
type Result struct {
	Outcome    Outcome
	DocumentID uint
	Reason     string
	Err        error
}

// Scheduler 周期性地把打开的草稿写入存储。
type Scheduler struct {
	source    Source
	saver     Saver
	recorder  Recorder
	log       *logger.Logger
	interval  time.Duration
	timeout   time.Duration
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，非法或非正的间隔回退到 DefaultInterval。
func NewScheduler(source Source, saver Saver, recorder Recorder, log *logger.Logger, cfg Config) *Scheduler {
	return &Scheduler{
		source:    source,
		saver:     saver,
		recorder:  recorder,
		log:       logger.OrNop(log).Named("autosave"),
		interval:  parsePositive(cfg.Interval, DefaultInterval),
		timeout:   parsePositive(cfg.Timeout, 10*time.Second),
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Interval 返回生效的保存周期。
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start 启动保存循环直到上下文取消，单次失败不会中断循环。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.source == nil || s.saver == nil {
		return fmt.Errorf("autosave missing dependencies")
	}

	g, ctx := errgroup.WithContext(ctx)
	tick := s.newTicker(s.interval)
	ch := tick.C()

	g.Go(func() error {
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ch:
				s.RunOnce(ctx)
			drain:
				for {
					select {
					case <-ch:
						continue
					default:
						break drain
					}
				}
			}
		}
	})

	return g.Wait()
}

// RunOnce 执行一次保存，永不返回错误，结果仅供观察。
func (s *Scheduler) RunOnce(ctx context.Context) (res Result) {
	if s.running.Swap(true) {
		return Result{Outcome: OutcomeBusy}
	}
	defer s.running.Store(false)

	started := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("autosave panic recovered", "panic", r)
			res = Result{Outcome: OutcomeFailed, DocumentID: res.DocumentID, Err: fmt.Errorf("autosave panic: %v", r)}
		}
		if s.recorder != nil {
			s.recorder.ObserveAutosave(string(res.Outcome), s.now().Sub(started))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		session editor.Session
		status  document.SaveStatus
	)
	open := s.source.WithDraft(func(sess editor.Session, draft editor.Draft) {
		session = sess
		res.DocumentID = sess.DocumentID
		status = s.saver.BestEffortSave(ctx, sess.DocumentID, draft.SaveInput())
	})
	if !open {
		return Result{Outcome: OutcomeIdle}
	}

	switch {
	case status.Saved:
		s.log.Debug("draft saved", "cv_id", session.DocumentID, "user_id", session.User.ID)
		return Result{Outcome: OutcomeSaved, DocumentID: session.DocumentID}
	case status.Err != nil:
		return Result{Outcome: OutcomeFailed, DocumentID: session.DocumentID, Err: status.Err}
	default:
		return Result{Outcome: OutcomeSkipped, DocumentID: session.DocumentID, Reason: status.Skipped}
	}
}

func parsePositive(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }
