package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cv-platform/internal/account"
	"cv-platform/internal/api"
	"cv-platform/internal/autosave"
	"cv-platform/internal/document"
	"cv-platform/internal/editor"
	"cv-platform/internal/export"
	"cv-platform/internal/logger"
	"cv-platform/internal/metrics"
	"cv-platform/internal/photo"
	"cv-platform/internal/skills"
	"cv-platform/internal/stats"
	"cv-platform/internal/storage"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Autosave autosave.Config `yaml:"autosave"`
	Auth     AuthConfig      `yaml:"auth"`
	Photo    photo.Config    `yaml:"photo"`
	Log      LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

const (
	defaultAddr   = "127.0.0.1:8080"
	defaultDBPath = "cv_platform.db"
)

func main() {
	exportID := flag.Uint("export", 0, "export the given CV once and exit")
	format := flag.String("format", "pdf", "export format: text, html, pdf, png")
	out := flag.String("out", "", "export destination file, stdout when empty")
	flag.Parse()

	// .env 不存在时忽略。
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *exportID != 0 {
		if err := exportManual(ctx, cfg, buildApp, uint(*exportID), *format, *out); err != nil {
			log.Printf("export error: %v", err)
			stop()
			os.Exit(1)
		}
		return
	}

	deps, cleanup, err := buildApp(cfg)
	if err != nil {
		log.Printf("init app error: %v", err)
		return
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           deps.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	deps.log.Info("listening", "addr", cfg.Server.Addr, "autosave_interval", deps.sched.Interval())

	timeout := parseDuration(cfg.Server.ShutdownTimeout, 5*time.Second)
	if err := runServer(ctx, srv, deps.sched, timeout); err != nil {
		deps.log.Error("server stopped", "error", err)
	}
}

// loadConfig 读取 CONFIG_FILE（默认 config.yaml），文件不存在时使用默认值，最后应用环境变量覆盖。
func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return AppConfig{}, err
	}
	applyEnv(&cfg, os.Getenv)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.Path, "CV_DB_PATH")
	set(&cfg.Server.Addr, "CV_ADDR")
	set(&cfg.Log.Mode, "CV_LOG_MODE")
	set(&cfg.Autosave.Interval, "CV_AUTOSAVE_INTERVAL")
	set(&cfg.Photo.Backend, "CV_PHOTO_BACKEND")
	set(&cfg.Photo.LocalDir, "CV_PHOTO_DIR")
	set(&cfg.Photo.MinIO.Endpoint, "MINIO_ENDPOINT")
	set(&cfg.Photo.MinIO.AccessKeyID, "MINIO_ACCESS_KEY")
	set(&cfg.Photo.MinIO.SecretAccessKey, "MINIO_SECRET_KEY")
	set(&cfg.Photo.MinIO.Bucket, "MINIO_BUCKET")
	set(&cfg.Photo.S3.Bucket, "S3_BUCKET")
	set(&cfg.Photo.S3.Region, "AWS_REGION")
	set(&cfg.Photo.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	set(&cfg.Photo.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	if v := getenv("CV_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.BcryptCost = n
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDBPath
	}
	if cfg.Photo.Backend == "" {
		cfg.Photo.Backend = photo.BackendLocal
	}
	if cfg.Photo.LocalDir == "" {
		cfg.Photo.LocalDir = "uploads"
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

// loop 是随服务器一起运行的后台循环。
type loop interface {
	Start(ctx context.Context) error
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type exporter interface {
	Export(ctx context.Context, docID uint, format string, w io.Writer) error
}

type appDeps struct {
	handler  http.Handler
	sched    *autosave.Scheduler
	exporter exporter
	log      *logger.Logger
}

type appBuilder func(AppConfig) (appDeps, func(), error)

// buildApp 装配存储、服务与 HTTP 处理器，返回的 cleanup 负责关闭资源。
func buildApp(cfg AppConfig) (appDeps, func(), error) {
	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return appDeps{}, nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		lg.Sync()
		return appDeps{}, nil, err
	}
	cleanup := func() {
		_ = store.Close()
		lg.Sync()
	}

	photoStore, err := photo.NewStore(context.Background(), cfg.Photo)
	if err != nil {
		cleanup()
		return appDeps{}, nil, fmt.Errorf("init photo store: %w", err)
	}
	photos := photo.NewService(photoStore, cfg.Photo.MaxUpload, lg)
	docs := document.NewService(store, photos, lg)
	workspace := editor.NewWorkspace(docs)
	exp := export.NewExporter(docs, photoStore, lg)
	m := metrics.New()

	handler := api.NewHandler(api.Deps{
		Accounts:  account.NewService(store, account.BcryptHasher{Cost: cfg.Auth.BcryptCost}, lg),
		Documents: docs,
		Workspace: workspace,
		Views:     stats.NewRecorder(store),
		Exporter:  exp,
		Photos:    photos,
		Skills:    skills.NewService(store, lg),
		Metrics:   m,
	}, lg)

	sched := autosave.NewScheduler(workspace, docs, m, lg, cfg.Autosave)
	return appDeps{handler: handler, sched: sched, exporter: exp, log: lg}, cleanup, nil
}

// runServer 并行运行 HTTP 服务与后台循环，ctx 取消后在 timeout 内优雅关闭。
func runServer(ctx context.Context, srv httpServer, bg loop, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := bg.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// exportManual 装配应用后导出一份简历，out 为空时写到标准输出。
func exportManual(ctx context.Context, cfg AppConfig, build appBuilder, docID uint, format, out string) error {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return deps.exporter.Export(ctx, docID, format, w)
}
