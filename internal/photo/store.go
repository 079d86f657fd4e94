package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrObjectNotFound 表示照片对象不存在。
var ErrObjectNotFound = errors.New("photo object not found")

// Store 抽象照片存储后端。Delete 对不存在的对象视为成功。
type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// 后端类型。
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

// Config 选择并配置照片存储后端。
type Config struct {
	Backend   string      `yaml:"backend" json:"backend"`
	LocalDir  string      `yaml:"local_dir" json:"local_dir"`
	MaxUpload int64       `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	MinIO     MinIOConfig `yaml:"minio" json:"minio"`
	S3        S3Config    `yaml:"s3" json:"s3"`
}

// NewStore 按配置创建后端，默认使用本地目录 uploads。
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		dir := cfg.LocalDir
		if strings.TrimSpace(dir) == "" {
			dir = "uploads"
		}
		return NewLocalStore(dir)
	case BackendMinIO:
		return NewMinIOStore(ctx, cfg.MinIO)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown photo backend %q", cfg.Backend)
	}
}
