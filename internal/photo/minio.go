package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig 为 MinIO 后端配置。
type MinIOConfig struct {
	Endpoint         string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID      string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key" json:"-"`
	Bucket           string `yaml:"bucket" json:"bucket"`
	Region           string `yaml:"region" json:"region"`
	UseSSL           bool   `yaml:"use_ssl" json:"use_ssl"`
	AutoCreateBucket bool   `yaml:"auto_create_bucket" json:"auto_create_bucket"`
}

// MinIOStore 将照片保存在 MinIO Bucket 中，引用即对象名。
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore 初始化客户端并确保 Bucket 存在。
func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
		}
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Put 上传照片。
func (s *MinIOStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: ContentType})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return key, nil
}

// Open 读取照片，对象不存在时返回 ErrObjectNotFound。
func (s *MinIOStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", ref, err)
	}
	// GetObject 延迟请求，Stat 用于提前暴露不存在的对象。
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
		}
		return nil, fmt.Errorf("stat object %q: %w", ref, err)
	}
	return obj, nil
}

// Delete 删除照片，对象不存在时视为成功。
func (s *MinIOStore) Delete(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w", ref, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch strings.ToLower(resp.Code) {
		case "nosuchkey", "notfound":
			return true
		}
	}
	return false
}
