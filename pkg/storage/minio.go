// Package storage提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/tasks"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// InitMinIO 初始化 MinIO 客户端并确认存储桶存在。种子语料必须预先上传，所以桶不存在时直接返回错误。
func InitMinIO(ctx context.Context, cfg config.MinIOConfig) error {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶 '%s' 不存在", cfg.BucketName)
	}
	log.Infof("MinIO 客户端初始化成功, 存储桶 '%s' 已存在", cfg.BucketName)
	MinioClient = client
	return nil
}

// SeedStore 从 MinIO 中的 JSON 数组对象读取种子文章。
type SeedStore struct {
	client *minio.Client
	bucket string
	object string
}

// NewSeedStore 创建种子文章读取器。
func NewSeedStore(client *minio.Client, cfg config.MinIOConfig) *SeedStore {
	return &SeedStore{client: client, bucket: cfg.BucketName, object: cfg.SeedObject}
}

// LoadArticles 下载并解析种子对象。
func (s *SeedStore) LoadArticles(ctx context.Context) ([]tasks.ArticleTask, error) {
	log.Infof("[SeedStore] 从MinIO下载种子文章, Bucket: %s, Object: %s", s.bucket, s.object)
	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从 MinIO 下载种子文章失败: %w", err)
	}
	defer object.Close()
	return DecodeArticles(object)
}

// DecodeArticles 解析 JSON 数组形式的文章列表。
func DecodeArticles(r io.Reader) ([]tasks.ArticleTask, error) {
	var articles []tasks.ArticleTask
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return nil, fmt.Errorf("解析种子文章失败: %w", err)
	}
	return articles, nil
}
