package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 对象名前缀
const objectPrefix = "files/"

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig MinIO存储配置
type MinioConfig struct {
	Endpoint        string // MinIO服务端点
	AccessKey       string // 访问密钥ID
	SecretKey       string // 秘密访问密钥
	UseSSL          bool   // 是否使用SSL
	Bucket          string // 存储桶名称
	ConnectAttempts uint   // 初始化存储桶的尝试次数
}

// NewMinioStorage 创建MinIO存储实例，存储桶不存在时创建
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 3
	}

	err = retry.Do(
		func() error {
			exists, err := client.BucketExists(ctx, cfg.Bucket)
			if err != nil {
				return fmt.Errorf("failed to check if bucket exists: %v", err)
			}
			if exists {
				return nil
			}
			if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket: %v", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Save 上传文件，对象名为 files/<id><ext>
func (s *MinioStorage) Save(ctx context.Context, reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	objectName := objectPrefix + id + filepath.Ext(filename)
	contentType := getMimeType(filename)

	// 大小未知时使用分片上传
	info, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, -1,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to upload file: %v", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     info.Size,
		MimeType: contentType,
		Path:     objectName,
	}, nil
}

// Get 获取文件
func (s *MinioStorage) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	objectName, err := s.objectName(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}
	return obj, nil
}

// Delete 删除文件
func (s *MinioStorage) Delete(ctx context.Context, id string) error {
	objectName, err := s.objectName(ctx, id)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return nil
}

// List 列出所有文件
func (s *MinioStorage) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    objectPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %v", object.Err)
		}
		files = append(files, FileInfo{
			ID:       idFromName(object.Key),
			Name:     filepath.Base(object.Key),
			Size:     object.Size,
			MimeType: getMimeType(object.Key),
			Path:     object.Key,
		})
	}
	return files, nil
}

// Exists 检查文件是否存在
func (s *MinioStorage) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.objectName(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// objectName 按ID前缀查找对象名
func (s *MinioStorage) objectName(ctx context.Context, id string) (string, error) {
	// 提前返回时取消列举
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix: objectPrefix + id,
	}) {
		if object.Err != nil {
			return "", fmt.Errorf("error listing objects: %v", object.Err)
		}
		if idFromName(object.Key) == id {
			return object.Key, nil
		}
	}
	return "", notFound(id)
}
