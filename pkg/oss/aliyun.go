package oss

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	alioss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// AliyunConfig 阿里云 OSS 配置
type AliyunConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	Domain          string // 可选的自定义访问域名
	BasePath        string
}

// AliyunUploader 阿里云 OSS
type AliyunUploader struct {
	bucket  *alioss.Bucket
	baseURL string
	base    string
}

// NewAliyunUploader 连接 bucket
func NewAliyunUploader(cfg *AliyunConfig) (*AliyunUploader, error) {
	client, err := alioss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss: new client: %w", err)
	}
	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("oss: open bucket %s: %w", cfg.BucketName, err)
	}

	baseURL := strings.TrimSuffix(cfg.Domain, "/")
	if baseURL == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		baseURL = "https://" + cfg.BucketName + "." + host
	}
	return &AliyunUploader{bucket: bucket, baseURL: baseURL, base: cfg.BasePath}, nil
}

// Upload 写入对象并返回公开地址
func (u *AliyunUploader) Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error) {
	key := u.key(objectKey)
	err := u.bucket.PutObject(key, reader,
		alioss.ContentType(ContentType(objectKey)),
		alioss.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("oss: put %s: %w", key, err)
	}
	return u.GetURL(objectKey), nil
}

// Delete 删除对象
func (u *AliyunUploader) Delete(ctx context.Context, objectKey string) error {
	key := u.key(objectKey)
	if err := u.bucket.DeleteObject(key, alioss.WithContext(ctx)); err != nil {
		return fmt.Errorf("oss: delete %s: %w", key, err)
	}
	return nil
}

// GetURL 对象的公开地址
func (u *AliyunUploader) GetURL(objectKey string) string {
	return u.baseURL + "/" + u.key(objectKey)
}

func (u *AliyunUploader) key(objectKey string) string {
	if u.base == "" {
		return objectKey
	}
	return path.Join(u.base, objectKey)
}
