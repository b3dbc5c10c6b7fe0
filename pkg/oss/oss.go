// Package oss 图片对象存储：上传接口、阿里云实现与内存实现
package oss

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 图片校验错误
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNotImage          = errors.New("file content is not an image")
)

// Uploader 对象存储
type Uploader interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader) (string, error)
	Delete(ctx context.Context, objectKey string) error
	GetURL(objectKey string) string
}

// sniffLen http.DetectContentType 最多检查的字节数
const sniffLen = 512

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType 按扩展名推断图片 MIME，未知扩展名为 application/octet-stream
func ContentType(filename string) string {
	if ct, ok := imageTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// GenerateObjectKey 生成 <prefix>/yyyy/mm/dd/<uuid><ext>，扩展名统一小写
func GenerateObjectKey(prefix, filename string, now time.Time) string {
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	return path.Join(prefix, now.Format("2006/01/02"), name)
}

// ValidateImage 依次校验扩展名、声明大小与文件头，返回的 reader 仍包含完整内容
func ValidateImage(filename string, size, maxSize int64, reader io.Reader) (io.Reader, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := imageTypes[ext]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if maxSize > 0 && size > maxSize {
		return nil, ErrFileTooLarge
	}

	br := bufio.NewReaderSize(reader, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read file header: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return nil, ErrNotImage
	}
	return br, nil
}
