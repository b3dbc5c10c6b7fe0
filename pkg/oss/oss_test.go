package oss

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestMockUploader_Upload(t *testing.T) {
	uploader := NewMockUploader()
	ctx := context.Background()

	url, err := uploader.Upload(ctx, "images/test.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "https://mock-oss.example.com/images/test.png", url)

	data, ok := uploader.Get("images/test.png")
	require.True(t, ok)
	assert.Equal(t, pngHeader, data)

	assert.Equal(t, 1, uploader.Len())

	require.NoError(t, uploader.Delete(ctx, "images/test.png"))
	_, ok = uploader.Get("images/test.png")
	assert.False(t, ok)
	assert.NoError(t, uploader.Delete(ctx, "images/missing.png"))
}

func TestAliyunUploader_GetURL(t *testing.T) {
	t.Run("默认域名", func(t *testing.T) {
		u, err := NewAliyunUploader(&AliyunConfig{Endpoint: "oss-cn-hangzhou.aliyuncs.com", AccessKeyID: "id", AccessKeySecret: "secret", BucketName: "grocy"})
		require.NoError(t, err)
		assert.Equal(t, "https://grocy.oss-cn-hangzhou.aliyuncs.com/images/a.png", u.GetURL("images/a.png"))
	})

	t.Run("自定义域名与前缀", func(t *testing.T) {
		u, err := NewAliyunUploader(&AliyunConfig{
			Endpoint: "https://oss-cn-hangzhou.aliyuncs.com", AccessKeyID: "id", AccessKeySecret: "secret",
			BucketName: "grocy", Domain: "https://cdn.grocy.example/", BasePath: "prod",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.grocy.example/prod/images/a.png", u.GetURL("images/a.png"))
	})
}

func TestGenerateObjectKey(t *testing.T) {
	now := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	key := GenerateObjectKey("images", "Photo.JPG", now)

	assert.True(t, strings.HasPrefix(key, "images/2024/05/07/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(key, "images/2024/05/07/"), ".jpg"), 36)

	assert.NotEqual(t, key, GenerateObjectKey("images", "Photo.JPG", now))
	assert.Equal(t, "2024/05/07/", GenerateObjectKey("", "noext", now)[:11])
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("a.PNG"))
	assert.Equal(t, "image/jpeg", ContentType("a.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentType("a.exe"))
}

func TestValidateImage(t *testing.T) {
	t.Run("合法图片保留完整内容", func(t *testing.T) {
		body := append(append([]byte{}, pngHeader...), []byte("rest-of-file")...)
		r, err := ValidateImage("a.png", int64(len(body)), 1024, bytes.NewReader(body))
		require.NoError(t, err)

		all, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, body, all)
	})

	t.Run("不支持的扩展名", func(t *testing.T) {
		_, err := ValidateImage("a.exe", 10, 1024, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("文件过大", func(t *testing.T) {
		_, err := ValidateImage("a.png", 2048, 1024, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("大文件完整保留", func(t *testing.T) {
		body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 4096)...)
		r, err := ValidateImage("a.PNG", int64(len(body)), 0, bytes.NewReader(body))
		require.NoError(t, err)
		all, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, body, all)
	})

	t.Run("内容不是图片", func(t *testing.T) {
		_, err := ValidateImage("a.png", 5, 1024, strings.NewReader("hello"))
		assert.ErrorIs(t, err, ErrNotImage)
	})
}
