package oss

import (
	"context"
	"io"
	"sync"
)

// MockBaseURL MockUploader 返回地址的前缀
const MockBaseURL = "https://mock-oss.example.com/"

// MockUploader 内存对象存储，用于开发环境与测试
type MockUploader struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMockUploader 创建 MockUploader
func NewMockUploader() *MockUploader {
	return &MockUploader{objects: make(map[string][]byte)}
}

// Upload 保存内容
func (u *MockUploader) Upload(_ context.Context, objectKey string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.objects[objectKey] = data
	u.mu.Unlock()
	return u.GetURL(objectKey), nil
}

// Delete 删除内容，对象不存在时不报错
func (u *MockUploader) Delete(_ context.Context, objectKey string) error {
	u.mu.Lock()
	delete(u.objects, objectKey)
	u.mu.Unlock()
	return nil
}

// GetURL 对象地址
func (u *MockUploader) GetURL(objectKey string) string {
	return MockBaseURL + objectKey
}

// Get 读取已保存的内容
func (u *MockUploader) Get(objectKey string) ([]byte, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	data, ok := u.objects[objectKey]
	return data, ok
}

// Len 已保存的对象数
func (u *MockUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}
