// Package handler 按业务域划分的 HTTP 处理器，具体实现在各子包中。
//
// 接口文档由 swag 从子包注释生成：
//
//	swag init -g cmd/api-gateway/main.go --dir ./,./internal/handler -o docs
package handler
