// Package middleware 提供 HTTP 中间件
package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/grocy-backend/internal/common/errors"
	"github.com/dumeirei/grocy-backend/internal/common/jwt"
	"github.com/dumeirei/grocy-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserType = "user_type"
	ContextKeyClaims   = "claims"
)

// TokenVerifier 校验访问令牌
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// UserAuth 仅允许普通用户令牌
func UserAuth(v TokenVerifier) gin.HandlerFunc {
	return authenticate(v, jwt.UserTypeUser)
}

// AdminAuth 仅允许管理员令牌
func AdminAuth(v TokenVerifier) gin.HandlerFunc {
	return authenticate(v, jwt.UserTypeAdmin)
}

// AnyAuth 任意有效令牌
func AnyAuth(v TokenVerifier) gin.HandlerFunc {
	return authenticate(v, "")
}

func authenticate(v TokenVerifier, userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, errors.ErrUnauthorized)
			return
		}
		claims, err := v.Verify(token)
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			response.Abort(c, errors.ErrTokenExpired)
			return
		case err != nil:
			response.Abort(c, errors.ErrTokenInvalid)
			return
		}
		if userType != "" && claims.UserType != userType {
			response.Abort(c, errors.ErrPermissionDenied)
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserType, claims.UserType)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// bearerToken 依次读取 Authorization 头、token 查询参数与 token cookie；websocket 握手只能走后两者
func bearerToken(c *gin.Context) string {
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	token, _ := c.Cookie("token")
	return token
}

// GetUserID 当前令牌的主体 ID，未认证时为 0
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}

// GetUserType 当前令牌的主体类型
func GetUserType(c *gin.Context) string {
	return c.GetString(ContextKeyUserType)
}

// IsAdmin 当前请求是否由管理员发起
func IsAdmin(c *gin.Context) bool {
	return GetUserType(c) == jwt.UserTypeAdmin
}

// GetAdminID 管理员 ID，非管理员令牌为 0
func GetAdminID(c *gin.Context) int64 {
	if !IsAdmin(c) {
		return 0
	}
	return GetUserID(c)
}

// GetClaims 完整声明，未认证时为 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
