// Package jwt 校验外部认证服务签发的 HS256 访问令牌
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌主体类型
const (
	UserTypeUser  = "user"
	UserTypeAdmin = "admin"
)

// 校验失败原因
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotActive = errors.New("token not active yet")
)

// Identity 令牌携带的身份
type Identity struct {
	UserID   int64  `json:"user_id"`
	UserType string `json:"user_type"`
	Role     string `json:"role,omitempty"`
}

// IsAdmin 是否为管理员身份
func (i Identity) IsAdmin() bool {
	return i.UserType == UserTypeAdmin
}

// Claims 令牌声明
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// Config 令牌参数，Issuer 为空时不校验签发方
type Config struct {
	Secret           string
	AccessExpireTime time.Duration
	Issuer           string
	Leeway           time.Duration
}

// Manager 签发与校验令牌
type Manager struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
	issuer string
}

// NewManager 创建 Manager
func NewManager(cfg *Config) *Manager {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	return &Manager{
		key:    []byte(cfg.Secret),
		ttl:    cfg.AccessExpireTime,
		parser: jwt.NewParser(opts...),
		issuer: cfg.Issuer,
	}
}

// Sign 为 id 签发访问令牌，返回令牌与过期时间；生产环境由认证服务签发，此处供测试与运维脚本使用
func (m *Manager) Sign(id Identity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserType,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify 校验签名、算法、有效期与签发方，失败时返回本包定义的错误
func (m *Manager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

var parseErrors = []struct {
	lib, ours error
}{
	{jwt.ErrTokenExpired, ErrTokenExpired},
	{jwt.ErrTokenMalformed, ErrTokenMalformed},
	{jwt.ErrTokenNotValidYet, ErrTokenNotActive},
}

func classify(err error) error {
	for _, e := range parseErrors {
		if errors.Is(err, e.lib) {
			return e.ours
		}
	}
	return ErrTokenInvalid
}
