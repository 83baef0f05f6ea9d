package security

import (
	"Herald/internal/api/config"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"
)

var (
	ErrInvalidCredential = errors.New("凭据无效或已过期")
	ErrCredentialRevoked = errors.New("凭据已注销")
)

// CredentialValidator 将客户端凭据解析为身份
// 返回 ErrInvalidCredential / ErrCredentialRevoked 表示拒绝，其它错误表示校验过程本身失败
type CredentialValidator interface {
	Validate(ctx context.Context, token string) (*Identity, error)
}

// RevocationChecker 判断 Token 签名是否已被注销
type RevocationChecker func(ctx context.Context, signature string) (bool, error)

// JWTValidator 本地 HS256 校验
type JWTValidator struct {
	secret  string
	revoked RevocationChecker
}

func NewJWTValidator(secret string, revoked RevocationChecker) *JWTValidator {
	return &JWTValidator{
		secret:  secret,
		revoked: revoked,
	}
}

func (s *JWTValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}

	signature, err := ExtractSignature(token)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	if s.revoked != nil {
		revoked, err := s.revoked(ctx, signature)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrCredentialRevoked
		}
	}

	claims, err := ParseToken(s.secret, token)
	if err != nil {
		log.DebugContext(ctx, "jwt rejected", "err", err)
		return nil, ErrInvalidCredential
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidCredential
	}

	return &Identity{
		UserID: claims.UserID,
		Roles:  claims.Roles,
	}, nil
}

// NewCredentialValidator 按配置选择校验方式
func NewCredentialValidator(cfg config.AuthConfig, revoked RevocationChecker) (CredentialValidator, error) {
	switch cfg.Provider {
	case "", "local":
		if cfg.JWTSecret == "" {
			return nil, errors.New("auth.jwt_secret is required for local provider")
		}
		return NewJWTValidator(cfg.JWTSecret, revoked), nil
	case "remote":
		if cfg.RemoteURL == "" {
			return nil, errors.New("auth.remote_url is required for remote provider")
		}
		return NewRemoteValidator(cfg.RemoteURL, time.Duration(cfg.RemoteTimeout)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", cfg.Provider)
	}
}
