package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const remoteUserInfoPath = "/api/user/info"

// remoteEnvelope 身份服务的统一返回结构
type remoteEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ID    uint64   `json:"id"`
		Roles []string `json:"roles"`
	} `json:"data"`
}

// RemoteValidator 把 Token 转交给身份服务校验
type RemoteValidator struct {
	client *resty.Client
}

func NewRemoteValidator(baseURL string, timeout time.Duration) *RemoteValidator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &RemoteValidator{client: client}
}

func (s *RemoteValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidCredential
	}

	var body remoteEnvelope
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&body).
		Get(remoteUserInfoPath)
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrInvalidCredential
	case resp.IsError():
		return nil, fmt.Errorf("identity service status %d", resp.StatusCode())
	}

	// 身份服务业务码非 200 时视为凭据无效
	if body.Code != http.StatusOK || body.Data.ID == 0 {
		return nil, ErrInvalidCredential
	}

	return &Identity{
		UserID: body.Data.ID,
		Roles:  body.Data.Roles,
	}, nil
}
