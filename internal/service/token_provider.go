package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lucksec/jobstatus/internal/logger"
)

// ErrTokenRefresh 刷新访问令牌失败，属于致命错误，不重试
var ErrTokenRefresh = errors.New("刷新访问令牌失败")

// TokenProvider 访问令牌提供者
// 持有本次运行唯一的访问令牌，过期或不存在时通过刷新令牌换取新令牌
type TokenProvider interface {
	// Token 返回有效的访问令牌，必要时刷新
	Token(ctx context.Context) (string, error)

	// Invalidate 丢弃缓存的令牌，下次调用 Token 时强制刷新
	Invalidate()
}

// tokenProvider 令牌提供者实现
type tokenProvider struct {
	baseURL      string
	refreshToken string
	httpClient   *http.Client
	log          logger.Logger
	now          func() time.Time

	// mu 在刷新期间保持持有，并发调用者不会重复刷新
	mu    sync.Mutex
	token string
}

// NewTokenProvider 创建令牌提供者
func NewTokenProvider(baseURL, refreshToken string, httpClient *http.Client, log logger.Logger) TokenProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &tokenProvider{
		baseURL:      baseURL,
		refreshToken: refreshToken,
		httpClient:   httpClient,
		log:          log,
		now:          time.Now,
	}
}

// Token 返回有效的访问令牌
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		if !TokenExpired(p.token, p.now()) {
			return p.token, nil
		}
		p.log.Info("访问令牌已过期")
	}

	token, err := p.refresh(ctx)
	if err != nil {
		return "", err
	}
	p.token = token
	return token, nil
}

// Invalidate 丢弃缓存的令牌
func (p *tokenProvider) Invalidate() {
	p.mu.Lock()
	p.token = ""
	p.mu.Unlock()
}

type refreshRequest struct {
	Items []refreshItem `json:"items"`
}

type refreshItem struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Responses []struct {
		AccessToken string `json:"accessToken"`
	} `json:"responses"`
}

// refresh 调用 /auth/providers/refresh 换取新的访问令牌
func (p *tokenProvider) refresh(ctx context.Context) (string, error) {
	p.log.Info("正在刷新访问令牌")

	payload, err := json.Marshal(refreshRequest{
		Items: []refreshItem{{RefreshToken: p.refreshToken}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/providers/refresh", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: 读取响应失败: %v", ErrTokenRefresh, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrTokenRefresh, resp.StatusCode, truncate(string(body), 200))
	}

	var result refreshResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: 解析响应失败: %v", ErrTokenRefresh, err)
	}
	if len(result.Responses) == 0 || result.Responses[0].AccessToken == "" {
		return "", fmt.Errorf("%w: 响应中没有 accessToken", ErrTokenRefresh)
	}
	return result.Responses[0].AccessToken, nil
}

// TokenExpired 判断令牌在 now 时刻是否已过期
// 只解码 JWT 载荷，不校验签名；无法解析的令牌视为过期，没有 exp 声明的令牌视为有效
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
