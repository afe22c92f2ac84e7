// Package gate 提供了一个订阅校验服务的客户端。
// 校验服务代理消息平台的成员查询，判断用户是否已订阅指定频道。
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"docforge-go/internal/config"
	"docforge-go/pkg/log"
)

// Checker 定义了订阅校验的接口。
type Checker interface {
	IsSubscribed(ctx context.Context, userID uint64) (bool, error)
}

// Client 是订阅校验服务的客户端。
type Client struct {
	serverURL string
	channel   string
	client    *http.Client
}

// NewClient 创建一个新的订阅校验客户端实例。
func NewClient(cfg config.GateConfig) *Client {
	return &Client{
		serverURL: cfg.ServerURL,
		channel:   cfg.Channel,
		client:    &http.Client{},
	}
}

type memberResponse struct {
	Subscribed bool `json:"subscribed"`
}

// IsSubscribed 查询用户是否已订阅要求的频道。
// 查询失败时按未订阅处理并返回错误，由调用方决定提示方式。
func (c *Client) IsSubscribed(ctx context.Context, userID uint64) (bool, error) {
	q := url.Values{}
	q.Set("channel", c.channel)
	q.Set("user_id", fmt.Sprintf("%d", userID))

	req, err := http.NewRequestWithContext(ctx, "GET", c.serverURL+"/member?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("创建订阅查询请求失败: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("调用订阅校验服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("订阅校验服务返回非 200 状态: %d", resp.StatusCode)
		return false, fmt.Errorf("订阅校验服务返回状态 %d", resp.StatusCode)
	}

	var member memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return false, fmt.Errorf("解析订阅校验响应失败: %w", err)
	}
	return member.Subscribed, nil
}
