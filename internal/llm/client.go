// Package llm 封装 OpenAI 兼容的 Chat Completions 接口（默认指向 Fireworks）。
//
// 上游被视为不可靠依赖：可能不可用、返回非 JSON 文本或限流。
// 客户端不做重试，连续失败后由熔断器快速失败，调用方负责降级。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/config"
)

var (
	// ErrNotConfigured 未配置 API Key
	ErrNotConfigured = errors.New("未配置文本补全服务 API Key")
	// ErrEmptyCompletion 上游返回内容为空或格式异常
	ErrEmptyCompletion = errors.New("文本补全服务返回格式异常")
	// ErrUnavailable 熔断器打开，暂不调用上游
	ErrUnavailable = errors.New("文本补全服务暂不可用")
)

// UpstreamError 上游返回非 2xx
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("文本补全服务错误 %d: %s", e.StatusCode, e.Message)
}

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message 对话消息
type Message struct {
	Role    Role
	Content string
}

// Request 补全请求；零值采样参数表示不发送
type Request struct {
	Messages         []Message
	MaxTokens        int64
	Temperature      *float64
	TopP             *float64
	TopK             int
	PresencePenalty  *float64
	FrequencyPenalty *float64
}

// Completer 文本补全接口
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client 基于 openai-go 的 Completer 实现
type Client struct {
	api     openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient 创建补全客户端；未配置 API Key 时返回 ErrNotConfigured
func NewClient(cfg *config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	c := &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// Model 当前使用的模型名
func (c *Client) Model() string { return c.model }

// Complete 发送一次补全请求，返回第一条候选的文本
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}
	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toParams(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.PresencePenalty != nil {
		params.PresencePenalty = openai.Float(*req.PresencePenalty)
	}
	if req.FrequencyPenalty != nil {
		params.FrequencyPenalty = openai.Float(*req.FrequencyPenalty)
	}

	var reqOpts []option.RequestOption
	if req.TopK > 0 {
		// top_k 不在 OpenAI 参数表中，Fireworks 支持
		reqOpts = append(reqOpts, option.WithJSONSet("top_k", req.TopK))
	}

	resp, err := c.api.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := strings.TrimSpace(apiErr.Message)
			if msg == "" {
				msg = fmt.Sprintf("status %d", apiErr.StatusCode)
			}
			c.logger.Error("文本补全服务返回错误",
				zap.Int("status", apiErr.StatusCode),
				zap.String("message", msg),
			)
			return "", &UpstreamError{StatusCode: apiErr.StatusCode, Message: msg}
		}
		return "", fmt.Errorf("调用文本补全服务失败: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Error("文本补全服务响应格式异常", zap.String("id", resp.ID))
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func toParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// isBreakerSuccess 客户端错误（4xx，429 除外）不计入熔断统计
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode >= 400 && upErr.StatusCode < 500 && upErr.StatusCode != 429
	}
	return false
}
