package service

import (
	"context"

	"chatdesk-go/internal/model"
	"chatdesk-go/pkg/llm"
)

// MockResponse 是未配置模型时返回的固定回复。
const MockResponse = "This is a mock response from the backend. Database is connected!"

// ResponseRequest 是生成回复所需的输入。History 已包含本轮的用户消息。
type ResponseRequest struct {
	SessionID string
	Message   string
	History   []model.Message
}

// Responder 生成助手回复。实现可能失败。
type Responder interface {
	Respond(ctx context.Context, req ResponseRequest) (string, error)
}

// StaticResponder 总是返回同一段文本。
type StaticResponder struct {
	Text string
}

// NewStaticResponder 返回使用 MockResponse 的 StaticResponder。
func NewStaticResponder() *StaticResponder {
	return &StaticResponder{Text: MockResponse}
}

func (r *StaticResponder) Respond(ctx context.Context, req ResponseRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Text, nil
}

// LLMResponder 把会话记录交给大模型生成回复。
type LLMResponder struct {
	client       llm.Client
	systemPrompt string
	historyLimit int
	gen          *llm.GenerationParams
}

// NewLLMResponder 创建 LLMResponder。historyLimit <= 0 时发送完整记录。
func NewLLMResponder(client llm.Client, systemPrompt string, historyLimit int, gen *llm.GenerationParams) *LLMResponder {
	return &LLMResponder{client: client, systemPrompt: systemPrompt, historyLimit: historyLimit, gen: gen}
}

func (r *LLMResponder) Respond(ctx context.Context, req ResponseRequest) (string, error) {
	return r.client.Complete(ctx, r.composeMessages(req), r.gen)
}

func (r *LLMResponder) composeMessages(req ResponseRequest) []llm.Message {
	history := req.History
	if r.historyLimit > 0 && len(history) > r.historyLimit {
		history = history[len(history)-r.historyLimit:]
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	if r.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: r.systemPrompt})
	}
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	// 记录读取失败时 History 为空，至少要带上本轮问题
	if len(history) == 0 || history[len(history)-1].Role != model.MessageRoleUser {
		msgs = append(msgs, llm.Message{Role: model.MessageRoleUser, Content: req.Message})
	}
	return msgs
}
