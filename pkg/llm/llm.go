package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json 用於 package llm 內部的 JSON 處理，統一使用 json-iterator
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tool describes a function-calling capability exposed to the model.
// The execution side lives in pkg/api; providers only need the schema.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-Schema property map for the tool arguments.
	Parameters() map[string]any
	// RequiredParameters lists the mandatory property names.
	RequiredParameters() []string
}

// FunctionSchema renders a Tool into the OpenAI-style function map that
// every provider client converts from.
func FunctionSchema(t Tool) map[string]any {
	required := t.RequiredParameters()
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters": map[string]any{
				"type":       "object",
				"properties": t.Parameters(),
				"required":   required,
			},
		},
	}
}

// Client 通用 LLM 客戶端介面
type Client interface {
	// Chat 進行一次完整的對話呼叫（非串流）
	// messages: 對話歷史（使用 llm.Message 結構）
	// tools: 本輪可用的工具，nil 表示停用工具
	Chat(ctx context.Context, messages []Message, tools []Tool) (*Completion, error)

	// IsTransientError 判斷是否為暫時性錯誤 (如 503, Rate Limit)
	IsTransientError(err error) bool
}

// FallbackClient 支援多個 Client 分級嘗試
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Chat(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Previous provider failed, trying fallback provider", "index", i+1)
		}

		// 使用配置的重試次數，若為 0 則至少執行 1 次
		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				slog.Info("Retrying provider", "index", i+1, "attempt", fmt.Sprintf("%d/%d", retry, maxRetries))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			res, err := client.Chat(ctx, messages, tools)
			if err == nil {
				return res, nil
			}

			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Provider failed with transient error, retrying", "index", i+1, "error", err)
				continue
			}

			// 非暫時性錯誤，或者已達最大重試次數
			slog.Error("Provider failed", "index", i+1, "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed. Last error: %v", lastErr)
}

// IsTransientError 實作 Client 介面
// FallbackClient 的錯誤意味著所有 Child 都失敗了，因此視為非暫時性
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
