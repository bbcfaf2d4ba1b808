package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
)

const systemPrompt = `너는 여러 사람이 만나기 좋은 지하철역을 추천하는 도우미야.
출발지 목록과 후보 역 정보를 보고, 가장 만나기 좋은 역과 그 이유를
두 문장 이내의 자연스러운 한국어로 추천해줘. 역 이름과 노선 정보는
주어진 내용만 사용하고 새로 지어내지 마.`

// Service renders structured candidate data into a short natural-language
// recommendation via the configured chat model. When the model is not
// configured the service stays disabled and callers fall back to templated
// text.
type Service struct {
	enabled bool
	timeout time.Duration
	chain   compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the summarization chain. A configuration without model
// credentials yields a disabled service and no error.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	svc := &Service{timeout: cfg.Timeout}
	if svc.timeout <= 0 {
		svc.timeout = 5 * time.Second
	}
	if !cfg.Enabled() {
		return svc, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	svc.enabled = true
	svc.chain = runnable
	return svc, nil
}

// Enabled reports whether the chat model is available.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.chain != nil
}

// Summarize runs the chain over the prompt. The boolean is false whenever no
// usable text came back, letting the caller fall back to a template.
func (s *Service) Summarize(ctx context.Context, query string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.chain.Invoke(ctx, map[string]any{"query": query})
	if err != nil {
		log.Printf("[summary] invoke failed, falling back to template: %v", err)
		return "", false
	}
	if msg == nil {
		return "", false
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", false
	}
	return text, true
}
