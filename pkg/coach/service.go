package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mentorio/pkg/agent"
	"mentorio/pkg/config"
	"mentorio/pkg/guardrails"
	"mentorio/pkg/llm"
)

// Turn is one prior conversation message supplied by the caller.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the outcome of one coach exchange.
type ChatResult struct {
	Response         string
	AgentName        string
	ToolsCalled      []string
	ProcessingMs     int64
	GuardrailBlocked bool
	BlockedReason    string
}

// Service orchestrates one chat request: load context, run the input
// guardrail, window the history, drive the coach and check the output.
type Service struct {
	loader *Loader
	runner *agent.Runner
	guard  *guardrails.Guard
	ag     *agent.Agent
	sysCfg *config.SystemConfig
}

// NewService builds the request orchestrator. guard may be nil when
// guardrails are disabled.
func NewService(loader *Loader, runner *agent.Runner, guard *guardrails.Guard, ag *agent.Agent, sysCfg *config.SystemConfig) *Service {
	return &Service{
		loader: loader,
		runner: runner,
		guard:  guard,
		ag:     ag,
		sysCfg: sysCfg,
	}
}

// AgentName returns the master agent's display name.
func (s *Service) AgentName() string {
	return s.ag.Name
}

// Chat processes one user message end to end.
func (s *Service) Chat(ctx context.Context, userID, mentorID, message string, history []Turn) (*ChatResult, error) {
	start := time.Now()
	slog.InfoContext(ctx, "Chat request",
		"user_id", userID, "mentor_id", mentorID, "msg_len", len(message))

	rc := s.loader.LoadContext(ctx, userID, mentorID)
	ctx = agent.WithRunContext(ctx, rc)

	if s.guard != nil {
		if blocked, category := s.guard.CheckInput(ctx, message); blocked {
			slog.WarnContext(ctx, "Blocked by safety guardrail", "user_id", userID, "category", category)
			return &ChatResult{
				Response:         guardrails.RefusalMessage,
				AgentName:        s.ag.Name,
				ToolsCalled:      []string{},
				ProcessingMs:     time.Since(start).Milliseconds(),
				GuardrailBlocked: true,
				BlockedReason:    "safety",
			}, nil
		}
	}

	input := s.buildInput(rc, message, history)

	result, err := s.runner.Run(ctx, s.ag, input)
	if err != nil {
		return nil, fmt.Errorf("coach run failed: %w", err)
	}

	if s.guard != nil {
		s.guard.CheckOutput(ctx, result.FinalOutput)
	}

	toolsCalled := result.ToolsCalled
	if toolsCalled == nil {
		toolsCalled = []string{}
	}

	elapsed := time.Since(start).Milliseconds()
	slog.InfoContext(ctx, "Chat done",
		"user_id", userID,
		"tools", toolsCalled,
		"len", len(result.FinalOutput),
		"ms", elapsed,
		"tokens", result.Usage.TotalTokens,
	)

	return &ChatResult{
		Response:     result.FinalOutput,
		AgentName:    s.ag.Name,
		ToolsCalled:  toolsCalled,
		ProcessingMs: elapsed,
	}, nil
}

// buildInput windows the history, appends the new message and injects the
// profile summary into the first user turn.
func (s *Service) buildInput(rc *agent.RunContext, message string, history []Turn) []llm.Message {
	window := s.sysCfg.HistoryWindow
	if window <= 0 {
		window = 20
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var msgs []llm.Message
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		switch turn.Role {
		case llm.RoleUser:
			msgs = append(msgs, llm.NewUserMessage(turn.Content))
		case llm.RoleAssistant:
			msgs = append(msgs, llm.NewAssistantMessage(turn.Content))
		}
	}

	msgs = append(msgs, llm.NewUserMessage(message))

	// The profile rides along in the first user turn so it survives history
	// windowing on the caller side.
	if rc.OnboardingSummary != "" {
		prefix := fmt.Sprintf("[SYSTEM: Brukerens profil — %s] ",
			strings.ReplaceAll(rc.OnboardingSummary, "\n", " | "))
		for i := range msgs {
			if msgs[i].Role != llm.RoleUser {
				continue
			}
			if !strings.Contains(msgs[i].Content, "[SYSTEM:") {
				msgs[i].Content = prefix + msgs[i].Content
			}
			break
		}
	}

	return msgs
}
