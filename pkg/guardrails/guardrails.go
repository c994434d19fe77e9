// Package guardrails runs small classifier agents around the coach:
// an input check that blocks unsafe requests before the coach sees them,
// and an output check that verifies the reply language.
package guardrails

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"mentorio/pkg/agent"
	"mentorio/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RefusalMessage is returned to the user when the input check trips.
const RefusalMessage = "Beklager, men jeg kan ikke hjelpe med det du spør om. " +
	"Jeg er en fitness-coach og kan hjelpe deg med trening, kosthold og mål. " +
	"Hvis du trenger medisinsk hjelp, ta kontakt med legen din."

// SafetyCheckOutput is the strict-JSON verdict of the input classifier.
type SafetyCheckOutput struct {
	IsUnsafe  bool   `json:"is_unsafe"`
	Category  string `json:"category"`
	Reasoning string `json:"reasoning"`
}

// LanguageCheckOutput is the strict-JSON verdict of the output classifier.
type LanguageCheckOutput struct {
	IsWrongLanguage  bool   `json:"is_wrong_language"`
	DetectedLanguage string `json:"detected_language"`
	Reasoning        string `json:"reasoning"`
}

const safetyInstructions = `You are a safety classifier for a fitness coaching platform. Check if the user's message contains any of these unsafe categories:
1. Medical advice requests (asking for diagnosis, medication, treatment of medical conditions)
2. Mental health crisis (suicidal thoughts, self-harm)
3. Harassment or abuse towards the coach
4. Requests for illegal substances (steroids, banned drugs)
5. Eating disorder encouragement (extreme restriction, purging)

IMPORTANT: Normal fitness questions are SAFE. Questions about weight loss, muscle gain, training programs, nutrition, supplements (legal ones like creatine, protein), and general health are ALL SAFE.
Only flag genuinely dangerous requests.

Respond with ONLY a JSON object, no other text:
{"is_unsafe": <bool>, "category": "<string>", "reasoning": "<string>"}`

const languageInstructions = `You check if the given text is written in Norwegian (Bokmål or Nynorsk). The text SHOULD be in Norwegian. If it's in English, Swedish, Danish, or any other language, set is_wrong_language to true. Short words, names, or technical terms in English within a Norwegian text are OK. Only flag if the MAJORITY of the text is not Norwegian.

Respond with ONLY a JSON object, no other text:
{"is_wrong_language": <bool>, "detected_language": "<string>", "reasoning": "<string>"}`

// Guard wires the two classifier agents to a (cheap) utility model.
type Guard struct {
	runner        *agent.Runner
	safetyAgent   *agent.Agent
	languageAgent *agent.Agent
}

// New creates a Guard backed by the given utility LLM client.
func New(runner *agent.Runner) *Guard {
	return &Guard{
		runner:        runner,
		safetyAgent:   &agent.Agent{Name: "Safety Checker", Instructions: safetyInstructions},
		languageAgent: &agent.Agent{Name: "Language Checker", Instructions: languageInstructions},
	}
}

// CheckInput classifies a user message. blocked is true when the coach must
// not see the message. Classifier failures fail open: coaching availability
// wins over an advisory check.
func (g *Guard) CheckInput(ctx context.Context, message string) (blocked bool, category string) {
	result, err := g.runner.Run(ctx, g.safetyAgent, []llm.Message{llm.NewUserMessage(message)})
	if err != nil {
		slog.WarnContext(ctx, "Safety check failed, allowing message", "error", err)
		return false, ""
	}

	var verdict SafetyCheckOutput
	if err := decodeVerdict(result.FinalOutput, &verdict); err != nil {
		slog.WarnContext(ctx, "Safety check returned invalid verdict, allowing message", "error", err)
		return false, ""
	}

	if verdict.IsUnsafe {
		slog.WarnContext(ctx, "Blocked unsafe message",
			"category", verdict.Category,
			"reasoning", truncate(verdict.Reasoning, 100),
		)
	}
	return verdict.IsUnsafe, verdict.Category
}

// CheckOutput verifies the coach's reply is Norwegian. The check is
// advisory: a wrong-language verdict is logged, never blocked.
func (g *Guard) CheckOutput(ctx context.Context, output string) {
	if len(strings.TrimSpace(output)) < 20 {
		return
	}

	sample := truncate(output, 500)

	result, err := g.runner.Run(ctx, g.languageAgent, []llm.Message{
		llm.NewUserMessage("Check this text: " + sample),
	})
	if err != nil {
		slog.WarnContext(ctx, "Language check failed", "error", err)
		return
	}

	var verdict LanguageCheckOutput
	if err := decodeVerdict(result.FinalOutput, &verdict); err != nil {
		slog.WarnContext(ctx, "Language check returned invalid verdict", "error", err)
		return
	}

	if verdict.IsWrongLanguage {
		slog.WarnContext(ctx, "Response not in Norwegian", "detected", verdict.DetectedLanguage)
	}
}

// decodeVerdict parses the classifier's JSON reply, tolerating models that
// wrap the object in markdown fences or prose.
func decodeVerdict(output string, dest any) error {
	trimmed := strings.TrimSpace(output)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in classifier output")
	}

	return json.Unmarshal([]byte(trimmed[start:end+1]), dest)
}

// truncate shortens s to at most n bytes without splitting a rune, so
// Norwegian text stays valid UTF-8 when sampled.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
