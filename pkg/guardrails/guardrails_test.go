package guardrails

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"mentorio/pkg/agent"
	"mentorio/pkg/config"
	"mentorio/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedClient struct {
	calls  int
	output string
	err    error
}

func (c *cannedClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Completion{
		Message:      llm.NewAssistantMessage(c.output),
		FinishReason: llm.StopReasonStop,
	}, nil
}

func (c *cannedClient) IsTransientError(err error) bool { return false }

func newGuard(client llm.Client) *Guard {
	cfg := config.DefaultSystemConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelayMs = 1
	return New(agent.NewRunner(client, cfg))
}

func TestCheckInputBlocksUnsafe(t *testing.T) {
	g := newGuard(&cannedClient{output: `{"is_unsafe": true, "category": "medical", "reasoning": "asks for medication dosage"}`})

	blocked, category := g.CheckInput(context.Background(), "hvilke medisiner bør jeg ta?")
	assert.True(t, blocked)
	assert.Equal(t, "medical", category)
}

func TestCheckInputAllowsSafe(t *testing.T) {
	g := newGuard(&cannedClient{output: `{"is_unsafe": false}`})

	blocked, _ := g.CheckInput(context.Background(), "lag en treningsplan for meg")
	assert.False(t, blocked)
}

func TestCheckInputToleratesFencedJSON(t *testing.T) {
	g := newGuard(&cannedClient{output: "```json\n{\"is_unsafe\": true, \"category\": \"steroids\"}\n```"})

	blocked, category := g.CheckInput(context.Background(), "hvor kjøper jeg steroider?")
	assert.True(t, blocked)
	assert.Equal(t, "steroids", category)
}

func TestCheckInputFailsOpenOnClassifierError(t *testing.T) {
	g := newGuard(&cannedClient{err: errors.New("provider down")})

	blocked, _ := g.CheckInput(context.Background(), "hei")
	assert.False(t, blocked)
}

func TestCheckInputFailsOpenOnGarbageOutput(t *testing.T) {
	g := newGuard(&cannedClient{output: "jeg er usikker"})

	blocked, _ := g.CheckInput(context.Background(), "hei")
	assert.False(t, blocked)
}

func TestCheckOutputSkipsShortReplies(t *testing.T) {
	client := &cannedClient{output: `{"is_wrong_language": false}`}
	g := newGuard(client)

	g.CheckOutput(context.Background(), "Hei!")
	assert.Equal(t, 0, client.calls)

	g.CheckOutput(context.Background(), "Dette er et mye lengre svar som faktisk skal sjekkes for språk.")
	assert.Equal(t, 1, client.calls)
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// "å" is two bytes; a 501-byte string forces the 500-byte cut into the
	// middle of the final rune.
	text := strings.Repeat("a", 499) + "å"
	require.Len(t, text, 501)

	cut := truncate(text, 500)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 499, len(cut))

	sample := strings.Repeat("blåbær og jordbær ", 40)
	cut = truncate(sample, 500)
	assert.True(t, utf8.ValidString(cut))
	assert.LessOrEqual(t, len(cut), 500)

	assert.Equal(t, "kort", truncate("kort", 500))
}

func TestDecodeVerdict(t *testing.T) {
	var v SafetyCheckOutput
	require.NoError(t, decodeVerdict(`Sure! {"is_unsafe": true, "category": "abuse"} hope that helps`, &v))
	assert.True(t, v.IsUnsafe)

	assert.Error(t, decodeVerdict("no json here", &v))
}
