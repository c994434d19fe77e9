package coach

import (
	"context"
	"strings"
	"testing"

	"mentorio/pkg/agent"
	"mentorio/pkg/config"
	"mentorio/pkg/llm"
	"mentorio/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend satisfies Backend with canned data.
type fakeBackend struct {
	user        *store.User
	mentor      *store.User
	profile     map[string]any
	contextRows []store.KeyValue
	knowledge   []store.KeyValue
}

func (f *fakeBackend) InsertRow(ctx context.Context, table string, row any) error { return nil }
func (f *fakeBackend) UpsertRow(ctx context.Context, table string, row any, onConflict string) error {
	return nil
}
func (f *fakeBackend) RecordEvent(ctx context.Context, userID, eventType, summary string, after map[string]any) error {
	return nil
}
func (f *fakeBackend) UpsertWeight(ctx context.Context, userID, date string, kg float64) error {
	return nil
}
func (f *fakeBackend) WeightsSince(ctx context.Context, userID, since string) ([]store.WeightEntry, error) {
	return nil, nil
}
func (f *fakeBackend) LatestWeights(ctx context.Context, userID string, limit int) ([]store.WeightEntry, error) {
	return nil, nil
}
func (f *fakeBackend) MealsOn(ctx context.Context, userID, date string) ([]store.MealLog, error) {
	return nil, nil
}
func (f *fakeBackend) NextVersion(ctx context.Context, table, userID string) (int, error) {
	return 1, nil
}
func (f *fakeBackend) LatestTrainingPlan(ctx context.Context, userID string) (*store.TrainingPlan, bool, error) {
	return nil, false, nil
}
func (f *fakeBackend) LatestNutritionPlan(ctx context.Context, userID string) (*store.NutritionPlan, bool, error) {
	return nil, false, nil
}
func (f *fakeBackend) CurrentGoal(ctx context.Context, userID string) (*store.Goal, bool, error) {
	return nil, false, nil
}
func (f *fakeBackend) RetireGoals(ctx context.Context, userID string) error { return nil }
func (f *fakeBackend) ContextEntries(ctx context.Context, userID string) ([]store.KeyValue, error) {
	return f.contextRows, nil
}
func (f *fakeBackend) ProfileByUserID(ctx context.Context, userID string) (map[string]any, bool, error) {
	return f.profile, f.profile != nil, nil
}
func (f *fakeBackend) UserByID(ctx context.Context, id string) (*store.User, bool, error) {
	switch {
	case f.user != nil && id == f.user.ID:
		return f.user, true, nil
	case f.mentor != nil && id == f.mentor.ID:
		return f.mentor, true, nil
	}
	return nil, false, nil
}
func (f *fakeBackend) CoachKnowledge(ctx context.Context, mentorID string) ([]store.KeyValue, error) {
	return f.knowledge, nil
}

type cannedClient struct {
	outputs []string
	calls   int
}

func (c *cannedClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	out := "ok"
	if c.calls < len(c.outputs) {
		out = c.outputs[c.calls]
	}
	c.calls++
	return &llm.Completion{
		Message:      llm.NewAssistantMessage(out),
		FinishReason: llm.StopReasonStop,
	}, nil
}

func (c *cannedClient) IsTransientError(err error) bool { return false }

func testSysCfg() *config.SystemConfig {
	cfg := config.DefaultSystemConfig()
	cfg.RetryDelayMs = 1
	return cfg
}

// ── Context loading ────────────────────────────────────────────────

func TestLoadContext(t *testing.T) {
	backend := &fakeBackend{
		user:   &store.User{ID: "u1", FirstName: "Ola"},
		mentor: &store.User{ID: "m1", FirstName: "Majen"},
		profile: map[string]any{
			"age":               30,
			"current_weight_kg": 82.5,
			"goals":             "bygge muskler",
		},
		contextRows: []store.KeyValue{{Key: "skade_kne", Value: "vondt venstre kne"}},
		knowledge: []store.KeyValue{
			{Key: "voice_tone", Value: "varm og direkte"},
			{Key: "training_philosophy", Value: "progressiv overload"},
		},
	}
	loader := &Loader{Store: backend, DefaultMentorName: "Majen"}

	rc := loader.LoadContext(context.Background(), "u1", "m1")

	assert.Equal(t, "Ola", rc.UserName)
	assert.Equal(t, "Coach Majen", rc.MentorName)
	assert.Contains(t, rc.OnboardingSummary, "- Alder: 30")
	assert.Contains(t, rc.OnboardingSummary, "- Vekt: 82.5")
	assert.Contains(t, rc.OnboardingSummary, "- Mål: bygge muskler")
	assert.Contains(t, rc.MemorySummary, "- skade_kne: vondt venstre kne")
	assert.Equal(t, "varm og direkte", rc.VoiceTone)
	assert.Equal(t, "progressiv overload", rc.TrainingPhilosophy)
}

func TestLoadContextSnakeCaseNames(t *testing.T) {
	backend := &fakeBackend{
		user:   &store.User{ID: "u1", FirstNameAlt: "Ola", Username: "ola92"},
		mentor: &store.User{ID: "m1", FirstNameAlt: "Majen"},
	}
	loader := &Loader{Store: backend, DefaultMentorName: "Majen"}

	rc := loader.LoadContext(context.Background(), "u1", "m1")
	assert.Equal(t, "Ola", rc.UserName)
	assert.Equal(t, "Coach Majen", rc.MentorName)

	backend.user = &store.User{ID: "u1", Username: "ola92"}
	rc = loader.LoadContext(context.Background(), "u1", "m1")
	assert.Equal(t, "ola92", rc.UserName)
}

func TestLoadContextMissingRows(t *testing.T) {
	loader := &Loader{Store: &fakeBackend{}, DefaultMentorName: "Majen"}

	rc := loader.LoadContext(context.Background(), "ghost", "m1")

	assert.Equal(t, "", rc.UserName)
	assert.Equal(t, "Coach Majen", rc.MentorName)
	assert.Empty(t, rc.OnboardingSummary)
	assert.Empty(t, rc.MemorySummary)
}

// ── Instructions ───────────────────────────────────────────────────

func TestBuildInstructions(t *testing.T) {
	rc := &agent.RunContext{
		UserName:           "Kari",
		MentorName:         "Coach Majen",
		OnboardingSummary:  "- Alder: 28\n- Mål: løpe fortere",
		MemorySummary:      "- allergi: nøtter",
		VoiceTone:          "entusiastisk",
		TrainingPhilosophy: "baser alt på grunnøvelser",
	}

	prompt := buildInstructions(rc)

	assert.Contains(t, prompt, "Du er Coach Majen")
	assert.Contains(t, prompt, "Brukeren heter Kari")
	assert.Contains(t, prompt, "BRUKERENS DATA")
	assert.Contains(t, prompt, "- Mål: løpe fortere")
	assert.Contains(t, prompt, "TING JEG HUSKER")
	assert.Contains(t, prompt, "- allergi: nøtter")
	assert.Contains(t, prompt, "Tone: entusiastisk")
	assert.Contains(t, prompt, "delegate_training_plan")
	assert.Contains(t, prompt, "get_user_stats")
	assert.Contains(t, prompt, "ALLTID snakk norsk")
}

func TestBuildInstructionsSparseContext(t *testing.T) {
	prompt := buildInstructions(&agent.RunContext{MentorName: "Coach Majen"})

	assert.Contains(t, prompt, "Brukeren heter brukeren")
	assert.NotContains(t, prompt, "BRUKERENS DATA")
	assert.NotContains(t, prompt, "TING JEG HUSKER")
	assert.NotContains(t, prompt, "MIN PERSONLIGHET")
}

// ── Coach assembly ─────────────────────────────────────────────────

func TestBuildCoachToolset(t *testing.T) {
	runner := agent.NewRunner(&cannedClient{}, testSysCfg())
	ag := BuildCoach(&fakeBackend{}, runner, testSysCfg())

	assert.Equal(t, "Coach Majen", ag.Name)
	require.Len(t, ag.Tools.GetAll(), 7)

	expected := []string{
		"delegate_body_tracking",
		"delegate_nutrition",
		"delegate_training_plan",
		"delegate_workout_log",
		"delegate_goals",
		"delegate_profile",
		"get_user_stats",
	}
	for _, name := range expected {
		_, ok := ag.FindTool(name)
		assert.True(t, ok, "missing tool %s", name)
	}
}

// ── Delegation ─────────────────────────────────────────────────────

func TestDelegateToolRunsSubAgent(t *testing.T) {
	client := &cannedClient{outputs: []string{"Vekt logget: 82 kg"}}
	runner := agent.NewRunner(client, testSysCfg())
	sub := &agent.Agent{Name: "Body Tracker Agent", Instructions: "logg vekt"}

	dt := &DelegateTool{
		ToolName: "delegate_body_tracking",
		ToolDesc: "Log weight.",
		Sub:      sub,
		Runner:   runner,
	}

	ctx := agent.WithRunContext(context.Background(), &agent.RunContext{UserID: "u1"})
	res, err := dt.Execute(ctx, map[string]any{"task": "Logg vekt 82 kg for i dag"})
	require.NoError(t, err)

	assert.Equal(t, "Vekt logget: 82 kg", res.Output)
	nested, ok := res.Details[agent.DetailToolsCalled].([]string)
	require.True(t, ok)
	assert.Empty(t, nested)
}

func TestDelegateToolRequiresTask(t *testing.T) {
	dt := &DelegateTool{ToolName: "delegate_goals", Runner: agent.NewRunner(&cannedClient{}, testSysCfg())}

	res, err := dt.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "task is required")
}

// ── Input building ─────────────────────────────────────────────────

func TestBuildInputWindowsHistory(t *testing.T) {
	cfg := testSysCfg()
	cfg.HistoryWindow = 4
	svc := &Service{sysCfg: cfg}

	var history []Turn
	for i := 0; i < 10; i++ {
		history = append(history, Turn{Role: "user", Content: "melding"})
		history = append(history, Turn{Role: "assistant", Content: "svar"})
	}

	msgs := svc.buildInput(&agent.RunContext{}, "ny melding", history)

	// 4 windowed turns plus the new message.
	assert.Len(t, msgs, 5)
	assert.Equal(t, "ny melding", msgs[len(msgs)-1].Content)
}

func TestBuildInputFiltersJunkTurns(t *testing.T) {
	svc := &Service{sysCfg: testSysCfg()}

	history := []Turn{
		{Role: "user", Content: "hei"},
		{Role: "system", Content: "should be dropped"},
		{Role: "assistant", Content: "   "},
		{Role: "assistant", Content: "hei hei"},
	}

	msgs := svc.buildInput(&agent.RunContext{}, "ny", history)
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
}

func TestBuildInputInjectsProfilePrefix(t *testing.T) {
	svc := &Service{sysCfg: testSysCfg()}
	rc := &agent.RunContext{OnboardingSummary: "- Alder: 30\n- Mål: styrke"}

	// Without history the prefix lands on the new message.
	msgs := svc.buildInput(rc, "lag en plan", nil)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "[SYSTEM: Brukerens profil"))
	assert.Contains(t, msgs[0].Content, "- Alder: 30 | - Mål: styrke")
	assert.Contains(t, msgs[0].Content, "lag en plan")

	// With history the prefix lands on the first user turn only.
	history := []Turn{
		{Role: "user", Content: "hei"},
		{Role: "assistant", Content: "hei!"},
	}
	msgs = svc.buildInput(rc, "lag en plan", history)
	require.Len(t, msgs, 3)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "[SYSTEM:"))
	assert.False(t, strings.Contains(msgs[2].Content, "[SYSTEM:"))
}

func TestBuildInputDoesNotDoublePrefix(t *testing.T) {
	svc := &Service{sysCfg: testSysCfg()}
	rc := &agent.RunContext{OnboardingSummary: "- Alder: 30"}

	history := []Turn{{Role: "user", Content: "[SYSTEM: Brukerens profil — gammel] hei"}}
	msgs := svc.buildInput(rc, "ny", history)

	assert.Equal(t, 1, strings.Count(msgs[0].Content, "[SYSTEM:"))
}

// ── Service ────────────────────────────────────────────────────────

func TestServiceChatHappyPath(t *testing.T) {
	backend := &fakeBackend{user: &store.User{ID: "u1", FirstName: "Ola"}}
	client := &cannedClient{outputs: []string{"Hei Ola! Hva kan jeg hjelpe med?"}}
	runner := agent.NewRunner(client, testSysCfg())

	loader := &Loader{Store: backend, DefaultMentorName: "Majen"}
	ag := BuildCoach(backend, runner, testSysCfg())
	svc := NewService(loader, runner, nil, ag, testSysCfg())

	result, err := svc.Chat(context.Background(), "u1", "m1", "hei", nil)
	require.NoError(t, err)

	assert.Equal(t, "Hei Ola! Hva kan jeg hjelpe med?", result.Response)
	assert.Equal(t, "Coach Majen", result.AgentName)
	assert.NotNil(t, result.ToolsCalled)
	assert.Empty(t, result.ToolsCalled)
	assert.False(t, result.GuardrailBlocked)
	assert.GreaterOrEqual(t, result.ProcessingMs, int64(0))
}

func TestServiceAgentName(t *testing.T) {
	svc := NewService(nil, nil, nil, &agent.Agent{Name: "Coach Majen"}, testSysCfg())
	assert.Equal(t, "Coach Majen", svc.AgentName())
}
