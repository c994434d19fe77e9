package agent

import "context"

// RunContext is the per-request dependency context available to every agent
// and tool during a run. It carries the user's identity and data preloaded
// from the database before the coach starts reasoning.
type RunContext struct {
	UserID   string
	MentorID string

	// Preloaded user data (injected into dynamic instructions)
	UserName          string
	OnboardingSummary string
	MemorySummary     string

	// Mentor persona
	MentorName          string
	VoiceTone           string
	TrainingPhilosophy  string
	NutritionPhilosophy string
	CoreInstructions    string
}

type runContextKey struct{}

// WithRunContext attaches a RunContext to ctx so tools can recover the
// acting user without threading IDs through every argument map.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFrom extracts the RunContext stored in ctx, if any.
func RunContextFrom(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(runContextKey{}).(*RunContext)
	return rc, ok
}
