package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mentorio/pkg/agent"
	"mentorio/pkg/store"
)

// ContextStore is the slice of the store the context loader needs.
type ContextStore interface {
	UserByID(ctx context.Context, id string) (*store.User, bool, error)
	ProfileByUserID(ctx context.Context, userID string) (map[string]any, bool, error)
	ContextEntries(ctx context.Context, userID string) ([]store.KeyValue, error)
	CoachKnowledge(ctx context.Context, mentorID string) ([]store.KeyValue, error)
}

// Loader assembles the per-request RunContext from stored user and mentor data.
type Loader struct {
	Store             ContextStore
	DefaultMentorName string
}

// Norwegian labels for the profile summary shown to the model.
var profileLabels = []struct {
	key   string
	label string
}{
	{"gender", "Kjønn"},
	{"age", "Alder"},
	{"height_cm", "Høyde"},
	{"current_weight_kg", "Vekt"},
	{"training_days_per_week", "Treningsdager/uke"},
	{"goals", "Mål"},
	{"fitness_level", "Treningsnivå"},
	{"training_location", "Treningssted"},
	{"available_equipment", "Utstyr"},
	{"injury_history", "Skader"},
	{"nutrition_preferences", "Matpreferanser"},
}

// LoadContext fetches user, profile, remembered facts and mentor persona.
// Missing rows degrade the prompt, never the request: lookups that fail are
// logged and skipped.
func (l *Loader) LoadContext(ctx context.Context, userID, mentorID string) *agent.RunContext {
	rc := &agent.RunContext{
		UserID:     userID,
		MentorID:   mentorID,
		MentorName: "Coach " + l.mentorFallback(),
	}

	if user, found, err := l.Store.UserByID(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Failed to load user", "user_id", userID, "error", err)
	} else if found {
		rc.UserName = user.DisplayName()
	}

	if profile, found, err := l.Store.ProfileByUserID(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Failed to load profile", "user_id", userID, "error", err)
	} else if found {
		rc.OnboardingSummary = summarizeProfile(profile)
	}

	if entries, err := l.Store.ContextEntries(ctx, userID); err != nil {
		slog.WarnContext(ctx, "Failed to load user context", "user_id", userID, "error", err)
	} else if len(entries) > 0 {
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("- %s: %s", e.Key, e.Value))
		}
		rc.MemorySummary = strings.Join(lines, "\n")
	}

	if mentor, found, err := l.Store.UserByID(ctx, mentorID); err != nil {
		slog.WarnContext(ctx, "Failed to load mentor", "mentor_id", mentorID, "error", err)
	} else if found {
		rc.MentorName = "Coach " + firstNonEmpty(mentor.DisplayName(), l.mentorFallback())
	}

	if knowledge, err := l.Store.CoachKnowledge(ctx, mentorID); err != nil {
		slog.WarnContext(ctx, "Failed to load coach knowledge", "mentor_id", mentorID, "error", err)
	} else {
		for _, row := range knowledge {
			switch row.Key {
			case "voice_tone":
				rc.VoiceTone = row.Value
			case "training_philosophy":
				rc.TrainingPhilosophy = row.Value
			case "nutrition_philosophy":
				rc.NutritionPhilosophy = row.Value
			case "core_instructions":
				rc.CoreInstructions = row.Value
			}
		}
	}

	slog.InfoContext(ctx, "Context loaded",
		"user_id", userID,
		"name", rc.UserName,
		"has_profile", rc.OnboardingSummary != "",
		"has_memory", rc.MemorySummary != "",
	)
	return rc
}

func (l *Loader) mentorFallback() string {
	if l.DefaultMentorName != "" {
		return l.DefaultMentorName
	}
	return "Majen"
}

// summarizeProfile renders the profile row as labeled Norwegian lines.
func summarizeProfile(profile map[string]any) string {
	var parts []string
	for _, m := range profileLabels {
		val := profile[m.key]
		if val == nil {
			continue
		}
		text := fmt.Sprintf("%v", val)
		if text == "" || text == "0" {
			continue
		}
		parts = append(parts, fmt.Sprintf("- %s: %s", m.label, text))
	}
	return strings.Join(parts, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
