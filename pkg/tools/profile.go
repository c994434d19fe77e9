package tools

import (
	"context"
	"fmt"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// ProfileStore is the slice of the store the profile tools need.
type ProfileStore interface {
	UpsertRow(ctx context.Context, table string, row any, onConflict string) error
}

// RememberFactTool stores a durable fact about the user for later chats.
type RememberFactTool struct {
	Store ProfileStore
}

func (t *RememberFactTool) Name() string { return "remember_fact" }

func (t *RememberFactTool) Description() string {
	return "Remember a durable fact about the user (injuries, preferences, equipment, schedule). Use short snake_case keys."
}

func (t *RememberFactTool) Parameters() map[string]any {
	return map[string]any{
		"key": map[string]any{
			"type":        "string",
			"description": "Short snake_case key, e.g. 'skade_kne' or 'liker_ikke_fisk'.",
		},
		"value": map[string]any{
			"type":        "string",
			"description": "The fact to remember.",
		},
	}
}

func (t *RememberFactTool) RequiredParameters() []string { return []string{"key", "value"} }

func (t *RememberFactTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	key := argString(args, "key")
	value := argString(args, "value")
	if key == "" || value == "" {
		return failure("key og value må begge fylles ut"), nil
	}

	row := map[string]any{
		"user_id":    rc.UserID,
		"key":        key,
		"value":      value,
		"source":     "agent",
		"updated_at": store.NowISO(),
	}
	if err := t.Store.UpsertRow(ctx, store.TableUserContext, row, "user_id,key"); err != nil {
		return nil, err
	}

	return success(fmt.Sprintf("Lagret: %s = %s", key, value)), nil
}

// Profile columns the agent is allowed to touch. The rest of the profile is
// owned by the onboarding flow.
var profileFields = []string{
	"current_weight_kg",
	"training_days_per_week",
	"goals",
	"injury_history",
	"nutrition_preferences",
}

// UpdateProfileTool applies a partial update to the user's onboarding profile.
type UpdateProfileTool struct {
	Store ProfileStore
}

func (t *UpdateProfileTool) Name() string { return "update_profile" }

func (t *UpdateProfileTool) Description() string {
	return "Update fields on the user's profile. Only pass the fields that changed."
}

func (t *UpdateProfileTool) Parameters() map[string]any {
	return map[string]any{
		"current_weight_kg": map[string]any{
			"type":        "number",
			"description": "Current body weight in kilograms.",
		},
		"training_days_per_week": map[string]any{
			"type":        "integer",
			"description": "How many days per week the user trains.",
		},
		"goals": map[string]any{
			"type":        "string",
			"description": "The user's stated goals.",
		},
		"injury_history": map[string]any{
			"type":        "string",
			"description": "Known injuries or limitations.",
		},
		"nutrition_preferences": map[string]any{
			"type":        "string",
			"description": "Dietary preferences or restrictions.",
		},
	}
}

func (t *UpdateProfileTool) RequiredParameters() []string { return nil }

func (t *UpdateProfileTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	row := map[string]any{
		"user_id":    rc.UserID,
		"updated_at": store.NowISO(),
	}
	changed := 0
	for _, field := range profileFields {
		if v, ok := args[field]; ok && v != nil {
			row[field] = v
			changed++
		}
	}
	if changed == 0 {
		return failure("Ingen felter å oppdatere"), nil
	}

	if err := t.Store.UpsertRow(ctx, store.TableUserProfiles, row, "user_id"); err != nil {
		return nil, err
	}

	return success("Profil oppdatert"), nil
}
