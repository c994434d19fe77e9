package tools

import (
	"context"
	"fmt"
	"strings"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// GoalStore is the slice of the store the goals tool needs.
type GoalStore interface {
	InsertRow(ctx context.Context, table string, row any) error
	NextVersion(ctx context.Context, table, userID string) (int, error)
	RetireGoals(ctx context.Context, userID string) error
}

// SaveGoalTool stores the user's fitness goal on the student center dashboard.
// Old goals are retired; the new row becomes the current one.
type SaveGoalTool struct {
	Store GoalStore
}

func (t *SaveGoalTool) Name() string { return "save_goal" }

func (t *SaveGoalTool) Description() string {
	return "Save a fitness goal to the student center dashboard."
}

func (t *SaveGoalTool) Parameters() map[string]any {
	return map[string]any{
		"target_weight_kg": map[string]any{
			"type":        "number",
			"description": "Target body weight in kilograms.",
		},
		"strength_targets": map[string]any{
			"type":        "string",
			"description": "Strength targets (e.g. 'benkpress 100kg').",
		},
		"horizon_weeks": map[string]any{
			"type":        "integer",
			"description": "Time horizon in weeks.",
		},
		"plan_text": map[string]any{
			"type":        "string",
			"description": "Optional free-form plan description.",
		},
	}
}

func (t *SaveGoalTool) RequiredParameters() []string { return nil }

func (t *SaveGoalTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := t.Store.RetireGoals(ctx, rc.UserID); err != nil {
		return nil, err
	}

	version, err := t.Store.NextVersion(ctx, store.TableGoals, rc.UserID)
	if err != nil {
		return nil, err
	}

	row := map[string]any{
		"user_id":    rc.UserID,
		"version":    version,
		"is_current": true,
		"created_at": store.NowISO(),
	}

	var parts []string
	if target, ok := argFloat(args, "target_weight_kg"); ok && target > 0 {
		row["target_weight_kg"] = target
		parts = append(parts, fmt.Sprintf("vektmål %s kg", store.FormatKg(target)))
	}
	if targets := argString(args, "strength_targets"); targets != "" {
		row["strength_targets"] = targets
		parts = append(parts, "styrke: "+targets)
	}
	if weeks, ok := argInt(args, "horizon_weeks"); ok && weeks > 0 {
		row["horizon_weeks"] = weeks
		parts = append(parts, fmt.Sprintf("%d uker", weeks))
	}
	if planText := argString(args, "plan_text"); planText != "" {
		row["plan"] = map[string]any{"text": planText}
	}

	if err := t.Store.InsertRow(ctx, store.TableGoals, row); err != nil {
		return nil, err
	}

	detail := strings.Join(parts, ", ")
	if detail == "" {
		detail = "oppdatert"
	}
	return success(fmt.Sprintf("Mål lagret: %s. Brukeren finner det på Dashboard i Student Senteret.", detail)), nil
}
