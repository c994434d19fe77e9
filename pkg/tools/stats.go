package tools

import (
	"context"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// StatsStore is the slice of the store the overview tool needs.
type StatsStore interface {
	LatestWeights(ctx context.Context, userID string, limit int) ([]store.WeightEntry, error)
	MealsOn(ctx context.Context, userID, date string) ([]store.MealLog, error)
	CurrentGoal(ctx context.Context, userID string) (*store.Goal, bool, error)
	LatestTrainingPlan(ctx context.Context, userID string) (*store.TrainingPlan, bool, error)
	LatestNutritionPlan(ctx context.Context, userID string) (*store.NutritionPlan, bool, error)
	ContextEntries(ctx context.Context, userID string) ([]store.KeyValue, error)
	ProfileByUserID(ctx context.Context, userID string) (map[string]any, bool, error)
}

// Profile columns dropped from the stats snapshot; they are row plumbing, not
// coaching data.
var statsProfileSkip = map[string]bool{
	"id":         true,
	"user_id":    true,
	"created_at": true,
	"updated_at": true,
}

// UserStatsTool assembles a one-shot snapshot of everything the coach knows
// about the user's progress. Partial data is fine; sections the store cannot
// serve are simply left out.
type UserStatsTool struct {
	Store StatsStore
}

func (t *UserStatsTool) Name() string { return "get_user_stats" }

func (t *UserStatsTool) Description() string {
	return "Get a full snapshot of the user's data: latest weight, today's nutrition, current goal, active plans, remembered facts and profile."
}

func (t *UserStatsTool) Parameters() map[string]any { return map[string]any{} }

func (t *UserStatsTool) RequiredParameters() []string { return nil }

func (t *UserStatsTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]any{}

	if weights, err := t.Store.LatestWeights(ctx, rc.UserID, 5); err == nil && len(weights) > 0 {
		stats["latest_weight"] = weights[0]
		stats["recent_weights"] = weights
	}

	if goal, found, err := t.Store.CurrentGoal(ctx, rc.UserID); err == nil && found {
		stats["current_goal"] = goal
	}

	if meals, err := t.Store.MealsOn(ctx, rc.UserID, store.Today()); err == nil {
		var totals store.MacroTotals
		for _, m := range meals {
			totals.Add(m)
		}
		stats["today_meals"] = map[string]any{"count": len(meals), "totals": totals}
	}

	if plan, found, err := t.Store.LatestTrainingPlan(ctx, rc.UserID); err == nil && found {
		stats["training_plan"] = map[string]any{
			"version":    plan.Version,
			"days_count": len(plan.Days),
		}
	}

	if plan, found, err := t.Store.LatestNutritionPlan(ctx, rc.UserID); err == nil && found {
		stats["nutrition_plan"] = map[string]any{
			"version":       plan.Version,
			"kcal":          plan.Kcal,
			"protein_grams": plan.ProteinGrams,
		}
	}

	if entries, err := t.Store.ContextEntries(ctx, rc.UserID); err == nil && len(entries) > 0 {
		facts := map[string]string{}
		for _, e := range entries {
			facts[e.Key] = e.Value
		}
		stats["user_context"] = facts
	}

	if profile, found, err := t.Store.ProfileByUserID(ctx, rc.UserID); err == nil && found {
		cleaned := map[string]any{}
		for k, v := range profile {
			if statsProfileSkip[k] || v == nil {
				continue
			}
			cleaned[k] = v
		}
		stats["profile"] = cleaned
	}

	return jsonResult(stats), nil
}
