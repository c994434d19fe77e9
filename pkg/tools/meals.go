package tools

import (
	"context"
	"fmt"
	"log/slog"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// MealStore is the slice of the store the nutrition tools need.
type MealStore interface {
	InsertRow(ctx context.Context, table string, row any) error
	MealsOn(ctx context.Context, userID, date string) ([]store.MealLog, error)
	NextVersion(ctx context.Context, table, userID string) (int, error)
	RecordEvent(ctx context.Context, userID, eventType, summary string, after map[string]any) error
}

// LogMealTool records a meal the user has eaten with estimated macros.
type LogMealTool struct {
	Store MealStore
}

func (t *LogMealTool) Name() string { return "log_meal" }

func (t *LogMealTool) Description() string {
	return "Log a meal the user has eaten with estimated macros."
}

func (t *LogMealTool) Parameters() map[string]any {
	return map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "What the user ate.",
		},
		"meal_type": map[string]any{
			"type":        "string",
			"description": "breakfast, lunch, dinner, snack or other.",
		},
		"calories":  map[string]any{"type": "number", "description": "Estimated kcal."},
		"protein_g": map[string]any{"type": "number", "description": "Estimated protein grams."},
		"carbs_g":   map[string]any{"type": "number", "description": "Estimated carb grams."},
		"fat_g":     map[string]any{"type": "number", "description": "Estimated fat grams."},
		"date": map[string]any{
			"type":        "string",
			"description": "Date in YYYY-MM-DD format. Defaults to today.",
		},
	}
}

func (t *LogMealTool) RequiredParameters() []string { return []string{"description"} }

func (t *LogMealTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	description := argString(args, "description")
	if description == "" {
		return failure("description mangler"), nil
	}

	mealType := argString(args, "meal_type")
	if mealType == "" {
		mealType = "other"
	}
	date := argString(args, "date")
	if date == "" {
		date = store.Today()
	}

	calories, _ := argFloat(args, "calories")
	protein, _ := argFloat(args, "protein_g")
	carbs, _ := argFloat(args, "carbs_g")
	fat, _ := argFloat(args, "fat_g")

	row := map[string]any{
		"user_id":         rc.UserID,
		"date":            date,
		"meal_type":       mealType,
		"description":     description,
		"total_calories":  calories,
		"total_protein_g": protein,
		"total_carbs_g":   carbs,
		"total_fat_g":     fat,
		"items":           []any{},
	}
	if err := t.Store.InsertRow(ctx, store.TableMealLogs, row); err != nil {
		return nil, err
	}

	return success(fmt.Sprintf("Måltid logget: %s (%.0f kcal, %.0fg P, %.0fg K, %.0fg F)",
		description, calories, protein, carbs, fat)), nil
}

// TodayNutritionTool returns today's meals and macro totals.
type TodayNutritionTool struct {
	Store MealStore
}

func (t *TodayNutritionTool) Name() string { return "get_today_nutrition" }

func (t *TodayNutritionTool) Description() string {
	return "Get all meals logged today with macro totals."
}

func (t *TodayNutritionTool) Parameters() map[string]any { return map[string]any{} }

func (t *TodayNutritionTool) RequiredParameters() []string { return nil }

func (t *TodayNutritionTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	meals, err := t.Store.MealsOn(ctx, rc.UserID, store.Today())
	if err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []store.MealLog{}
	}

	var totals store.MacroTotals
	for _, m := range meals {
		totals.Add(m)
	}

	return jsonResult(map[string]any{"meals": meals, "totals": totals, "count": len(meals)}), nil
}

// SaveNutritionPlanTool stores an approved nutrition plan as a new version.
type SaveNutritionPlanTool struct {
	Store MealStore
}

func (t *SaveNutritionPlanTool) Name() string { return "save_nutrition_plan" }

func (t *SaveNutritionPlanTool) Description() string {
	return "Save a complete nutrition plan to the student center. Call AFTER the user has approved the plan. meals_json should be a JSON string array of meal objects."
}

func (t *SaveNutritionPlanTool) Parameters() map[string]any {
	return map[string]any{
		"kcal":          map[string]any{"type": "integer", "description": "Daily calorie target."},
		"protein_grams": map[string]any{"type": "integer", "description": "Daily protein target in grams."},
		"carbs_grams":   map[string]any{"type": "integer", "description": "Daily carb target in grams."},
		"fat_grams":     map[string]any{"type": "integer", "description": "Daily fat target in grams."},
		"meals_json": map[string]any{
			"type":        "string",
			"description": "JSON array of meal objects making up the plan.",
		},
		"notes":  map[string]any{"type": "string", "description": "Optional free-form notes."},
		"reason": map[string]any{"type": "string", "description": "Why the plan was created or changed."},
	}
}

func (t *SaveNutritionPlanTool) RequiredParameters() []string {
	return []string{"kcal", "protein_grams", "carbs_grams", "fat_grams"}
}

func (t *SaveNutritionPlanTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	kcal, _ := argInt(args, "kcal")
	protein, _ := argInt(args, "protein_grams")
	carbs, _ := argInt(args, "carbs_grams")
	fat, _ := argInt(args, "fat_grams")

	var meals []any
	if raw := argString(args, "meals_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meals); err != nil {
			meals = []any{}
		}
	}
	if meals == nil {
		meals = []any{}
	}

	version, err := t.Store.NextVersion(ctx, store.TableNutritionPlans, rc.UserID)
	if err != nil {
		return nil, err
	}

	row := map[string]any{
		"user_id":       rc.UserID,
		"version":       version,
		"kcal":          kcal,
		"protein_grams": protein,
		"carbs_grams":   carbs,
		"fat_grams":     fat,
		"meals":         meals,
		"notes":         argString(args, "notes"),
		"created_at":    store.NowISO(),
	}
	if err := t.Store.InsertRow(ctx, store.TableNutritionPlans, row); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Kostholdsplan v%d: %d kcal, %dg P", version, kcal, protein)
	after := map[string]any{"version": version, "reason": argString(args, "reason")}
	if err := t.Store.RecordEvent(ctx, rc.UserID, store.EventNutritionPlanSaved, summary, after); err != nil {
		slog.WarnContext(ctx, "Failed to record change event", "type", store.EventNutritionPlanSaved, "error", err)
	}

	return success(fmt.Sprintf(
		"Kostholdsplan lagret (v%d): %d kcal, %dg protein, %dg karbs, %dg fett. Brukeren finner den i Ernæring-fanen.",
		version, kcal, protein, carbs, fat)), nil
}
