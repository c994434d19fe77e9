package tools

import (
	"context"
	"fmt"
	"log/slog"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// TrainingStore is the slice of the store the training tools need.
type TrainingStore interface {
	InsertRow(ctx context.Context, table string, row any) error
	UpsertRow(ctx context.Context, table string, row any, onConflict string) error
	NextVersion(ctx context.Context, table, userID string) (int, error)
	LatestTrainingPlan(ctx context.Context, userID string) (*store.TrainingPlan, bool, error)
	RecordEvent(ctx context.Context, userID, eventType, summary string, after map[string]any) error
}

// SaveTrainingPlanTool stores an approved training plan as a new version.
type SaveTrainingPlanTool struct {
	Store TrainingStore
}

func (t *SaveTrainingPlanTool) Name() string { return "save_training_plan" }

func (t *SaveTrainingPlanTool) Description() string {
	return "Save a complete training plan to the student center. Call AFTER the user has approved the plan. days_json must be a JSON string: [{day, focus, exercises: [{name, sets, reps}]}]."
}

func (t *SaveTrainingPlanTool) Parameters() map[string]any {
	return map[string]any{
		"days_json": map[string]any{
			"type":        "string",
			"description": "JSON array describing every training day and its exercises.",
		},
		"reason": map[string]any{
			"type":        "string",
			"description": "Why the plan was created or changed.",
		},
	}
}

func (t *SaveTrainingPlanTool) RequiredParameters() []string { return []string{"days_json"} }

func (t *SaveTrainingPlanTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var days []any
	if err := json.Unmarshal([]byte(argString(args, "days_json")), &days); err != nil {
		return failure(fmt.Sprintf("Ugyldig JSON for days: %v", err)), nil
	}
	if len(days) == 0 {
		return failure("days må være en liste med minst 1 dag"), nil
	}

	version, err := t.Store.NextVersion(ctx, store.TableTrainingPlans, rc.UserID)
	if err != nil {
		return nil, err
	}

	row := map[string]any{
		"user_id":    rc.UserID,
		"version":    version,
		"days":       days,
		"created_at": store.NowISO(),
	}
	if err := t.Store.InsertRow(ctx, store.TableTrainingPlans, row); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Treningsplan v%d: %d dager", version, len(days))
	after := map[string]any{"version": version, "reason": argString(args, "reason")}
	if err := t.Store.RecordEvent(ctx, rc.UserID, store.EventTrainingPlanSaved, summary, after); err != nil {
		slog.WarnContext(ctx, "Failed to record change event", "type", store.EventTrainingPlanSaved, "error", err)
	}

	return success(fmt.Sprintf(
		"Treningsplan lagret (v%d) med %d treningsdager. Brukeren finner den i Aktivitet-fanen i Student Senteret.",
		version, len(days))), nil
}

// CurrentTrainingPlanTool fetches the newest saved training plan version.
type CurrentTrainingPlanTool struct {
	Store TrainingStore
}

func (t *CurrentTrainingPlanTool) Name() string { return "get_current_training_plan" }

func (t *CurrentTrainingPlanTool) Description() string {
	return "Get the user's current (latest version) training plan."
}

func (t *CurrentTrainingPlanTool) Parameters() map[string]any { return map[string]any{} }

func (t *CurrentTrainingPlanTool) RequiredParameters() []string { return nil }

func (t *CurrentTrainingPlanTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	plan, found, err := t.Store.LatestTrainingPlan(ctx, rc.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return jsonResult(map[string]any{"found": false, "message": "Ingen treningsplan er lagret ennå"}), nil
	}

	return jsonResult(map[string]any{"found": true, "plan": plan}), nil
}

// WorkoutStore is the slice of the store the workout logger needs.
type WorkoutStore interface {
	UpsertRow(ctx context.Context, table string, row any, onConflict string) error
}

// LogWorkoutTool records a completed workout session.
type LogWorkoutTool struct {
	Store WorkoutStore
}

func (t *LogWorkoutTool) Name() string { return "log_workout" }

func (t *LogWorkoutTool) Description() string {
	return "Log a completed workout session."
}

func (t *LogWorkoutTool) Parameters() map[string]any {
	return map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "What the session was (e.g. 'Bryst og triceps, 60 min').",
		},
		"date": map[string]any{
			"type":        "string",
			"description": "Date in YYYY-MM-DD format. Defaults to today.",
		},
		"entries_json": map[string]any{
			"type":        "string",
			"description": "Optional JSON array of performed exercises.",
		},
	}
}

func (t *LogWorkoutTool) RequiredParameters() []string { return nil }

func (t *LogWorkoutTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	date := argString(args, "date")
	if date == "" {
		date = store.Today()
	}

	var entries []any
	if raw := argString(args, "entries_json"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			entries = []any{}
		}
	}
	if entries == nil {
		entries = []any{}
	}

	row := map[string]any{
		"user_id": rc.UserID,
		"date":    date,
		"entries": entries,
	}
	if desc := argString(args, "description"); desc != "" {
		row["description"] = desc
	}
	if err := t.Store.UpsertRow(ctx, store.TableWorkoutLogs, row, "user_id,date"); err != nil {
		return nil, err
	}

	return success(fmt.Sprintf("Trening logget for %s", date)), nil
}
