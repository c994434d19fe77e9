package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mentorio/pkg/api"
	"mentorio/pkg/store"
)

// Weight bounds carried over from the platform's validation rules.
const (
	minWeightKg = 20
	maxWeightKg = 500
)

// WeightStore is the slice of the store the body-tracking tools need.
type WeightStore interface {
	UpsertWeight(ctx context.Context, userID, date string, kg float64) error
	WeightsSince(ctx context.Context, userID, since string) ([]store.WeightEntry, error)
	RecordEvent(ctx context.Context, userID, eventType, summary string, after map[string]any) error
}

// LogWeightTool records the user's body weight for a day.
type LogWeightTool struct {
	Store WeightStore
}

func (t *LogWeightTool) Name() string { return "log_weight" }

func (t *LogWeightTool) Description() string {
	return "Log the user's body weight. Call when the user mentions their weight."
}

func (t *LogWeightTool) Parameters() map[string]any {
	return map[string]any{
		"kg": map[string]any{
			"type":        "number",
			"description": "Body weight in kilograms.",
		},
		"date": map[string]any{
			"type":        "string",
			"description": "Date in YYYY-MM-DD format. Defaults to today.",
		},
	}
}

func (t *LogWeightTool) RequiredParameters() []string { return []string{"kg"} }

func (t *LogWeightTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	kg, ok := argFloat(args, "kg")
	if !ok {
		return failure("kg mangler eller er ikke et tall"), nil
	}
	if kg < minWeightKg || kg > maxWeightKg {
		return failure("Vekt må være mellom 20 og 500 kg"), nil
	}

	date := argString(args, "date")
	if date == "" {
		date = store.Today()
	}

	if err := t.Store.UpsertWeight(ctx, rc.UserID, date, kg); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Vekt logget: %s kg (%s)", store.FormatKg(kg), date)
	if err := t.Store.RecordEvent(ctx, rc.UserID, store.EventWeightLog, summary, nil); err != nil {
		slog.WarnContext(ctx, "Failed to record change event", "type", store.EventWeightLog, "error", err)
	}

	return success(summary), nil
}

// WeightHistoryTool fetches the user's recent weight entries.
type WeightHistoryTool struct {
	Store WeightStore
}

func (t *WeightHistoryTool) Name() string { return "get_weight_history" }

func (t *WeightHistoryTool) Description() string {
	return "Get the user's weight history for the given number of days."
}

func (t *WeightHistoryTool) Parameters() map[string]any {
	return map[string]any{
		"days": map[string]any{
			"type":        "integer",
			"description": "How many days back to fetch. Defaults to 30.",
		},
	}
}

func (t *WeightHistoryTool) RequiredParameters() []string { return nil }

func (t *WeightHistoryTool) Execute(ctx context.Context, args map[string]any) (*api.ToolResult, error) {
	rc, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	days, ok := argInt(args, "days")
	if !ok || days <= 0 {
		days = 30
	}

	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	entries, err := t.Store.WeightsSince(ctx, rc.UserID, since)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []store.WeightEntry{}
	}

	return jsonResult(map[string]any{"entries": entries, "count": len(entries)}), nil
}
