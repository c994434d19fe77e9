package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/supabase-community/postgrest-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store wraps the managed database's row API (Supabase PostgREST).
// Every write the agent tools perform goes through here; the schema itself
// is owned by the database service.
type Store struct {
	pg *postgrest.Client
}

// New creates a Store against the Supabase project at baseURL, authenticating
// with the service key.
func New(baseURL, serviceKey string) (*Store, error) {
	restURL := strings.TrimRight(baseURL, "/") + "/rest/v1"
	client := postgrest.NewClient(restURL, "public", map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to init postgrest client: %w", client.ClientError)
	}
	return &Store{pg: client}, nil
}

// Today returns the current date in the row format used by the daily tables.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// NowISO returns the current UTC time in the created_at/updated_at format.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ── Generic row helpers ────────────────────────────────────────────

// InsertRow inserts a single row into table.
func (s *Store) InsertRow(ctx context.Context, table string, row any) error {
	_, _, err := s.pg.From(table).Insert(row, false, "", "", "").ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("insert into %s failed: %w", table, err)
	}
	return nil
}

// UpsertRow inserts or updates a single row, resolving conflicts on the
// given comma-separated column list.
func (s *Store) UpsertRow(ctx context.Context, table string, row any, onConflict string) error {
	_, _, err := s.pg.From(table).Insert(row, true, onConflict, "", "").ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	return nil
}

// findMany runs a filtered select and unmarshals the result into dest.
func (s *Store) findMany(ctx context.Context, table, sel string, filters map[string]string, orderBy string, asc bool, limit int, dest any) error {
	fb := s.pg.From(table).Select(sel, "", false)
	for k, v := range filters {
		fb = fb.Eq(k, v)
	}
	if orderBy != "" {
		fb = fb.Order(orderBy, &postgrest.OrderOpts{Ascending: asc})
	}
	if limit > 0 {
		fb = fb.Limit(limit, "")
	}
	data, _, err := fb.ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("select from %s failed: %w", table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s rows failed: %w", table, err)
	}
	return nil
}

// RecordEvent appends a change_events row describing an agent write.
// Event logging is advisory: failures are returned but callers typically
// only log them.
func (s *Store) RecordEvent(ctx context.Context, userID, eventType, summary string, after map[string]any) error {
	row := map[string]any{
		"user_id": userID,
		"type":    eventType,
		"summary": summary,
		"actor":   "agent",
	}
	if after != nil {
		row["after"] = after
	}
	return s.InsertRow(ctx, TableChangeEvents, row)
}

// ── Weight ─────────────────────────────────────────────────────────

// UpsertWeight writes one weight entry, replacing any entry for the same day.
func (s *Store) UpsertWeight(ctx context.Context, userID, date string, kg float64) error {
	row := map[string]any{"user_id": userID, "date": date, "kg": kg}
	return s.UpsertRow(ctx, TableWeightEntries, row, "user_id,date")
}

// WeightsSince returns the user's weight entries on or after the given date,
// oldest first.
func (s *Store) WeightsSince(ctx context.Context, userID, since string) ([]WeightEntry, error) {
	fb := s.pg.From(TableWeightEntries).
		Select("date,kg", "", false).
		Eq("user_id", userID).
		Gte("date", since).
		Order("date", &postgrest.OrderOpts{Ascending: true})
	data, _, err := fb.ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select weight history failed: %w", err)
	}
	var entries []WeightEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode weight history failed: %w", err)
	}
	return entries, nil
}

// LatestWeights returns the user's most recent weight entries, newest first.
func (s *Store) LatestWeights(ctx context.Context, userID string, limit int) ([]WeightEntry, error) {
	var entries []WeightEntry
	err := s.findMany(ctx, TableWeightEntries, "date,kg",
		map[string]string{"user_id": userID}, "date", false, limit, &entries)
	return entries, err
}

// ── Meals ──────────────────────────────────────────────────────────

// MealsOn returns all meals the user logged on the given date.
func (s *Store) MealsOn(ctx context.Context, userID, date string) ([]MealLog, error) {
	var meals []MealLog
	err := s.findMany(ctx, TableMealLogs, "*",
		map[string]string{"user_id": userID, "date": date}, "created_at", true, 0, &meals)
	return meals, err
}

// ── Versioned plans ────────────────────────────────────────────────

// NextVersion computes the next plan version for the user in a versioned
// table: max(version)+1, or 1 when no plan exists yet.
func (s *Store) NextVersion(ctx context.Context, table, userID string) (int, error) {
	var rows []struct {
		Version int `json:"version"`
	}
	err := s.findMany(ctx, table, "version",
		map[string]string{"user_id": userID}, "version", false, 1, &rows)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 1, nil
	}
	return rows[0].Version + 1, nil
}

// LatestTrainingPlan returns the newest training plan version, if any.
func (s *Store) LatestTrainingPlan(ctx context.Context, userID string) (*TrainingPlan, bool, error) {
	plans, err := s.RecentTrainingPlans(ctx, userID, 1)
	if err != nil || len(plans) == 0 {
		return nil, false, err
	}
	return &plans[0], true, nil
}

// LatestNutritionPlan returns the newest nutrition plan version, if any.
func (s *Store) LatestNutritionPlan(ctx context.Context, userID string) (*NutritionPlan, bool, error) {
	plans, err := s.RecentNutritionPlans(ctx, userID, 1)
	if err != nil || len(plans) == 0 {
		return nil, false, err
	}
	return &plans[0], true, nil
}

// RecentTrainingPlans returns the newest training plan versions, newest first.
func (s *Store) RecentTrainingPlans(ctx context.Context, userID string, limit int) ([]TrainingPlan, error) {
	var plans []TrainingPlan
	err := s.findMany(ctx, TableTrainingPlans, "id,user_id,version,days,reason,created_at",
		map[string]string{"user_id": userID}, "version", false, limit, &plans)
	return plans, err
}

// RecentPlansAllUsers returns the latest saved training plans across every
// user, newest first. Serves the debug surface only.
func (s *Store) RecentPlansAllUsers(ctx context.Context, limit int) ([]TrainingPlan, error) {
	var plans []TrainingPlan
	err := s.findMany(ctx, TableTrainingPlans, "id,user_id,version,reason,created_at",
		nil, "created_at", false, limit, &plans)
	return plans, err
}

// RecentNutritionPlans returns the newest nutrition plan versions, newest first.
func (s *Store) RecentNutritionPlans(ctx context.Context, userID string, limit int) ([]NutritionPlan, error) {
	var plans []NutritionPlan
	err := s.findMany(ctx, TableNutritionPlans, "id,user_id,version,kcal,protein_grams,carbs_grams,fat_grams,notes,created_at",
		map[string]string{"user_id": userID}, "version", false, limit, &plans)
	return plans, err
}

// ── Goals ──────────────────────────────────────────────────────────

// CurrentGoal returns the goal row flagged is_current, if any.
func (s *Store) CurrentGoal(ctx context.Context, userID string) (*Goal, bool, error) {
	var goals []Goal
	err := s.findMany(ctx, TableGoals, "*",
		map[string]string{"user_id": userID, "is_current": "true"}, "", false, 1, &goals)
	if err != nil || len(goals) == 0 {
		return nil, false, err
	}
	return &goals[0], true, nil
}

// RetireGoals clears the is_current flag on all of the user's goals.
func (s *Store) RetireGoals(ctx context.Context, userID string) error {
	_, _, err := s.pg.From(TableGoals).
		Update(map[string]any{"is_current": false}, "", "").
		Eq("user_id", userID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("retire goals failed: %w", err)
	}
	return nil
}

// ── Users, profiles, context ───────────────────────────────────────

// UserByID fetches one row from the users table.
func (s *Store) UserByID(ctx context.Context, id string) (*User, bool, error) {
	var users []User
	err := s.findMany(ctx, TableUsers, "*", map[string]string{"id": id}, "", false, 1, &users)
	if err != nil || len(users) == 0 {
		return nil, false, err
	}
	return &users[0], true, nil
}

// ProfileByUserID returns the user's onboarding profile as a loose map; the
// profile columns are owned by the database and summarized field by field.
func (s *Store) ProfileByUserID(ctx context.Context, userID string) (map[string]any, bool, error) {
	var profiles []map[string]any
	err := s.findMany(ctx, TableUserProfiles, "*", map[string]string{"user_id": userID}, "", false, 1, &profiles)
	if err != nil || len(profiles) == 0 {
		return nil, false, err
	}
	return profiles[0], true, nil
}

// ContextEntries returns the remembered facts for a user.
func (s *Store) ContextEntries(ctx context.Context, userID string) ([]KeyValue, error) {
	var entries []KeyValue
	err := s.findMany(ctx, TableUserContext, "key,value",
		map[string]string{"user_id": userID}, "", false, 0, &entries)
	return entries, err
}

// CoachKnowledge returns the mentor's persona knowledge entries.
func (s *Store) CoachKnowledge(ctx context.Context, mentorID string) ([]KeyValue, error) {
	var entries []KeyValue
	err := s.findMany(ctx, TableCoachKnowledge, "key,value",
		map[string]string{"mentor_id": mentorID}, "", false, 0, &entries)
	return entries, err
}

// FormatKg renders a weight for user-facing confirmation strings.
func FormatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}
