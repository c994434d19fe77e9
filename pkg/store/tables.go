package store

// Table names owned by the managed database. The schema and row lifecycle
// live in Supabase; this service only reads and writes rows.
const (
	TableWeightEntries   = "weight_entries"
	TableMealLogs        = "meal_logs"
	TableWorkoutLogs     = "workout_logs"
	TableTrainingPlans   = "training_plan_versions"
	TableNutritionPlans  = "nutrition_plan_versions"
	TableGoals           = "goals"
	TableUserProfiles    = "user_profiles"
	TableUserContext     = "user_context"
	TableChangeEvents    = "change_events"
	TableUsers           = "users"
	TableCoachKnowledge  = "coach_knowledge"
)

// Change event types recorded alongside agent writes.
const (
	EventWeightLog          = "WEIGHT_LOG"
	EventTrainingPlanSaved  = "TRAINING_PLAN_SAVED"
	EventNutritionPlanSaved = "NUTRITION_PLAN_SAVED"
)
