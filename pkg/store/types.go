package store

// WeightEntry is one body-weight measurement, unique per (user_id, date).
type WeightEntry struct {
	Date string  `json:"date"`
	Kg   float64 `json:"kg"`
}

// MealLog is one logged meal with estimated macros.
type MealLog struct {
	Date          string  `json:"date"`
	MealType      string  `json:"meal_type"`
	Description   string  `json:"description"`
	TotalCalories float64 `json:"total_calories"`
	TotalProteinG float64 `json:"total_protein_g"`
	TotalCarbsG   float64 `json:"total_carbs_g"`
	TotalFatG     float64 `json:"total_fat_g"`
}

// MacroTotals accumulates the macro columns over a set of meals.
type MacroTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add accumulates one meal into the totals.
func (t *MacroTotals) Add(m MealLog) {
	t.Calories += m.TotalCalories
	t.Protein += m.TotalProteinG
	t.Carbs += m.TotalCarbsG
	t.Fat += m.TotalFatG
}

// TrainingPlan is one versioned training plan row.
type TrainingPlan struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id"`
	Version   int    `json:"version"`
	Days      []any  `json:"days"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// NutritionPlan is one versioned nutrition plan row.
type NutritionPlan struct {
	ID            string `json:"id,omitempty"`
	UserID        string `json:"user_id"`
	Version       int    `json:"version"`
	Kcal          int    `json:"kcal"`
	ProteinGrams  int    `json:"protein_grams"`
	CarbsGrams    int    `json:"carbs_grams"`
	FatGrams      int    `json:"fat_grams"`
	Notes         string `json:"notes,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// Goal is the user's current fitness goal row.
type Goal struct {
	Version         int      `json:"version"`
	IsCurrent       bool     `json:"is_current"`
	TargetWeightKg  *float64 `json:"target_weight_kg,omitempty"`
	StrengthTargets string   `json:"strength_targets,omitempty"`
	HorizonWeeks    *int     `json:"horizon_weeks,omitempty"`
}

// KeyValue is a generic key/value row (user_context, coach_knowledge).
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// User is the subset of the users table this service reads. The first name
// column is camelCase in some deployments and snake_case in others, so both
// spellings are decoded.
type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	FirstNameAlt string `json:"first_name"`
	Username     string `json:"username"`
}

// DisplayName resolves the name shown to the model: firstName, then
// first_name, then the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.FirstNameAlt != "":
		return u.FirstNameAlt
	}
	return u.Username
}
