package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "82", FormatKg(82))
	assert.Equal(t, "82.5", FormatKg(82.5))
	assert.Equal(t, "81.65", FormatKg(81.65))
}

func TestTodayAndNowISO(t *testing.T) {
	today := Today()
	_, err := time.Parse("2006-01-02", today)
	require.NoError(t, err)

	now := NowISO()
	parsed, err := time.Parse(time.RFC3339, now)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}

func TestUserDisplayName(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","firstName":"Ola","username":"ola92"}`), &u))
	assert.Equal(t, "Ola", u.DisplayName())

	u = User{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","first_name":"Kari","username":"kari88"}`), &u))
	assert.Equal(t, "Kari", u.DisplayName())

	u = User{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","username":"bruker3"}`), &u))
	assert.Equal(t, "bruker3", u.DisplayName())
}

func TestMacroTotalsAdd(t *testing.T) {
	var totals MacroTotals
	totals.Add(MealLog{TotalCalories: 600, TotalProteinG: 40, TotalCarbsG: 55, TotalFatG: 20})
	totals.Add(MealLog{TotalCalories: 400, TotalProteinG: 35, TotalCarbsG: 30, TotalFatG: 12})

	assert.Equal(t, 1000.0, totals.Calories)
	assert.Equal(t, 75.0, totals.Protein)
	assert.Equal(t, 85.0, totals.Carbs)
	assert.Equal(t, 32.0, totals.Fat)
}
