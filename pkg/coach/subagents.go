package coach

import (
	"mentorio/pkg/agent"
	"mentorio/pkg/tools"
)

// Backend is everything the coach system needs from the store. *store.Store
// satisfies it; tests substitute fakes.
type Backend interface {
	tools.WeightStore
	tools.MealStore
	tools.TrainingStore
	tools.WorkoutStore
	tools.GoalStore
	tools.ProfileStore
	tools.StatsStore
	ContextStore
}

// SubAgents holds the six specialist agents the coach delegates to.
type SubAgents struct {
	BodyTracker     *agent.Agent
	Nutrition       *agent.Agent
	TrainingPlanner *agent.Agent
	WorkoutLogger   *agent.Agent
	Goals           *agent.Agent
	Profile         *agent.Agent
}

// BuildSubAgents wires the persistence tools into the specialist agents.
// Each agent gets only the tools for its domain and terse Norwegian
// instructions that force tool use over claimed action.
func BuildSubAgents(st Backend) *SubAgents {
	return &SubAgents{
		BodyTracker: &agent.Agent{
			Name: "Body Tracker Agent",
			Instructions: "Du er en spesialisert agent for vekt- og kroppslogging. " +
				"Du logger vekt, henter vekthistorikk, og analyserer trender. " +
				"Bruk alltid verktøyene du har tilgjengelig. ALDRI si at du har gjort noe uten å kalle verktøyet. " +
				"Svar kort og presist med hva du gjorde.",
			Tools: tools.NewRegistry(
				&tools.LogWeightTool{Store: st},
				&tools.WeightHistoryTool{Store: st},
			),
		},
		Nutrition: &agent.Agent{
			Name: "Nutrition Agent",
			Instructions: "Du er en spesialisert ernæringsagent. Du logger måltider, henter dagens ernæring, " +
				"og lager kostholdsplaner. Når du lager en kostholdsplan, bruk save_nutrition_plan med " +
				"ALLE detaljer (kcal, protein, karbs, fett). " +
				"Bruk alltid verktøyene. ALDRI si at du har gjort noe uten å kalle verktøyet. " +
				"Svar kort med hva du gjorde og resultatet.",
			Tools: tools.NewRegistry(
				&tools.LogMealTool{Store: st},
				&tools.TodayNutritionTool{Store: st},
				&tools.SaveNutritionPlanTool{Store: st},
			),
		},
		TrainingPlanner: &agent.Agent{
			Name: "Training Planner Agent",
			Instructions: "Du er en spesialisert treningsplanlegger. Du lager treningsplaner og lagrer dem " +
				"i Student Senteret. Når du mottar en plan å lagre, bruk save_training_plan med " +
				"komplett days_json som inneholder ALLE dager og øvelser. " +
				"ALDRI si at du har lagret noe uten å faktisk kalle save_training_plan. " +
				"Svar kort med hva du gjorde.",
			Tools: tools.NewRegistry(
				&tools.SaveTrainingPlanTool{Store: st},
				&tools.CurrentTrainingPlanTool{Store: st},
			),
		},
		WorkoutLogger: &agent.Agent{
			Name: "Workout Logger Agent",
			Instructions: "Du er en spesialisert agent for treningslogging. Du logger fullførte treningsøkter. " +
				"Bruk alltid log_workout verktøyet. Svar kort med bekreftelse.",
			Tools: tools.NewRegistry(
				&tools.LogWorkoutTool{Store: st},
			),
		},
		Goals: &agent.Agent{
			Name: "Goals Agent",
			Instructions: "Du er en spesialisert agent for mål-setting. Du lagrer og oppdaterer brukerens " +
				"fitness-mål. Bruk alltid save_goal verktøyet. Svar kort med bekreftelse.",
			Tools: tools.NewRegistry(
				&tools.SaveGoalTool{Store: st},
			),
		},
		Profile: &agent.Agent{
			Name: "Profile & Memory Agent",
			Instructions: "Du er en spesialisert agent for profil- og minnehåndtering. " +
				"Du oppdaterer brukerens profil og husker viktige fakta om dem. " +
				"Bruk remember_fact for ting som skader, allergier, preferanser. " +
				"Bruk update_profile for profildata. Svar kort med bekreftelse.",
			Tools: tools.NewRegistry(
				&tools.RememberFactTool{Store: st},
				&tools.UpdateProfileTool{Store: st},
			),
		},
	}
}
