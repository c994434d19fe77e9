package coach

import (
	"fmt"
	"strings"
	"time"

	"mentorio/pkg/agent"
	"mentorio/pkg/config"
	"mentorio/pkg/tools"
)

// BuildCoach assembles the master coach agent: six delegate tools backed by
// the specialist agents plus a direct stats lookup. subRunner drives the
// sub-agent loops (typically bound to the cheaper utility model).
func BuildCoach(st Backend, subRunner *agent.Runner, sysCfg *config.SystemConfig) *agent.Agent {
	subs := BuildSubAgents(st)
	timeout := time.Duration(sysCfg.DelegateTimeoutMs) * time.Millisecond

	return &agent.Agent{
		Name:             "Coach Majen",
		InstructionsFunc: buildInstructions,
		Tools: tools.NewRegistry(
			&DelegateTool{
				ToolName:    "delegate_body_tracking",
				ToolDesc:    "Log weight or get weight history. Send a clear task description.",
				TaskExample: "E.g. 'Logg vekt 82 kg for i dag' or 'Hent vekthistorikk siste 14 dager'.",
				Sub:         subs.BodyTracker,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&DelegateTool{
				ToolName:    "delegate_nutrition",
				ToolDesc:    "Log meals, get today's nutrition, or save a nutrition plan. Send a clear task description.",
				TaskExample: "E.g. 'Logg frokost: 2 egg og havregrøt, ca 400 kcal, 30g protein, 40g karbs, 15g fett' or 'Lagre kostholdsplan: 2800 kcal, 180g protein, 310g karbs, 85g fett'.",
				Sub:         subs.Nutrition,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&DelegateTool{
				ToolName:    "delegate_training_plan",
				ToolDesc:    "Save or retrieve a training plan. Include ALL plan details in the task.",
				TaskExample: "Complete plan to save including all days and exercises in detail, e.g. 'Lagre treningsplan med 5 dager: Mandag=Bryst(Benkpress 4x6-8, Skrå hantelpress 3x8-10), ...'.",
				Sub:         subs.TrainingPlanner,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&DelegateTool{
				ToolName:    "delegate_workout_log",
				ToolDesc:    "Log a completed workout session. Include description and exercises.",
				TaskExample: "E.g. 'Logg trening for i dag: Bryst og triceps, 60 min'.",
				Sub:         subs.WorkoutLogger,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&DelegateTool{
				ToolName:    "delegate_goals",
				ToolDesc:    "Save or update the user's fitness goals.",
				TaskExample: "E.g. 'Lagre mål: 80kg kroppsvekt innen 12 uker, benkpress 100kg'.",
				Sub:         subs.Goals,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&DelegateTool{
				ToolName:    "delegate_profile",
				ToolDesc:    "Update user profile or remember important facts about the user.",
				TaskExample: "E.g. 'Husk at brukeren har skulderproblemer høyre side' or 'Oppdater profil: trener 5 dager i uken'.",
				Sub:         subs.Profile,
				Runner:      subRunner,
				Timeout:     timeout,
			},
			&tools.UserStatsTool{Store: st},
		),
	}
}

// buildInstructions renders the coach's system prompt with the user's data,
// remembered facts and the mentor persona.
func buildInstructions(rc *agent.RunContext) string {
	if rc == nil {
		rc = &agent.RunContext{MentorName: "Coach Majen"}
	}

	userName := rc.UserName
	if userName == "" {
		userName = "brukeren"
	}

	var userInfoBlock string
	if rc.OnboardingSummary != "" {
		userInfoBlock = fmt.Sprintf("\n\n## BRUKERENS DATA (fra onboarding og profil)\n%s\n", rc.OnboardingSummary)
	}

	var memoryBlock string
	if rc.MemorySummary != "" {
		memoryBlock = fmt.Sprintf("\n\n## TING JEG HUSKER OM DENNE BRUKEREN\n%s\n", rc.MemorySummary)
	}

	var personality string
	if rc.VoiceTone != "" || rc.TrainingPhilosophy != "" || rc.NutritionPhilosophy != "" || rc.CoreInstructions != "" {
		var lines []string
		if rc.VoiceTone != "" {
			lines = append(lines, "Tone: "+rc.VoiceTone)
		}
		if rc.TrainingPhilosophy != "" {
			lines = append(lines, "Treningsfilosofi: "+rc.TrainingPhilosophy)
		}
		if rc.NutritionPhilosophy != "" {
			lines = append(lines, "Ernæringsfilosofi: "+rc.NutritionPhilosophy)
		}
		if rc.CoreInstructions != "" {
			lines = append(lines, "Spesielle instruksjoner: "+rc.CoreInstructions)
		}
		personality = fmt.Sprintf("\n\n## MIN PERSONLIGHET OG FILOSOFI\n%s\n", strings.Join(lines, "\n"))
	}

	return fmt.Sprintf(`Du er %s, en profesjonell og varm online fitness-coach på Mentorio-plattformen.
Brukeren heter %s.

# KJERNEREGLER

1. **ALLTID snakk norsk** (bokmål). Aldri svar på engelsk med mindre brukeren eksplisitt ber om det.
2. **Vær varm, motiverende og personlig**. Bruk brukerens navn, vær entusiastisk men profesjonell.
3. **Ikke spør om informasjon du allerede har**. Se "BRUKERENS DATA" under. Bruk den informasjonen direkte.
4. **Vær handlingsorientert**. Når brukeren ber om en plan: LAG planen med en gang basert på data du har. Ikke still unødvendige spørsmål.
5. **Bruk verktøyene dine ALLTID** når du gjør noe konkret (logge vekt, lagre plan, etc.). ALDRI si "jeg har lagret" uten å faktisk kalle et verktøy.
%s%s%s# VERKTØY — DELEGER TIL SPESIALISERTE AGENTER

Du har tilgang til følgende verktøy for å utføre handlinger:

- **delegate_body_tracking**: Logg vekt, hent vekthistorikk
- **delegate_nutrition**: Logg måltider, hent dagens ernæring, lagre kostholdsplan
- **delegate_training_plan**: Lagre eller hent treningsplan
- **delegate_workout_log**: Logg fullført trening
- **delegate_goals**: Lagre eller oppdater mål
- **delegate_profile**: Oppdater profil, husk viktige fakta
- **get_user_stats**: Hent all brukerdata (vekt, mål, planer, etc.)

# OBLIGATORISK VERKTØYBRUK

Når noe av dette skjer, MÅ du kalle riktig verktøy:
- Bruker nevner vekt (f.eks. "veier 82 kg") → delegate_body_tracking("Logg vekt 82 kg for i dag")
- Bruker nevner et måltid → delegate_nutrition("Logg [beskrivelse med estimerte makroer]")
- Bruker godkjenner en plan → delegate_training_plan("Lagre treningsplan: [hele planen som JSON-kompatibel tekst]")
- Bruker vil ha en kostholdsplan lagret → delegate_nutrition("Lagre kostholdsplan: [detaljer]")
- Bruker nevner skade/allergi → delegate_profile("Husk at brukeren [detalje]")
- Du trenger oppdatert data → get_user_stats

# SAMTALEOPPSTART (første melding til ny bruker)

Når du møter en bruker for første gang:
1. Hent data med get_user_stats
2. Oppsummer det du vet om brukeren (fra onboarding-data + profil)
3. Forklar kort hva du kan hjelpe med
4. Spør om det er noe du mangler, eller om de vil starte med en plan
5. Vær KONKRET om neste steg

# NÅR BRUKEREN BER OM EN PLAN

1. IKKE spør om info du allerede har (treningsdager, mål, utstyr — sjekk brukerdata!)
2. LAG planen UMIDDELBART basert på det du vet
3. Presenter planen i et ryddig format
4. Spør: "Skal jeg lagre denne i Student Senteret ditt?"
5. Når brukeren sier ja/lagre/godkjent: KALL delegate_training_plan/delegate_nutrition MED HELE PLANEN

# KRITISK: NÅR BRUKEREN GODKJENNER

Når brukeren sier "ja", "lagre", "godkjent", "ser bra ut", "kjør på" eller lignende
etter at du har presentert en plan:

→ Du HUSKER planen du nettopp presenterte
→ Du KALLER verktøyet UMIDDELBART med KOMPLETT plandata
→ Du bekrefter at den er lagret og hvor brukeren finner den
→ ALDRI spør "hvilken plan?" eller "kan du gjenta?" — du VET dette
`, rc.MentorName, userName, userInfoBlock, memoryBlock, personality)
}
