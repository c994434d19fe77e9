package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"mentorio/pkg/coach"
	"mentorio/pkg/store"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ChatService is the coach orchestration surface the handler depends on.
type ChatService interface {
	Chat(ctx context.Context, userID, mentorID, message string, history []coach.Turn) (*coach.ChatResult, error)
	AgentName() string
}

// PlanStore serves the debug plan listings.
type PlanStore interface {
	RecentTrainingPlans(ctx context.Context, userID string, limit int) ([]store.TrainingPlan, error)
	RecentNutritionPlans(ctx context.Context, userID string, limit int) ([]store.NutritionPlan, error)
	RecentPlansAllUsers(ctx context.Context, limit int) ([]store.TrainingPlan, error)
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	UserID              string       `json:"user_id"`
	MentorID            string       `json:"mentor_id"`
	Message             string       `json:"message"`
	ConversationHistory []coach.Turn `json:"conversation_history"`
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	Response         string   `json:"response"`
	AgentName        string   `json:"agent_name"`
	ToolsCalled      []string `json:"tools_called"`
	ProcessingMs     int64    `json:"processing_ms"`
	GuardrailBlocked bool     `json:"guardrail_blocked"`
	BlockedReason    string   `json:"blocked_reason,omitempty"`
}

// Handler exposes the coach over HTTP.
type Handler struct {
	svc   ChatService
	plans PlanStore
}

// NewHandler creates the HTTP handler. plans may be nil to disable the
// debug endpoints.
func NewHandler(svc ChatService, plans PlanStore) *Handler {
	return &Handler{svc: svc, plans: plans}
}

// RegisterRoutes mounts the handler's routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/health", h.handleHealth)
	if h.plans != nil {
		r.Get("/debug/plans/{userID}", h.handleDebugPlans)
		r.Get("/debug/recent-plans", h.handleRecentPlans)
	}
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.UserID == "" || req.MentorID == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "user_id, mentor_id and message are required")
		return
	}

	result, err := h.svc.Chat(r.Context(), req.UserID, req.MentorID, req.Message, req.ConversationHistory)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chat failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Agent error: "+truncate(err.Error(), 200))
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:         result.Response,
		AgentName:        result.AgentName,
		ToolsCalled:      result.ToolsCalled,
		ProcessingMs:     result.ProcessingMs,
		GuardrailBlocked: result.GuardrailBlocked,
		BlockedReason:    result.BlockedReason,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"agent":        h.svc.AgentName(),
		"architecture": "agents-as-tools",
	})
}

// handleDebugPlans lists a user's newest stored plan versions. Debug only.
func (h *Handler) handleDebugPlans(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	tp, err := h.plans.RecentTrainingPlans(r.Context(), userID, 3)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error(), "user_id": userID})
		return
	}
	np, err := h.plans.RecentNutritionPlans(r.Context(), userID, 3)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error(), "user_id": userID})
		return
	}

	if tp == nil {
		tp = []store.TrainingPlan{}
	}
	if np == nil {
		np = []store.NutritionPlan{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":              userID,
		"training_plans":       tp,
		"training_plan_count":  len(tp),
		"nutrition_plans":      np,
		"nutrition_plan_count": len(np),
	})
}

// handleRecentPlans lists the newest saved training plans across all users.
// Debug only.
func (h *Handler) handleRecentPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.RecentPlansAllUsers(r.Context(), 10)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}
	if plans == nil {
		plans = []store.TrainingPlan{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recent_plans": plans,
		"count":        len(plans),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
