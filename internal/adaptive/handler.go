package adaptive

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

type Handler struct {
	orch  *Orchestrator
	store *Store
}

func NewHandler(orch *Orchestrator, store *Store) *Handler {
	return &Handler{orch: orch, store: store}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Subject == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "subject is required"})
		return
	}

	resp, err := h.orch.StartSession(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownSubject):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unknown subject"})
		case errors.Is(err, ErrChapterMismatch):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Chapter does not belong to subject"})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start session"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	sessionID, err := sessionIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return
	}
	if !h.ownsSession(w, r, userID, sessionID) {
		return
	}

	resp, err := h.orch.NextQuestion(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to select question"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	sessionID, err := sessionIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return
	}
	if !h.ownsSession(w, r, userID, sessionID) {
		return
	}

	var req models.SessionAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.ItemID == 0 || req.SelectedOptionID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "item_id and selected_option_id are required"})
		return
	}

	resp, err := h.orch.SubmitAnswer(r.Context(), sessionID, req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to process answer"})
		return
	}
	if !resp.Success {
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	sessionID, err := sessionIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return
	}
	if !h.ownsSession(w, r, userID, sessionID) {
		return
	}

	summary, err := h.orch.GetSummary(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	sessionID, err := sessionIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return
	}
	if !h.ownsSession(w, r, userID, sessionID) {
		return
	}

	if err := h.orch.ForceComplete(r.Context(), sessionID, models.EndStudentEnded); err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}

	summary, err := h.orch.GetSummary(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to build summary"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	limit := intQueryParam(r.URL.Query(), "limit", 20)
	sessions, err := h.orch.ListSessions(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list sessions"})
		return
	}
	if sessions == nil {
		sessions = []models.LearningSession{}
	}
	writeJSON(w, http.StatusOK, models.SessionListResponse{Sessions: sessions, Total: len(sessions)})
}

func (h *Handler) GetMasteryProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	skills, err := h.store.GetMasteryProfile(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load mastery profile"})
		return
	}
	if skills == nil {
		skills = []models.SkillMastery{}
	}

	trend, err := h.store.GetTrendState(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load trend state"})
		return
	}

	writeJSON(w, http.StatusOK, models.MasteryProfileResponse{
		StudentID: userID,
		Skills:    skills,
		Trend:     trend.Predictions,
	})
}

// ownsSession rejects access to another student's session. Missing sessions
// report not-found to avoid leaking which IDs exist.
func (h *Handler) ownsSession(w http.ResponseWriter, r *http.Request, userID int64, sessionID uuid.UUID) bool {
	session, err := h.orch.GetSession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return false
	}
	if session.StudentID != userID {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return false
	}
	return true
}

func sessionIDFromPath(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["sessionID"])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	if v := query.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
