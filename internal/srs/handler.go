package srs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 50)
	withQuestions := query.Get("include_questions") == "true"

	resp, err := h.service.DueCards(r.Context(), userID, limit, withQuestions)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load due cards"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	cardID, err := cardIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid card ID"})
		return
	}

	var req models.SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Quality < 0 || req.Quality > 5 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "quality must be between 0 and 5"})
		return
	}

	resp, err := h.service.SubmitReview(r.Context(), userID, cardID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ResetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	cardID, err := cardIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid card ID"})
		return
	}

	card, err := h.service.ResetCard(r.Context(), userID, cardID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) SuspendCard(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

func (h *Handler) ResumeCard(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

func (h *Handler) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	cardID, err := cardIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid card ID"})
		return
	}

	if err := h.service.SetSuspended(r.Context(), userID, cardID, suspended); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"suspended": suspended})
}

func (h *Handler) GetStageCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	counts, err := h.service.StageCounts(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load stage counts"})
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func cardIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["cardID"], 10, 64)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCardNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Card not found"})
	case errors.Is(err, ErrNotCardOwner):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Card belongs to another student"})
	case errors.Is(err, ErrCardSuspended):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Card is suspended"})
	case errors.Is(err, ErrCardBurned):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Card is burned; reset it to review again"})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
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
