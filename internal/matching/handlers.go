package matching

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/sparkvibe-backend/internal/auth"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/common/utils"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.service.AutoMatch(r.Context(), userID)
	if err != nil {
		h.respondWithServiceError(w, "auto-match", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query, err := parseExploreQuery(r.URL.Query())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateStruct(query); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ExploreNearby(r.Context(), userID, query.Params())
	if err != nil {
		h.respondWithServiceError(w, "explore", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	candidate, err := h.service.GetCompatibility(r.Context(), userID, otherID)
	if err != nil {
		h.respondWithServiceError(w, "compatibility", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, CompatibilityResponse{
		UserID:             candidate.UserID,
		CompatibilityScore: candidate.Score,
		Percentage:         int(math.Round(candidate.Score * 100)),
		Factors:            candidate.Factors,
		Reasons:            candidate.Reasons,
	})
}

func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		activeOnly = parsed
	}

	matches, err := h.service.GetMatches(r.Context(), userID, activeOnly)
	if err != nil {
		h.respondWithServiceError(w, "get matches", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, MatchesResponse{Matches: matches, Count: len(matches)})
}

func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	match, err := h.service.MarkChatStarted(r.Context(), matchID, userID)
	if err != nil {
		h.respondWithServiceError(w, "start chat", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, match)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	if err := h.service.Unmatch(r.Context(), matchID, userID); err != nil {
		h.respondWithServiceError(w, "unmatch", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Unmatched successfully"})
}

// respondWithServiceError maps known errors to statuses; anything else is
// logged and answered with the generic retry message.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrMatchNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrSelfMatch):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", "action", action, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, utils.GenericErrorMessage)
	}
}
