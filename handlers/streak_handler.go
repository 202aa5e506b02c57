package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trainingCoachAPI/internal/logger"
	"trainingCoachAPI/internal/types/activity"
	"trainingCoachAPI/internal/types/streak"
	"trainingCoachAPI/middleware"
	"trainingCoachAPI/services"
	"trainingCoachAPI/utils"

	"github.com/google/uuid"
)

type StreakHandler struct {
	streakService *services.StreakService
	loggedSource  services.ActivityHistorySource
	logger        *logger.Logger
}

// NewStreakHandler wires the streak endpoints. loggedSource may be nil, in
// which case resync only uses the history sent in the request.
func NewStreakHandler(streakService *services.StreakService, loggedSource services.ActivityHistorySource, log *logger.Logger) *StreakHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StreakHandler{
		streakService: streakService,
		loggedSource:  loggedSource,
		logger:        log.With("component", "streak_handler"),
	}
}

func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authenticatedUser(ctx, w)
	if !ok {
		return
	}

	today, err := utils.ParseLocalDate(r.URL.Query().Get("today"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'today' must be a YYYY-MM-DD date")
		return
	}

	status, err := h.streakService.GetStreakStatus(ctx, userID, today)
	if err != nil {
		h.logger.Error("get streak failed", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load streak")
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

func (h *StreakHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	h.recordDay(w, r, streak.EventActivity)
}

func (h *StreakHandler) RecordRestCheckIn(w http.ResponseWriter, r *http.Request) {
	h.recordDay(w, r, streak.EventRestCheckIn)
}

func (h *StreakHandler) recordDay(w http.ResponseWriter, r *http.Request, eventType streak.EventType) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.authenticatedUser(ctx, w)
	if !ok {
		return
	}

	var req streak.RecordDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date, err := utils.ParseLocalDate(req.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Field 'date' must be a YYYY-MM-DD date")
		return
	}

	var record *streak.UserStreakRecord
	if eventType == streak.EventRestCheckIn {
		record, err = h.streakService.RecordRestCheckIn(ctx, userID, date)
	} else {
		record, err = h.streakService.RecordActivityDay(ctx, userID, date)
	}
	if err != nil {
		h.logger.Error("record day failed", "user_id", userID, "type", eventType, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to record day")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *StreakHandler) ResyncHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := h.authenticatedUser(ctx, w)
	if !ok {
		return
	}

	var req streak.ResyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	today, err := utils.ParseLocalDate(req.Today)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Field 'today' must be a YYYY-MM-DD date")
		return
	}

	provided := make(services.StaticActivitySource, 0, len(req.History))
	for _, entry := range req.History {
		date, err := utils.ParseLocalDate(entry.Date)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "History dates must be YYYY-MM-DD")
			return
		}
		source := entry.Source
		if source == "" {
			source = activity.SourceProvider
		}
		provided = append(provided, activity.ActivityHistoryEntry{Date: date, Source: source})
	}

	sources := []services.ActivityHistorySource{provided}
	if req.IncludeLogged && h.loggedSource != nil {
		sources = append(sources, h.loggedSource)
	}

	record, err := h.streakService.ResyncFromSources(ctx, userID, today, sources...)
	if err != nil {
		h.logger.Error("resync failed", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resync streak")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

func (h *StreakHandler) authenticatedUser(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	userID, err := h.streakService.ResolveUserID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return uuid.Nil, false
		}
		h.logger.Error("resolve user failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
		return uuid.Nil, false
	}
	return userID, true
}
