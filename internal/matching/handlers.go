package matching

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/imadgeboyega/kiekky-weekly/internal/common/utils"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	promptKey := mux.Vars(r)["promptKey"]

	opts := GenerateOptions{}
	if v := r.URL.Query().Get("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid dry_run value")
			return
		}
		opts.DryRun = dry
	}

	report, err := h.service.Generate(r.Context(), promptKey, opts)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to generate matches")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, newGenerateResponse(report))
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Validate(r.Context(), mux.Vars(r)["promptKey"])
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to validate matches")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetPromptStats(r.Context(), mux.Vars(r)["promptKey"])
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to get stats")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetMatchRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	record, err := h.service.GetMatchRecord(r.Context(), vars["userId"], vars["promptKey"])
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to get match record")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, record)
}

func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var dto RevealRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.service.RevealMatch(r.Context(), vars["userId"], vars["promptKey"], *dto.Index)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to reveal match")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, record)
}

func (h *Handler) AddManualMatch(w http.ResponseWriter, r *http.Request) {
	promptKey := mux.Vars(r)["promptKey"]

	var dto ManualMatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.AddManualMatch(r.Context(), promptKey, dto.UserA, dto.UserB); err != nil {
		h.respondWithServiceError(w, err, "Failed to add match")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"prompt_key": promptKey,
		"user_a":     dto.UserA,
		"user_b":     dto.UserB,
	})
}

// respondWithServiceError maps engine errors to HTTP status codes. Unknown errors are logged and
// answered with fallback.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback, zap.Error(err))
		utils.RespondWithError(w, status, fallback)
		return
	}
	utils.RespondWithError(w, status, err.Error())
}

// StatusFor returns the HTTP status for an engine error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPrompt),
		errors.Is(err, ErrInvalidUserID),
		errors.Is(err, ErrSelfMatch),
		errors.Is(err, ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrRunInProgress),
		errors.Is(err, ErrAlreadyMatched),
		errors.Is(err, ErrCapacityReached):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
