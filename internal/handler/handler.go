package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ccpp/planner-service/internal/models"
	"github.com/ccpp/planner-service/internal/planner"
	"github.com/ccpp/planner-service/internal/repository"
	"github.com/ccpp/planner-service/internal/service"
	"github.com/gorilla/mux"
)

// Error codes surfaced to API clients.
const (
	codeValidationError     = "VALIDATION_ERROR"
	codeNotFound            = "NOT_FOUND"
	codeUnauthorized        = "UNAUTHORIZED"
	codeConstraintViolation = "SOLVER_CONSTRAINT_VIOLATION"
	codeSolverTimeout       = "SOLVER_TIMEOUT"
	codeSolverError         = "SOLVER_ERROR"
	codeInternalError       = "INTERNAL_ERROR"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":      code,
			"message":   message,
			"details":   details,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, codeValidationError,
			"Username, email, and a password of at least 8 characters are required.", nil)
		return
	}

	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to register user.", nil)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}

	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid credentials.", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type cardRequest struct {
	Name                    string  `json:"name"`
	Issuer                  *string `json:"issuer"`
	CurrentBalanceCents     int64   `json:"currentBalanceCents"`
	CreditLimitCents        *int64  `json:"creditLimitCents"`
	APRBps                  *int64  `json:"aprBps"`
	MinimumDueCents         *int64  `json:"minimumDueCents"`
	DueDateDay              *int    `json:"dueDateDay"`
	StatementCloseDay       *int    `json:"statementCloseDay"`
	ExcludeFromOptimization bool    `json:"excludeFromOptimization"`
}

func (req *cardRequest) validate() string {
	if req.Name == "" || len(req.Name) > 50 {
		return "Card name is required and must be at most 50 characters."
	}
	if req.CurrentBalanceCents < 0 {
		return "Current balance must be non-negative."
	}
	if req.CreditLimitCents != nil && *req.CreditLimitCents <= 0 {
		return "Credit limit must be positive when provided."
	}
	if req.APRBps != nil && (*req.APRBps < 0 || *req.APRBps > 9999) {
		return "APR must be between 0 and 9999 basis points."
	}
	if req.MinimumDueCents != nil && *req.MinimumDueCents < 0 {
		return "Minimum due must be non-negative."
	}
	if req.DueDateDay != nil && (*req.DueDateDay < 1 || *req.DueDateDay > 31) {
		return "Due date day must be between 1 and 31."
	}
	if req.StatementCloseDay != nil && (*req.StatementCloseDay < 1 || *req.StatementCloseDay > 31) {
		return "Statement close day must be between 1 and 31."
	}
	return ""
}

func (req *cardRequest) toModel() *models.Card {
	return &models.Card{
		Name:                    req.Name,
		Issuer:                  req.Issuer,
		CurrentBalanceCents:     req.CurrentBalanceCents,
		CreditLimitCents:        req.CreditLimitCents,
		APRBps:                  req.APRBps,
		MinimumDueCents:         req.MinimumDueCents,
		DueDateDay:              req.DueDateDay,
		StatementCloseDay:       req.StatementCloseDay,
		ExcludeFromOptimization: req.ExcludeFromOptimization,
	}
}

// ListCards returns the authenticated user's cards
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListCards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to list cards.", nil)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// CreateCard stores a new card
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, codeValidationError, msg, nil)
		return
	}

	card := req.toModel()
	if err := h.svc.CreateCard(r.Context(), card); err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to create card.", nil)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard replaces a card's stored fields
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, codeValidationError, msg, nil)
		return
	}

	card := req.toModel()
	card.ID = mux.Vars(r)["id"]
	err := h.svc.UpdateCard(r.Context(), card)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Card not found.", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to update card.", nil)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteCard(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Card not found.", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to delete card.", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generatePlanRequest struct {
	AvailableCashCents int64  `json:"availableCashCents"`
	Strategy           string `json:"strategy"`
}

// GeneratePlan runs the allocation engine over the user's active cards and
// persists the snapshot
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}
	if req.AvailableCashCents < 0 {
		writeError(w, http.StatusBadRequest, codeValidationError, "Available cash must be non-negative.", nil)
		return
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError,
			"Strategy must be one of snowball, avalanche, utilization.", nil)
		return
	}

	result, err := h.svc.GeneratePlan(r.Context(), req.AvailableCashCents, strategy)
	if err != nil {
		var violation *planner.ConstraintViolation
		switch {
		case errors.As(err, &violation):
			writeError(w, http.StatusBadRequest, codeConstraintViolation, violation.Error(), violation)
		case errors.Is(err, service.ErrSolverTimeout):
			writeError(w, http.StatusGatewayTimeout, codeSolverTimeout, "Plan generation timed out.",
				map[string]string{"suggestion": "Try reducing the number of cards or simplifying constraints."})
		default:
			writeError(w, http.StatusInternalServerError, codeSolverError, "Failed to generate plan.", nil)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// LatestPlan returns the user's most recent plan
func (h *Handler) LatestPlan(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LatestPlan(r.Context())
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Plan not found.", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to load plan.", nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MarkActionPaid stamps a plan action as paid on the stored snapshot
func (h *Handler) MarkActionPaid(w http.ResponseWriter, r *http.Request) {
	actionIndex, err := strconv.Atoi(mux.Vars(r)["actionId"])
	if err != nil || actionIndex < 0 {
		writeError(w, http.StatusBadRequest, codeValidationError, "Action ID must be a non-negative integer.", nil)
		return
	}

	result, err := h.svc.MarkActionPaid(r.Context(), actionIndex)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "Plan action not found.", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to mark action paid.", nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPreferences returns the user's saved plan preferences
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.svc.GetPreferences(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to load preferences.", nil)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type preferencesRequest struct {
	Strategy           string `json:"strategy"`
	AvailableCashCents int64  `json:"availableCashCents"`
}

// SavePreferences stores the user's plan preferences
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "Invalid request body.", nil)
		return
	}
	if req.AvailableCashCents < 0 {
		writeError(w, http.StatusBadRequest, codeValidationError, "Available cash must be non-negative.", nil)
		return
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError,
			"Strategy must be one of snowball, avalanche, utilization.", nil)
		return
	}

	prefs, err := h.svc.SavePreferences(r.Context(), strategy, req.AvailableCashCents)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to save preferences.", nil)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
