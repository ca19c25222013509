/*
handlers.go - HTTP API handlers for the hydration ledger

PURPOSE:
  Exposes the ledger and query layer via REST API. Handles HTTP
  request/response and JSON serialization, and delegates to hydration.

ENDPOINTS:
  Caller (identity required):
    POST   /api/me/register             Register with a daily goal
    POST   /api/me/intake               Log a drink
    PUT    /api/me/goal                 Change the daily goal
    GET    /api/me/stats                Current stats
    GET    /api/me/history?day=...      Intake for specific days (max 30)
    GET    /api/me/history/recent?days= Intake for the last N days (default 7)

  Public:
    GET    /api/stats                   Global counters
    GET    /healthz                     Liveness

  Admin (dev only, RouterConfig.EnableAdmin):
    POST   /api/admin/reset             Clear every record

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid goal, amount, day key, too many dates, malformed body
  - 401: No caller identity
  - 404: Caller not registered
  - 409: Already registered, clock went backwards
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - identity.go: Caller resolution
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/hydration"
	"github.com/warp/hydration-engine/logging"
)

// DefaultRecentDays is used when /history/recent has no days parameter.
const DefaultRecentDays = 7

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Resetter is implemented by stores that can be wiped.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *hydration.Ledger
	Query  *hydration.Query

	// Health is checked by /healthz when set.
	Health Pinger

	// Store backs /api/admin/reset when admin routes are enabled.
	Store Resetter

	logger *logging.Logger
}

func NewHandler(ledger *hydration.Ledger, query *hydration.Query, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		Ledger: ledger,
		Query:  query,
		logger: logger.WithComponent("api"),
	}
}

// =============================================================================
// CALLER HANDLERS
// =============================================================================

// Register creates the caller's record.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account := accountFrom(r.Context())
	if err := h.Ledger.Register(r.Context(), account, generic.Milliliters(req.DailyGoal)); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeStats(w, r, http.StatusCreated, account)
}

// LogIntake records a drink for the caller and returns updated stats.
func (h *Handler) LogIntake(w http.ResponseWriter, r *http.Request) {
	var req LogIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account := accountFrom(r.Context())
	if err := h.Ledger.LogIntake(r.Context(), account, generic.Milliliters(req.Amount)); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeStats(w, r, http.StatusOK, account)
}

// UpdateGoal changes the caller's daily goal.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account := accountFrom(r.Context())
	if err := h.Ledger.UpdateGoal(r.Context(), account, generic.Milliliters(req.DailyGoal)); err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeStats(w, r, http.StatusOK, account)
}

// GetStats returns the caller's stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.writeStats(w, r, http.StatusOK, accountFrom(r.Context()))
}

// GetHistory returns intake for the requested days, in request order.
// Days are given as repeated or comma-separated "day" parameters.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	var days []generic.DayKey
	for _, param := range r.URL.Query()["day"] {
		for _, raw := range strings.Split(param, ",") {
			if raw = strings.TrimSpace(raw); raw == "" {
				continue
			}
			day, err := generic.ParseDayKey(raw)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			days = append(days, day)
		}
	}

	amounts, err := h.Query.GetHistoricalIntake(r.Context(), accountFrom(r.Context()), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryDTO(days, amounts))
}

// GetRecentHistory returns the last N days, oldest first.
func (h *Handler) GetRecentHistory(w http.ResponseWriter, r *http.Request) {
	n := DefaultRecentDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
			return
		}
		n = parsed
	}

	recent, err := h.Query.GetRecentIntake(r.Context(), accountFrom(r.Context()), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecentDTO(recent))
}

// =============================================================================
// PUBLIC HANDLERS
// =============================================================================

// GetGlobalStats returns the shared counters.
func (h *Handler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Query.GetGlobalStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGlobalStatsDTO(stats))
}

// Healthz reports liveness, and store reachability when Health is set.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.Ping(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.logger.WarnContext(r.Context(), "database reset")
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeStats(w http.ResponseWriter, r *http.Request, status int, account generic.AccountID) {
	stats, err := h.Query.GetUserStats(r.Context(), account)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, toStatsDTO(stats))
}

// fail maps a ledger error to its HTTP status. Unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) (int, string) {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest, "Invalid request"
	case generic.IsNotFound(err):
		return http.StatusNotFound, "Account not registered"
	case generic.IsConflict(err):
		if errors.Is(err, generic.ErrClockRegression) {
			return http.StatusConflict, "Clock moved backwards"
		}
		return http.StatusConflict, "Account already registered"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
