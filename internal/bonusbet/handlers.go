package bonusbet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Vodeneev/bonusbet/internal/pkg/oddsapi"
	"github.com/Vodeneev/bonusbet/internal/pkg/performance"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	engine       *Engine
	tracker      *performance.Tracker
	catalogStats func() oddsapi.Stats
}

// NewHandler creates a new handler. catalogStats may be nil.
func NewHandler(engine *Engine, tracker *performance.Tracker, catalogStats func() oddsapi.Stats) *Handler {
	if tracker == nil {
		tracker = performance.GetTracker()
	}
	return &Handler{engine: engine, tracker: tracker, catalogStats: catalogStats}
}

// Routes registers the service endpoints onto r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", h.Ping)
	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/bookmakers", h.ListBookmakers)
		r.Post("/search", h.Search)
		r.Post("/search/immediate", h.SearchImmediate)
		r.Get("/queue", h.Queue)
		r.Get("/queue/{userID}", h.UserQueue)
	})
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      "bonusbet",
		"queue_length": h.engine.QueueLen(),
	})
}

// stakeValue accepts a JSON number or a string such as "$1,250".
type stakeValue float64

func (s *stakeValue) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := ParseStake(raw)
	if err != nil {
		return err
	}
	*s = stakeValue(v)
	return nil
}

// SearchRequestBody is the payload of the search endpoints.
type SearchRequestBody struct {
	UserID    int64      `json:"user_id"`
	Bookmaker string     `json:"bookmaker"`
	Stake     stakeValue `json:"stake"`
	Mode      string     `json:"mode"`
}

const maxRequestBody = 1 << 20

func decodeSearch(w http.ResponseWriter, r *http.Request) (SearchRequestBody, Mode, error) {
	var body SearchRequestBody
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, "", fmt.Errorf("invalid request: %w", err)
	}
	if body.Mode == "" {
		body.Mode = string(ModeBest)
	}
	mode, err := ParseMode(body.Mode)
	if err != nil {
		return body, "", err
	}
	return body, mode, nil
}

// Search finds an opportunity now or queues the search for the worker.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	body, mode, err := decodeSearch(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.UserID == 0 {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := h.engine.Submit(r.Context(), body.UserID, body.Bookmaker, float64(body.Stake), mode)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if res.Recommendation != nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":         "found",
			"recommendation": res.Recommendation,
		})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"status":       "queued",
		"request":      res.Queued,
		"queue_length": h.engine.QueueLen(),
	})
}

// SearchImmediate runs one scan without queueing.
func (h *Handler) SearchImmediate(w http.ResponseWriter, r *http.Request) {
	body, mode, err := decodeSearch(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.engine.FindImmediate(r.Context(), body.Bookmaker, float64(body.Stake), mode)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if rec == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"status": "none"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "found",
		"recommendation": rec,
	})
}

func (h *Handler) ListBookmakers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"bookmakers": h.engine.Bookmakers().List(),
	})
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	pending := h.engine.Pending()
	respondJSON(w, http.StatusOK, map[string]any{
		"length":  len(pending),
		"pending": pending,
	})
}

func (h *Handler) UserQueue(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	requests := h.engine.PendingForUser(userID)
	if requests == nil {
		requests = []SearchRequest{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"requests": requests,
	})
}

// Metrics returns worker and odds client statistics
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"worker":       h.tracker.GetMetrics(),
		"queue_length": h.engine.QueueLen(),
	}
	if h.catalogStats != nil {
		resp["odds_api"] = h.catalogStats()
	}
	respondJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidStake), errors.Is(err, ErrInvalidMode), errors.Is(err, ErrUnknownBookmaker):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
