package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/infra/storage"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
)

const defaultRunListLimit = 20

// HistoryHandler serves past runs: summaries and recaps from the ledger, and
// the raw event stream from the in-memory log.
type HistoryHandler struct {
	eventLog *events.EventLog
	stored   storage.EventRepository
	runs     storage.RunRepository
	recaps   *storage.Reconstructor
	logger   *logger.Logger
}

// NewHistoryHandler creates a history handler. A nil ledger disables the
// summary and recap endpoints.
func NewHistoryHandler(el *events.EventLog, ledger *storage.Ledger, log *logger.Logger) *HistoryHandler {
	h := &HistoryHandler{eventLog: el, logger: log}
	if ledger != nil {
		h.runs = ledger.Runs
		h.stored = ledger.Events
		h.recaps = storage.NewReconstructor(ledger.Events)
	}
	return h
}

// ReplayEvent is an event as shown in the history viewer.
type ReplayEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Turn      int    `json:"turn"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
}

// ReplayResponse is the API response for an event replay.
type ReplayResponse struct {
	RunID       string        `json:"run_id"`
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// RegisterRoutes sets up the history API routes.
func (hh *HistoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/runs", hh.HandleListRuns).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/runs/{id}", hh.HandleGetRun).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/runs/{id}/recap", hh.HandleRecap).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/runs/{id}/events", hh.HandleReplay).Methods(http.MethodGet, http.MethodOptions)
}

// HandleListRuns returns the most recent run summaries.
// GET /api/runs?limit=N
func (hh *HistoryHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if hh.runs == nil {
		jsonError(w, "Ledger disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultRunListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 200)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	runs, err := hh.runs.ListRecent(ctx, limit)
	if err != nil {
		hh.logger.Error("Failed to list runs: " + err.Error())
		jsonError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetRun returns one run summary.
// GET /api/runs/{id}
func (hh *HistoryHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if hh.runs == nil {
		jsonError(w, "Ledger disabled", http.StatusServiceUnavailable)
		return
	}
	runID := mux.Vars(r)["id"]

	run, err := hh.runs.GetByRunID(r.Context(), runID)
	if errors.Is(err, storage.ErrRunNotFound) {
		jsonError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		hh.logger.Error("Failed to load run " + runID + ": " + err.Error())
		jsonError(w, "Failed to load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleRecap returns the readable recap of a run.
// GET /api/runs/{id}/recap?since_turn=N
func (hh *HistoryHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if hh.recaps == nil {
		jsonError(w, "Ledger disabled", http.StatusServiceUnavailable)
		return
	}
	runID := mux.Vars(r)["id"]

	sinceTurn := 0
	if s := r.URL.Query().Get("since_turn"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			jsonError(w, "Invalid since_turn", http.StatusBadRequest)
			return
		}
		sinceTurn = n
	}

	recap, err := hh.recaps.GenerateRecap(r.Context(), runID, sinceTurn)
	if err != nil {
		hh.logger.Error("Failed to build recap for " + runID + ": " + err.Error())
		jsonError(w, "Failed to build recap", http.StatusInternalServerError)
		return
	}
	if len(recap) == 0 {
		jsonError(w, "Run not found", http.StatusNotFound)
		return
	}

	hh.logger.Event("RUN_RECAP", runID, "Entries:"+strconv.Itoa(len(recap)))
	writeJSON(w, http.StatusOK, recap)
}

// HandleReplay returns the raw events of a run. Runs already released from
// memory are read back from the ledger.
// GET /api/runs/{id}/events?type=CONDITION_DRAWN
func (hh *HistoryHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	eventType := r.URL.Query().Get("type")

	replayEvents := make([]ReplayEvent, 0)
	filterDesc := ""
	if eventType != "" {
		filterDesc = "Type " + eventType
	}

	inMemory := hh.eventLog.GetByRun(runID)
	for _, e := range inMemory {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, ReplayEvent{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format("15:04:05"),
			Turn:      e.Turn,
			Type:      string(e.Type),
			Payload:   e.Payload,
		})
	}

	if len(inMemory) == 0 && hh.stored != nil {
		var stored []storage.GameEvent
		var err error
		if eventType != "" {
			stored, err = hh.stored.GetByEventType(r.Context(), runID, eventType)
		} else {
			stored, err = hh.stored.GetByRunID(r.Context(), runID)
		}
		if err != nil {
			hh.logger.Error("Failed to load events for " + runID + ": " + err.Error())
			jsonError(w, "Failed to load events", http.StatusInternalServerError)
			return
		}
		for _, e := range stored {
			replayEvents = append(replayEvents, ReplayEvent{
				ID:        e.ID,
				Timestamp: e.Timestamp.Format("15:04:05"),
				Turn:      e.Turn,
				Type:      e.EventType,
				Payload:   e.Payload,
			})
		}
	}

	writeJSON(w, http.StatusOK, ReplayResponse{
		RunID:       runID,
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
