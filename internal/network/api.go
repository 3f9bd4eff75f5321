package network

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

// API exposes the session over plain HTTP for clients that do not hold a
// websocket open.
type API struct {
	session *Session
	logger  *logger.Logger
}

// NewAPI creates the HTTP intent handlers.
func NewAPI(session *Session, log *logger.Logger) *API {
	return &API{session: session, logger: log}
}

// NewRouter assembles every route the server exposes. history and m may be nil.
// Every API route also accepts OPTIONS so corsMiddleware can answer preflights.
func NewRouter(api *API, hub *Hub, history *HistoryHandler, m *metrics.Collector) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet, http.MethodOptions)

	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWs)
	}

	r.HandleFunc("/api/state", api.HandleState).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/intent", api.HandleIntent).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/reaction", api.HandleReaction).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/turn", api.HandleAdvanceTurn).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/room", api.HandleSelectRoom).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/reset", api.HandleReset).Methods(http.MethodPost, http.MethodOptions)

	if history != nil {
		history.RegisterRoutes(r)
	}
	if m != nil {
		r.Handle("/metrics", m.PrometheusHandler()).Methods(http.MethodGet)
		r.HandleFunc("/api/metrics.json", m.Handler()).Methods(http.MethodGet, http.MethodOptions)
	}
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleState returns the current view.
// GET /api/state
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.View())
}

// HandleIntent accepts the same JSON intents as the websocket.
// POST /api/intent {"type":"REACTION","reaction":"Glycolysis"}
func (a *API) HandleIntent(w http.ResponseWriter, r *http.Request) {
	var in Intent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	a.apply(w, in)
}

// HandleReaction runs one reaction.
// POST /api/reaction {"reaction":"Glycolysis"}
func (a *API) HandleReaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reaction string `json:"reaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	a.apply(w, Intent{Type: IntentReaction, Reaction: req.Reaction})
}

// HandleAdvanceTurn ends the turn.
// POST /api/turn
func (a *API) HandleAdvanceTurn(w http.ResponseWriter, r *http.Request) {
	a.apply(w, Intent{Type: IntentAdvanceTurn})
}

// HandleSelectRoom moves the player.
// POST /api/room {"room":"matrix"}
func (a *API) HandleSelectRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Room string `json:"room"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	a.apply(w, Intent{Type: IntentSelectRoom, Room: req.Room})
}

// HandleReset starts a new run.
// POST /api/reset
func (a *API) HandleReset(w http.ResponseWriter, r *http.Request) {
	a.apply(w, Intent{Type: IntentReset})
}

func (a *API) apply(w http.ResponseWriter, in Intent) {
	v, err := a.session.Apply(in)
	if err != nil {
		if IsClientError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.logger.Error("Intent " + string(in.Type) + " failed: " + err.Error())
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
