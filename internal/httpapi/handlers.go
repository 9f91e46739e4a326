package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/peovukea-bbd/laser-tag/internal/catalog"
	"github.com/peovukea-bbd/laser-tag/internal/engine"
	"github.com/peovukea-bbd/laser-tag/internal/hub"
	"github.com/peovukea-bbd/laser-tag/internal/lobby"
)

type errorResponse struct {
	Error string `json:"error"`
}

type catalogResponse struct {
	Weapons  []catalog.Weapon  `json:"weapons"`
	PowerUps []catalog.PowerUp `json:"powerUps"`
}

type lobbiesResponse struct {
	Lobbies []lobby.Summary `json:"lobbies"`
}

type lobbyResponse struct {
	Version int          `json:"version"`
	Clients int          `json:"clients"`
	Lobby   engine.State `json:"lobby"`
}

type eventsResponse struct {
	LobbyID string         `json:"lobbyId"`
	Events  []engine.Event `json:"events"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Catalog(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalogResponse{Weapons: cat.Weapons(), PowerUps: cat.PowerUps()})
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lobbiesResponse{Lobbies: h.List()})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := view(w, r, h)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, lobbyResponse{Version: v.Version, Clients: v.NumClients, Lobby: v.State})
	}
}

func LobbyEvents(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := view(w, r, h)
		if !ok {
			return
		}
		events := v.Events
		if events == nil {
			events = []engine.Event{}
		}
		writeJSON(w, http.StatusOK, eventsResponse{LobbyID: v.State.ID, Events: events})
	}
}

// view fetches a consistent copy of the lobby named in the URL, writing the
// error response itself when it cannot.
func view(w http.ResponseWriter, r *http.Request, h *hub.Hub) (lobby.View, bool) {
	lb, ok := h.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lobby not found"})
		return lobby.View{}, false
	}
	v, err := lb.View(r.Context())
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, lobby.ErrLobbyClosed):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lobby not found"})
	default:
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	return lobby.View{}, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
