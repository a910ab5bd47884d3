package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roster/internal/roster"
	"github.com/desertthunder/roster/internal/shared"
)

// StudentsResponse is the body of GET /students.
type StudentsResponse struct {
	Mode     string                 `json:"mode"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	HasNext  bool                   `json:"has_next"`
	HasPrev  bool                   `json:"has_prev"`
	Students []roster.RankedStudent `json:"students"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RosterHandler serves /students and /tracks.
type RosterHandler struct {
	router *roster.Router
	logger *log.Logger
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(router *roster.Router, logger *log.Logger) *RosterHandler {
	return &RosterHandler{router: router, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *RosterHandler) Routes() []string {
	return []string{"/students", "/tracks"}
}

func (h *RosterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/students":
		h.students(w, r)
	case "/tracks":
		h.tracks(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *RosterHandler) students(w http.ResponseWriter, r *http.Request) {
	state, err := ParseState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.router.Fetch(r.Context(), h.router.Dispatch(state))
	if res.Failed() {
		writeError(w, http.StatusServiceUnavailable, shared.ErrStoreUnavailable.Error())
		return
	}

	writeJSON(w, http.StatusOK, StudentsResponse{
		Mode:     res.Mode.String(),
		Page:     res.State.Page,
		PageSize: res.PageSize,
		HasNext:  res.HasNext(),
		HasPrev:  res.HasPrev(),
		Students: res.Ranked(),
	})
}

func (h *RosterHandler) tracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.router.Tracks(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrStoreUnavailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// ParseState builds a roster state from the q, track, and page query parameters.
//
// q and track are mutually exclusive. A missing page means 1; pages below 1 are clamped.
func ParseState(r *http.Request) (roster.State, error) {
	query := r.URL.Query()
	q, track := query.Get("q"), query.Get("track")

	state := roster.NewState()
	switch {
	case q != "" && track != "":
		return state, fmt.Errorf("%w: q and track cannot be combined", shared.ErrInvalidArgument)
	case track != "":
		state = roster.Reduce(state, roster.SelectTrack{TrackID: track})
	case q != "":
		state = roster.Reduce(state, roster.SetSearchText{Text: q})
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return state, fmt.Errorf("%w: page must be an integer", shared.ErrInvalidArgument)
		}
		state = roster.Reduce(state, roster.SetPage{Page: page})
	}

	return state, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
