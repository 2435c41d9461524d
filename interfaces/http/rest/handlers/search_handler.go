package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"cardpilot/application/search"
	"cardpilot/domain/cards"
	"cardpilot/pkg/auth"
	"cardpilot/pkg/common"
	"cardpilot/pkg/utils"
)

// SearchHandler exposes the retrieval pipeline: one-shot queries, the
// debounced input stream, mode toggling and cache invalidation.
type SearchHandler struct {
	registry *search.Registry
	service  *search.Service
	logger   *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(registry *search.Registry, service *search.Service, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		registry: registry,
		service:  service,
		logger:   logger,
	}
}

// Search handles GET /search. An empty query returns an empty payload
// without touching the index or the network.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	mode := session.Mode()
	if m := r.URL.Query().Get("mode"); m != "" {
		mode = cards.SearchMode(m)
	}

	resp, err := h.service.Search(r.Context(), session.Workspace(), query, mode)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// SearchInputRequest feeds one keystroke-level change into the debounced
// input stream.
type SearchInputRequest struct {
	Text string `json:"text"`
}

// Input handles POST /search/input. The settled value fires a search after
// the debounce window; results land on GET /search/results.
func (h *SearchHandler) Input(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SearchInputRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	session.SetInput(req.Text)
	common.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// SearchModeRequest toggles the session's search mode.
type SearchModeRequest struct {
	Mode string `json:"mode" validate:"required,searchmode"`
}

// SetMode handles PUT /search/mode. Toggling re-issues the settled query
// immediately.
func (h *SearchHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SearchModeRequest
	if err := common.ParseJSONBody(r, &req, 1<<12); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	session.SetMode(cards.SearchMode(req.Mode))
	common.RespondJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

// ResultsPayload is the latest settled response plus the query that
// produced it, so clients can discard responses for superseded queries.
type ResultsPayload struct {
	Query    string                 `json:"query"`
	Response *search.SearchResponse `json:"response"`
}

// Results handles GET /search/results.
func (h *SearchHandler) Results(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	query, resp := session.Latest()
	common.RespondJSON(w, http.StatusOK, ResultsPayload{Query: query, Response: resp})
}

// ClearCache handles DELETE /search/cache; used for global invalidation
// such as logout.
func (h *SearchHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCache()
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *SearchHandler) session(w http.ResponseWriter, r *http.Request) (*search.Session, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return nil, false
	}
	return h.registry.Session(user.UserID, activeSpace(user)), true
}

func activeSpace(user *auth.UserContext) string {
	if user.SpaceID != "" {
		return user.SpaceID
	}
	return "default"
}
