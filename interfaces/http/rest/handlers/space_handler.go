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

// SpaceHandler receives space snapshots from the editing surface and swaps
// them into the user's workspace. cardpilot never persists cards itself; the
// snapshot is the source of truth for local retrieval.
type SpaceHandler struct {
	registry *search.Registry
	logger   *zap.Logger
}

// NewSpaceHandler creates a new space handler
func NewSpaceHandler(registry *search.Registry, logger *zap.Logger) *SpaceHandler {
	return &SpaceHandler{
		registry: registry,
		logger:   logger,
	}
}

// SpaceSnapshotRequest is the PUT /space/cards body.
type SpaceSnapshotRequest struct {
	Space       cards.Space        `json:"space" validate:"required"`
	Cards       []cards.Card       `json:"cards" validate:"dive"`
	Connections []cards.Connection `json:"connections" validate:"dive"`
}

// ReplaceCards handles PUT /space/cards. The index is rebuilt before the
// response is written, so a follow-up search sees the new snapshot.
func (h *SpaceHandler) ReplaceCards(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	var req SpaceSnapshotRequest
	if err := common.ParseJSONBody(r, &req, 16<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Space.ID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "space.id is required")
		return
	}
	if !req.Space.CanAccess(user.UserID) {
		common.RespondError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this space")
		return
	}

	session := h.registry.Session(user.UserID, req.Space.ID)
	session.Workspace().Replace(req.Space, req.Cards, req.Connections)

	h.logger.Info("space snapshot replaced",
		zap.String("user_id", user.UserID),
		zap.String("space_id", req.Space.ID),
		zap.Int("cards", len(req.Cards)),
		zap.Int("connections", len(req.Connections)),
	)

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"spaceId": req.Space.ID,
		"cards":   len(req.Cards),
	})
}
