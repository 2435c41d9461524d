package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardpilot/application/assistant"
	"cardpilot/application/search"
	"cardpilot/pkg/auth"
	"cardpilot/pkg/common"
	"cardpilot/pkg/utils"
)

// AssistHandler runs the full assist pipeline: retrieve matching cards,
// build the mode-specific prompt and obtain a reply, degrading to local
// synthesis when the remote assistant is down.
type AssistHandler struct {
	registry  *search.Registry
	service   *search.Service
	generator *assistant.Generator
	logger    *zap.Logger
}

// NewAssistHandler creates a new assist handler
func NewAssistHandler(registry *search.Registry, service *search.Service, generator *assistant.Generator, logger *zap.Logger) *AssistHandler {
	return &AssistHandler{
		registry:  registry,
		service:   service,
		generator: generator,
		logger:    logger,
	}
}

// AssistRequest is the POST /assist body. Images are base64 payloads
// forwarded to the remote service untouched.
type AssistRequest struct {
	ConversationID string        `json:"conversationId" validate:"omitempty,uuid"`
	Content        string        `json:"content" validate:"required,max=8192"`
	Mode           string        `json:"mode" validate:"omitempty,oneof=generate-response rephrase explain summarize translate improve explain-process raw-search"`
	Images         []AssistImage `json:"images" validate:"omitempty,max=4,dive"`
}

// AssistImage is one attachment.
type AssistImage struct {
	Name        string `json:"name" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"omitempty,max=100"`
	Data        string `json:"data" validate:"required,base64"`
}

// AssistResponse pairs the reply with the retrieval bundle that informed it.
type AssistResponse struct {
	ConversationID string           `json:"conversationId"`
	Reply          *assistant.Reply `json:"reply"`
	SearchType     string           `json:"searchType"`
	TotalFound     int              `json:"totalFound"`
}

// Assist handles POST /assist.
func (h *AssistHandler) Assist(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	var req AssistRequest
	if err := common.ParseJSONBody(r, &req, 8<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	mode := assistant.Mode(req.Mode)
	if req.Mode == "" {
		mode = assistant.ModeGenerateResponse
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	session := h.registry.Session(user.UserID, activeSpace(user))
	searchResp, err := h.service.Search(r.Context(), session.Workspace(), req.Content, session.Mode())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	reply := h.generator.Generate(
		r.Context(),
		conversationID,
		req.Content,
		mode,
		images,
		searchResp.Results,
		searchResp.Processes,
	)

	h.logger.Debug("assist completed",
		zap.String("user_id", user.UserID),
		zap.String("mode", string(mode)),
		zap.Bool("fallback", reply.Fallback),
		zap.Int("results", searchResp.TotalFound),
	)

	common.RespondJSON(w, http.StatusOK, AssistResponse{
		ConversationID: conversationID,
		Reply:          reply,
		SearchType:     searchResp.SearchType,
		TotalFound:     searchResp.TotalFound,
	})
}

func decodeImages(in []AssistImage) ([]assistant.Image, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]assistant.Image, 0, len(in))
	for _, img := range in {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, assistant.Image{
			Name:        img.Name,
			ContentType: img.ContentType,
			Data:        data,
		})
	}
	return out, nil
}
