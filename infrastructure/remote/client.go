package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"cardpilot/application/assistant"
	"cardpilot/application/search"
	"cardpilot/domain/cards"
	"cardpilot/pkg/auth"
)

// Client talks to the remote assistant service: cross-space semantic search
// and reply generation. It forwards the caller's bearer credential when the
// request context carries one; credential acquisition is the auth
// collaborator's problem, and a missing credential simply surfaces as a
// failed call that the pipeline degrades around.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search calls GET /search on the remote service.
func (c *Client) Search(ctx context.Context, query string, mode cards.SearchMode, limit int, spaceID string) (*search.SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", string(mode))
	params.Set("limit", strconv.Itoa(limit))
	if spaceID != "" {
		params.Set("spaceId", spaceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	c.authorize(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return nil, fmt.Errorf("remote search returned status %d", resp.StatusCode)
	}

	var payload search.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if payload.SearchType == "" {
		payload.SearchType = search.SearchTypeSemantic
	}
	if payload.Results == nil {
		payload.Results = []search.SearchResult{}
	}

	c.logger.Debug("remote search completed",
		zap.Int("results", len(payload.Results)),
		zap.Duration("duration", time.Since(start)),
	)
	return &payload, nil
}

// sendResponse mirrors the remote generation payload.
type sendResponse struct {
	AIMessage struct {
		Content    string                 `json:"content"`
		Confidence float64                `json:"confidence"`
		Metadata   map[string]interface{} `json:"metadata"`
	} `json:"aiMessage"`
}

// Generate calls POST /send on the remote service with a multipart body:
// conversationId, content, mode, context and any attached images.
func (c *Client) Generate(ctx context.Context, genReq assistant.GenerationRequest) (*assistant.GenerationResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"conversationId": genReq.ConversationID,
		"content":        genReq.Content,
		"mode":           string(genReq.Mode),
		"context":        genReq.Context,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	for _, img := range genReq.Images {
		part, err := writer.CreateFormFile("images", img.Name)
		if err != nil {
			return nil, fmt.Errorf("attach image %s: %w", img.Name, err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, fmt.Errorf("write image %s: %w", img.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", &body)
	if err != nil {
		return nil, fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote generation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		drain(resp.Body)
		return nil, fmt.Errorf("remote generation returned status %d", resp.StatusCode)
	}

	var payload sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}

	c.logger.Debug("remote generation completed",
		zap.String("mode", string(genReq.Mode)),
		zap.Duration("duration", time.Since(start)),
	)
	return &assistant.GenerationResult{
		Content:    payload.AIMessage.Content,
		Confidence: payload.AIMessage.Confidence,
		Metadata:   payload.AIMessage.Metadata,
	}, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if token, ok := auth.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 4096))
}
