package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardpilot/application/assistant"
	"cardpilot/application/process"
	"cardpilot/application/search"
	"cardpilot/pkg/auth"
)

func newTestStack(t *testing.T) (*search.Registry, *search.Service) {
	t.Helper()
	svc := search.NewService(search.NewResultCache(0), process.NewWalker(5), nil, 10, zap.NewNop())
	reg := search.NewRegistry(context.Background(), svc, search.SessionConfig{
		DebounceWindow: 10 * time.Millisecond,
	})
	t.Cleanup(reg.Close)
	return reg, svc
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := auth.SetUserInContext(req.Context(), &auth.UserContext{
		UserID:  "u1",
		SpaceID: "s1",
	})
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func snapshotBody() []byte {
	return []byte(`{
		"space": {"id": "s1", "name": "Support", "ownerId": "u1"},
		"cards": [
			{"id": "c1", "title": "Refund Policy", "answer": "Refunds take 5 days.", "spaceId": "s1", "position": {"x": 0, "y": 0}, "updatedAt": "2026-08-28T00:00:00Z"}
		],
		"connections": []
	}`)
}

func TestSpaceHandler_ReplaceCards_Success(t *testing.T) {
	// Arrange
	reg, _ := newTestStack(t)
	handler := NewSpaceHandler(reg, zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.ReplaceCards(rec, authedRequest(http.MethodPut, "/api/v1/space/cards", snapshotBody()))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	session := reg.Session("u1", "s1")
	card, ok := session.Workspace().CardByID("c1")
	require.True(t, ok)
	assert.Equal(t, "Refund Policy", card.Title)
}

func TestSpaceHandler_ReplaceCards_ForbiddenForNonMember(t *testing.T) {
	// Arrange
	reg, _ := newTestStack(t)
	handler := NewSpaceHandler(reg, zap.NewNop())
	body := []byte(`{"space": {"id": "s9", "name": "Private", "ownerId": "someone-else"}, "cards": [], "connections": []}`)
	rec := httptest.NewRecorder()

	// Act
	handler.ReplaceCards(rec, authedRequest(http.MethodPut, "/api/v1/space/cards", body))

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSpaceHandler_ReplaceCards_Unauthenticated(t *testing.T) {
	// Arrange
	reg, _ := newTestStack(t)
	handler := NewSpaceHandler(reg, zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/space/cards", bytes.NewReader(snapshotBody()))

	// Act
	handler.ReplaceCards(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchHandler_Search_LocalResults(t *testing.T) {
	// Arrange
	reg, svc := newTestStack(t)
	NewSpaceHandler(reg, zap.NewNop()).ReplaceCards(httptest.NewRecorder(),
		authedRequest(http.MethodPut, "/api/v1/space/cards", snapshotBody()))
	handler := NewSearchHandler(reg, svc, zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.Search(rec, authedRequest(http.MethodGet, "/api/v1/search?q=refund", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "local", data["searchType"])
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
}

func TestSearchHandler_Search_InvalidMode(t *testing.T) {
	// Arrange
	reg, svc := newTestStack(t)
	handler := NewSearchHandler(reg, svc, zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.Search(rec, authedRequest(http.MethodGet, "/api/v1/search?q=refund&mode=bogus", nil))

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_InputThenResults(t *testing.T) {
	// Arrange
	reg, svc := newTestStack(t)
	NewSpaceHandler(reg, zap.NewNop()).ReplaceCards(httptest.NewRecorder(),
		authedRequest(http.MethodPut, "/api/v1/space/cards", snapshotBody()))
	handler := NewSearchHandler(reg, svc, zap.NewNop())

	// Act: feed input, wait out the debounce window, read results.
	rec := httptest.NewRecorder()
	handler.Input(rec, authedRequest(http.MethodPost, "/api/v1/search/input", []byte(`{"text": "refund"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	time.Sleep(60 * time.Millisecond)

	rec = httptest.NewRecorder()
	handler.Results(rec, authedRequest(http.MethodGet, "/api/v1/search/results", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "refund", data["query"])
	require.NotNil(t, data["response"])
}

func TestSearchHandler_SetMode_Validation(t *testing.T) {
	// Arrange
	reg, svc := newTestStack(t)
	handler := NewSearchHandler(reg, svc, zap.NewNop())

	// Act
	ok := httptest.NewRecorder()
	handler.SetMode(ok, authedRequest(http.MethodPut, "/api/v1/search/mode", []byte(`{"mode": "all"}`)))
	bad := httptest.NewRecorder()
	handler.SetMode(bad, authedRequest(http.MethodPut, "/api/v1/search/mode", []byte(`{"mode": "global"}`)))

	// Assert
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestAssistHandler_FallbackReply(t *testing.T) {
	// Arrange: nil generation client forces the local synthesis path.
	reg, svc := newTestStack(t)
	NewSpaceHandler(reg, zap.NewNop()).ReplaceCards(httptest.NewRecorder(),
		authedRequest(http.MethodPut, "/api/v1/space/cards", snapshotBody()))
	generator := assistant.NewGenerator(nil, zap.NewNop())
	handler := NewAssistHandler(reg, svc, generator, zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.Assist(rec, authedRequest(http.MethodPost, "/api/v1/assist",
		[]byte(`{"content": "what is the refund window?"}`)))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.NotEmpty(t, data["conversationId"])
	reply := data["reply"].(map[string]interface{})
	assert.Equal(t, true, reply["fallback"])
	assert.Contains(t, reply["content"], assistant.FallbackDisclaimer)
	assert.Equal(t, assistant.FallbackConfidence, reply["confidence"])
}

func TestAssistHandler_MissingContent(t *testing.T) {
	// Arrange
	reg, svc := newTestStack(t)
	handler := NewAssistHandler(reg, svc, assistant.NewGenerator(nil, zap.NewNop()), zap.NewNop())
	rec := httptest.NewRecorder()

	// Act
	handler.Assist(rec, authedRequest(http.MethodPost, "/api/v1/assist", []byte(`{"mode": "explain"}`)))

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
