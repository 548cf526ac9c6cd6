package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/service/gateway"
	"github.com/aide-dev/aide/pkg/usecase/assistant"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/labstack/echo/v4"
)

const (
	msgUnexpected          = "An unexpected error occurred while processing your request."
	msgListFailed          = "Failed to list conversations"
	msgCreateFailed        = "Failed to create conversation"
	msgConversationMissing = "Conversation not found"
	msgLoadFailed          = "Failed to load conversation"
	msgDeleteFailed        = "Failed to delete conversation"
)

type askRequest struct {
	Prompt         string
	ConversationID model.ConversationID
	Temperature    *float32
	MaxTokens      *int32
}

// parseAskRequest decodes each field on its own so one badly typed field
// does not drop the rest. A body that is not a JSON object is empty.
// Unusable temperature or max_tokens values fall back to the defaults.
func parseAskRequest(body io.Reader, logger *slog.Logger) askRequest {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		logger.Debug("ignoring malformed ask body", "error", err)
		return askRequest{}
	}

	var req askRequest
	if v, ok := raw["prompt"]; ok {
		if err := json.Unmarshal(v, &req.Prompt); err != nil {
			logger.Warn("ignoring non-string prompt", "error", err)
		}
	}
	if v, ok := raw["conversation_id"]; ok {
		var id string
		if err := json.Unmarshal(v, &id); err != nil {
			logger.Warn("ignoring non-string conversation_id", "error", err)
		}
		req.ConversationID = model.ConversationID(id)
	}
	if v, ok := raw["temperature"]; ok {
		if f, ok := parseNumber(v); ok {
			t := float32(f)
			req.Temperature = &t
		} else {
			logger.Warn("ignoring invalid temperature", "value", string(v))
		}
	}
	if v, ok := raw["max_tokens"]; ok {
		if f, ok := parseNumber(v); ok && f == math.Trunc(f) && f > 0 && f <= math.MaxInt32 {
			m := int32(f)
			req.MaxTokens = &m
		} else {
			logger.Warn("ignoring invalid max_tokens", "value", string(v))
		}
	}

	return req
}

// parseNumber accepts a JSON number or a string holding one
func parseNumber(v json.RawMessage) (float64, bool) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type askResponse struct {
	Response       string               `json:"response"`
	ConversationID model.ConversationID `json:"conversation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type newConversationResponse struct {
	ConversationID model.ConversationID `json:"conversation_id"`
	Message        string               `json:"message"`
}

type listResponse struct {
	Conversations []*model.Summary `json:"conversations"`
}

type bannerResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(c echo.Context) error {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	if strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML) {
		return c.JSON(http.StatusOK, bannerResponse{
			Message: "AI assistant is running",
			Endpoints: map[string]string{
				"GET /":                     "Web UI",
				"GET /health":               "Health check",
				"POST /ask":                 "Ask the assistant",
				"GET /conversations":        "List conversations",
				"POST /conversations/new":   "Start a new conversation",
				"GET /conversations/:id":    "Get a conversation",
				"DELETE /conversations/:id": "Delete a conversation",
			},
		})
	}
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAsk(c echo.Context) error {
	ctx := c.Request().Context()
	logger := logging.From(ctx)

	req := parseAskRequest(c.Request().Body, logger)

	if req.Temperature == nil {
		t := gateway.DefaultTemperature
		req.Temperature = &t
	}
	if req.MaxTokens == nil {
		m := gateway.DefaultMaxOutputTokens
		req.MaxTokens = &m
	}

	current := s.sessions.current(c)
	convID := req.ConversationID
	if convID == "" {
		convID = current
	}

	// The conversation becomes current before asking, so a failed request
	// is retried in the same conversation
	conv, _, err := s.assistant.Resolve(ctx, convID)
	if err != nil {
		return s.askError(c, err)
	}
	if conv.ID != current {
		if err := s.sessions.set(c, conv.ID); err != nil {
			logger.Error("failed to update session", "error", err)
		}
	}

	out, err := s.assistant.Ask(ctx, assistant.AskInput{
		Prompt:          req.Prompt,
		ConversationID:  conv.ID,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	})
	if err != nil {
		return s.askError(c, err)
	}

	return c.JSON(http.StatusOK, askResponse{
		Response:       out.Response,
		ConversationID: out.ConversationID,
	})
}

func (s *Server) askError(c echo.Context, err error) error {
	logger := logging.From(c.Request().Context())

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Message})
	}

	var assistantErr *model.AssistantError
	if errors.As(err, &assistantErr) {
		logger.Warn("assistant failed", "error", err, "cause", errors.Unwrap(assistantErr))
		return c.JSON(http.StatusBadRequest, errorResponse{Error: assistantErr.Message})
	}

	logger.Error("failed to answer prompt", "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgUnexpected})
}

func (s *Server) handleListConversations(c echo.Context) error {
	ctx := c.Request().Context()

	summaries, err := s.repo.List(ctx)
	if err != nil {
		logging.From(ctx).Error("failed to list conversations", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgListFailed})
	}
	if summaries == nil {
		summaries = []*model.Summary{}
	}

	return c.JSON(http.StatusOK, listResponse{Conversations: summaries})
}

func (s *Server) handleNewConversation(c echo.Context) error {
	ctx := c.Request().Context()
	logger := logging.From(ctx)

	id, err := s.repo.Create(ctx)
	if err != nil {
		logger.Error("failed to create conversation", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgCreateFailed})
	}

	if err := s.sessions.set(c, id); err != nil {
		logger.Error("failed to update session", "error", err)
	}

	return c.JSON(http.StatusOK, newConversationResponse{
		ConversationID: id,
		Message:        "New conversation created",
	})
}

func (s *Server) handleGetConversation(c echo.Context) error {
	ctx := c.Request().Context()
	id := model.ConversationID(c.Param("id"))

	conv, err := s.repo.Load(ctx, id)
	if err != nil {
		logging.From(ctx).Error("failed to load conversation", "error", err, "conversation_id", id)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgLoadFailed})
	}
	if conv == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgConversationMissing})
	}

	return c.JSON(http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	id := model.ConversationID(c.Param("id"))

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		logging.From(ctx).Error("failed to delete conversation", "error", err, "conversation_id", id)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgDeleteFailed})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgConversationMissing})
	}

	if s.sessions.current(c) == id {
		s.sessions.clear(c)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Conversation deleted"})
}
