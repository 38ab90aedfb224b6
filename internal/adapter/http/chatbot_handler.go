package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"orbitlend-backend/internal/usecase/chatbot"
)

type ChatbotHandler struct{ uc *chatbot.Usecase }

func NewChatbotHandler(uc *chatbot.Usecase) *ChatbotHandler { return &ChatbotHandler{uc: uc} }

func (h *ChatbotHandler) Chat(c echo.Context) error {
	var in chatbot.ChatInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	r, err := h.uc.Chat(c.Request().Context(), UserIDFromContext(c), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, r, "")
}

func (h *ChatbotHandler) History(c echo.Context) error {
	turns, err := h.uc.History(c.Request().Context(), UserIDFromContext(c), c.Param("sessionId"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, turns, "")
}

func (h *ChatbotHandler) Clear(c echo.Context) error {
	if err := h.uc.Clear(c.Request().Context(), UserIDFromContext(c), c.Param("sessionId")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, nil, "chat history cleared")
}

func (h *ChatbotHandler) Suggestions(c echo.Context) error {
	return ok(c, http.StatusOK, h.uc.Suggestions(), "")
}
