package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/response"
	"github.com/aramartialarts/portal-backend/internal/service"
	"github.com/aramartialarts/portal-backend/internal/validator"
)

// ChatHandler relays visitor questions to the completion API.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat godoc
// POST /chat
// Forwards the message to the completion API and returns its answer.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answer, err := h.chatService.Complete(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrChatUpstream) {
			response.FailErr(c, http.StatusBadGateway, response.ErrUpstream, err)
			return
		}
		response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": answer})
}
