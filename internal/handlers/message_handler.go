package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lasyfinance/internal/services"
)

// MessageHandler exposes the user's chat history.
type MessageHandler struct {
	messageService services.MessageLogServicer
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService services.MessageLogServicer) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// GetUserMessages lists processed chat messages
// @Summary     List chat messages
// @Description Get a paginated list of the user's WhatsApp messages and the replies sent, newest first
// @Tags        messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.MessageLog] "Paginated messages"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /messages [get]
func (h *MessageHandler) GetUserMessages(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.messageService.GetUserMessages(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
