package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/logger"
	"lasyfinance/internal/services"
	"lasyfinance/internal/whatsapp"
)

// WhatsAppHandler receives WhatsApp Cloud API webhook calls.
type WhatsAppHandler struct {
	chatService services.ChatServicer
	verifyToken string
}

// NewWhatsAppHandler creates a new WhatsAppHandler. verifyToken is the
// secret configured for the subscription handshake.
func NewWhatsAppHandler(chatService services.ChatServicer, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{chatService: chatService, verifyToken: verifyToken}
}

// WebhookAck is the acknowledgement returned for every accepted delivery.
type WebhookAck struct {
	Success bool `json:"success"`
}

// Verify answers the webhook subscription handshake
// @Summary     Verify webhook subscription
// @Description Echo hub.challenge when hub.mode is subscribe and hub.verify_token matches
// @Tags        whatsapp
// @Produce     plain
// @Param       hub.mode         query string true "Must be subscribe"
// @Param       hub.verify_token query string true "Configured verify token"
// @Param       hub.challenge    query string true "Challenge to echo"
// @Success     200 {string} string "Challenge"
// @Failure     403 {object} ErrorResponse "Invalid verification token"
// @Router      /whatsapp/webhook [get]
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	challenge, ok := whatsapp.VerifyChallenge(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		logger.Get().Warnw("webhook verification failed",
			"mode", c.Query("hub.mode"),
			"client_ip", c.ClientIP(),
		)
		respondWithError(c, apperrors.ErrInvalidVerifyToken)
		return
	}

	c.String(http.StatusOK, challenge)
}

// Receive processes an inbound webhook delivery
// @Summary     Receive webhook delivery
// @Description Process each text or audio message in the delivery and reply through WhatsApp. Status receipts and unreadable payloads are acknowledged without processing.
// @Tags        whatsapp
// @Accept      json
// @Produce     json
// @Param       X-Hub-Signature-256 header string false "HMAC-SHA256 of the body, required when an app secret is configured"
// @Param       request body whatsapp.WebhookPayload true "Webhook payload"
// @Success     200 {object} WebhookAck "Delivery accepted"
// @Failure     401 {object} ErrorResponse "Invalid signature"
// @Router      /whatsapp/webhook [post]
func (h *WhatsAppHandler) Receive(c *gin.Context) {
	var payload whatsapp.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Acknowledge anyway; an error here makes Meta retry the same body.
		logger.Get().Warnw("malformed webhook payload",
			"error", err.Error(),
			"client_ip", c.ClientIP(),
		)
		c.JSON(http.StatusOK, WebhookAck{Success: true})
		return
	}

	messages := payload.Messages()
	if len(messages) == 0 {
		logger.Get().Debugw("webhook delivery without messages", "object", payload.Object)
	}
	for _, msg := range messages {
		h.chatService.HandleInbound(c.Request.Context(), msg)
	}

	c.JSON(http.StatusOK, WebhookAck{Success: true})
}
