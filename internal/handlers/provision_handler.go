package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/services"
)

// ProvisionHandler links WhatsApp numbers to users through one-time codes.
type ProvisionHandler struct {
	provisioningService services.ProvisioningServicer
}

// NewProvisionHandler creates a new ProvisionHandler.
func NewProvisionHandler(provisioningService services.ProvisioningServicer) *ProvisionHandler {
	return &ProvisionHandler{provisioningService: provisioningService}
}

// ProvisionRequest asks for a verification code for a phone number
type ProvisionRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
	Name  string `json:"name" binding:"max=200"`
}

// LinkPhoneRequest asks for a code that links a number to the signed-in user
type LinkPhoneRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
}

// VerifyCodeRequest confirms a verification code
type VerifyCodeRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ProvisionResponse reports that a code was issued. Notice is set when it
// could not be delivered over WhatsApp.
type ProvisionResponse struct {
	OK     bool   `json:"ok"`
	Notice string `json:"notice,omitempty"`
}

// RequestCode issues a verification code
// @Summary     Request WhatsApp verification code
// @Description Find the chat user by email (or create one) and send a 6-digit code to the WhatsApp number. The code expires in 10 minutes. Emails of registered accounts are refused; sign in and use /profile/whatsapp instead.
// @Tags        provisioning
// @Accept      json
// @Produce     json
// @Param       request body ProvisionRequest true "Phone and optional user details"
// @Success     200 {object} ProvisionResponse "Code issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email belongs to a registered account"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /provision [post]
func (h *ProvisionHandler) RequestCode(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.provisioningService.RequestCode(c.Request.Context(), req.Phone, req.Email, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProvisionResponse{OK: true, Notice: result.Notice})
}

// RequestLinkCode issues a verification code for the authenticated user
// @Summary     Link WhatsApp number to profile
// @Description Send a 6-digit code to the WhatsApp number; confirming it with /provision/verify links the number to the signed-in user
// @Tags        provisioning
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LinkPhoneRequest true "Phone to link"
// @Success     200 {object} ProvisionResponse "Code issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile/whatsapp [post]
func (h *ProvisionHandler) RequestLinkCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req LinkPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.provisioningService.RequestCodeForUser(c.Request.Context(), userID, req.Phone)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProvisionResponse{OK: true, Notice: result.Notice})
}

// VerifyCode checks a verification code and links the number
// @Summary     Verify WhatsApp number
// @Description Check the latest code sent to the number and link the number to its user
// @Tags        provisioning
// @Accept      json
// @Produce     json
// @Param       request body VerifyCodeRequest true "Phone and code"
// @Success     200 {object} UserResponse "Linked user"
// @Failure     400 {object} ErrorResponse "Invalid or expired code"
// @Failure     409 {object} ErrorResponse "Number linked to another user"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /provision/verify [post]
func (h *ProvisionHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.provisioningService.VerifyCode(req.Phone, req.Code)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": userResponse(user)})
}
