package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiopass/internal/catalog"
	"studiopass/internal/logger"
	"studiopass/internal/processor"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type InitiateResponse struct {
	Payment     *Payment `json:"payment"`
	RedirectURL string   `json:"redirect_url"`
}

// InitiatePayment godoc
// @Summary      Start a pass purchase
// @Description  Creates a pending payment for a package and registers it with the payment processor.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      InitiateRequest  true  "Purchase details"
// @Success      201      {object}  InitiateResponse
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      502      {object}  gin.H
// @Router       /payments [post]
func (h *Handler) InitiatePayment(c *gin.Context) {
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, redirectURL, err := h.service.InitiatePurchase(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}

		var regErr *processor.RegistrationError
		if errors.As(err, &regErr) {
			// The payment exists and stays pending; the purchaser can retry.
			c.JSON(http.StatusBadGateway, gin.H{
				"error":      "Payment could not be started, please try again",
				"payment_id": p.ID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start payment"})
		return
	}

	c.JSON(http.StatusCreated, InitiateResponse{Payment: p, RedirectURL: redirectURL})
}

// RetryPayment godoc
// @Summary      Retry a failed registration
// @Description  Re-registers a still-pending payment with the processor and returns a fresh redirect URL.
// @Tags         payments
// @Produce      json
// @Param        paymentID  path      string  true  "Payment ID"
// @Success      200        {object}  InitiateResponse
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      502        {object}  gin.H
// @Router       /payments/{paymentID}/register [post]
func (h *Handler) RetryPayment(c *gin.Context) {
	paymentID := c.Param("paymentID")

	redirectURL, err := h.service.RetryRegistration(c.Request.Context(), paymentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		case errors.Is(err, ErrPaymentNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Payment is not pending"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment could not be started, please try again"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirect_url": redirectURL})
}

// GetPayment godoc
// @Summary      Payment status
// @Description  Returns one payment so the return page can poll for settlement.
// @Tags         payments
// @Produce      json
// @Param        paymentID  path      string  true  "Payment ID"
// @Success      200        {object}  Payment
// @Failure      404        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /payments/{paymentID} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	paymentID := c.Param("paymentID")

	p, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Webhook godoc
// @Summary      Processor status webhook
// @Description  Receives asynchronous payment notifications from the processor. Accepts JSON or form-encoded bodies. Idempotent: redelivering a settled notification answers 200 without effect.
// @Tags         payments
// @Accept       json
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Failure      400  {object}  gin.H
// @Failure      404  {object}  gin.H
// @Failure      500  {object}  gin.H
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	var n processor.Notification
	if err := c.ShouldBind(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed notification"})
		return
	}

	err := h.service.HandleNotification(c.Request.Context(), n)
	switch {
	case err == nil:
		c.String(http.StatusOK, "OK")
	case errors.Is(err, ErrMalformedNotification),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
	default:
		// Settlement was not durably written; a 5xx makes the processor
		// redeliver, which the idempotency gate keeps harmless.
		logger.Error("webhook processing failed",
			"session_id", n.SessionID,
			"error", err.Error(),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
