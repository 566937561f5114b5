package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// WebhookHandler verifies payment-processor callbacks. It is the extension
// point for a verified server-side grant path; today it only checks the
// signature and acknowledges the event - entitlement grants still come
// from the success redirect.
type WebhookHandler struct {
	secret string
}

func NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{secret: secret}
}

// Handles POST /webhook
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	requestID := c.GetString("request_id")
	switch event.Type {
	case "checkout.session.completed":
		// TODO: move grants here once purchases are keyed to a durable
		// visitor record instead of a browser session
		log.Printf("[%s] Verified checkout completion %s (grant still happens on redirect)", requestID, event.ID)
	default:
		log.Printf("[%s] Ignoring webhook event %s (%s)", requestID, event.ID, event.Type)
	}

	c.Status(http.StatusOK)
}
