package handler

import (
	"errors"
	"log"
	"net/http"

	"csvpilot/internal/billing"
	"csvpilot/internal/middleware"
	"csvpilot/internal/models"
	"csvpilot/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	resolver *billing.Resolver
	audit    *service.AuditService // nil when auditing is disabled
}

func NewCheckoutHandler(resolver *billing.Resolver, audit *service.AuditService) *CheckoutHandler {
	return &CheckoutHandler{
		resolver: resolver,
		audit:    audit,
	}
}

// Handles POST /create-checkout-session
func (h *CheckoutHandler) Create(c *gin.Context) {
	plan, err := billing.ParsePlan(c.PostForm("plan"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}

	redirectURL, err := h.resolver.CreateSession(plan)
	if err != nil {
		requestID := c.GetString("request_id")

		switch {
		case errors.Is(err, billing.ErrStripeNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payments are not configured"})
		case errors.Is(err, billing.ErrPlanNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan is not configured"})
		default:
			log.Printf("[%s] Checkout session creation failed: %v", requestID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		}
		return
	}

	if h.audit != nil {
		h.recordPurchase(c, plan)
	}

	c.Redirect(http.StatusSeeOther, redirectURL)
}

func (h *CheckoutHandler) recordPurchase(c *gin.Context, plan billing.Plan) {
	purchase := &models.Purchase{
		VisitorID: c.GetString(middleware.ContextVisitorID),
		Plan:      plan.ID,
		Mode:      "payment",
	}
	if plan.Recurring() {
		purchase.Mode = "subscription"
	}

	// Amount is only known for ad-hoc prices; configured price references
	// resolve on Stripe's side
	if params, err := h.resolver.Resolve(plan); err == nil {
		if len(params.LineItems) == 1 && params.LineItems[0].PriceData != nil {
			purchase.AmountMinor = *params.LineItems[0].PriceData.UnitAmount
		}
	}

	h.audit.RecordPurchase(c.Request.Context(), purchase)
}
