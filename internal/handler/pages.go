package handler

import (
	"log"
	"net/http"
	"time"

	"csvpilot/internal/billing"
	"csvpilot/internal/config"
	"csvpilot/internal/entitlement"
	"csvpilot/internal/middleware"
	"csvpilot/internal/session"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	store session.Store
	cfg   *config.Config
}

func NewPageHandler(store session.Store, cfg *config.Config) *PageHandler {
	return &PageHandler{store: store, cfg: cfg}
}

// Handles GET /
//
// Applies the entitlement grant when the payment processor redirects back
// with success=1&plan=... . The redirect parameters are client-supplied;
// the webhook is the verified path but does not grant yet.
func (h *PageHandler) Landing(c *gin.Context) {
	state := middleware.SessionState(c)
	purchased := false

	if c.Query("success") == "1" {
		plan, err := billing.ParsePlan(c.Query("plan"))
		if err == nil {
			billing.ApplyGrant(plan, state, h.cfg.Quota.CreditsPerPack)
			purchased = true

			visitorID := c.GetString(middleware.ContextVisitorID)
			if err := h.store.Put(c.Request.Context(), visitorID, state); err != nil {
				requestID := c.GetString("request_id")
				log.Printf("[%s] Failed to persist grant: %v", requestID, err)
			}
		}
	}

	renderLanding(c, http.StatusOK, h.cfg, state, landingFlash{
		Purchased: purchased,
		LimitHit:  c.Query("limit") == "1",
		Cancelled: c.Query("cancelled") == "1",
	})
}

type landingFlash struct {
	Purchased bool
	LimitHit  bool
	Cancelled bool
	Error     string
}

func renderLanding(c *gin.Context, status int, cfg *config.Config, state *entitlement.State, flash landingFlash) {
	c.HTML(status, "index.html", gin.H{
		"Pro":               state.Pro,
		"Credits":           state.Credits,
		"RemainingFree":     entitlement.Remaining(state, time.Now(), cfg.Quota.FreeRunLimit, cfg.Quota.Window()),
		"FreeRunLimit":      cfg.Quota.FreeRunLimit,
		"FreeWindowMinutes": cfg.Quota.FreeWindowSeconds / 60,
		"CreditsPerPack":    cfg.Quota.CreditsPerPack,
		"CreditsPackPrice":  cfg.Quota.CreditsPackPrice,
		"OneTimePrice":      cfg.Quota.OneTimePrice,
		"Purchased":         flash.Purchased,
		"LimitHit":          flash.LimitHit,
		"Cancelled":         flash.Cancelled,
		"Error":             flash.Error,
	})
}
