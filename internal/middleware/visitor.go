package middleware

import (
	"log"
	"net/http"

	"csvpilot/internal/entitlement"
	"csvpilot/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by Visitor
const (
	ContextVisitorID    = "visitor_id"
	ContextSessionState = "session_state"
)

// Visitor establishes the signed visitor cookie and loads the session's
// entitlement state into the request context. First-time visitors get a
// fresh ID and a default state.
func Visitor(codec *session.CookieCodec, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := ""
		if raw, err := c.Cookie(session.CookieName); err == nil {
			if id, err := codec.Parse(raw); err == nil {
				visitorID = id
			}
		}

		// Missing, tampered or expired cookie - issue a new one
		if visitorID == "" {
			visitorID = uuid.New().String()

			token, err := codec.Issue(visitorID)
			if err != nil {
				requestID := c.GetString("request_id")
				log.Printf("[%s] Failed to issue session cookie: %v", requestID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
				c.Abort()
				return
			}

			c.SetCookie(session.CookieName, token, int(codec.TTL().Seconds()), "/", "", false, true)
		}

		state, err := store.Get(c.Request.Context(), visitorID)
		if err != nil {
			// Session store down - treat as a fresh visitor rather than
			// refusing every request
			requestID := c.GetString("request_id")
			log.Printf("[%s] Failed to load session state: %v", requestID, err)
			state = &entitlement.State{}
		}

		c.Set(ContextVisitorID, visitorID)
		c.Set(ContextSessionState, state)

		c.Next()
	}
}

// SessionState pulls the entitlement state that Visitor stored on the context
func SessionState(c *gin.Context) *entitlement.State {
	if v, exists := c.Get(ContextSessionState); exists {
		if state, ok := v.(*entitlement.State); ok {
			return state
		}
	}
	return &entitlement.State{}
}
