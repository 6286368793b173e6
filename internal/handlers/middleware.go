package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"banking_portal/internal/models"
	"banking_portal/internal/service"

	"github.com/gin-gonic/gin"
)

// Gin context keys.
const (
	ctxSession       = "session"
	ctxSessionLoaded = "session_loaded"
	ctxUsername      = "username"
)

const msgUnauthorized = "Unauthorized, Please login"

// sessionMiddleware attaches the caller's session, or a fresh anonymous one,
// to the context. Persisting it is left to render/redirect.
func (h *Handler) sessionMiddleware(c *gin.Context) {
	var st *models.SessionState
	if token, err := c.Cookie(h.opts.CookieName); err == nil && token != "" {
		st, err = h.services.Sessions.Load(c.Request.Context(), token)
		if err != nil && !errors.Is(err, service.ErrSessionNotFound) && !errors.Is(err, service.ErrInvalidToken) {
			if h.log != nil {
				h.log.Errorw("session_load_failed", "err", err)
			}
		}
	}
	loaded := st != nil
	if st == nil {
		st = h.services.Sessions.New()
	}
	c.Set(ctxSession, st)
	c.Set(ctxSessionLoaded, loaded)
	c.Next()
}

// requireLogin lets authenticated sessions through and sends everyone else
// to the login page with a notice.
func (h *Handler) requireLogin(c *gin.Context) {
	st := h.session(c)
	if st.Authenticated() {
		c.Next()
		return
	}
	st.AddFlash(models.FlashDanger, msgUnauthorized)
	h.redirect(c, "/login")
	c.Abort()
}

// session returns the state attached by sessionMiddleware.
func (h *Handler) session(c *gin.Context) *models.SessionState {
	if v, ok := c.Get(ctxSession); ok {
		if st, ok := v.(*models.SessionState); ok {
			return st
		}
	}
	return h.services.Sessions.New()
}

// setSession replaces the session attached to the request, e.g. after login.
func (h *Handler) setSession(c *gin.Context, st *models.SessionState) {
	c.Set(ctxSession, st)
	c.Set(ctxSessionLoaded, true)
}

// saveSession persists st and refreshes the cookie. Failures are logged;
// the response still goes out.
func (h *Handler) saveSession(c *gin.Context, st *models.SessionState) {
	token, err := h.services.Sessions.Save(c.Request.Context(), st)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("session_save_failed", "session_id", st.ID, "err", err)
		}
		return
	}
	maxAge := int(time.Until(st.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, maxAge, "/", "", h.opts.SecureCookie, true)
}

// clearSessionCookie expires the cookie on the client.
func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.SecureCookie, true)
}

// bearerMiddleware authenticates JSON API calls by their bearer token.
func (h *Handler) bearerMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	username, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(ctxUsername, username)
	c.Next()
}
