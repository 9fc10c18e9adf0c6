package web

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/services"
)

const principalCtxKey = "principal"

// HandleAuthMiddleware resolves the session cookie, if any, to the signed
// in user. Anonymous requests pass through untouched.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	token, err := c.Cookie(h.cookie.Name)
	if err != nil || token == "" {
		c.Next()
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	principal, err := h.signIn.Authenticate(c, services.AuthenticateParams{
		Token:       token,
		Fingerprint: fingerprint,
	})
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) ||
			errors.Is(err, services.ErrSessionExpired) {
			h.logger.Warn().
				Err(err).
				Msg("dropping stale session cookie")
			h.clearSessionCookie(c)
			c.Next()
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to authenticate session")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Set(principalCtxKey, principal)
	c.Next()
}

// HandleRequireUser redirects anonymous requests to the login page.
func (h *handlerImpl) HandleRequireUser(c *gin.Context) {
	if _, ok := currentPrincipal(c); ok {
		c.Next()
		return
	}

	h.logger.Debug().
		Str("path", c.Request.URL.Path).
		Msg("redirecting anonymous request to login")

	loginURL := "/account/login?returnUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, loginURL)
	c.Abort()
}

func (h *handlerImpl) HandleRequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	event := h.logger.Info()
	if c.Writer.Status() >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("handled request")
}

func currentPrincipal(c *gin.Context) (*services.Principal, bool) {
	value, exists := c.Get(principalCtxKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*services.Principal)
	return principal, ok && principal != nil
}

// mustUserID is only safe behind HandleRequireUser.
func mustUserID(c *gin.Context) string {
	principal, _ := currentPrincipal(c)
	return principal.User.ID
}
