package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/services"
)

const invalidLoginMessage = "Invalid login attempt."

type registerViewModel struct {
	UserName        string `form:"UserName" binding:"required,min=3,max=64"`
	Email           string `form:"Email" binding:"required,email,max=255"`
	Password        string `form:"Password" binding:"required,min=6,max=100"`
	ConfirmPassword string `form:"ConfirmPassword" binding:"eqfield=Password"`
}

type loginViewModel struct {
	UserName   string `form:"UserName" binding:"required"`
	Password   string `form:"Password" binding:"required"`
	RememberMe bool   `form:"RememberMe"`
}

func (h *handlerImpl) HandleRegisterForm(c *gin.Context) {
	data := h.newViewData(c, "Register")
	data.Model = registerViewModel{}
	render(c, http.StatusOK, "account/register", data)
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var model registerViewModel
	err := c.ShouldBind(&model)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("invalid register form")
		h.renderRegister(c, model, newModelState(err))
		return
	}
	h.logger.Info().
		Str("user_name", model.UserName).
		Msg("register request")

	user, err := h.users.CreateUser(c, services.CreateUserParams{
		UserName: model.UserName,
		Email:    model.Email,
		Password: model.Password,
	})
	if err != nil {
		ms := ModelState{}
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			ms.AddModelError("UserName", fmt.Sprintf("Username '%s' is already taken.", model.UserName))
		case errors.Is(err, services.ErrEmailAlreadyTaken):
			ms.AddModelError("Email", fmt.Sprintf("Email '%s' is already taken.", model.Email))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to create user")
			h.abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
		h.renderRegister(c, model, ms)
		return
	}

	token, err := h.users.GenerateEmailConfirmationToken(c, user)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate email confirmation token")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	callbackURL, err := h.confirmationURL(user.ID, token)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build confirmation url")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	err = h.emails.SendEmail(c, user.Email, "Confirm your email",
		fmt.Sprintf("Please confirm your account by <a href=\"%s\">clicking here</a>.",
			html.EscapeString(callbackURL)))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to send confirmation email")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	result, err := h.signIn.SignIn(c, user, services.SignInParams{Fingerprint: fingerprint})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign in")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}
	h.setSignInCookie(c, result)

	h.logger.Info().
		Str("user_id", user.ID).
		Msg("registered user")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *handlerImpl) renderRegister(c *gin.Context, model registerViewModel, ms ModelState) {
	model.Password, model.ConfirmPassword = "", ""
	data := h.newViewData(c, "Register")
	data.Model = model
	data.ModelState = ms
	render(c, http.StatusUnprocessableEntity, "account/register", data)
}

func (h *handlerImpl) HandleLoginForm(c *gin.Context) {
	data := h.newViewData(c, "Log in")
	data.Model = loginViewModel{}
	data.ReturnURL = c.Query("returnUrl")
	render(c, http.StatusOK, "account/login", data)
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	returnURL := c.Query("returnUrl")

	var model loginViewModel
	err := c.ShouldBind(&model)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("invalid login form")
		h.renderLogin(c, model, returnURL, newModelState(err))
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	result, err := h.signIn.PasswordSignIn(c, services.PasswordSignInParams{
		UserName:    model.UserName,
		Password:    model.Password,
		Persistent:  model.RememberMe,
		Fingerprint: fingerprint,
	})
	if err != nil {
		ms := ModelState{}
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			ms.AddModelError("", invalidLoginMessage)
		case errors.Is(err, services.ErrEmailNotConfirmed):
			ms.AddModelError("", "You must confirm your email before logging in.")
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to sign in")
			h.abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
		h.logger.Warn().
			Err(err).
			Str("user_name", model.UserName).
			Msg("failed login attempt")
		h.renderLogin(c, model, returnURL, ms)
		return
	}
	h.setSignInCookie(c, result)

	if !isLocalURL(returnURL) {
		returnURL = "/"
	}
	c.Redirect(http.StatusSeeOther, returnURL)
}

func (h *handlerImpl) renderLogin(c *gin.Context, model loginViewModel, returnURL string, ms ModelState) {
	model.Password = ""
	data := h.newViewData(c, "Log in")
	data.Model = model
	data.ModelState = ms
	data.ReturnURL = returnURL
	render(c, http.StatusUnprocessableEntity, "account/login", data)
}

func (h *handlerImpl) fingerprint(c *gin.Context) (string, bool) {
	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return "", false
	}
	return fingerprint, true
}

// setSignInCookie gives persistent sign-ins a Max-Age and everything
// else a browser-session cookie.
func (h *handlerImpl) setSignInCookie(c *gin.Context, result *services.SignInResult) {
	maxAge := 0
	if result.Persistent {
		maxAge = int(time.Until(result.ExpiresAt).Seconds())
	}
	h.setSessionCookie(c, result.Token, maxAge)
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	if principal, ok := currentPrincipal(c); ok {
		err := h.signIn.SignOut(c, principal.SessionID)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to sign out")
			h.abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
	}

	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *handlerImpl) HandleConfirmEmail(c *gin.Context) {
	userID := c.Query("userId")
	code := c.Query("code")
	if userID == "" || code == "" {
		h.abort(c, newBadRequestError("The confirmation link is incomplete."))
		return
	}

	err := h.users.ConfirmEmail(c, userID, code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			h.abort(c, newBadRequestError("The confirmation link is invalid or has expired."))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to confirm email")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	data := h.newViewData(c, "Confirm email")
	data.Message = "Thank you for confirming your email."
	render(c, http.StatusOK, "account/confirm-email", data)
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

// confirmationURL is built from the configured public URL only. Request
// headers are client controlled and never end up in emailed links.
func (h *handlerImpl) confirmationURL(userID, token string) (string, error) {
	link, err := url.JoinPath(h.publicURL, "account", "confirm-email")
	if err != nil {
		return "", fmt.Errorf("failed to join public url: %w", err)
	}
	return link + "?" + url.Values{
		"userId": {userID},
		"code":   {token},
	}.Encode(), nil
}

func isLocalURL(u string) bool {
	return strings.HasPrefix(u, "/") &&
		!strings.HasPrefix(u, "//") &&
		!strings.HasPrefix(u, "/\\")
}

// setSessionCookie with maxAge 0 makes a browser-session cookie.
func (h *handlerImpl) setSessionCookie(c *gin.Context, token string, maxAge int) {
	const httpOnly = true
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge,
		"/", "", h.cookie.Secure, httpOnly)
}

func (h *handlerImpl) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1,
		"/", "", h.cookie.Secure, true)
}
