package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerForm(userName, email, password, confirm string) url.Values {
	return url.Values{
		"UserName":        {userName},
		"Email":           {email},
		"Password":        {password},
		"ConfirmPassword": {confirm},
	}
}

func TestRegisterValidModelRedirectsToHome(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(newPostForm("/account/register",
		registerForm("testuser", "testuser@example.com", "Password123!", "Password123!"), nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	user, err := env.users.FindByName(t.Context(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, "testuser@example.com", user.Email)
	assert.Equal(t, "confirmation_token", env.users.tokens[user.ID])

	require.Len(t, env.emails.sent, 1)
	email := env.emails.sent[0]
	assert.Equal(t, "testuser@example.com", email.To)
	assert.Equal(t, "Confirm your email", email.Subject)
	assert.Contains(t, email.Body, testPublicURL+"/account/confirm-email?")
	assert.Contains(t, email.Body, "code=confirmation_token")
	assert.Contains(t, email.Body, "userId="+user.ID)

	require.Len(t, env.signIn.signIns, 1)
	assert.False(t, env.signIn.signIns[0].Persistent)
	assert.Equal(t, user.ID, env.signIn.signIns[0].UserID)

	cookie := findCookie(rec, testCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, env.signIn.signIns[0].Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Zero(t, cookie.MaxAge)
}

func TestRegisterConfirmationLinkIgnoresRequestHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := newPostForm("/account/register",
		registerForm("testuser", "testuser@example.com", "Password123!", "Password123!"), nil)
	req.Host = "attacker.example"
	req.Header.Set("X-Forwarded-Proto", "javascript")
	req.Header.Set("X-Forwarded-Host", "attacker.example")

	rec := env.do(req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, env.emails.sent, 1)
	body := env.emails.sent[0].Body
	assert.Contains(t, body, `href="`+testPublicURL+"/account/confirm-email?")
	assert.NotContains(t, body, "attacker.example")
	assert.NotContains(t, body, "javascript")
}

func TestRegisterInvalidModelReturnsViewWithErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(newPostForm("/account/register",
		registerForm("testuser", "invalid-email", "123", "456"), nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid email format")
	assert.Contains(t, body, "The Password must be at least 6 characters long.")
	assert.Contains(t, body, "The password and confirmation password do not match.")
	assert.Equal(t, 3, strings.Count(body, `class="field-error"`))
	assert.Contains(t, body, `value="testuser"`)

	_, err := env.users.FindByName(t.Context(), "testuser")
	assert.Error(t, err)
	assert.Empty(t, env.emails.sent)
	assert.Empty(t, env.signIn.signIns)
	assert.Nil(t, findCookie(rec, testCookieName))
}

func TestRegisterDuplicateUserName(t *testing.T) {
	env := newTestEnv(t)
	env.signInAs(t, "testuser")

	rec := env.do(newPostForm("/account/register",
		registerForm("testuser", "other@example.com", "Password123!", "Password123!"), nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "is already taken.")
	assert.Empty(t, env.emails.sent)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signInAs(t, "testuser")

	rec := env.do(newPostForm("/account/register",
		registerForm("another", "testuser@example.com", "Password123!", "Password123!"), nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "testuser@example.com")
	assert.Contains(t, rec.Body.String(), "is already taken.")
}

func TestRegisterEmailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.emails.err = errors.New("smtp unavailable")

	rec := env.do(newPostForm("/account/register",
		registerForm("testuser", "testuser@example.com", "Password123!", "Password123!"), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, env.signIn.signIns)
}

func TestLoginValidModelRedirectsToHome(t *testing.T) {
	env := newTestEnv(t)
	env.signInAs(t, "testuser")

	rec := env.do(newPostForm("/account/login", url.Values{
		"UserName":   {"testuser"},
		"Password":   {"Password123!"},
		"RememberMe": {"true"},
	}, nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookie := findCookie(rec, testCookieName)
	require.NotNil(t, cookie)
	assert.Positive(t, cookie.MaxAge)
}

func TestLoginReturnURL(t *testing.T) {
	tests := []struct {
		name      string
		returnURL string
		expected  string
	}{
		{name: "local path", returnURL: "/projects/1", expected: "/projects/1"},
		{name: "protocol relative", returnURL: "//evil.example", expected: "/"},
		{name: "absolute", returnURL: "https://evil.example/", expected: "/"},
		{name: "backslash", returnURL: "/\\evil.example", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.signInAs(t, "testuser")

			rec := env.do(newPostForm("/account/login?returnUrl="+url.QueryEscape(tt.returnURL), url.Values{
				"UserName": {"testuser"},
				"Password": {"Password123!"},
			}, nil))

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.expected, rec.Header().Get("Location"))
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signInAs(t, "testuser")

	rec := env.do(newPostForm("/account/login", url.Values{
		"UserName": {"testuser"},
		"Password": {"wrong"},
	}, nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), invalidLoginMessage)
	assert.Nil(t, findCookie(rec, testCookieName))
}

func TestLogoutRedirectsToHome(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.signInAs(t, "testuser")

	rec := env.do(newPostForm("/account/logout", url.Values{}, cookie))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, []string{"session-1"}, env.signIn.signedOut)

	cleared := findCookie(rec, testCookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	rec = env.do(newGet("/projects", cookie))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestLogoutAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(newPostForm("/account/logout", url.Values{}, nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, env.signIn.signedOut)
}

func TestConfirmEmail(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.signInAs(t, "testuser")
	token, err := env.users.GenerateEmailConfirmationToken(t.Context(), user)
	require.NoError(t, err)

	path := "/account/confirm-email?" + url.Values{"userId": {user.ID}, "code": {token}}.Encode()

	rec := env.do(newGet(path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Thank you for confirming your email.")
	assert.True(t, user.EmailConfirmed)

	rec = env.do(newGet(path, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmEmailIncompleteLink(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(newGet("/account/confirm-email?userId=user-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "The confirmation link is incomplete.")
}

func TestAuthenticateFailureRendersErrorPage(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.signInAs(t, "testuser")
	env.signIn.authErr = errors.New("connection refused")

	rec := env.do(newGet("/projects", cookie))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), http.StatusText(http.StatusInternalServerError))
	assert.Contains(t, env.logs.String(), "failed to authenticate session")
}

func TestStaleSessionCookieIsCleared(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(newGet("/", &http.Cookie{Name: testCookieName, Value: "unknown"}))

	require.Equal(t, http.StatusOK, rec.Code)
	cleared := findCookie(rec, testCookieName)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}
