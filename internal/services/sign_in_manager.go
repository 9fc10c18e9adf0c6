package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/models"
)

type SignInManagerConfig struct {
	Issuer                string
	SigningKey            []byte
	SessionTTL            time.Duration
	RememberMeTTL         time.Duration
	RequireConfirmedEmail bool
}

type signInManagerImpl struct {
	logger zerolog.Logger
	pgPool Pool
	users  UserManager
	cfg    SignInManagerConfig
}

func NewSignInManager(
	logger zerolog.Logger,
	pgPool Pool,
	users UserManager,
	cfg SignInManagerConfig,
) SignInManager {
	return &signInManagerImpl{
		logger: logger,
		pgPool: pgPool,
		users:  users,
		cfg:    cfg,
	}
}

func (m *signInManagerImpl) PasswordSignIn(ctx context.Context, params PasswordSignInParams) (*SignInResult, error) {
	user, err := m.users.FindByName(ctx, params.UserName)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := m.users.CheckPassword(user, params.Password)
	if err != nil {
		return nil, err
	} else if !match {
		m.logger.Error().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	if m.cfg.RequireConfirmedEmail && !user.EmailConfirmed {
		m.logger.Error().
			Str("user_id", user.ID).
			Msg("email not confirmed")
		return nil, ErrEmailNotConfirmed
	}

	return m.SignIn(ctx, user, SignInParams{
		Persistent:  params.Persistent,
		Fingerprint: params.Fingerprint,
	})
}

func (m *signInManagerImpl) SignIn(ctx context.Context, user *models.User, params SignInParams) (*SignInResult, error) {
	ttl := m.cfg.SessionTTL
	if params.Persistent {
		ttl = m.cfg.RememberMeTTL
	}

	now := time.Now()
	session := models.Session{
		UserID:      user.ID,
		Fingerprint: params.Fingerprint,
		Persistent:  params.Persistent,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}
	session.ID = sessionUUID.String()

	m.purgeExpiredSessions(ctx, user.ID, now)

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      fingerprint,
                      persistent,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = m.pgPool.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.Fingerprint,
		session.Persistent,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	m.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")

	token, err := m.generateSessionToken(session.ID, session.ExpiresAt)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to generate session token")
		return nil, err
	}

	m.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", session.ID).
		Bool("persistent", session.Persistent).
		Msg("signed in")
	return &SignInResult{
		UserID:     user.ID,
		SessionID:  session.ID,
		Token:      token,
		Persistent: session.Persistent,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

func (m *signInManagerImpl) Authenticate(ctx context.Context, params AuthenticateParams) (*Principal, error) {
	claims, err := m.parseSessionToken(params.Token)
	if err != nil {
		m.logger.Debug().
			Err(err).
			Msg("rejected session token")
		if errors.Is(err, jwt.ErrTokenExpired) {
			if claims != nil && claims.Subject != "" {
				m.deleteExpiredSession(ctx, claims.Subject)
			}
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionNotFound
	}

	session := models.Session{ID: claims.Subject}
	user := new(models.User)

	const selectSessionQuery = `
SELECT s.fingerprint,
       s.expires_at,
       u.id,
       u.user_name,
       u.email,
       u.email_confirmed,
       u.created_at,
       u.updated_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.id = $1
`
	err = m.pgPool.QueryRow(
		ctx,
		selectSessionQuery,
		session.ID,
	).Scan(
		&session.Fingerprint,
		&session.ExpiresAt,
		&user.ID,
		&user.UserName,
		&user.Email,
		&user.EmailConfirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.logger.Warn().
				Str("session_id", session.ID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		m.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to select session")
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		m.logger.Error().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		m.deleteExpiredSession(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	if session.Fingerprint != params.Fingerprint {
		m.logger.Error().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		return nil, ErrSessionNotFound
	}

	m.logger.Debug().
		Str("session_id", session.ID).
		Str("user_id", user.ID).
		Msg("authenticated session")
	return &Principal{
		User:      user,
		SessionID: session.ID,
	}, nil
}

func (m *signInManagerImpl) SignOut(ctx context.Context, sessionID string) error {
	const deleteSessionQuery = `
DELETE FROM sessions
       WHERE id = $1
`
	tag, err := m.pgPool.Exec(
		ctx,
		deleteSessionQuery,
		sessionID,
	)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to delete session")
		return err
	}
	m.logger.Debug().
		Str("session_id", sessionID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted session")

	m.logger.Info().
		Str("session_id", sessionID).
		Msg("signed out")
	return nil
}

// deleteExpiredSession removes a session found past its expiry. Failures
// are only logged: the caller rejects the session either way.
func (m *signInManagerImpl) deleteExpiredSession(ctx context.Context, sessionID string) {
	const deleteExpiredSessionQuery = `
DELETE FROM sessions
       WHERE id = $1 AND expires_at <= $2
`
	tag, err := m.pgPool.Exec(
		ctx,
		deleteExpiredSessionQuery,
		sessionID,
		time.Now(),
	)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to delete expired session")
		return
	}
	m.logger.Debug().
		Str("session_id", sessionID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted expired session")
}

// purgeExpiredSessions drops the user's sessions that are past their
// expiry so abandoned cookies don't pile up rows.
func (m *signInManagerImpl) purgeExpiredSessions(ctx context.Context, userID string, now time.Time) {
	const purgeExpiredSessionsQuery = `
DELETE FROM sessions
       WHERE user_id = $1 AND expires_at <= $2
`
	tag, err := m.pgPool.Exec(
		ctx,
		purgeExpiredSessionsQuery,
		userID,
		now,
	)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to purge expired sessions")
		return
	}
	m.logger.Debug().
		Str("user_id", userID).
		Int64("affected", tag.RowsAffected()).
		Msg("purged expired sessions")
}

func (m *signInManagerImpl) parseSessionToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.cfg.SigningKey, nil
		},
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// The signature has been verified before the expiry check,
			// so the subject can still be trusted.
			var claims *jwt.RegisteredClaims
			if t != nil {
				claims, _ = t.Claims.(*jwt.RegisteredClaims)
			}
			return claims, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, errors.New("failed to parse token: missing subject")
	}
	return claims, nil
}

func (m *signInManagerImpl) generateSessionToken(sessionID string, expiresAt time.Time) (string, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    m.cfg.Issuer,
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(m.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
