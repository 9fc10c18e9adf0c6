package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/models"
)

const (
	emailConfirmationKeyPrefix = "email_confirmation:"

	usersEmailConstraint = "users_email_key"
)

type userManagerImpl struct {
	logger               zerolog.Logger
	pgPool               Pool
	redis                *redis.Client
	emailConfirmationTTL time.Duration
}

func NewUserManager(
	logger zerolog.Logger,
	pgPool Pool,
	redisClient *redis.Client,
	emailConfirmationTTL time.Duration,
) UserManager {
	return &userManagerImpl{
		logger:               logger,
		pgPool:               pgPool,
		redis:                redisClient,
		emailConfirmationTTL: emailConfirmationTTL,
	}
}

func (m *userManagerImpl) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		UserName:  params.UserName,
		Email:     params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	const insertUserQuery = `
INSERT INTO users (id,
                   user_name,
                   email,
                   password,
                   email_confirmed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = m.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.UserName,
		user.Email,
		user.Password,
		user.EmailConfirmed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == usersEmailConstraint {
				m.logger.Error().
					Str("email", user.Email).
					Msg("user with this email already exists")
				return nil, ErrEmailAlreadyTaken
			}

			m.logger.Error().
				Str("user_name", user.UserName).
				Msg("user with this name already exists")
			return nil, ErrUserAlreadyExists
		}

		m.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	m.logger.Info().
		Str("user_id", user.ID).
		Str("user_name", user.UserName).
		Msg("created user")
	return user, nil
}

func (m *userManagerImpl) FindByID(ctx context.Context, userID string) (*models.User, error) {
	const selectUserByIDQuery = `
SELECT id,
       user_name,
       email,
       password,
       email_confirmed,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	return m.selectUser(ctx, selectUserByIDQuery, userID)
}

func (m *userManagerImpl) FindByName(ctx context.Context, userName string) (*models.User, error) {
	const selectUserByNameQuery = `
SELECT id,
       user_name,
       email,
       password,
       email_confirmed,
       created_at,
       updated_at
FROM users
WHERE user_name = $1
`
	return m.selectUser(ctx, selectUserByNameQuery, userName)
}

func (m *userManagerImpl) selectUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := new(models.User)
	err := m.pgPool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.UserName,
		&user.Email,
		&user.Password,
		&user.EmailConfirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.logger.Error().
				Str("lookup", arg).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		m.logger.Error().
			Err(err).
			Msg("failed to select user")
		return nil, err
	}

	m.logger.Debug().
		Str("user_id", user.ID).
		Str("user_name", user.UserName).
		Msg("selected user")
	return user, nil
}

func (m *userManagerImpl) CheckPassword(user *models.User, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to compare password")
		return false, err
	}
	return match, nil
}

func (m *userManagerImpl) GenerateEmailConfirmationToken(ctx context.Context, user *models.User) (string, error) {
	token, err := generateRandomToken()
	if err != nil {
		m.logger.Error().
			Err(err).
			Msg("failed to generate email confirmation token")
		return "", err
	}

	err = m.redis.Set(ctx, emailConfirmationKeyPrefix+user.ID, token, m.emailConfirmationTTL).Err()
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to store email confirmation token")
		return "", err
	}

	m.logger.Debug().
		Str("user_id", user.ID).
		Dur("ttl", m.emailConfirmationTTL).
		Msg("stored email confirmation token")
	return token, nil
}

func (m *userManagerImpl) ConfirmEmail(ctx context.Context, userID, token string) error {
	key := emailConfirmationKeyPrefix + userID
	stored, err := m.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			m.logger.Error().
				Str("user_id", userID).
				Msg("email confirmation token not found")
			return ErrInvalidToken
		}

		m.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to get email confirmation token")
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		m.logger.Error().
			Str("user_id", userID).
			Msg("email confirmation token mismatch")
		return ErrInvalidToken
	}

	const confirmEmailQuery = `
UPDATE users
SET email_confirmed = TRUE,
    updated_at = $1
WHERE id = $2
`
	tag, err := m.pgPool.Exec(
		ctx,
		confirmEmailQuery,
		time.Now(),
		userID,
	)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to confirm email")
		return err
	}
	if tag.RowsAffected() == 0 {
		m.logger.Error().
			Str("user_id", userID).
			Msg("user not found")
		return ErrInvalidToken
	}

	err = m.redis.Del(ctx, key).Err()
	if err != nil {
		// The email is already confirmed, a leftover token only expires later.
		m.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete email confirmation token")
	}

	m.logger.Info().
		Str("user_id", userID).
		Msg("confirmed email")
	return nil
}

func generateRandomToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
