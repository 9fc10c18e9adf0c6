package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/project-manager/internal/models"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrProjectNotFound    = errors.New("project not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailAlreadyTaken  = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Pool is the subset of *pgxpool.Pool the services depend on.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TaskService interface {
	// CreateTask inserts a task with the New status into a project
	// owned by the given user.
	//
	// It returns ErrProjectNotFound if the project doesn't exist
	// or belongs to someone else.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns ErrTaskNotFound unless the task belongs
	// to a project owned by the given user.
	GetTask(ctx context.Context, params GetTaskParams) (*models.Task, error)

	GetTasksByProjectID(ctx context.Context, params GetTasksByProjectIDParams) ([]*models.Task, error)

	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// UpdateTaskStatus overwrites the status and nothing else.
	//
	// It returns ErrInvalidTaskStatus for unknown statuses.
	UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error)

	// DeleteTask removes the task and returns what was removed.
	DeleteTask(ctx context.Context, params DeleteTaskParams) (*models.Task, error)
}

type ProjectService interface {
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)

	// GetProject returns ErrProjectNotFound if the project
	// doesn't exist or isn't owned by ownerID.
	GetProject(ctx context.Context, id int64, ownerID string) (*models.Project, error)

	GetProjectsByOwnerID(ctx context.Context, ownerID string) ([]*models.Project, error)
}

type UserManager interface {
	// CreateUser hashes the password and inserts the user.
	//
	// It returns ErrUserAlreadyExists if the user name is taken
	// or ErrEmailAlreadyTaken if the email is.
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)

	FindByID(ctx context.Context, userID string) (*models.User, error)

	// FindByName returns ErrUserNotFound if there is no user
	// with the given user name.
	FindByName(ctx context.Context, userName string) (*models.User, error)

	CheckPassword(user *models.User, password string) (bool, error)

	// GenerateEmailConfirmationToken issues a token that confirms the
	// user's email. Issuing a new token invalidates the previous one.
	GenerateEmailConfirmationToken(ctx context.Context, user *models.User) (string, error)

	// ConfirmEmail consumes the token and marks the email confirmed.
	//
	// It returns ErrInvalidToken if the token is unknown, expired
	// or doesn't match.
	ConfirmEmail(ctx context.Context, userID, token string) error
}

type SignInManager interface {
	// SignIn creates a session for an already verified user.
	SignIn(ctx context.Context, user *models.User, params SignInParams) (*SignInResult, error)

	// PasswordSignIn verifies the credentials and signs the user in.
	//
	// It returns ErrInvalidCredentials if the user doesn't exist or
	// the password doesn't match, and ErrEmailNotConfirmed if
	// confirmed emails are required.
	PasswordSignIn(ctx context.Context, params PasswordSignInParams) (*SignInResult, error)

	// Authenticate resolves a session token back to its user.
	//
	// It returns ErrSessionNotFound if the token is invalid or the
	// session is gone, and ErrSessionExpired if it has expired.
	Authenticate(ctx context.Context, params AuthenticateParams) (*Principal, error)

	// SignOut deletes the session.
	SignOut(ctx context.Context, sessionID string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, email, subject, htmlMessage string) error
}

type CreateTaskParams struct {
	UserID      string
	ProjectID   int64
	Title       string
	Description string
	DueDate     time.Time
	Priority    int
}

type GetTaskParams struct {
	ID     int64
	UserID string
}

type GetTasksByProjectIDParams struct {
	ProjectID int64
	UserID    string
}

type UpdateTaskParams struct {
	ID          int64
	UserID      string
	Title       string
	Description string
	DueDate     time.Time
	Priority    int
}

type UpdateTaskStatusParams struct {
	ID     int64
	UserID string
	Status string
}

type DeleteTaskParams struct {
	ID     int64
	UserID string
}

type CreateUserParams struct {
	UserName string
	Email    string
	Password string
}

type SignInParams struct {
	Persistent  bool
	Fingerprint string
}

type PasswordSignInParams struct {
	UserName    string
	Password    string
	Persistent  bool
	Fingerprint string
}

type AuthenticateParams struct {
	Token       string
	Fingerprint string
}

type SignInResult struct {
	UserID     string
	SessionID  string
	Token      string
	Persistent bool
	ExpiresAt  time.Time
}

type Principal struct {
	User      *models.User
	SessionID string
}
