package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/models"
	"github.com/adanyl0v/project-manager/internal/services"
)

const (
	testCookieName = "pm_session"
	testPublicURL  = "https://pm.example.com"
)

// fakeStore keeps projects and tasks in memory and enforces ownership
// the same way the SQL queries do.
type fakeStore struct {
	mu            sync.Mutex
	projects      map[int64]*models.Project
	tasks         map[int64]*models.Task
	nextProjectID int64
	nextTaskID    int64
	err           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[int64]*models.Project),
		tasks:    make(map[int64]*models.Task),
	}
}

func (s *fakeStore) ownsProject(projectID int64, userID string) bool {
	p, ok := s.projects[projectID]
	return ok && p.OwnerID == userID
}

func (s *fakeStore) ownedTask(id int64, userID string) (*models.Task, bool) {
	t, ok := s.tasks[id]
	if !ok || !s.ownsProject(t.ProjectID, userID) {
		return nil, false
	}
	return t, true
}

func (s *fakeStore) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if !s.ownsProject(params.ProjectID, params.UserID) {
		return nil, services.ErrProjectNotFound
	}
	s.nextTaskID++
	task := &models.Task{
		ID:          s.nextTaskID,
		ProjectID:   params.ProjectID,
		CreatedBy:   params.UserID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Priority:    params.Priority,
		Status:      models.StatusNew,
	}
	s.tasks[task.ID] = task
	cp := *task
	return &cp, nil
}

func (s *fakeStore) GetTask(_ context.Context, params services.GetTaskParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ownedTask(params.ID, params.UserID)
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) GetTasksByProjectID(_ context.Context, params services.GetTasksByProjectIDParams) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Task
	for id := int64(1); id <= s.nextTaskID; id++ {
		t, ok := s.ownedTask(id, params.UserID)
		if ok && t.ProjectID == params.ProjectID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateTask(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ownedTask(params.ID, params.UserID)
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	t.Title = params.Title
	t.Description = params.Description
	t.DueDate = params.DueDate
	t.Priority = params.Priority
	cp := *t
	return &cp, nil
}

func (s *fakeStore) UpdateTaskStatus(_ context.Context, params services.UpdateTaskStatusParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !models.IsValidTaskStatus(params.Status) {
		return nil, services.ErrInvalidTaskStatus
	}
	t, ok := s.ownedTask(params.ID, params.UserID)
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	t.Status = params.Status
	cp := *t
	return &cp, nil
}

func (s *fakeStore) DeleteTask(_ context.Context, params services.DeleteTaskParams) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ownedTask(params.ID, params.UserID)
	if !ok {
		return nil, services.ErrTaskNotFound
	}
	delete(s.tasks, t.ID)
	return t, nil
}

func (s *fakeStore) CreateProject(_ context.Context, project *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.nextProjectID++
	p := &models.Project{
		ID:          s.nextProjectID,
		OwnerID:     project.OwnerID,
		Name:        project.Name,
		Description: project.Description,
	}
	s.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetProject(_ context.Context, id int64, ownerID string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsProject(id, ownerID) {
		return nil, services.ErrProjectNotFound
	}
	cp := *s.projects[id]
	return &cp, nil
}

func (s *fakeStore) GetProjectsByOwnerID(_ context.Context, ownerID string) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.Project
	for id := int64(1); id <= s.nextProjectID; id++ {
		if p, ok := s.projects[id]; ok && p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeUserManager struct {
	mu        sync.Mutex
	byName    map[string]*models.User
	passwords map[string]string
	tokens    map[string]string
	createErr error
}

func newFakeUserManager() *fakeUserManager {
	return &fakeUserManager{
		byName:    make(map[string]*models.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]string),
	}
}

func (m *fakeUserManager) CreateUser(_ context.Context, params services.CreateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byName[params.UserName]; ok {
		return nil, services.ErrUserAlreadyExists
	}
	for _, u := range m.byName {
		if u.Email == params.Email {
			return nil, services.ErrEmailAlreadyTaken
		}
	}
	user := &models.User{
		ID:       fmt.Sprintf("user-%d", len(m.byName)+1),
		UserName: params.UserName,
		Email:    params.Email,
		Password: "hashed:" + params.Password,
	}
	m.byName[user.UserName] = user
	m.passwords[user.ID] = params.Password
	return user, nil
}

func (m *fakeUserManager) FindByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (m *fakeUserManager) FindByName(_ context.Context, userName string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byName[userName]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}

func (m *fakeUserManager) CheckPassword(user *models.User, password string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.passwords[user.ID] == password, nil
}

func (m *fakeUserManager) GenerateEmailConfirmationToken(_ context.Context, user *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "confirmation_token"
	m.tokens[user.ID] = token
	return token, nil
}

func (m *fakeUserManager) ConfirmEmail(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.tokens[userID]; !ok || stored != token {
		return services.ErrInvalidToken
	}
	delete(m.tokens, userID)
	for _, u := range m.byName {
		if u.ID == userID {
			u.EmailConfirmed = true
		}
	}
	return nil
}

type fakeSignInManager struct {
	mu        sync.Mutex
	authErr   error
	users     *fakeUserManager
	sessions  map[string]*services.Principal
	signIns   []services.SignInResult
	signedOut []string
}

func newFakeSignInManager(users *fakeUserManager) *fakeSignInManager {
	return &fakeSignInManager{
		users:    users,
		sessions: make(map[string]*services.Principal),
	}
}

func (m *fakeSignInManager) SignIn(_ context.Context, user *models.User, params services.SignInParams) (*services.SignInResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl := time.Hour
	if params.Persistent {
		ttl = 14 * 24 * time.Hour
	}
	sessionID := fmt.Sprintf("session-%d", len(m.signIns)+1)
	result := services.SignInResult{
		UserID:     user.ID,
		SessionID:  sessionID,
		Token:      "token-" + sessionID,
		Persistent: params.Persistent,
		ExpiresAt:  time.Now().Add(ttl),
	}
	m.signIns = append(m.signIns, result)
	m.sessions[result.Token] = &services.Principal{User: user, SessionID: sessionID}
	return &result, nil
}

func (m *fakeSignInManager) PasswordSignIn(ctx context.Context, params services.PasswordSignInParams) (*services.SignInResult, error) {
	user, err := m.users.FindByName(ctx, params.UserName)
	if err != nil {
		return nil, services.ErrInvalidCredentials
	}
	match, _ := m.users.CheckPassword(user, params.Password)
	if !match {
		return nil, services.ErrInvalidCredentials
	}
	return m.SignIn(ctx, user, services.SignInParams{
		Persistent:  params.Persistent,
		Fingerprint: params.Fingerprint,
	})
}

func (m *fakeSignInManager) Authenticate(_ context.Context, params services.AuthenticateParams) (*services.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authErr != nil {
		return nil, m.authErr
	}
	p, ok := m.sessions[params.Token]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return p, nil
}

func (m *fakeSignInManager) SignOut(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signedOut = append(m.signedOut, sessionID)
	for token, p := range m.sessions {
		if p.SessionID == sessionID {
			delete(m.sessions, token)
		}
	}
	return nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *fakeEmailSender) SendEmail(_ context.Context, email, subject, htmlMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{To: email, Subject: subject, Body: htmlMessage})
	return nil
}

type testEnv struct {
	logs   *bytes.Buffer
	router *gin.Engine
	store  *fakeStore
	users  *fakeUserManager
	signIn *fakeSignInManager
	emails *fakeEmailSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		logs:   &bytes.Buffer{},
		store:  newFakeStore(),
		users:  newFakeUserManager(),
		emails: &fakeEmailSender{},
	}
	env.signIn = newFakeSignInManager(env.users)

	env.router = gin.New()
	RegisterRoutes(env.router, New(
		zerolog.New(env.logs).Level(zerolog.DebugLevel),
		env.store,
		env.store,
		env.users,
		env.signIn,
		env.emails,
		testPublicURL,
		CookieConfig{Name: testCookieName},
	))
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signInAs registers a user and returns a cookie for a live session.
func (e *testEnv) signInAs(t *testing.T, userName string) (*models.User, *http.Cookie) {
	t.Helper()
	ctx := context.Background()
	user, err := e.users.CreateUser(ctx, services.CreateUserParams{
		UserName: userName,
		Email:    userName + "@example.com",
		Password: "Password123!",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	result, err := e.signIn.SignIn(ctx, user, services.SignInParams{})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return user, &http.Cookie{Name: testCookieName, Value: result.Token}
}

func newGet(path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func newPostForm(path string, form url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// logLine returns the first JSON log entry with the given message.
func logLine(t *testing.T, env *testEnv, message string) map[string]any {
	t.Helper()
	for _, raw := range strings.Split(strings.TrimSpace(env.logs.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry["message"] == message {
			return entry
		}
	}
	t.Fatalf("no log entry with message %q", message)
	return nil
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
