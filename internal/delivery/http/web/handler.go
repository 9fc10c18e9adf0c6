package web

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/project-manager/internal/services"
)

type Handler interface {
	HandleHome(c *gin.Context)
	HandleHealth(c *gin.Context)

	HandleRegisterForm(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLoginForm(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleConfirmEmail(c *gin.Context)

	HandleAuthMiddleware(c *gin.Context)
	HandleRequireUser(c *gin.Context)
	HandleRequestLogger(c *gin.Context)

	HandleGetProjects(c *gin.Context)
	HandleGetProject(c *gin.Context)
	HandleCreateProjectForm(c *gin.Context)
	HandleCreateProject(c *gin.Context)

	HandleCreateTaskForm(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleEditTaskForm(c *gin.Context)
	HandleEditTask(c *gin.Context)
	HandleChangeTaskStatus(c *gin.Context)
	HandleDeleteTaskForm(c *gin.Context)
	HandleDeleteTaskConfirmed(c *gin.Context)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type handlerImpl struct {
	logger    zerolog.Logger
	tasks     services.TaskService
	projects  services.ProjectService
	users     services.UserManager
	signIn    services.SignInManager
	emails    services.EmailSender
	publicURL string
	cookie    CookieConfig
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	projectService services.ProjectService,
	userManager services.UserManager,
	signInManager services.SignInManager,
	emailSender services.EmailSender,
	publicURL string,
	cookie CookieConfig,
) Handler {
	return &handlerImpl{
		logger:    logger,
		tasks:     taskService,
		projects:  projectService,
		users:     userManager,
		signIn:    signInManager,
		emails:    emailSender,
		publicURL: publicURL,
		cookie:    cookie,
	}
}
