package web

import "github.com/gin-gonic/gin"

// RegisterRoutes installs the templates, middleware and routes on router.
func RegisterRoutes(router *gin.Engine, h Handler) {
	router.SetHTMLTemplate(loadTemplates())
	router.Use(h.HandleRequestLogger)

	router.GET("/healthz", h.HandleHealth)

	pages := router.Group("/", h.HandleAuthMiddleware)
	pages.GET("/", h.HandleHome)

	account := pages.Group("/account")
	account.GET("/register", h.HandleRegisterForm)
	account.POST("/register", h.HandleRegister)
	account.GET("/login", h.HandleLoginForm)
	account.POST("/login", h.HandleLogin)
	account.POST("/logout", h.HandleLogout)
	account.GET("/confirm-email", h.HandleConfirmEmail)

	authorized := pages.Group("/", h.HandleRequireUser)

	projects := authorized.Group("/projects")
	projects.GET("", h.HandleGetProjects)
	projects.GET("/create", h.HandleCreateProjectForm)
	projects.POST("/create", h.HandleCreateProject)
	projects.GET("/:id", h.HandleGetProject)

	tasks := authorized.Group("/tasks")
	tasks.GET("/create", h.HandleCreateTaskForm)
	tasks.POST("/create", h.HandleCreateTask)
	tasks.GET("/:id", h.HandleGetTask)
	tasks.GET("/:id/edit", h.HandleEditTaskForm)
	tasks.POST("/:id/edit", h.HandleEditTask)
	tasks.POST("/:id/status", h.HandleChangeTaskStatus)
	tasks.GET("/:id/delete", h.HandleDeleteTaskForm)
	tasks.POST("/:id/delete", h.HandleDeleteTaskConfirmed)
}
