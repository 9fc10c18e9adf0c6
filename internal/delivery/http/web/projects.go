package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/models"
	"github.com/adanyl0v/project-manager/internal/services"
)

type projectCreateViewModel struct {
	Name        string `form:"Name" binding:"required,max=100"`
	Description string `form:"Description" binding:"max=1000"`
}

func (h *handlerImpl) HandleGetProjects(c *gin.Context) {
	projects, err := h.projects.GetProjectsByOwnerID(c, mustUserID(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get projects")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	data := h.newViewData(c, "Projects")
	data.Projects = projects
	render(c, http.StatusOK, "projects/index", data)
}

func (h *handlerImpl) HandleGetProject(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
		return
	}

	project, ok := h.loadProject(c, projectID)
	if !ok {
		return
	}

	tasks, err := h.tasks.GetTasksByProjectID(c, services.GetTasksByProjectIDParams{
		ProjectID: project.ID,
		UserID:    mustUserID(c),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("project_id", project.ID).
			Msg("failed to get project tasks")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	byStatus := make(map[string][]*models.Task, len(models.TaskStatuses))
	for _, task := range tasks {
		byStatus[task.Status] = append(byStatus[task.Status], task)
	}

	data := h.newViewData(c, project.Name)
	data.Project = project
	data.TasksByStatus = byStatus
	render(c, http.StatusOK, "projects/details", data)
}

func (h *handlerImpl) HandleCreateProjectForm(c *gin.Context) {
	data := h.newViewData(c, "New project")
	data.Model = projectCreateViewModel{}
	render(c, http.StatusOK, "projects/create", data)
}

func (h *handlerImpl) HandleCreateProject(c *gin.Context) {
	var model projectCreateViewModel
	err := c.ShouldBind(&model)
	if err != nil {
		data := h.newViewData(c, "New project")
		data.Model = model
		data.ModelState = newModelState(err)
		render(c, http.StatusUnprocessableEntity, "projects/create", data)
		return
	}

	project, err := h.projects.CreateProject(c, &models.Project{
		OwnerID:     mustUserID(c),
		Name:        model.Name,
		Description: model.Description,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create project")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Redirect(http.StatusSeeOther, projectURL(project.ID))
}

func (h *handlerImpl) loadProject(c *gin.Context, projectID int64) (*models.Project, bool) {
	project, err := h.projects.GetProject(c, projectID, mustUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			h.abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return nil, false
		}

		h.logger.Error().
			Err(err).
			Int64("project_id", projectID).
			Msg("failed to get project")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return nil, false
	}
	return project, true
}

func projectURL(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}
