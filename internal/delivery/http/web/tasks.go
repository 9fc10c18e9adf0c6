package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/models"
	"github.com/adanyl0v/project-manager/internal/services"
)

type taskCreateViewModel struct {
	ProjectID   int64     `form:"ProjectId" binding:"required,gt=0"`
	Title       string    `form:"Title" binding:"required,max=200"`
	Description string    `form:"Description" binding:"max=2000"`
	DueDate     time.Time `form:"DueDate" time_format:"2006-01-02"`
	Priority    int       `form:"Priority" binding:"min=1,max=10"`
}

type taskEditViewModel struct {
	Title       string    `form:"Title" binding:"required,max=200"`
	Description string    `form:"Description" binding:"max=2000"`
	DueDate     time.Time `form:"DueDate" time_format:"2006-01-02"`
	Priority    int       `form:"Priority" binding:"min=1,max=10"`
}

type changeStatusForm struct {
	Status string `form:"Status" binding:"required"`
}

// validateDueDate covers what the binding tags can't: a zero time
// means the field was left empty.
func validateDueDate(ms ModelState, dueDate time.Time) {
	if dueDate.IsZero() {
		ms.AddModelError("DueDate", "The DueDate field is required.")
	}
}

func (h *handlerImpl) HandleCreateTaskForm(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Query("projectId"), 10, 64)
	if err != nil {
		h.abort(c, newBadRequestError("A project is required to create a task."))
		return
	}

	project, ok := h.loadProject(c, projectID)
	if !ok {
		return
	}

	data := h.newViewData(c, "New task in "+project.Name)
	data.Project = project
	data.Model = taskCreateViewModel{
		ProjectID: project.ID,
		DueDate:   time.Now().AddDate(0, 0, 7),
		Priority:  1,
	}
	render(c, http.StatusOK, "tasks/create", data)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID := mustUserID(c)

	var model taskCreateViewModel
	ms := newModelState(c.ShouldBind(&model))
	validateDueDate(ms, model.DueDate)
	if !ms.IsValid() {
		h.logger.Debug().
			Strs("fields", ms.Keys()).
			Msg("invalid task form")
		data := h.newViewData(c, "New task")
		data.Model = model
		data.ModelState = ms
		render(c, http.StatusUnprocessableEntity, "tasks/create", data)
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID:      userID,
		ProjectID:   model.ProjectID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		Priority:    model.Priority,
	})
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			h.abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Redirect(http.StatusSeeOther, projectURL(task.ProjectID))
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	data := h.newViewData(c, task.Title)
	data.Task = task
	render(c, http.StatusOK, "tasks/details", data)
}

func (h *handlerImpl) HandleEditTaskForm(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	data := h.newViewData(c, "Edit "+task.Title)
	data.Task = task
	data.Model = taskEditViewModel{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
	}
	render(c, http.StatusOK, "tasks/edit", data)
}

func (h *handlerImpl) HandleEditTask(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	var model taskEditViewModel
	ms := newModelState(c.ShouldBind(&model))
	validateDueDate(ms, model.DueDate)
	if !ms.IsValid() {
		data := h.newViewData(c, "Edit "+task.Title)
		data.Task = task
		data.Model = model
		data.ModelState = ms
		render(c, http.StatusUnprocessableEntity, "tasks/edit", data)
		return
	}

	updated, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          task.ID,
		UserID:      mustUserID(c),
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		Priority:    model.Priority,
	})
	if err != nil {
		h.handleTaskError(c, err, "failed to update task")
		return
	}

	c.Redirect(http.StatusSeeOther, taskURL(updated.ID))
}

func (h *handlerImpl) HandleChangeTaskStatus(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}

	var form changeStatusForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("no status provided")
		h.abort(c, newBadRequestError("A status is required."))
		return
	}

	task, err := h.tasks.UpdateTaskStatus(c, services.UpdateTaskStatusParams{
		ID:     taskID,
		UserID: mustUserID(c),
		Status: form.Status,
	})
	if err != nil {
		h.handleTaskError(c, err, "failed to update task status")
		return
	}

	c.Redirect(http.StatusSeeOther, projectURL(task.ProjectID))
}

func (h *handlerImpl) HandleDeleteTaskForm(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	data := h.newViewData(c, "Delete "+task.Title)
	data.Task = task
	render(c, http.StatusOK, "tasks/delete", data)
}

func (h *handlerImpl) HandleDeleteTaskConfirmed(c *gin.Context) {
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.DeleteTask(c, services.DeleteTaskParams{
		ID:     taskID,
		UserID: mustUserID(c),
	})
	if err != nil {
		h.handleTaskError(c, err, "failed to delete task")
		return
	}

	c.Redirect(http.StatusSeeOther, projectURL(task.ProjectID))
}

func (h *handlerImpl) taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return 0, false
	}
	return id, true
}

func (h *handlerImpl) loadTask(c *gin.Context) (*models.Task, bool) {
	taskID, ok := h.taskID(c)
	if !ok {
		return nil, false
	}

	task, err := h.tasks.GetTask(c, services.GetTaskParams{
		ID:     taskID,
		UserID: mustUserID(c),
	})
	if err != nil {
		h.handleTaskError(c, err, "failed to get task")
		return nil, false
	}
	return task, true
}

func (h *handlerImpl) handleTaskError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		h.abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrInvalidTaskStatus):
		h.abort(c, newBadRequestError(services.ErrInvalidTaskStatus.Error()))
	default:
		h.logger.Error().
			Err(err).
			Msg(msg)
		h.abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

func taskURL(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
