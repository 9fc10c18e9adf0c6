package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleHome(c *gin.Context) {
	data := h.newViewData(c, "Home")
	if data.User != nil {
		projects, err := h.projects.GetProjectsByOwnerID(c, data.User.ID)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to get projects")
			h.abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
		data.Projects = projects
	}
	render(c, http.StatusOK, "home/index", data)
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
