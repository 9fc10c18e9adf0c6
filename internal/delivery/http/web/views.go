package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

const dateLayout = "2006-01-02"

func loadTemplates() *template.Template {
	return template.Must(template.New("").
		Funcs(template.FuncMap{
			"date": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format(dateLayout)
			},
			"statuses": func() []string {
				return models.TaskStatuses
			},
		}).
		ParseFS(templatesFS, "templates/*.html"))
}

// viewData is passed to every template. Pages only fill what they render.
type viewData struct {
	Title      string
	User       *models.User
	ModelState ModelState
	Model      any
	ReturnURL  string
	Message    string

	Project       *models.Project
	Projects      []*models.Project
	Task          *models.Task
	TasksByStatus map[string][]*models.Task
}

func (h *handlerImpl) newViewData(c *gin.Context, title string) *viewData {
	data := &viewData{
		Title:      title,
		ModelState: ModelState{},
	}
	if principal, ok := currentPrincipal(c); ok {
		data.User = principal.User
	}
	return data
}

func render(c *gin.Context, status int, name string, data *viewData) {
	c.HTML(status, name, data)
}
