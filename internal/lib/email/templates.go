package email

import (
	"embed"
	"html/template"
)

// Template names an HTML body under templates/.
type Template string

const (
	// TemplateMaintenanceReminder corresponds to templates/maintenance_reminder.html
	TemplateMaintenanceReminder Template = "maintenance_reminder"

	// TemplateMachineDown corresponds to templates/machine_down.html
	TemplateMachineDown Template = "machine_down"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func (t Template) file() string {
	return string(t) + ".html"
}
