package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPreviewData(t *testing.T) {
	for _, name := range []Template{TemplateMaintenanceReminder, TemplateMachineDown} {
		t.Run(string(name), func(t *testing.T) {
			data, ok := PreviewData[name]
			require.True(t, ok, "no preview data")

			html, err := Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, html, "M1")
		})
	}
}

func TestRenderMachineDown(t *testing.T) {
	html, err := Render(TemplateMachineDown, MachineDown{
		MachineID:   3,
		MachineName: "Secadora <2>",
		Description: "motor quemado",
		Date:        "2026-05-02",
		Cost:        "$80.50",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Secadora &lt;2&gt;")
	assert.Contains(t, html, "$80.50")
	assert.Contains(t, html, "motor quemado")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render(Template("welcome"), nil)
	assert.Error(t, err)
}
