package persona

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDefaultIsVerbatim(t *testing.T) {
	out, err := Render("", TemplateData{Name: Name})
	require.NoError(t, err)
	assert.Equal(t, SystemInstruction, out)
}

func TestRenderTemplate(t *testing.T) {
	data := TemplateData{Name: "Amity", Username: "sam", OS: "linux", Date: "2026-01-02"}
	out, err := Render(`You are {{ .Name | upper }}, talking to {{ .Username }} on {{ .OS }} ({{ .Date }}).`, data)
	require.NoError(t, err)
	assert.Equal(t, "You are AMITY, talking to sam on linux (2026-01-02).", out)
}

func TestRenderInvalidTemplate(t *testing.T) {
	_, err := Render("{{ .Name ", TemplateData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing system instruction template")
}

func TestNewTemplateData(t *testing.T) {
	data := NewTemplateData(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, Name, data.Name)
	assert.Equal(t, "2026-03-04", data.Date)
	assert.NotEmpty(t, data.OS)
}
